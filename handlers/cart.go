package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"patisserie-backend/config"
	"patisserie-backend/models"
	"patisserie-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const cartMaxRetries = 3

var cartBackoff = utils.LinearJitterBackoff(25 * time.Millisecond)

var (
	errProductNotFound   = errors.New("product not found")
	errProductInactive   = errors.New("product is currently unavailable")
	errInvalidVariant    = errors.New("invalid variant selection")
	errInsufficientStock = errors.New("insufficient stock")
	errItemNotFound      = errors.New("item not in cart")
)

// CartHandler owns the per-user cart documents. Every mutation runs as
// a read-modify-write guarded by the cart's optimistic version; writers
// that lose the race re-read fresh state and retry with jittered
// backoff instead of overwriting each other.
type CartHandler struct {
	DB *gorm.DB
}

func (h *CartHandler) GetCart(c *gin.Context) {
	canonical, ok := canonicalCartKey(c)
	if !ok {
		return
	}
	c.Header("Cache-Control", "no-store")

	ttl := requestExpiry(c)
	now := time.Now()

	cart, err := h.resolveCart(canonical, h.legacyCartKeys(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}

	var removed []models.CartItem
	if cart != nil {
		cart, removed, err = h.purgeExpired(cart.ID, ttl, now)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
	}

	if cart != nil {
		h.refreshDisplayFields(cart)
	}

	c.JSON(http.StatusOK, cartResponse(canonical, cart, removed, ttl))
}

func (h *CartHandler) AddToCart(c *gin.Context) {
	canonical, ok := canonicalCartKey(c)
	if !ok {
		return
	}

	var req struct {
		ProductID    string `json:"product_id" binding:"required"`
		Quantity     int    `json:"quantity" binding:"required,min=1"`
		VariantIndex int    `json:"variant_index"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product_id"})
		return
	}

	var product models.Product
	if err := h.DB.Where("id = ?", productID).First(&product).Error; err != nil {
		respondCartError(c, errProductNotFound)
		return
	}
	if !product.IsActive {
		respondCartError(c, errProductInactive)
		return
	}
	variant, valid := product.VariantAt(req.VariantIndex)
	if !valid {
		respondCartError(c, errInvalidVariant)
		return
	}

	ttl := requestExpiry(c)
	now := time.Now()
	cutoff := now.Add(-ttl)

	var result *models.Cart
	err = utils.WithRetry(func() error {
		cart, err := h.cartByKey(canonical)
		if err != nil {
			return err
		}
		if cart == nil {
			cart = &models.Cart{UserKey: canonical}
		}
		cart.PurgeExpired(cutoff)

		// Stock is validated here but only decremented at order
		// completion, so abandoned carts never hold stock hostage.
		if variant.IsStockActive && cart.QuantityOf(productID)+req.Quantity > variant.Stock {
			return errInsufficientStock
		}

		if i := cart.ItemIndex(productID); i >= 0 {
			cart.Items[i].Quantity += req.Quantity
		} else {
			cart.Items = append(cart.Items, models.CartItem{
				ProductID: productID,
				Quantity:  req.Quantity,
				ProductDetails: models.ProductDetails{
					Name:          product.Name,
					Price:         variant.Price, // pinned at add time
					Image:         product.PrimaryImage(),
					VariantIndex:  req.VariantIndex,
					Quantity:      variant.Quantity,
					MeasuringUnit: variant.MeasuringUnit,
				},
				AddedAt: now,
			})
		}

		if cart.ID == uuid.Nil {
			if err := h.DB.Create(cart).Error; err != nil {
				if isDuplicateKey(err) {
					// Another request created the cart first; retry
					// against the committed document.
					return utils.ErrVersionConflict
				}
				return err
			}
			result = cart
			return nil
		}

		if err := h.commitCart(cart, now); err != nil {
			return err
		}
		result = cart
		return nil
	}, cartMaxRetries, cartBackoff)
	if err != nil {
		respondCartError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, cartResponse(canonical, result, nil, ttl))
}

func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	canonical, ok := canonicalCartKey(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var req struct {
		Quantity *int `json:"quantity" binding:"required,min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	// Zero quantity is a removal, not a quantity write.
	if *req.Quantity == 0 {
		h.removeItem(c, canonical, productID)
		return
	}
	quantity := *req.Quantity

	// Best-effort product lookup for stock re-validation; a vanished
	// product does not block quantity edits on an existing line.
	var product *models.Product
	var p models.Product
	if err := h.DB.Where("id = ?", productID).First(&p).Error; err == nil {
		product = &p
	}

	ttl := requestExpiry(c)
	now := time.Now()
	cutoff := now.Add(-ttl)

	var result *models.Cart
	err = utils.WithRetry(func() error {
		cart, err := h.cartByKey(canonical)
		if err != nil {
			return err
		}
		if cart == nil {
			return errItemNotFound
		}
		expired := cart.PurgeExpired(cutoff)

		i := cart.ItemIndex(productID)
		if i < 0 {
			// Persist the purge even though the edit target is gone.
			if len(expired) > 0 {
				if err := h.persistPurged(cart, now); err != nil {
					return err
				}
			}
			return errItemNotFound
		}

		item := &cart.Items[i]
		if product != nil && quantity > item.Quantity {
			if variant, valid := product.VariantAt(item.ProductDetails.VariantIndex); valid && variant.IsStockActive && quantity > variant.Stock {
				return errInsufficientStock
			}
		}
		item.Quantity = quantity

		if err := h.commitCart(cart, now); err != nil {
			return err
		}
		result = cart
		return nil
	}, cartMaxRetries, cartBackoff)
	if err != nil {
		respondCartError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, cartResponse(canonical, result, nil, ttl))
}

func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	canonical, ok := canonicalCartKey(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}
	h.removeItem(c, canonical, productID)
}

// removeItem deletes one line from the cart and deletes the whole
// document when that leaves it empty. No stock is restored, symmetric
// with the no-decrement-on-add policy.
func (h *CartHandler) removeItem(c *gin.Context, canonical string, productID uuid.UUID) {
	ttl := requestExpiry(c)
	now := time.Now()
	cutoff := now.Add(-ttl)

	var result *models.Cart
	err := utils.WithRetry(func() error {
		result = nil
		cart, err := h.cartByKey(canonical)
		if err != nil {
			return err
		}
		if cart == nil {
			return errItemNotFound
		}
		expired := cart.PurgeExpired(cutoff)
		found := cart.RemoveItem(productID)

		if found || len(expired) > 0 {
			if err := h.persistPurged(cart, now); err != nil {
				return err
			}
		}
		if !found {
			return errItemNotFound
		}
		if len(cart.Items) > 0 {
			result = cart
		}
		return nil
	}, cartMaxRetries, cartBackoff)
	if err != nil {
		respondCartError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, cartResponse(canonical, result, nil, ttl))
}

func (h *CartHandler) ClearCart(c *gin.Context) {
	canonical, ok := canonicalCartKey(c)
	if !ok {
		return
	}

	err := utils.WithRetry(func() error {
		cart, err := h.cartByKey(canonical)
		if err != nil {
			return err
		}
		if cart == nil {
			return nil // absence of a cart is a normal state
		}
		cart.Items = nil
		return h.deleteCart(cart)
	}, cartMaxRetries, cartBackoff)
	if err != nil {
		respondCartError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// --- document operations ---

func (h *CartHandler) cartByKey(key string) (*models.Cart, error) {
	var cart models.Cart
	err := h.DB.Where("user_key = ?", key).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// commitCart saves the document guarded by its optimistic version.
// A write that matches no row means a concurrent writer got there
// first; the caller re-reads and retries.
func (h *CartHandler) commitCart(cart *models.Cart, now time.Time) error {
	res := h.DB.Model(&models.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Updates(map[string]any{
			"items":        cart.Items,
			"version":      cart.Version + 1,
			"last_updated": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrVersionConflict
	}
	cart.Version++
	cart.LastUpdated = now
	return nil
}

// deleteCart removes the document, still guarded by the version so a
// concurrent add is not silently discarded.
func (h *CartHandler) deleteCart(cart *models.Cart) error {
	res := h.DB.Where("id = ? AND version = ?", cart.ID, cart.Version).Delete(&models.Cart{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrVersionConflict
	}
	return nil
}

// persistPurged writes the in-memory item list back, deleting the
// document when it is empty (an empty cart must never persist).
func (h *CartHandler) persistPurged(cart *models.Cart, now time.Time) error {
	if len(cart.Items) == 0 {
		return h.deleteCart(cart)
	}
	return h.commitCart(cart, now)
}

// purgeExpired atomically drops items older than ttl from the stored
// document. Running it twice with the same cutoff is a no-op the second
// time. Returns the fresh cart (nil when the purge emptied and deleted
// it) plus the removed items for client notification.
func (h *CartHandler) purgeExpired(cartID uuid.UUID, ttl time.Duration, now time.Time) (*models.Cart, []models.CartItem, error) {
	var (
		fresh   *models.Cart
		removed []models.CartItem
	)
	err := utils.WithRetry(func() error {
		fresh, removed = nil, nil
		var cart models.Cart
		if err := h.DB.Where("id = ?", cartID).First(&cart).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		removed = cart.PurgeExpired(now.Add(-ttl))
		if len(removed) == 0 {
			fresh = &cart
			return nil
		}
		if err := h.persistPurged(&cart, now); err != nil {
			return err
		}
		if len(cart.Items) > 0 {
			fresh = &cart
		}
		return nil
	}, cartMaxRetries, cartBackoff)
	return fresh, removed, err
}

// resolveCart finds the cart for the canonical key, falling back to
// legacy keys in priority order. A legacy hit is renamed to the
// canonical key; when a canonical document exists by the time the
// rename commits, the canonical one wins if it has items, otherwise the
// legacy items are merged in. The legacy document is deleted either
// way, restoring the one-cart-per-user invariant.
func (h *CartHandler) resolveCart(canonical string, legacy []string) (*models.Cart, error) {
	cart, err := h.cartByKey(canonical)
	if err != nil || cart != nil {
		return cart, err
	}

	for _, key := range legacy {
		if key == "" || key == canonical {
			continue
		}
		old, err := h.cartByKey(key)
		if err != nil {
			return nil, err
		}
		if old == nil {
			continue
		}
		migrated, err := h.migrateCart(old, canonical)
		if err != nil {
			return nil, err
		}
		if migrated != nil {
			return migrated, nil
		}
	}
	return nil, nil
}

func (h *CartHandler) migrateCart(old *models.Cart, canonical string) (*models.Cart, error) {
	res := h.DB.Model(&models.Cart{}).
		Where("id = ? AND version = ?", old.ID, old.Version).
		Updates(map[string]any{"user_key": canonical, "version": old.Version + 1})
	if res.Error == nil && res.RowsAffected > 0 {
		old.UserKey = canonical
		old.Version++
		return old, nil
	}
	if res.Error != nil && !isDuplicateKey(res.Error) {
		return nil, res.Error
	}

	// The rename lost: a canonical document appeared (duplicate key) or
	// the legacy document changed underneath us. Repair from fresh state.
	canonicalCart, err := h.cartByKey(canonical)
	if err != nil {
		return nil, err
	}
	if canonicalCart == nil {
		return nil, nil
	}
	if len(canonicalCart.Items) == 0 && len(old.Items) > 0 {
		canonicalCart.Items = append(canonicalCart.Items, old.Items...)
		if err := h.commitCart(canonicalCart, time.Now()); err != nil && !errors.Is(err, utils.ErrVersionConflict) {
			return nil, err
		}
	}
	// Canonical wins; the legacy duplicate is discarded, not merged over.
	if err := h.DB.Where("id = ?", old.ID).Delete(&models.Cart{}).Error; err != nil {
		return nil, err
	}
	return canonicalCart, nil
}

// refreshDisplayFields overlays current product name, image and variant
// metadata onto the in-memory items for the response. The pinned unit
// price is deliberately left untouched and nothing is written back; a
// missing or inactive product flags the line unavailable instead of
// failing the read.
func (h *CartHandler) refreshDisplayFields(cart *models.Cart) {
	if len(cart.Items) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	var products []models.Product
	if err := h.DB.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return // refresh is best-effort
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for i := range cart.Items {
		p, ok := byID[cart.Items[i].ProductID]
		if !ok || !p.IsActive {
			cart.Items[i].Unavailable = true
			continue
		}
		cart.Items[i].ProductDetails.Name = p.Name
		cart.Items[i].ProductDetails.Image = p.PrimaryImage()
		if v, valid := p.VariantAt(cart.Items[i].ProductDetails.VariantIndex); valid {
			cart.Items[i].ProductDetails.Quantity = v.Quantity
			cart.Items[i].ProductDetails.MeasuringUnit = v.MeasuringUnit
		}
	}
}

// --- request plumbing ---

func canonicalCartKey(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	uid, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return uid.String(), true
}

// legacyCartKeys lists older identifiers this user's cart may still be
// keyed by, in migration priority order: email first, then the
// secondary id recorded on the account.
func (h *CartHandler) legacyCartKeys(c *gin.Context) []string {
	var keys []string
	if email, ok := c.Get("user_email"); ok {
		if s, _ := email.(string); s != "" {
			keys = append(keys, s)
		}
	}
	if userID, ok := c.Get("user_id"); ok {
		if uid, ok := userID.(uuid.UUID); ok {
			var user models.User
			if err := h.DB.Select("legacy_cart_key").Where("id = ?", uid).First(&user).Error; err == nil && user.LegacyCartKey != "" {
				keys = append(keys, user.LegacyCartKey)
			}
		}
	}
	return keys
}

// requestExpiry resolves the effective item TTL, honoring the test-only
// per-request override outside production.
func requestExpiry(c *gin.Context) time.Duration {
	ttl := config.CartItemExpiry()
	if config.IsProduction() {
		return ttl
	}
	if raw := c.Query("expiry_test_minutes"); raw != "" {
		if mins, err := strconv.Atoi(raw); err == nil && mins > 0 {
			return time.Duration(mins) * time.Minute
		}
	}
	if raw := c.Query("expiry_test_hours"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			return time.Duration(hours) * time.Hour
		}
	}
	return ttl
}

func cartResponse(key string, cart *models.Cart, removed []models.CartItem, ttl time.Duration) gin.H {
	if removed == nil {
		removed = []models.CartItem{}
	}
	resp := gin.H{
		"user_key":              key,
		"items":                 []models.CartItem{},
		"cart_total":            0.0,
		"cart_count":            0,
		"expired_removed_items": removed,
		"cart_expiry_seconds":   int(ttl.Seconds()),
	}
	if cart != nil {
		resp["id"] = cart.ID
		resp["items"] = []models.CartItem(cart.Items)
		resp["cart_total"] = cart.Total()
		resp["cart_count"] = cart.Count()
		resp["last_updated"] = cart.LastUpdated
	}
	return resp
}

func respondCartError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, errItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not in cart"})
	case errors.Is(err, errProductInactive):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product is currently unavailable"})
	case errors.Is(err, errInvalidVariant):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid variant selection"})
	case errors.Is(err, errInsufficientStock):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock"})
	case errors.Is(err, utils.ErrVersionConflict):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cart is being updated by another request, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update cart"})
	}
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
