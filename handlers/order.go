package handlers

import (
	"net/http"
	"time"

	"patisserie-backend/models"
	"patisserie-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderHandler struct {
	DB *gorm.DB
}

// CreateOrder turns the caller's cart into an order. Stock is
// decremented here, at order completion, not at add-to-cart time; the
// decrement runs inside a transaction with row-level product locks.
// Unit prices are the ones pinned into the cart at add time.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	canonical, ok := canonicalCartKey(c)
	if !ok {
		return
	}
	userID, _ := c.Get("user_id")

	var req struct {
		DeliveryAddress string `json:"delivery_address" binding:"required"`
		PaymentMethod   string `json:"payment_method"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	cartHandler := &CartHandler{DB: h.DB}
	cart, err := cartHandler.cartByKey(canonical)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
		return
	}
	if cart != nil {
		cart, _, err = cartHandler.purgeExpired(cart.ID, requestExpiry(c), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
	}
	if cart == nil || len(cart.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	var subtotal float64
	orderItems := make([]models.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		subtotal += item.ProductDetails.Price * float64(item.Quantity)
		orderItems = append(orderItems, models.OrderItem{
			ProductID:    item.ProductID,
			ProductName:  item.ProductDetails.Name,
			ImageURL:     item.ProductDetails.Image,
			VariantIndex: item.ProductDetails.VariantIndex,
			Quantity:     item.Quantity,
			Price:        item.ProductDetails.Price,
		})
	}

	deliveryFee := 0.0
	if subtotal < 500 {
		deliveryFee = 49
	}

	order := models.Order{
		ID:              uuid.New(),
		UserID:          userID.(uuid.UUID),
		Status:          models.OrderStatusPending,
		Subtotal:        subtotal,
		DeliveryFee:     deliveryFee,
		Total:           subtotal + deliveryFee,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
	}

	tx := h.DB.Begin()

	for _, item := range cart.Items {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", item.ProductID).First(&product).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product no longer available: " + item.ProductDetails.Name})
			return
		}
		if !product.IsActive {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product no longer available: " + product.Name})
			return
		}

		idx := item.ProductDetails.VariantIndex
		variant, valid := product.VariantAt(idx)
		if !valid {
			tx.Rollback()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product options changed: " + product.Name})
			return
		}
		if variant.IsStockActive {
			if variant.Stock < item.Quantity {
				tx.Rollback()
				c.JSON(http.StatusBadRequest, gin.H{"error": "Insufficient stock for " + product.Name})
				return
			}
			product.Variants[idx].Stock -= item.Quantity
			if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
				Update("variants", product.Variants).Error; err != nil {
				tx.Rollback()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update stock"})
				return
			}
		}
	}

	if err := tx.Create(&order).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	for i := range orderItems {
		orderItems[i].OrderID = order.ID
	}
	if err := tx.Omit("Order").CreateInBatches(&orderItems, 100).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order items"})
		return
	}

	// The cart delete is version-guarded: if another request touched the
	// cart while this order was being placed, abort rather than silently
	// dropping that change.
	res := tx.Where("id = ? AND version = ?", cart.ID, cart.Version).Delete(&models.Cart{})
	if res.Error != nil || res.RowsAffected == 0 {
		tx.Rollback()
		c.JSON(http.StatusConflict, gin.H{"error": "Cart changed while placing the order, please retry"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete order"})
		return
	}

	h.DB.Preload("Items").First(&order, "id = ?", order.ID)
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userRole, _ := c.Get("user_role")

	query := h.DB.Preload("Items").Order("created_at desc")
	if userRole != "admin" {
		query = query.Where("user_id = ?", userID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	userRole, _ := c.Get("user_role")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	query := h.DB.Preload("Items").Where("id = ?", id)
	if userRole != "admin" {
		query = query.Where("user_id = ?", userID)
	}

	var order models.Order
	if err := query.First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": utils.SanitizeValidationError(err)})
		return
	}

	var order models.Order
	if err := h.DB.Where("id = ?", id).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if !models.IsValidTransition(order.Status, req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status transition"})
		return
	}

	order.Status = req.Status
	if err := h.DB.Save(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
		return
	}
	c.JSON(http.StatusOK, order)
}
