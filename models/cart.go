package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProductDetails is the snapshot of product data taken when an item is
// added to the cart. Price is pinned at add time and is not refreshed by
// reads; display fields (name, image, variant metadata) are refreshed
// in-memory when the cart is served.
type ProductDetails struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Image         string  `json:"image"`
	VariantIndex  int     `json:"variant_index"`
	Quantity      float64 `json:"quantity"`       // variant pack size
	MeasuringUnit string  `json:"measuring_unit"` // variant unit
}

type CartItem struct {
	ProductID      uuid.UUID      `json:"product_id"`
	Quantity       int            `json:"quantity"`
	ProductDetails ProductDetails `json:"product_details"`
	AddedAt        time.Time      `json:"added_at"`
	// Unavailable is set on read when the referenced product no longer
	// exists or is inactive. It is never persisted.
	Unavailable bool `json:"unavailable,omitempty"`
}

// Cart is the per-user cart document. UserKey is the canonical user
// identifier; documents keyed by a legacy identifier (email or an older
// secondary id) are migrated to the canonical key on first access.
//
// Version implements optimistic concurrency: every write is guarded by
// a WHERE version = ? clause and bumps the version, so concurrent
// writers detect conflicts instead of overwriting each other.
//
// A cart with zero items must not persist; it is deleted as soon as it
// becomes empty.
type Cart struct {
	ID          uuid.UUID                     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserKey     string                        `gorm:"uniqueIndex;not null" json:"user_key"`
	Items       datatypes.JSONSlice[CartItem] `json:"items"`
	Version     int64                         `gorm:"not null;default:1" json:"-"`
	LastUpdated time.Time                     `json:"last_updated"`
	CreatedAt   time.Time                     `json:"created_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	if c.LastUpdated.IsZero() {
		c.LastUpdated = time.Now()
	}
	return nil
}

// Total is the sum of pinned unit price times quantity over all items.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.ProductDetails.Price * float64(item.Quantity)
	}
	return total
}

// Count is the sum of quantities over all items.
func (c *Cart) Count() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// ItemIndex returns the index of the line for productID, or -1.
func (c *Cart) ItemIndex(productID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// QuantityOf returns the quantity already in the cart for productID.
func (c *Cart) QuantityOf(productID uuid.UUID) int {
	if i := c.ItemIndex(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// RemoveItem deletes the line for productID, preserving item order.
// Returns false when no such line exists.
func (c *Cart) RemoveItem(productID uuid.UUID) bool {
	i := c.ItemIndex(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return true
}

// PurgeExpired removes items added before cutoff and returns them.
// Purging is idempotent: a second purge with the same cutoff removes
// nothing.
func (c *Cart) PurgeExpired(cutoff time.Time) []CartItem {
	var removed []CartItem
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.AddedAt.Before(cutoff) {
			removed = append(removed, item)
		} else {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	return removed
}
