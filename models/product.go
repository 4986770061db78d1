package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Variant is a purchasable option of a product (pack size / weight) with
// its own price and stock. When IsStockActive is false the variant is
// always orderable and Stock is ignored.
type Variant struct {
	Quantity      float64 `json:"quantity"`       // e.g. 500 with measuring_unit "g"
	MeasuringUnit string  `json:"measuring_unit"` // g, kg, pcs
	Price         float64 `json:"price"`
	Stock         int     `json:"stock"`
	IsStockActive bool    `json:"is_stock_active"`
}

type Product struct {
	ID          uuid.UUID                    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string                       `gorm:"not null;index" json:"name"`
	Description string                       `json:"description"`
	Price       float64                      `gorm:"not null" json:"price"` // base price, used when no variants exist
	CategoryID  uuid.UUID                    `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    Category                     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images      datatypes.JSONSlice[string]  `json:"images"`
	Variants    datatypes.JSONSlice[Variant] `json:"variants"`
	IsVegan     bool                         `gorm:"default:false" json:"is_vegan"`
	IsEggless   bool                         `gorm:"default:false" json:"is_eggless"`
	IsActive    bool                         `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
	DeletedAt   gorm.DeletedAt               `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// VariantAt returns the variant at index i. For products without variants
// it synthesizes one from the base price, with stock tracking disabled.
// ok is false when i is out of range for a product that does have variants.
func (p *Product) VariantAt(i int) (Variant, bool) {
	if len(p.Variants) == 0 {
		return Variant{Price: p.Price}, i == 0
	}
	if i < 0 || i >= len(p.Variants) {
		return Variant{}, false
	}
	return p.Variants[i], true
}

// PrimaryImage returns the first product image, or "" when none exist.
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
