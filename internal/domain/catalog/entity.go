// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Brand represents a product brand
type Brand struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null;size:255" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product represents a sellable catalog item. Price is stored in minor
// currency units.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null;size:255" json:"name"`
	BrandID   *uint          `gorm:"index" json:"brand_id"`
	Brand     *Brand         `gorm:"foreignKey:BrandID" json:"brand,omitempty"`
	ImageURL  string         `gorm:"size:500" json:"image_url"`
	Price     int64          `gorm:"not null" json:"price"`
	IsPremium bool           `gorm:"not null;default:false" json:"is_premium"`
	IsActive  bool           `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE;" json:"variants,omitempty"`
}

// ProductVariant is a size-level variation of a product. A zero Price
// inherits the product's price.
type ProductVariant struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	SizeLabel string    `gorm:"not null;size:50" json:"size_label"`
	Price     int64     `gorm:"not null;default:0" json:"price"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides
func (Brand) TableName() string          { return "brands" }
func (Product) TableName() string        { return "products" }
func (ProductVariant) TableName() string { return "product_variants" }

// EffectivePrice returns the variant's own price, or the product's when the
// variant does not override it
func (v *ProductVariant) EffectivePrice(p *Product) int64 {
	if v.Price > 0 {
		return v.Price
	}
	if p != nil {
		return p.Price
	}
	return 0
}

// BrandName returns the preloaded brand name, or empty
func (p *Product) BrandName() string {
	if p.Brand == nil {
		return ""
	}
	return p.Brand.Name
}
