// internal/domain/cart/entity.go
package cart

import (
	"time"

	"gorm.io/gorm"
)

// Cart represents a shopping cart owned by either an anonymous token or an
// authenticated user
type Cart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"uniqueIndex;not null;size:36" json:"token"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// CartItem represents a line in a cart. Price, name and image are cached at
// add time so the stored cart row stays authoritative at checkout.
type CartItem struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	CartID           uint           `gorm:"not null;index" json:"cart_id"`
	ProductID        uint           `gorm:"not null;index" json:"product_id"`
	ProductVariantID *uint          `gorm:"index" json:"product_variant_id"`
	Quantity         int            `gorm:"not null;default:1" json:"quantity"`
	Price            int64          `gorm:"not null" json:"price"`
	Name             string         `gorm:"size:255" json:"name"`
	ImageURL         string         `gorm:"size:500" json:"image_url"`
	SizeLabel        string         `gorm:"size:50" json:"size_label"`
	Postponed        bool           `gorm:"not null;default:false" json:"postponed"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// CartTotals represents calculated cart totals
type CartTotals struct {
	ItemCount     int   `json:"item_count"`
	TotalQuantity int   `json:"total_quantity"`
	SubTotal      int64 `json:"sub_total"`
}

// ItemForCreate is a canonical, priced order-candidate line produced by the
// resolver. Brand and premium flags travel with the line so promo eligibility
// can be decided without another catalog round trip.
type ItemForCreate struct {
	ProductID        uint   `json:"product_id"`
	ProductVariantID *uint  `json:"product_variant_id"`
	CartItemID       *uint  `json:"cart_item_id"`
	Quantity         int    `json:"quantity"`
	Price            int64  `json:"price"`
	Name             string `json:"name"`
	ImageURL         string `json:"image_url"`
	SizeLabel        string `json:"size_label"`
	Brand            string `json:"brand"`
	IsPremium        bool   `json:"is_premium"`
}

// LineTotal returns the line's pre-discount total
func (i ItemForCreate) LineTotal() int64 {
	return i.Price * int64(i.Quantity)
}
