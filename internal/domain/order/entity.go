// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/domain/promo"
)

// Status represents the settlement state of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	// StatusFailed is only reachable when the failed-state feature is
	// enabled; otherwise a rejected payment leaves the order pending
	StatusFailed Status = "failed"
)

// Order is the settlement record. Once SUCCEEDED its amount, items and promo
// snapshot are immutable.
type Order struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	PublicNumber *string `gorm:"uniqueIndex;size:50" json:"public_number"`
	// AccessToken lets a guest look the order up without an account
	AccessToken string `gorm:"uniqueIndex;not null;size:36" json:"-"`
	UserID      *uint  `gorm:"index" json:"user_id"`

	TotalAmount int64  `gorm:"not null" json:"total_amount"` // In minor currency units
	Status      Status `gorm:"not null;default:'pending';index" json:"status"`

	FullName string `gorm:"not null;size:255" json:"full_name"`
	Email    string `gorm:"not null;size:255" json:"email"`
	Phone    string `gorm:"not null;size:50" json:"phone"`
	Address  string `gorm:"not null;size:500" json:"address"`
	Comment  string `gorm:"type:text" json:"comment"`

	// Promo snapshot captured at creation time
	PromoCode     string             `gorm:"size:50" json:"promo_code"`
	DiscountType  promo.DiscountType `gorm:"size:20" json:"discount_type"`
	DiscountValue int64              `gorm:"default:0" json:"discount_value"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	PaidAt    *time.Time `json:"paid_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
}

// OrderItem is a snapshot of a purchased line. Name and image are captured at
// order time so historical orders survive catalog changes. Price is the
// post-discount unit price.
type OrderItem struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	OrderID          uint      `gorm:"not null;index" json:"order_id"`
	ProductID        uint      `gorm:"not null;index" json:"product_id"`
	ProductVariantID *uint     `gorm:"index" json:"product_variant_id"`
	SizeLabel        string    `gorm:"size:50" json:"size_label"`
	Quantity         int       `gorm:"not null" json:"quantity"`
	Price            int64     `gorm:"not null" json:"price"` // Post-discount unit price
	Name             string    `gorm:"not null;size:255" json:"name"`
	ImageURL         string    `gorm:"size:500" json:"image_url"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string     { return "orders" }
func (OrderItem) TableName() string { return "order_items" }

// PublicNumberFor derives the human-readable order number from the numeric
// id. Deterministic so concurrent settlement retries cannot mint two
// different numbers for the same order.
func PublicNumberFor(prefix string, orderID uint) string {
	return fmt.Sprintf("%s-%08d", prefix, orderID)
}

// ItemsTotal sums post-discount line totals
func (o *Order) ItemsTotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}
