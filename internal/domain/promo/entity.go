// internal/domain/promo/entity.go
package promo

import (
	"strings"
	"time"
)

// DiscountType represents how a promo code's value is interpreted
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

// AppliesTo restricts which items a discount may touch
type AppliesTo string

const (
	AppliesToAll            AppliesTo = "all"
	AppliesToPremiumOnly    AppliesTo = "premium_only"
	AppliesToNonPremiumOnly AppliesTo = "non_premium_only"
)

// PromoCode represents a promotional discount code
type PromoCode struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Code         string       `gorm:"uniqueIndex;not null;size:50" json:"code"`
	DiscountType DiscountType `gorm:"not null;size:20" json:"discount_type"`
	Value        int64        `gorm:"not null" json:"value"` // Percent points or minor currency units

	AppliesTo AppliesTo `gorm:"not null;size:20;default:'all'" json:"applies_to"`
	// ExcludedBrands is a comma-separated brand list; comparison is
	// case-insensitive
	ExcludedBrands string `gorm:"size:500" json:"excluded_brands"`

	MinSubtotal    *int64 `gorm:"" json:"min_subtotal"`
	MaxRedemptions *int   `gorm:"" json:"max_redemptions"`

	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`

	IsActive bool  `gorm:"not null;default:true" json:"is_active"`
	UserID   *uint `gorm:"index" json:"user_id"` // Single-user binding

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PromoRedemption records that a user consumed a code, at most once per
// (code, user) pair. The unique index is what makes concurrent redemption
// attempts collapse into a single row.
type PromoRedemption struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	PromoCodeID uint      `gorm:"not null;uniqueIndex:idx_promo_redemptions_code_user" json:"promo_code_id"`
	UserID      uint      `gorm:"not null;uniqueIndex:idx_promo_redemptions_code_user" json:"user_id"`
	OrderID     *uint     `gorm:"index" json:"order_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName overrides
func (PromoCode) TableName() string       { return "promo_codes" }
func (PromoRedemption) TableName() string { return "promo_redemptions" }

// ExcludedBrandList returns the excluded brands lowercased and trimmed
func (p *PromoCode) ExcludedBrandList() []string {
	if p.ExcludedBrands == "" {
		return nil
	}
	parts := strings.Split(p.ExcludedBrands, ",")
	brands := make([]string, 0, len(parts))
	for _, part := range parts {
		if b := strings.ToLower(strings.TrimSpace(part)); b != "" {
			brands = append(brands, b)
		}
	}
	return brands
}

// SingleUse reports whether redemption should deactivate the code
func (p *PromoCode) SingleUse() bool {
	if p.UserID != nil {
		return true
	}
	return p.MaxRedemptions != nil && *p.MaxRedemptions == 1
}
