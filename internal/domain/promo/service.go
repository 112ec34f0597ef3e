// internal/domain/promo/service.go
package promo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation errors, mapped to response codes at the handler boundary
var (
	ErrNotFound     = errors.New("promo code not found")
	ErrForbidden    = errors.New("promo code is not available to this user")
	ErrNotStarted   = errors.New("promo code is not active yet")
	ErrExpired      = errors.New("promo code has expired")
	ErrLimitReached = errors.New("promo code redemption limit reached")
	ErrMinSubtotal  = errors.New("order subtotal is below the promo code minimum")
)

// Repository is the persistence surface the promo engine needs
type Repository interface {
	FindByCode(ctx context.Context, code string) (*PromoCode, error)
	CountRedemptions(ctx context.Context, promoCodeID uint) (int64, error)
	FindRedemption(ctx context.Context, promoCodeID, userID uint) (*PromoRedemption, error)
	// CreateRedemption inserts a redemption row; a concurrent duplicate for
	// the same (code, user) pair must be treated as success and the winning
	// row returned
	CreateRedemption(ctx context.Context, r *PromoRedemption) (*PromoRedemption, error)
	Deactivate(ctx context.Context, promoCodeID uint) error
}

// Service validates and redeems promo codes
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new promo service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Validation is the result of a successful promo validation. It carries the
// scope rules so the caller can decide per-item eligibility.
type Validation struct {
	Code           string       `json:"code"`
	DiscountType   DiscountType `json:"discount_type"`
	Value          int64        `json:"value"`
	DiscountAmount int64        `json:"discount_amount"`
	AppliesTo      AppliesTo    `json:"applies_to"`
	ExcludedBrands []string     `json:"excluded_brands,omitempty"`
	AlreadyUsed    bool         `json:"already_used"`
}

// Validate checks a promo code against a user and subtotal and computes the
// discount. The discount is only reserved here; it is consumed by
// RedeemForOrder after payment success.
func (s *Service) Validate(ctx context.Context, code string, userID *uint, subtotal int64) (*Validation, error) {
	p, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up promo code: %w", err)
	}
	if p == nil || !p.IsActive {
		return nil, ErrNotFound
	}

	if p.UserID != nil && (userID == nil || *userID != *p.UserID) {
		return nil, ErrForbidden
	}

	now := s.now()
	if p.StartsAt != nil && now.Before(*p.StartsAt) {
		return nil, ErrNotStarted
	}
	if p.EndsAt != nil && now.After(*p.EndsAt) {
		return nil, ErrExpired
	}

	if p.MaxRedemptions != nil {
		count, err := s.repo.CountRedemptions(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count redemptions: %w", err)
		}
		if count >= int64(*p.MaxRedemptions) {
			return nil, ErrLimitReached
		}
	}

	alreadyUsed := false
	if userID != nil {
		existing, err := s.repo.FindRedemption(ctx, p.ID, *userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check redemption: %w", err)
		}
		alreadyUsed = existing != nil
	}

	if p.MinSubtotal != nil && subtotal < *p.MinSubtotal {
		return nil, ErrMinSubtotal
	}

	return &Validation{
		Code:           p.Code,
		DiscountType:   p.DiscountType,
		Value:          p.Value,
		DiscountAmount: ComputeDiscount(p.DiscountType, p.Value, subtotal),
		AppliesTo:      p.AppliesTo,
		ExcludedBrands: p.ExcludedBrandList(),
		AlreadyUsed:    alreadyUsed,
	}, nil
}

// RedeemForOrder consumes a promo code for a settled order. Idempotent: an
// existing redemption for the (code, user) pair is returned unchanged.
func (s *Service) RedeemForOrder(ctx context.Context, code string, userID, orderID uint) (*PromoRedemption, error) {
	p, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up promo code: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}

	existing, err := s.repo.FindRedemption(ctx, p.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check redemption: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	redemption, err := s.repo.CreateRedemption(ctx, &PromoRedemption{
		PromoCodeID: p.ID,
		UserID:      userID,
		OrderID:     &orderID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create redemption: %w", err)
	}

	if p.SingleUse() {
		if err := s.repo.Deactivate(ctx, p.ID); err != nil {
			return nil, fmt.Errorf("failed to deactivate promo code: %w", err)
		}
	}

	return redemption, nil
}

// ComputeDiscount computes the discount a code yields on a subtotal.
// Percent discounts floor; fixed amounts clamp to [0, subtotal].
func ComputeDiscount(t DiscountType, value, subtotal int64) int64 {
	switch t {
	case DiscountPercent:
		return subtotal * value / 100
	case DiscountAmount:
		if value < 0 {
			return 0
		}
		if value > subtotal {
			return subtotal
		}
		return value
	default:
		return 0
	}
}

// Covers reports whether an item with the given premium flag and brand is
// inside the validated code's scope
func (v *Validation) Covers(isPremium bool, brand string) bool {
	switch v.AppliesTo {
	case AppliesToPremiumOnly:
		if !isPremium {
			return false
		}
	case AppliesToNonPremiumOnly:
		if isPremium {
			return false
		}
	}

	lower := strings.ToLower(brand)
	for _, excluded := range v.ExcludedBrands {
		if lower == excluded {
			return false
		}
	}
	return true
}
