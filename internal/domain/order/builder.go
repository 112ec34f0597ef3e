// internal/domain/order/builder.go
package order

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/promo"
)

// Builder errors
var (
	ErrEmptyItems        = errors.New("cannot create an order without items")
	ErrPromoRequiresAuth = errors.New("promo codes require an authenticated user")
	// ErrPromoNotApplicable means the code is valid but the eligible part of
	// the order has no value to discount
	ErrPromoNotApplicable = errors.New("promo code is not applicable to the selected items")
)

// ContactInfo holds the order's contact fields
type ContactInfo struct {
	FullName string
	Email    string
	Phone    string
	Address  string
	Comment  string
}

// CreateParams is everything needed to build a pending order
type CreateParams struct {
	Items   []cart.ItemForCreate
	Promo   *promo.Validation
	UserID  *uint
	Contact ContactInfo
}

// CreateOrder persists a PENDING order from resolved items, distributing the
// promo discount across eligible lines and storing post-discount unit
// prices. The random access token returned on the order allows guest lookup.
func (s *Service) CreateOrder(ctx context.Context, p CreateParams) (*Order, error) {
	if len(p.Items) == 0 {
		return nil, ErrEmptyItems
	}
	if p.Promo != nil && p.UserID == nil {
		return nil, ErrPromoRequiresAuth
	}

	o := &Order{
		AccessToken: uuid.NewString(),
		UserID:      p.UserID,
		Status:      StatusPending,
		FullName:    p.Contact.FullName,
		Email:       p.Contact.Email,
		Phone:       p.Contact.Phone,
		Address:     p.Contact.Address,
		Comment:     p.Contact.Comment,
	}

	shares := make([]int64, len(p.Items))
	if p.Promo != nil {
		eligible := make([]bool, len(p.Items))
		var eligibleSubtotal int64
		for i, item := range p.Items {
			eligible[i] = p.Promo.Covers(item.IsPremium, item.Brand)
			if eligible[i] {
				eligibleSubtotal += item.LineTotal()
			}
		}
		if eligibleSubtotal <= 0 {
			return nil, ErrPromoNotApplicable
		}

		shares = DistributeDiscount(p.Items, eligible, p.Promo.DiscountAmount)

		o.PromoCode = p.Promo.Code
		o.DiscountType = p.Promo.DiscountType
		o.DiscountValue = p.Promo.Value
	}

	for i, item := range p.Items {
		unitPrice := discountedUnitPrice(item, shares[i])
		o.Items = append(o.Items, OrderItem{
			ProductID:        item.ProductID,
			ProductVariantID: item.ProductVariantID,
			SizeLabel:        item.SizeLabel,
			Quantity:         item.Quantity,
			Price:            unitPrice,
			Name:             item.Name,
			ImageURL:         item.ImageURL,
		})
		o.TotalAmount += unitPrice * int64(item.Quantity)
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}
	return o, nil
}

// DistributeDiscount splits discountAmount across the eligible items
// proportionally to their line totals. Every eligible item except the last
// gets its rounded proportional share; the last eligible item absorbs the
// remainder, so the shares always sum to discountAmount exactly.
func DistributeDiscount(items []cart.ItemForCreate, eligible []bool, discountAmount int64) []int64 {
	shares := make([]int64, len(items))
	if discountAmount <= 0 {
		return shares
	}

	var eligibleSubtotal int64
	lastEligible := -1
	for i, item := range items {
		if eligible[i] {
			eligibleSubtotal += item.LineTotal()
			lastEligible = i
		}
	}
	if lastEligible < 0 || eligibleSubtotal <= 0 {
		return shares
	}

	var distributed int64
	for i, item := range items {
		if !eligible[i] {
			continue
		}
		if i == lastEligible {
			shares[i] = discountAmount - distributed
			break
		}
		share := int64(math.Round(float64(discountAmount) * float64(item.LineTotal()) / float64(eligibleSubtotal)))
		shares[i] = share
		distributed += share
	}
	return shares
}

// discountedUnitPrice converts a line's discount share back into a stored
// unit price, never negative
func discountedUnitPrice(item cart.ItemForCreate, share int64) int64 {
	if share <= 0 {
		return item.Price
	}
	lineTotal := item.LineTotal() - share
	if lineTotal < 0 {
		lineTotal = 0
	}
	return int64(math.Round(float64(lineTotal) / float64(item.Quantity)))
}
