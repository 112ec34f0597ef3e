// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// Service errors
var (
	ErrItemNotFound = errors.New("item not found in cart")
)

// Service handles cart maintenance. The checkout pipeline only reads carts
// (through Resolver); this service is what populates them.
type Service struct {
	db *gorm.DB
}

// NewService creates a new cart service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	ProductID        uint  `json:"product_id" binding:"required"`
	ProductVariantID *uint `json:"product_variant_id"`
	Quantity         int   `json:"quantity" binding:"required,min=1"`
}

// UpdateItemRequest represents a cart item update. Quantity 0 removes the
// line; Postponed excludes it from checkout without removing it.
type UpdateItemRequest struct {
	Quantity  *int  `json:"quantity" binding:"omitempty,min=0"`
	Postponed *bool `json:"postponed"`
}

// CartResponse represents a cart with computed totals
type CartResponse struct {
	Token  string     `json:"token"`
	UserID *uint      `json:"user_id,omitempty"`
	Items  []CartItem `json:"items"`
	Totals CartTotals `json:"totals"`
}

// GetOrCreateCart finds the caller's cart, creating one with a fresh token
// when none exists. An authenticated user's cart wins over a token cart.
func (s *Service) GetOrCreateCart(ctx context.Context, userID *uint, token string) (*Cart, error) {
	var c Cart

	if userID != nil {
		err := s.db.WithContext(ctx).Preload("Items").Where("user_id = ?", *userID).First(&c).Error
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to retrieve cart: %w", err)
		}
	}

	if token != "" {
		err := s.db.WithContext(ctx).Preload("Items").Where("token = ?", token).First(&c).Error
		if err == nil {
			// Adopt an anonymous cart on login
			if userID != nil && c.UserID == nil {
				if err := s.db.WithContext(ctx).Model(&c).Update("user_id", *userID).Error; err != nil {
					return nil, fmt.Errorf("failed to attach cart to user: %w", err)
				}
				c.UserID = userID
			}
			return &c, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to retrieve cart: %w", err)
		}
	}

	c = Cart{
		Token:  uuid.NewString(),
		UserID: userID,
		Items:  []CartItem{},
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return &c, nil
}

// AddItem adds a product line to the cart, merging quantity into an existing
// line for the same product/variant pair
func (s *Service) AddItem(ctx context.Context, c *Cart, req *AddItemRequest) (*Cart, error) {
	var prod catalog.Product
	err := s.db.WithContext(ctx).Preload("Brand").
		Where("id = ? AND is_active = ?", req.ProductID, true).First(&prod).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found or inactive")
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	price := prod.Price
	sizeLabel := ""
	if req.ProductVariantID != nil {
		var variant catalog.ProductVariant
		err := s.db.WithContext(ctx).
			Where("id = ? AND product_id = ? AND is_active = ?", *req.ProductVariantID, req.ProductID, true).
			First(&variant).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("product variant not found or inactive")
			}
			return nil, fmt.Errorf("failed to retrieve product variant: %w", err)
		}
		price = variant.EffectivePrice(&prod)
		sizeLabel = variant.SizeLabel
	}

	var existing CartItem
	err = s.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ? AND product_variant_id IS NOT DISTINCT FROM ?",
			c.ID, req.ProductID, req.ProductVariantID).
		First(&existing).Error
	switch {
	case err == nil:
		existing.Quantity += req.Quantity
		existing.Price = price
		if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item := CartItem{
			CartID:           c.ID,
			ProductID:        req.ProductID,
			ProductVariantID: req.ProductVariantID,
			Quantity:         req.Quantity,
			Price:            price,
			Name:             prod.Name,
			ImageURL:         prod.ImageURL,
			SizeLabel:        sizeLabel,
		}
		if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to create cart item: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to retrieve cart item: %w", err)
	}

	return s.reload(ctx, c.ID)
}

// UpdateItem changes a line's quantity or postponed flag
func (s *Service) UpdateItem(ctx context.Context, c *Cart, itemID uint, req *UpdateItemRequest) (*Cart, error) {
	var item CartItem
	err := s.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, c.ID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to retrieve cart item: %w", err)
	}

	if req.Quantity != nil && *req.Quantity == 0 {
		if err := s.db.WithContext(ctx).Delete(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to remove cart item: %w", err)
		}
		return s.reload(ctx, c.ID)
	}

	updates := map[string]interface{}{}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.Postponed != nil {
		updates["postponed"] = *req.Postponed
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&item).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	}
	return s.reload(ctx, c.ID)
}

// RemoveItem removes a line from the cart
func (s *Service) RemoveItem(ctx context.Context, c *Cart, itemID uint) (*Cart, error) {
	zero := 0
	return s.UpdateItem(ctx, c, itemID, &UpdateItemRequest{Quantity: &zero})
}

// BuildResponse attaches computed totals to a cart
func (s *Service) BuildResponse(c *Cart) *CartResponse {
	totals := CartTotals{ItemCount: len(c.Items)}
	for _, item := range c.Items {
		totals.TotalQuantity += item.Quantity
		totals.SubTotal += item.Price * int64(item.Quantity)
	}
	return &CartResponse{
		Token:  c.Token,
		UserID: c.UserID,
		Items:  c.Items,
		Totals: totals,
	}
}

func (s *Service) reload(ctx context.Context, cartID uint) (*Cart, error) {
	var c Cart
	if err := s.db.WithContext(ctx).Preload("Items").First(&c, cartID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload cart: %w", err)
	}
	return &c, nil
}
