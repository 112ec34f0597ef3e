// internal/domain/cart/store.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// GormStore implements Store on top of the relational database
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// FindCartByToken returns the cart for a token with items preloaded, or nil
// when no such cart exists
func (s *GormStore) FindCartByToken(ctx context.Context, token string) (*Cart, error) {
	var c Cart
	err := s.db.WithContext(ctx).Preload("Items").Where("token = ?", token).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return &c, nil
}

// FindCartByUser returns the user's cart with items preloaded, or nil
func (s *GormStore) FindCartByUser(ctx context.Context, userID uint) (*Cart, error) {
	var c Cart
	err := s.db.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return &c, nil
}

// FindProduct returns a product with its brand preloaded, or nil
func (s *GormStore) FindProduct(ctx context.Context, id uint) (*catalog.Product, error) {
	var p catalog.Product
	err := s.db.WithContext(ctx).Preload("Brand").Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &p, nil
}

// FindVariant returns an active product variant, or nil
func (s *GormStore) FindVariant(ctx context.Context, id uint) (*catalog.ProductVariant, error) {
	var v catalog.ProductVariant
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve product variant: %w", err)
	}
	return &v, nil
}
