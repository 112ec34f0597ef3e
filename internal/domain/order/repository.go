// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository is the persistence surface the order services need
type Repository interface {
	Create(ctx context.Context, o *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	FindByAccessToken(ctx context.Context, token string) (*Order, error)
	FindLatestPendingByUser(ctx context.Context, userID uint) (*Order, error)
	// MarkSucceeded performs the atomic pending→succeeded transition and
	// reports whether this call won it
	MarkSucceeded(ctx context.Context, id uint, publicNumber string, paidAt time.Time) (bool, error)
	// MarkFailed performs the atomic pending→failed transition
	MarkFailed(ctx context.Context, id uint) (bool, error)
}

// GormRepository implements Repository on top of the relational database
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Create persists an order and its items in one transaction. No order row
// may exist without at least one item.
func (r *GormRepository) Create(ctx context.Context, o *Order) error {
	if len(o.Items) == 0 {
		return fmt.Errorf("order must have at least one item")
	}
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// FindByID returns an order with items preloaded, or nil
func (r *GormRepository) FindByID(ctx context.Context, id uint) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// FindByAccessToken returns the order for a guest access token, or nil
func (r *GormRepository) FindByAccessToken(ctx context.Context, token string) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).Preload("Items").Where("access_token = ?", token).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// FindLatestPendingByUser returns the user's most recent pending order, or nil
func (r *GormRepository) FindLatestPendingByUser(ctx context.Context, userID uint) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ? AND status = ?", userID, StatusPending).
		Order("created_at DESC").
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// MarkSucceeded runs a single conditional UPDATE guarded on the pending
// status. The affected-row count is the idempotency signal: exactly one
// concurrent caller observes true.
func (r *GormRepository) MarkSucceeded(ctx context.Context, id uint, publicNumber string, paidAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Updates(map[string]interface{}{
			"status":        StatusSucceeded,
			"public_number": publicNumber,
			"paid_at":       paidAt,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark order succeeded: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkFailed runs the same conditional UPDATE pattern for the failed state
func (r *GormRepository) MarkFailed(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Order{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Update("status", StatusFailed)
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark order failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
