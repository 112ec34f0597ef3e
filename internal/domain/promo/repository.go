// internal/domain/promo/repository.go
package promo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository implements Repository on top of the relational database
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a new repository
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// FindByCode returns the promo code row, or nil when it does not exist
func (r *GormRepository) FindByCode(ctx context.Context, code string) (*PromoCode, error) {
	var p PromoCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve promo code: %w", err)
	}
	return &p, nil
}

// CountRedemptions counts how many times a code has been redeemed
func (r *GormRepository) CountRedemptions(ctx context.Context, promoCodeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&PromoRedemption{}).
		Where("promo_code_id = ?", promoCodeID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count redemptions: %w", err)
	}
	return count, nil
}

// FindRedemption returns the redemption for a (code, user) pair, or nil
func (r *GormRepository) FindRedemption(ctx context.Context, promoCodeID, userID uint) (*PromoRedemption, error) {
	var redemption PromoRedemption
	err := r.db.WithContext(ctx).
		Where("promo_code_id = ? AND user_id = ?", promoCodeID, userID).
		First(&redemption).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve redemption: %w", err)
	}
	return &redemption, nil
}

// CreateRedemption inserts a redemption row. A conflict on the
// (promo_code_id, user_id) unique index means a concurrent request already
// redeemed; the winning row is loaded and returned as success.
func (r *GormRepository) CreateRedemption(ctx context.Context, redemption *PromoRedemption) (*PromoRedemption, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "promo_code_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(redemption)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to insert redemption: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		// Lost the race; return the existing row
		winner, err := r.FindRedemption(ctx, redemption.PromoCodeID, redemption.UserID)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			return nil, fmt.Errorf("redemption conflict but no existing row for promo %d user %d",
				redemption.PromoCodeID, redemption.UserID)
		}
		return winner, nil
	}

	return redemption, nil
}

// Deactivate flips a promo code inactive
func (r *GormRepository) Deactivate(ctx context.Context, promoCodeID uint) error {
	err := r.db.WithContext(ctx).Model(&PromoCode{}).
		Where("id = ?", promoCodeID).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate promo code: %w", err)
	}
	return nil
}
