package promo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	codes       map[string]*PromoCode
	redemptions map[uint]map[uint]*PromoRedemption // promoCodeID -> userID
	deactivated []uint
	nextID      uint
}

func newStubRepo(codes ...*PromoCode) *stubRepo {
	r := &stubRepo{
		codes:       make(map[string]*PromoCode),
		redemptions: make(map[uint]map[uint]*PromoRedemption),
		nextID:      1,
	}
	for _, c := range codes {
		r.codes[c.Code] = c
	}
	return r
}

func (r *stubRepo) FindByCode(_ context.Context, code string) (*PromoCode, error) {
	return r.codes[code], nil
}

func (r *stubRepo) CountRedemptions(_ context.Context, promoCodeID uint) (int64, error) {
	return int64(len(r.redemptions[promoCodeID])), nil
}

func (r *stubRepo) FindRedemption(_ context.Context, promoCodeID, userID uint) (*PromoRedemption, error) {
	return r.redemptions[promoCodeID][userID], nil
}

func (r *stubRepo) CreateRedemption(_ context.Context, red *PromoRedemption) (*PromoRedemption, error) {
	if existing := r.redemptions[red.PromoCodeID][red.UserID]; existing != nil {
		return existing, nil
	}
	red.ID = r.nextID
	r.nextID++
	if r.redemptions[red.PromoCodeID] == nil {
		r.redemptions[red.PromoCodeID] = make(map[uint]*PromoRedemption)
	}
	r.redemptions[red.PromoCodeID][red.UserID] = red
	return red, nil
}

func (r *stubRepo) Deactivate(_ context.Context, promoCodeID uint) error {
	r.deactivated = append(r.deactivated, promoCodeID)
	for _, c := range r.codes {
		if c.ID == promoCodeID {
			c.IsActive = false
		}
	}
	return nil
}

func uintPtr(v uint) *uint    { return &v }
func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int       { return &v }

func TestValidate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	newSvc := func(codes ...*PromoCode) (*Service, *stubRepo) {
		repo := newStubRepo(codes...)
		svc := NewService(repo)
		svc.now = func() time.Time { return now }
		return svc, repo
	}

	t.Run("unknown code", func(t *testing.T) {
		svc, _ := newSvc()
		_, err := svc.Validate(context.Background(), "NOPE", nil, 1000)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("inactive code", func(t *testing.T) {
		svc, _ := newSvc(&PromoCode{ID: 1, Code: "OFF", DiscountType: DiscountPercent, Value: 10, IsActive: false})
		_, err := svc.Validate(context.Background(), "OFF", nil, 1000)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("user-bound code rejects other users", func(t *testing.T) {
		svc, _ := newSvc(&PromoCode{ID: 1, Code: "MINE", DiscountType: DiscountPercent, Value: 10, IsActive: true, UserID: uintPtr(7)})

		_, err := svc.Validate(context.Background(), "MINE", uintPtr(8), 1000)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = svc.Validate(context.Background(), "MINE", nil, 1000)
		assert.ErrorIs(t, err, ErrForbidden)

		v, err := svc.Validate(context.Background(), "MINE", uintPtr(7), 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(100), v.DiscountAmount)
	})

	t.Run("window not started", func(t *testing.T) {
		svc, _ := newSvc(&PromoCode{ID: 1, Code: "SOON", DiscountType: DiscountPercent, Value: 10, IsActive: true, StartsAt: &future})
		_, err := svc.Validate(context.Background(), "SOON", nil, 1000)
		assert.ErrorIs(t, err, ErrNotStarted)
	})

	t.Run("window expired", func(t *testing.T) {
		svc, _ := newSvc(&PromoCode{ID: 1, Code: "LATE", DiscountType: DiscountPercent, Value: 10, IsActive: true, EndsAt: &past})
		_, err := svc.Validate(context.Background(), "LATE", nil, 1000)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("redemption limit reached", func(t *testing.T) {
		svc, repo := newSvc(&PromoCode{ID: 1, Code: "CAP", DiscountType: DiscountPercent, Value: 10, IsActive: true, MaxRedemptions: intPtr(1)})
		repo.redemptions[1] = map[uint]*PromoRedemption{9: {ID: 1, PromoCodeID: 1, UserID: 9}}

		_, err := svc.Validate(context.Background(), "CAP", uintPtr(5), 1000)
		assert.ErrorIs(t, err, ErrLimitReached)
	})

	t.Run("subtotal below minimum", func(t *testing.T) {
		svc, _ := newSvc(&PromoCode{ID: 1, Code: "BIG", DiscountType: DiscountAmount, Value: 500, IsActive: true, MinSubtotal: int64Ptr(10000)})
		_, err := svc.Validate(context.Background(), "BIG", nil, 9999)
		assert.ErrorIs(t, err, ErrMinSubtotal)
	})

	t.Run("already used is reported, not rejected", func(t *testing.T) {
		svc, repo := newSvc(&PromoCode{ID: 1, Code: "TWICE", DiscountType: DiscountPercent, Value: 10, IsActive: true})
		repo.redemptions[1] = map[uint]*PromoRedemption{4: {ID: 1, PromoCodeID: 1, UserID: 4}}

		v, err := svc.Validate(context.Background(), "TWICE", uintPtr(4), 1000)
		require.NoError(t, err)
		assert.True(t, v.AlreadyUsed)
		assert.Equal(t, int64(100), v.DiscountAmount)
	})

	t.Run("successful validation carries scope", func(t *testing.T) {
		svc, _ := newSvc(&PromoCode{
			ID: 1, Code: "SCOPE", DiscountType: DiscountPercent, Value: 15,
			IsActive: true, AppliesTo: AppliesToPremiumOnly, ExcludedBrands: "Basics Co, Acme",
		})

		v, err := svc.Validate(context.Background(), "SCOPE", uintPtr(2), 2000)
		require.NoError(t, err)
		assert.Equal(t, AppliesToPremiumOnly, v.AppliesTo)
		assert.Equal(t, []string{"basics co", "acme"}, v.ExcludedBrands)
		assert.Equal(t, int64(300), v.DiscountAmount)
		assert.False(t, v.AlreadyUsed)
	})
}

func TestComputeDiscount(t *testing.T) {
	tests := []struct {
		name     string
		typ      DiscountType
		value    int64
		subtotal int64
		want     int64
	}{
		{"percent floors", DiscountPercent, 10, 999, 99},
		{"percent exact", DiscountPercent, 25, 1000, 250},
		{"percent zero subtotal", DiscountPercent, 50, 0, 0},
		{"amount within subtotal", DiscountAmount, 300, 1000, 300},
		{"amount clamps to subtotal", DiscountAmount, 5000, 1000, 1000},
		{"amount never negative", DiscountAmount, -100, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeDiscount(tt.typ, tt.value, tt.subtotal))
		})
	}
}

func TestValidationCovers(t *testing.T) {
	tests := []struct {
		name      string
		appliesTo AppliesTo
		excluded  []string
		isPremium bool
		brand     string
		want      bool
	}{
		{"all covers everything", AppliesToAll, nil, false, "Acme", true},
		{"premium only rejects regular", AppliesToPremiumOnly, nil, false, "Acme", false},
		{"premium only covers premium", AppliesToPremiumOnly, nil, true, "Acme", true},
		{"non premium only rejects premium", AppliesToNonPremiumOnly, nil, true, "Acme", false},
		{"excluded brand case-insensitive", AppliesToAll, []string{"acme"}, false, "ACME", false},
		{"other brand unaffected by exclusion", AppliesToAll, []string{"acme"}, false, "Zenith", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &Validation{AppliesTo: tt.appliesTo, ExcludedBrands: tt.excluded}
			assert.Equal(t, tt.want, v.Covers(tt.isPremium, tt.brand))
		})
	}
}

func TestRedeemForOrder(t *testing.T) {
	t.Run("creates redemption once", func(t *testing.T) {
		svc := NewService(newStubRepo(&PromoCode{ID: 1, Code: "OFF", DiscountType: DiscountPercent, Value: 10, IsActive: true}))

		first, err := svc.RedeemForOrder(context.Background(), "OFF", 4, 100)
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := svc.RedeemForOrder(context.Background(), "OFF", 4, 200)
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, first.OrderID, second.OrderID, "repeat redemption must not rebind the order")
	})

	t.Run("single-use code is deactivated", func(t *testing.T) {
		repo := newStubRepo(&PromoCode{ID: 1, Code: "ONCE", DiscountType: DiscountAmount, Value: 500, IsActive: true, MaxRedemptions: intPtr(1)})
		svc := NewService(repo)

		_, err := svc.RedeemForOrder(context.Background(), "ONCE", 4, 100)
		require.NoError(t, err)
		assert.Equal(t, []uint{1}, repo.deactivated)
	})

	t.Run("user-bound code is deactivated", func(t *testing.T) {
		repo := newStubRepo(&PromoCode{ID: 1, Code: "MINE", DiscountType: DiscountPercent, Value: 10, IsActive: true, UserID: uintPtr(4)})
		svc := NewService(repo)

		_, err := svc.RedeemForOrder(context.Background(), "MINE", 4, 100)
		require.NoError(t, err)
		assert.Equal(t, []uint{1}, repo.deactivated)
	})

	t.Run("multi-use code stays active", func(t *testing.T) {
		repo := newStubRepo(&PromoCode{ID: 1, Code: "MANY", DiscountType: DiscountPercent, Value: 10, IsActive: true})
		svc := NewService(repo)

		_, err := svc.RedeemForOrder(context.Background(), "MANY", 4, 100)
		require.NoError(t, err)
		assert.Empty(t, repo.deactivated)
	})

	t.Run("unknown code", func(t *testing.T) {
		svc := NewService(newStubRepo())
		_, err := svc.RedeemForOrder(context.Background(), "NOPE", 4, 100)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
