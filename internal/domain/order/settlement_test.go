package order

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/promo"
)

type fakeRepo struct {
	orders map[uint]*Order
	nextID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[uint]*Order), nextID: 1}
}

func (r *fakeRepo) Create(_ context.Context, o *Order) error {
	o.ID = r.nextID
	r.nextID++
	r.orders[o.ID] = o
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id uint) (*Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *o
	return &copied, nil
}

func (r *fakeRepo) FindByAccessToken(_ context.Context, token string) (*Order, error) {
	for _, o := range r.orders {
		if o.AccessToken == token {
			copied := *o
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindLatestPendingByUser(_ context.Context, userID uint) (*Order, error) {
	var latest *Order
	for _, o := range r.orders {
		if o.UserID != nil && *o.UserID == userID && o.Status == StatusPending {
			if latest == nil || o.ID > latest.ID {
				latest = o
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (r *fakeRepo) MarkSucceeded(_ context.Context, id uint, publicNumber string, paidAt time.Time) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != StatusPending {
		return false, nil
	}
	o.Status = StatusSucceeded
	o.PublicNumber = &publicNumber
	o.PaidAt = &paidAt
	return true, nil
}

func (r *fakeRepo) MarkFailed(_ context.Context, id uint) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != StatusPending {
		return false, nil
	}
	o.Status = StatusFailed
	return true, nil
}

type countingRedeemer struct {
	calls []string
}

func (c *countingRedeemer) RedeemForOrder(_ context.Context, code string, userID, orderID uint) (*promo.PromoRedemption, error) {
	c.calls = append(c.calls, code)
	return &promo.PromoRedemption{ID: 1, UserID: userID, OrderID: &orderID}, nil
}

type countingNotifier struct {
	sent int
}

func (c *countingNotifier) OrderPaid(_ context.Context, _ *Order) error {
	c.sent++
	return nil
}

type countingEmitter struct {
	events []map[string]interface{}
}

func (c *countingEmitter) Emit(_ context.Context, _ string, payload map[string]interface{}) error {
	c.events = append(c.events, payload)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(repo Repository) *Service {
	return NewService(repo, &countingRedeemer{}, &countingNotifier{}, &countingEmitter{}, quietLogger(), "ORD")
}

type testEnv struct {
	repo     *fakeRepo
	redeemer *countingRedeemer
	notifier *countingNotifier
	emitter  *countingEmitter
	service  *Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		repo:     newFakeRepo(),
		redeemer: &countingRedeemer{},
		notifier: &countingNotifier{},
		emitter:  &countingEmitter{},
	}
	env.service = NewService(env.repo, env.redeemer, env.notifier, env.emitter, quietLogger(), "ORD")
	return env
}

func (e *testEnv) seedOrder(o *Order) *Order {
	_ = e.repo.Create(context.Background(), o)
	return o
}

func TestConfirmSettlement(t *testing.T) {
	userID := uint(4)

	t.Run("first confirmation settles and fires side effects once", func(t *testing.T) {
		env := newTestEnv()
		o := env.seedOrder(&Order{AccessToken: "tok-1", UserID: &userID, Status: StatusPending, TotalAmount: 500, PromoCode: "OFF", Items: []OrderItem{{Price: 500, Quantity: 1}}})

		result, err := env.service.ConfirmSettlement(context.Background(), ConfirmParams{OrderID: &o.ID, CallerUserID: &userID})
		require.NoError(t, err)
		assert.Equal(t, o.ID, result.OrderID)
		assert.Equal(t, "ORD-00000001", result.PublicNumber)
		assert.Equal(t, "tok-1", result.AccessToken, "token must come back for cookie refresh")

		assert.Equal(t, []string{"OFF"}, env.redeemer.calls)
		assert.Equal(t, 1, env.notifier.sent)
		require.Len(t, env.emitter.events, 1)
		assert.Equal(t, int64(500), env.emitter.events[0]["total_amount"])

		stored, _ := env.repo.FindByID(context.Background(), o.ID)
		assert.Equal(t, StatusSucceeded, stored.Status)
		assert.NotNil(t, stored.PaidAt)
	})

	t.Run("repeat confirmation returns same result without side effects", func(t *testing.T) {
		env := newTestEnv()
		o := env.seedOrder(&Order{AccessToken: "tok-1", UserID: &userID, Status: StatusPending, PromoCode: "OFF"})

		first, err := env.service.ConfirmSettlement(context.Background(), ConfirmParams{OrderID: &o.ID, CallerUserID: &userID})
		require.NoError(t, err)

		second, err := env.service.ConfirmSettlement(context.Background(), ConfirmParams{OrderID: &o.ID, CallerUserID: &userID})
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, env.redeemer.calls, 1)
		assert.Equal(t, 1, env.notifier.sent)
		assert.Len(t, env.emitter.events, 1)
	})

	t.Run("lost race reports the winner's result", func(t *testing.T) {
		env := newTestEnv()
		o := env.seedOrder(&Order{AccessToken: "tok-1", Status: StatusPending})

		// Another caller settles between our lookup and our update
		stale, _ := env.repo.FindByID(context.Background(), o.ID)
		_, err := env.service.ConfirmSettlement(context.Background(), ConfirmParams{OrderID: &o.ID})
		require.NoError(t, err)

		result, err := env.service.ConfirmSettlement(context.Background(), ConfirmParams{OrderID: &stale.ID})
		require.NoError(t, err)
		assert.Equal(t, "ORD-00000001", result.PublicNumber)
		assert.Len(t, env.emitter.events, 1, "only the winner emits")
	})

	t.Run("lookup falls back to access token", func(t *testing.T) {
		env := newTestEnv()
		env.seedOrder(&Order{AccessToken: "guest-token", Status: StatusPending})

		result, err := env.service.ConfirmSettlement(context.Background(), ConfirmParams{AccessToken: "guest-token"})
		require.NoError(t, err)
		assert.Equal(t, uint(1), result.OrderID)
	})

	t.Run("lookup falls back to latest pending order", func(t *testing.T) {
		env := newTestEnv()
		env.seedOrder(&Order{AccessToken: "a", UserID: &userID, Status: StatusSucceeded})
		env.seedOrder(&Order{AccessToken: "b", UserID: &userID, Status: StatusPending})
		latest := env.seedOrder(&Order{AccessToken: "c", UserID: &userID, Status: StatusPending})

		result, err := env.service.ConfirmSettlement(context.Background(), ConfirmParams{CallerUserID: &userID})
		require.NoError(t, err)
		assert.Equal(t, latest.ID, result.OrderID)
	})

	t.Run("order of another user is denied", func(t *testing.T) {
		env := newTestEnv()
		owner := uint(4)
		caller := uint(9)
		o := env.seedOrder(&Order{AccessToken: "tok-1", UserID: &owner, Status: StatusPending})

		_, err := env.service.ConfirmSettlement(context.Background(), ConfirmParams{OrderID: &o.ID, CallerUserID: &caller})
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("unknown order", func(t *testing.T) {
		env := newTestEnv()
		missing := uint(99)
		_, err := env.service.ConfirmSettlement(context.Background(), ConfirmParams{OrderID: &missing})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("failed order cannot be settled", func(t *testing.T) {
		env := newTestEnv()
		o := env.seedOrder(&Order{AccessToken: "tok-1", Status: StatusFailed})

		_, err := env.service.ConfirmSettlement(context.Background(), ConfirmParams{OrderID: &o.ID})
		assert.ErrorIs(t, err, ErrNotPending)
	})

	t.Run("guest order without promo skips redemption", func(t *testing.T) {
		env := newTestEnv()
		o := env.seedOrder(&Order{AccessToken: "tok-1", Status: StatusPending, PromoCode: ""})

		_, err := env.service.ConfirmSettlement(context.Background(), ConfirmParams{OrderID: &o.ID})
		require.NoError(t, err)
		assert.Empty(t, env.redeemer.calls)
		assert.Equal(t, 1, env.notifier.sent)
	})
}

func TestFailOrder(t *testing.T) {
	t.Run("pending order transitions to failed", func(t *testing.T) {
		env := newTestEnv()
		o := env.seedOrder(&Order{AccessToken: "tok-1", Status: StatusPending})

		err := env.service.FailOrder(context.Background(), ConfirmParams{OrderID: &o.ID})
		require.NoError(t, err)

		stored, _ := env.repo.FindByID(context.Background(), o.ID)
		assert.Equal(t, StatusFailed, stored.Status)
	})

	t.Run("settled order cannot fail", func(t *testing.T) {
		env := newTestEnv()
		o := env.seedOrder(&Order{AccessToken: "tok-1", Status: StatusSucceeded})

		err := env.service.FailOrder(context.Background(), ConfirmParams{OrderID: &o.ID})
		assert.ErrorIs(t, err, ErrNotPending)
	})

	t.Run("no side effects on failure", func(t *testing.T) {
		env := newTestEnv()
		o := env.seedOrder(&Order{AccessToken: "tok-1", Status: StatusPending, PromoCode: "OFF"})

		err := env.service.FailOrder(context.Background(), ConfirmParams{OrderID: &o.ID})
		require.NoError(t, err)
		assert.Empty(t, env.redeemer.calls)
		assert.Zero(t, env.notifier.sent)
		assert.Empty(t, env.emitter.events)
	})
}
