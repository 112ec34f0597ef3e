// internal/interfaces/http/handlers/order_test.go
package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/promo"
)

type stubOrderRepo struct {
	orders map[uint]*order.Order
}

func (r *stubOrderRepo) Create(_ context.Context, o *order.Order) error {
	o.ID = uint(len(r.orders) + 1)
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uint) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) FindByAccessToken(_ context.Context, token string) (*order.Order, error) {
	for _, o := range r.orders {
		if o.AccessToken == token {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *stubOrderRepo) FindLatestPendingByUser(_ context.Context, userID uint) (*order.Order, error) {
	var latest *order.Order
	for _, o := range r.orders {
		if o.UserID != nil && *o.UserID == userID && o.Status == order.StatusPending {
			if latest == nil || o.ID > latest.ID {
				latest = o
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (r *stubOrderRepo) MarkSucceeded(_ context.Context, id uint, publicNumber string, paidAt time.Time) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != order.StatusPending {
		return false, nil
	}
	o.Status = order.StatusSucceeded
	o.PublicNumber = &publicNumber
	o.PaidAt = &paidAt
	return true, nil
}

func (r *stubOrderRepo) MarkFailed(_ context.Context, id uint) (bool, error) {
	o, ok := r.orders[id]
	if !ok || o.Status != order.StatusPending {
		return false, nil
	}
	o.Status = order.StatusFailed
	return true, nil
}

type noopRedeemer struct{}

func (noopRedeemer) RedeemForOrder(context.Context, string, uint, uint) (*promo.PromoRedemption, error) {
	return nil, nil
}

type noopNotifier struct{}

func (noopNotifier) OrderPaid(context.Context, *order.Order) error { return nil }

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, string, map[string]interface{}) error { return nil }

func newOrderTestRouter(repo *stubOrderRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := order.NewService(repo, noopRedeemer{}, noopNotifier{}, noopEmitter{}, log, "ORD")

	cfg := &config.Config{}
	cfg.Checkout.OrderCookieMaxAge = 24 * time.Hour
	h := NewOrderHandler(svc, nil, cfg)

	r := gin.New()
	r.POST("/order/complete", h.Complete)
	return r
}

func TestComplete(t *testing.T) {
	t.Run("guest with token gets order cookies back", func(t *testing.T) {
		repo := &stubOrderRepo{orders: map[uint]*order.Order{
			1: {ID: 1, AccessToken: "guest-token", Status: order.StatusPending, TotalAmount: 500},
		}}
		r := newOrderTestRouter(repo)

		req := httptest.NewRequest(http.MethodPost, "/order/complete?order_token=guest-token", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"public_number":"ORD-00000001"`)
		assert.NotContains(t, w.Body.String(), "guest-token", "access token must not leak into the body")

		cookies := map[string]string{}
		for _, ck := range w.Result().Cookies() {
			cookies[ck.Name] = ck.Value
		}
		assert.Equal(t, "1", cookies["order_id"])
		assert.Equal(t, "guest-token", cookies["order_token"])
	})

	t.Run("repeat confirm refreshes the same cookies", func(t *testing.T) {
		repo := &stubOrderRepo{orders: map[uint]*order.Order{
			1: {ID: 1, AccessToken: "guest-token", Status: order.StatusPending, TotalAmount: 500},
		}}
		r := newOrderTestRouter(repo)

		first := httptest.NewRecorder()
		r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/order/complete?order_token=guest-token", nil))
		require.Equal(t, http.StatusOK, first.Code)

		second := httptest.NewRecorder()
		r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/order/complete?order_token=guest-token", nil))
		require.Equal(t, http.StatusOK, second.Code)

		cookies := map[string]string{}
		for _, ck := range second.Result().Cookies() {
			cookies[ck.Name] = ck.Value
		}
		assert.Equal(t, "guest-token", cookies["order_token"])
		assert.Equal(t, first.Body.String(), second.Body.String())
	})

	t.Run("unknown token is a 404 without cookies", func(t *testing.T) {
		repo := &stubOrderRepo{orders: map[uint]*order.Order{}}
		r := newOrderTestRouter(repo)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/order/complete?order_token=missing", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})
}
