// internal/domain/order/settlement.go
package order

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/promo"
)

// Settlement errors
var (
	ErrNotFound     = errors.New("order not found")
	ErrAccessDenied = errors.New("order belongs to another user")
	ErrNotPending   = errors.New("order is not awaiting payment")
)

// PromoRedeemer finalizes a promo code for a settled order
type PromoRedeemer interface {
	RedeemForOrder(ctx context.Context, code string, userID, orderID uint) (*promo.PromoRedemption, error)
}

// Notifier delivers the order-paid notification. Fire-and-forget: failures
// are logged and never surface to the caller.
type Notifier interface {
	OrderPaid(ctx context.Context, o *Order) error
}

// AnalyticsEmitter publishes settlement events to the analytics sink
type AnalyticsEmitter interface {
	Emit(ctx context.Context, event string, payload map[string]interface{}) error
}

// Service handles order creation and settlement
type Service struct {
	repo         Repository
	redeemer     PromoRedeemer
	notifier     Notifier
	analytics    AnalyticsEmitter
	log          *logrus.Logger
	numberPrefix string
}

// NewService creates a new order service
func NewService(repo Repository, redeemer PromoRedeemer, notifier Notifier, analytics AnalyticsEmitter, log *logrus.Logger, numberPrefix string) *Service {
	return &Service{
		repo:         repo,
		redeemer:     redeemer,
		notifier:     notifier,
		analytics:    analytics,
		log:          log,
		numberPrefix: numberPrefix,
	}
}

// ConfirmParams identifies the order to settle. Lookup priority: numeric id,
// then access token, then the caller's most recent pending order.
type ConfirmParams struct {
	OrderID      *uint
	AccessToken  string
	CallerUserID *uint
}

// ConfirmResult is returned for both first-time and repeated confirmations.
// AccessToken stays out of the body; the HTTP layer hands it back as a cookie
// so guests keep order-history access after a provider redirect.
type ConfirmResult struct {
	OrderID      uint   `json:"order_id"`
	PublicNumber string `json:"public_number"`
	AccessToken  string `json:"-"`
}

// ConfirmSettlement idempotently transitions a pending order to succeeded.
// The atomic conditional update decides a single winner under concurrent
// retries; only the winner fires the one-time side effects.
func (s *Service) ConfirmSettlement(ctx context.Context, p ConfirmParams) (*ConfirmResult, error) {
	o, err := s.lookup(ctx, p)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}

	if o.UserID != nil && p.CallerUserID != nil && *o.UserID != *p.CallerUserID {
		return nil, ErrAccessDenied
	}

	if o.Status == StatusSucceeded {
		return resultFor(o), nil
	}
	if o.Status == StatusFailed {
		return nil, ErrNotPending
	}

	publicNumber := PublicNumberFor(s.numberPrefix, o.ID)
	won, err := s.repo.MarkSucceeded(ctx, o.ID, publicNumber, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent request got there first; report its outcome
		current, err := s.repo.FindByID(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		if current == nil || current.Status != StatusSucceeded {
			return nil, ErrNotPending
		}
		return resultFor(current), nil
	}

	o.Status = StatusSucceeded
	o.PublicNumber = &publicNumber
	s.dispatchSideEffects(ctx, o)

	return &ConfirmResult{OrderID: o.ID, PublicNumber: publicNumber, AccessToken: o.AccessToken}, nil
}

// FailOrder records a rejected payment as a terminal failed state. Only
// reachable when the failed-state feature is enabled; the transition uses
// the same atomic pattern as settlement.
func (s *Service) FailOrder(ctx context.Context, p ConfirmParams) error {
	o, err := s.lookup(ctx, p)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrNotFound
	}
	if o.UserID != nil && p.CallerUserID != nil && *o.UserID != *p.CallerUserID {
		return ErrAccessDenied
	}
	if o.Status != StatusPending {
		return ErrNotPending
	}

	won, err := s.repo.MarkFailed(ctx, o.ID)
	if err != nil {
		return err
	}
	if !won {
		return ErrNotPending
	}
	return nil
}

// GetOrder retrieves an order for the guest/owner lookup surface
func (s *Service) GetOrder(ctx context.Context, id uint) (*Order, error) {
	o, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

func (s *Service) lookup(ctx context.Context, p ConfirmParams) (*Order, error) {
	if p.OrderID != nil && *p.OrderID > 0 {
		o, err := s.repo.FindByID(ctx, *p.OrderID)
		if err != nil {
			return nil, err
		}
		if o != nil {
			return o, nil
		}
	}
	if p.AccessToken != "" {
		o, err := s.repo.FindByAccessToken(ctx, p.AccessToken)
		if err != nil {
			return nil, err
		}
		if o != nil {
			return o, nil
		}
	}
	if p.CallerUserID != nil {
		return s.repo.FindLatestPendingByUser(ctx, *p.CallerUserID)
	}
	return nil, nil
}

// dispatchSideEffects fires the one-time post-settlement effects. Each is
// best-effort: a failure is logged with context and the confirmation still
// succeeds.
func (s *Service) dispatchSideEffects(ctx context.Context, o *Order) {
	if o.PromoCode != "" && o.UserID != nil {
		if _, err := s.redeemer.RedeemForOrder(ctx, o.PromoCode, *o.UserID, o.ID); err != nil {
			s.log.WithFields(logrus.Fields{
				"order_id":   o.ID,
				"promo_code": o.PromoCode,
			}).WithError(err).Error("failed to redeem promo code after settlement")
		}
	}

	if err := s.notifier.OrderPaid(ctx, o); err != nil {
		s.log.WithField("order_id", o.ID).WithError(err).Error("failed to send order notification")
	}

	payload := map[string]interface{}{
		"order_id":     o.ID,
		"total_amount": o.TotalAmount,
		"promo_code":   o.PromoCode,
	}
	if o.PublicNumber != nil {
		payload["public_number"] = *o.PublicNumber
	}
	if err := s.analytics.Emit(ctx, "order_settled", payload); err != nil {
		s.log.WithField("order_id", o.ID).WithError(err).Error("failed to emit analytics event")
	}
}

func resultFor(o *Order) *ConfirmResult {
	res := &ConfirmResult{OrderID: o.ID, AccessToken: o.AccessToken}
	if o.PublicNumber != nil {
		res.PublicNumber = *o.PublicNumber
	}
	return res
}
