package stripewebhook

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/nexylabs/nexyshop-backend/internal/orders"
	"github.com/nexylabs/nexyshop-backend/internal/payments"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
	"github.com/nexylabs/nexyshop-backend/pkg/logger"
	"github.com/nexylabs/nexyshop-backend/pkg/metrics"
	"github.com/nexylabs/nexyshop-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type fulfiller interface {
	Fulfill(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

type ServiceParams struct {
	OrdersRepo        orders.Repository
	PaymentsRepo      payments.Repository
	Fulfiller         fulfiller
	TransactionRunner txRunner
	Metrics           *metrics.FulfillmentMetrics
	Logger            *logger.Logger
}

// Service reacts to Stripe payment events. Payment confirmation and code
// fulfillment commit in one transaction so a paid order can never lose its
// code to a crash between the two.
type Service struct {
	ordersRepo   orders.Repository
	paymentsRepo payments.Repository
	fulfiller    fulfiller
	txRunner     txRunner
	metrics      *metrics.FulfillmentMetrics
	log          *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "orders repo required")
	}
	if params.PaymentsRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repo required")
	}
	if params.Fulfiller == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fulfiller required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		ordersRepo:   params.OrdersRepo,
		paymentsRepo: params.PaymentsRepo,
		fulfiller:    params.Fulfiller,
		txRunner:     params.TransactionRunner,
		metrics:      params.Metrics,
		log:          params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.handleIntentSucceeded(ctx, &intent)
	case stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.handleIntentFailed(ctx, &intent)
	default:
		return nil
	}
}

func (s *Service) handleIntentSucceeded(ctx context.Context, intent *stripe.PaymentIntent) error {
	if intent == nil || intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		order, err := ordersRepo.FindByPaymentIntentID(ctx, intent.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Acknowledge so Stripe stops retrying an intent we never issued.
				s.metrics.IncWebhookRejected("unknown_intent")
				s.log.Warn(ctx, "stripe intent has no matching order")
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by intent")
		}

		if _, err := ordersRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusPaid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}

		payload := snapshot(intent)
		if err := s.paymentsRepo.WithTx(tx).UpdateStatusByOrder(ctx, order.ID, enums.PaymentStatusSucceeded, &payload); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment succeeded")
		}

		return s.fulfiller.Fulfill(ctx, tx, order.ID)
	})
}

func (s *Service) handleIntentFailed(ctx context.Context, intent *stripe.PaymentIntent) error {
	if intent == nil || intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}

	order, err := s.ordersRepo.FindByPaymentIntentID(ctx, intent.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.IncWebhookRejected("unknown_intent")
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by intent")
	}

	payload := snapshot(intent)
	if err := s.paymentsRepo.UpdateStatusByOrder(ctx, order.ID, enums.PaymentStatusFailed, &payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
	}
	s.log.Warn(s.log.WithOrderID(ctx, order.ID.String()), "payment failed")
	return nil
}

func snapshot(intent *stripe.PaymentIntent) types.JSONMap {
	payload := types.JSONMap{
		"intent_id":     intent.ID,
		"intent_status": string(intent.Status),
		"amount":        intent.Amount,
		"currency":      string(intent.Currency),
	}
	if intent.LastPaymentError != nil {
		payload["last_error"] = intent.LastPaymentError.Msg
	}
	return payload
}
