package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	stripelib "github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/nexylabs/nexyshop-backend/internal/orders"
	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
	"github.com/nexylabs/nexyshop-backend/pkg/logger"
	"github.com/nexylabs/nexyshop-backend/pkg/stripe"
	"github.com/nexylabs/nexyshop-backend/pkg/types"
)

// MaxQuantity caps how many of one pack a single order may contain.
const MaxQuantity = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type packFinder interface {
	FindActivePack(ctx context.Context, id uuid.UUID) (*models.Pack, error)
}

type paymentWriter interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
}

// Input is a checkout request for a single pack.
type Input struct {
	PackID   uuid.UUID
	Quantity int
}

// Result carries what the client needs to confirm the payment.
type Result struct {
	OrderID      uuid.UUID `json:"order_id"`
	ClientSecret string    `json:"client_secret"`
	TotalCents   int       `json:"total_cents"`
	Currency     string    `json:"currency"`
}

// Service turns a pack selection into a pending order with a payment intent.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Result, error)
}

type service struct {
	orders   orders.Repository
	packs    packFinder
	payments paymentWriter
	tx       txRunner
	intents  stripe.IntentCreator
	log      *logger.Logger
}

// NewService builds a checkout service with the required dependencies.
func NewService(ordersRepo orders.Repository, packs packFinder, payments paymentWriter, tx txRunner, intents stripe.IntentCreator, log *logger.Logger) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if packs == nil {
		return nil, fmt.Errorf("pack finder required")
	}
	if payments == nil {
		return nil, fmt.Errorf("payment writer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if intents == nil {
		return nil, fmt.Errorf("intent creator required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		orders:   ordersRepo,
		packs:    packs,
		payments: payments,
		tx:       tx,
		intents:  intents,
		log:      log,
	}, nil
}

// Checkout creates the pending order, registers a payment intent with the
// provider and records the attempt. The intent is created outside the DB
// transaction; an intent without an order is harmless, an order pointing at
// a missing intent is not.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (*Result, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.PackID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing pack_id")
	}
	if input.Quantity < 1 || input.Quantity > MaxQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 5")
	}

	pack, err := s.packs.FindActivePack(ctx, input.PackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pack not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pack")
	}

	totalCents := pack.PriceCents * input.Quantity
	orderID := uuid.New()

	intent, err := s.intents.CreateIntent(ctx, stripe.IntentInput{
		AmountCents: int64(totalCents),
		Currency:    pack.Currency.String(),
		Metadata: map[string]string{
			"order_id": orderID.String(),
			"pack_id":  pack.ID.String(),
			"user_id":  userID.String(),
		},
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order := &models.Order{
			ID:                    orderID,
			UserID:                userID,
			TotalCents:            totalCents,
			Currency:              pack.Currency,
			Status:                enums.OrderStatusPending,
			StripePaymentIntentID: &intent.ID,
			Items: []models.OrderItem{{
				ID:             uuid.New(),
				PackID:         pack.ID,
				Quantity:       input.Quantity,
				UnitPriceCents: pack.PriceCents,
				TotalCents:     totalCents,
			}},
		}
		if _, err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		payload := types.JSONMap{
			"intent_id":     intent.ID,
			"intent_status": string(intentStatus(intent)),
			"amount":        totalCents,
			"currency":      pack.Currency.String(),
			"pack_id":       pack.ID.String(),
			"pack_name":     pack.Name,
			"quantity":      input.Quantity,
		}
		payment := &models.Payment{
			ID:       uuid.New(),
			OrderID:  orderID,
			Provider: "stripe",
			Status:   enums.PaymentStatusPending,
			Payload:  &payload,
		}
		return s.payments.CreateInTx(ctx, tx, payment)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist checkout")
	}

	s.log.Info(s.log.WithOrderID(ctx, orderID.String()), "checkout created")
	return &Result{
		OrderID:      orderID,
		ClientSecret: intent.ClientSecret,
		TotalCents:   totalCents,
		Currency:     pack.Currency.String(),
	}, nil
}

func intentStatus(intent *stripelib.PaymentIntent) stripelib.PaymentIntentStatus {
	if intent == nil {
		return ""
	}
	return intent.Status
}
