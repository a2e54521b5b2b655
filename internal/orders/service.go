package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
	"github.com/nexylabs/nexyshop-backend/pkg/logger"
	"github.com/nexylabs/nexyshop-backend/pkg/metrics"
	"github.com/nexylabs/nexyshop-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type codeAllocator interface {
	AllocateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) (string, error)
}

type codeSealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type messageWriter interface {
	DeliverInTx(ctx context.Context, tx *gorm.DB, message *models.UserMessage) error
}

// Service defines order-level operations beyond repository reads.
type Service interface {
	Fulfill(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderSummary, error)
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderSummary], error)
	RevealCode(ctx context.Context, userID, orderID uuid.UUID) (*RevealedCode, error)
	RetryStuck(ctx context.Context, olderThan time.Duration) (int, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	allocator codeAllocator
	sealer    codeSealer
	messages  messageWriter
	metrics   *metrics.FulfillmentMetrics
	log       *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, allocator codeAllocator, sealer codeSealer, messages messageWriter, m *metrics.FulfillmentMetrics, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if allocator == nil {
		return nil, fmt.Errorf("code allocator required")
	}
	if sealer == nil {
		return nil, fmt.Errorf("code sealer required")
	}
	if messages == nil {
		return nil, fmt.Errorf("message writer required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		allocator: allocator,
		sealer:    sealer,
		messages:  messages,
		metrics:   m,
		log:       log,
	}, nil
}

// Fulfill allocates one code for a paid order and stores it encrypted on
// the order, all inside the caller's transaction. Calling it again for an
// already fulfilled order is a no-op, which keeps webhook retries safe.
func (s *service) Fulfill(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	repo := s.repo.WithTx(tx)

	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	if order.Status == enums.OrderStatusFulfilled {
		return nil
	}
	if order.Status != enums.OrderStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid").
			WithDetails(map[string]any{"status": order.Status})
	}

	plaintext, err := s.allocator.AllocateForOrder(ctx, tx, order)
	if err != nil {
		return err
	}
	ciphertext, err := s.sealer.Encrypt(plaintext)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypt fulfilled code")
	}
	if err := repo.UpdateFulfillment(ctx, order.ID, ciphertext); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store fulfilled code")
	}

	message := &models.UserMessage{
		ID:      uuid.New(),
		UserID:  order.UserID,
		Kind:    enums.MessageKindOrder,
		Title:   "Your code is ready",
		Content: fmt.Sprintf("Your purchase %s is complete. Open the order to reveal your code.", order.ID),
	}
	if err := s.messages.DeliverInTx(ctx, tx, message); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver fulfillment message")
	}

	s.metrics.IncOrderFulfilled()
	s.log.Info(s.log.WithOrderID(ctx, order.ID.String()), "order fulfilled")
	return nil
}

func (s *service) Get(ctx context.Context, userID, orderID uuid.UUID) (*OrderSummary, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	summary := toSummary(*order)
	return &summary, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[OrderSummary], error) {
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Page[OrderSummary]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := pagination.Page[OrderSummary]{Items: make([]OrderSummary, 0, len(list.Orders))}
	for _, order := range list.Orders {
		page.Items = append(page.Items, toSummary(order))
	}
	if list.NextCursor != "" {
		cursor := list.NextCursor
		page.NextCursor = &cursor
	}
	return page, nil
}

// RevealCode decrypts the stored code for the order owner. Code stays nil
// until the order reaches fulfilled.
func (s *service) RevealCode(ctx context.Context, userID, orderID uuid.UUID) (*RevealedCode, error) {
	order, err := s.ownedOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}

	revealed := &RevealedCode{OrderID: order.ID}
	if order.Status != enums.OrderStatusFulfilled || order.FulfilledCode == nil {
		return revealed, nil
	}

	plaintext, err := s.sealer.Decrypt(*order.FulfilledCode)
	if err != nil {
		// A corrupt or re-keyed ciphertext must not break the order view.
		s.log.Warn(s.log.WithOrderID(ctx, order.ID.String()), "stored code cannot be decrypted")
		return revealed, nil
	}
	revealed.Code = &plaintext
	return revealed, nil
}

// RetryStuck re-runs fulfillment for paid orders that never received a
// code, each in its own transaction so one failure cannot block the rest.
func (s *service) RetryStuck(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	stuck, err := s.repo.FindPaidUnfulfilledBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stuck orders")
	}

	fulfilled := 0
	for _, order := range stuck {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.Fulfill(ctx, tx, order.ID)
		})
		if err != nil {
			s.log.Error(s.log.WithOrderID(ctx, order.ID.String()), "retry fulfillment", err)
			continue
		}
		fulfilled++
	}
	return fulfilled, nil
}

func (s *service) ownedOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	// Ownership failures read as not found so order IDs cannot be probed.
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}
