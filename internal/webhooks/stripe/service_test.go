package stripewebhook

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/nexylabs/nexyshop-backend/internal/inventory"
	"github.com/nexylabs/nexyshop-backend/internal/orders"
	"github.com/nexylabs/nexyshop-backend/internal/payments"
	"github.com/nexylabs/nexyshop-backend/pkg/crypto"
	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
	pkglogger "github.com/nexylabs/nexyshop-backend/pkg/logger"
	"github.com/nexylabs/nexyshop-backend/pkg/types"
)

var webhookTablesDDL = []string{
	`CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    total_cents INTEGER NOT NULL DEFAULT 0,
    currency TEXT NOT NULL DEFAULT 'XOF',
    status TEXT NOT NULL DEFAULT 'pending',
    stripe_payment_intent_id TEXT UNIQUE,
    fulfilled_code TEXT,
    created_at DATETIME,
    updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS order_items (
    id TEXT PRIMARY KEY,
    order_id TEXT NOT NULL,
    pack_id TEXT NOT NULL,
    quantity INTEGER NOT NULL DEFAULT 1,
    unit_price_cents INTEGER NOT NULL DEFAULT 0,
    total_cents INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME,
    updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS packs (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    amount INTEGER NOT NULL DEFAULT 0,
    price_cents INTEGER NOT NULL DEFAULT 0,
    currency TEXT NOT NULL DEFAULT 'XOF',
    is_active INTEGER NOT NULL DEFAULT 1,
    sort_order INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME,
    updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS code_records (
    id TEXT PRIMARY KEY,
    pack_id TEXT NOT NULL,
    code_encrypted TEXT NOT NULL,
    used_at DATETIME,
    allocated_to_user_id TEXT,
    allocated_order_id TEXT,
    created_at DATETIME,
    updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS user_messages (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    kind TEXT NOT NULL DEFAULT 'notification',
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    code TEXT,
    read_status INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME,
    updated_at DATETIME
);`,
	`CREATE TABLE IF NOT EXISTS payments (
    id TEXT PRIMARY KEY,
    order_id TEXT NOT NULL,
    provider TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    payload TEXT,
    created_at DATETIME,
    updated_at DATETIME
);`,
}

type webhookTxRunner struct {
	db *gorm.DB
}

func (r webhookTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type webhookMessageWriter struct{}

func (webhookMessageWriter) DeliverInTx(ctx context.Context, tx *gorm.DB, message *models.UserMessage) error {
	return tx.WithContext(ctx).Create(message).Error
}

type webhookHarness struct {
	db  *gorm.DB
	enc *crypto.Encryptor
	svc *Service
}

func newWebhookHarness(t *testing.T) webhookHarness {
	t.Helper()

	dsn := "file:stripewebhook_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	for _, ddl := range webhookTablesDDL {
		require.NoError(t, db.Exec(ddl).Error)
	}

	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	enc, err := crypto.NewEncryptor(key)
	require.NoError(t, err)

	log := pkglogger.New(pkglogger.Options{ServiceName: "webhook-test", Output: io.Discard})
	allocator, err := inventory.NewAllocator(inventory.NewRepository(db), enc, nil)
	require.NoError(t, err)
	ordersRepo := orders.NewRepository(db)
	ordersSvc, err := orders.NewService(ordersRepo, webhookTxRunner{db: db}, allocator, enc, webhookMessageWriter{}, nil, log)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		OrdersRepo:        ordersRepo,
		PaymentsRepo:      payments.NewRepository(db),
		Fulfiller:         ordersSvc,
		TransactionRunner: webhookTxRunner{db: db},
		Logger:            log,
	})
	require.NoError(t, err)

	return webhookHarness{db: db, enc: enc, svc: svc}
}

func (h webhookHarness) seedScenario(t *testing.T, plaintextCode string) (models.Order, string) {
	t.Helper()

	pack := models.Pack{
		ID:         uuid.New(),
		Name:       "110 Diamants",
		Amount:     110,
		PriceCents: 105000,
		Currency:   enums.CurrencyXOF,
		IsActive:   true,
	}
	require.NoError(t, h.db.Create(&pack).Error)

	if plaintextCode != "" {
		sealed, err := h.enc.Encrypt(plaintextCode)
		require.NoError(t, err)
		require.NoError(t, h.db.Create(&models.CodeRecord{
			ID:            uuid.New(),
			PackID:        pack.ID,
			CodeEncrypted: sealed,
		}).Error)
	}

	intentID := "pi_" + uuid.NewString()
	order := models.Order{
		ID:                    uuid.New(),
		UserID:                uuid.New(),
		TotalCents:            pack.PriceCents,
		Currency:              pack.Currency,
		Status:                enums.OrderStatusPending,
		StripePaymentIntentID: &intentID,
		Items: []models.OrderItem{{
			ID:             uuid.New(),
			PackID:         pack.ID,
			Quantity:       1,
			UnitPriceCents: pack.PriceCents,
			TotalCents:     pack.PriceCents,
		}},
	}
	require.NoError(t, h.db.Create(&order).Error)

	payload := types.JSONMap{"intent_id": intentID}
	require.NoError(t, h.db.Create(&models.Payment{
		ID:       uuid.New(),
		OrderID:  order.ID,
		Provider: "stripe",
		Status:   enums.PaymentStatusPending,
		Payload:  &payload,
	}).Error)

	return order, intentID
}

func intentEvent(t *testing.T, eventType stripe.EventType, intentID string, status stripe.PaymentIntentStatus) *stripe.Event {
	t.Helper()

	raw, err := json.Marshal(map[string]any{
		"id":       intentID,
		"status":   string(status),
		"amount":   105000,
		"currency": "xof",
	})
	require.NoError(t, err)
	return &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventSucceededPaysAndFulfills(t *testing.T) {
	t.Parallel()

	h := newWebhookHarness(t)
	order, intentID := h.seedScenario(t, "FF-110-AAAA-BBBB")

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, intentID, stripe.PaymentIntentStatusSucceeded)
	require.NoError(t, h.svc.HandleEvent(context.Background(), event))

	var stored models.Order
	require.NoError(t, h.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusFulfilled, stored.Status)
	require.NotNil(t, stored.FulfilledCode)

	plaintext, err := h.enc.Decrypt(*stored.FulfilledCode)
	require.NoError(t, err)
	assert.Equal(t, "FF-110-AAAA-BBBB", plaintext)

	var payment models.Payment
	require.NoError(t, h.db.First(&payment, "order_id = ?", order.ID).Error)
	assert.Equal(t, enums.PaymentStatusSucceeded, payment.Status)
}

func TestHandleEventSucceededIsRetrySafe(t *testing.T) {
	t.Parallel()

	h := newWebhookHarness(t)
	order, intentID := h.seedScenario(t, "ONLY-ONE")
	require.NoError(t, h.db.Create(&models.CodeRecord{
		ID:            uuid.New(),
		PackID:        order.Items[0].PackID,
		CodeEncrypted: mustEncrypt(t, h.enc, "SPARE"),
	}).Error)

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, intentID, stripe.PaymentIntentStatusSucceeded)
	require.NoError(t, h.svc.HandleEvent(context.Background(), event))
	require.NoError(t, h.svc.HandleEvent(context.Background(), event))

	var used int64
	require.NoError(t, h.db.Model(&models.CodeRecord{}).Where("used_at IS NOT NULL").Count(&used).Error)
	assert.Equal(t, int64(1), used)
}

func TestHandleEventUnknownIntentIsAcked(t *testing.T) {
	t.Parallel()

	h := newWebhookHarness(t)
	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, "pi_unknown", stripe.PaymentIntentStatusSucceeded)
	require.NoError(t, h.svc.HandleEvent(context.Background(), event))
}

func TestHandleEventExhaustedInventoryRollsBack(t *testing.T) {
	t.Parallel()

	h := newWebhookHarness(t)
	order, intentID := h.seedScenario(t, "")

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, intentID, stripe.PaymentIntentStatusSucceeded)
	err := h.svc.HandleEvent(context.Background(), event)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNoInventory, pkgerrors.As(err).Code())

	// The whole transaction rolls back so the retry starts from pending.
	var stored models.Order
	require.NoError(t, h.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
}

func TestHandleEventPaymentFailedMarksPayment(t *testing.T) {
	t.Parallel()

	h := newWebhookHarness(t)
	order, intentID := h.seedScenario(t, "UNUSED")

	event := intentEvent(t, stripe.EventTypePaymentIntentPaymentFailed, intentID, stripe.PaymentIntentStatusRequiresPaymentMethod)
	require.NoError(t, h.svc.HandleEvent(context.Background(), event))

	var payment models.Payment
	require.NoError(t, h.db.First(&payment, "order_id = ?", order.ID).Error)
	assert.Equal(t, enums.PaymentStatusFailed, payment.Status)

	var stored models.Order
	require.NoError(t, h.db.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusPending, stored.Status)
}

func TestHandleEventIgnoresUnrelatedTypes(t *testing.T) {
	t.Parallel()

	h := newWebhookHarness(t)
	event := &stripe.Event{
		ID:   "evt_" + uuid.NewString(),
		Type: stripe.EventTypeChargeRefunded,
		Data: &stripe.EventData{Raw: json.RawMessage(`{}`)},
	}
	require.NoError(t, h.svc.HandleEvent(context.Background(), event))
}

func mustEncrypt(t *testing.T, enc *crypto.Encryptor, plaintext string) string {
	t.Helper()

	sealed, err := enc.Encrypt(plaintext)
	require.NoError(t, err)
	return sealed
}
