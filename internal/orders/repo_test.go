package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
	"github.com/nexylabs/nexyshop-backend/pkg/pagination"
)

var orderTablesDDL = []string{
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
}

func newOrdersDB(t *testing.T, name string) *gorm.DB {
	t.Helper()

	dsn := "file:" + name + "_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	for _, ddl := range orderTablesDDL {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedPack(t *testing.T, db *gorm.DB, name string, priceCents int) models.Pack {
	t.Helper()

	pack := models.Pack{
		ID:         uuid.New(),
		Name:       name,
		Amount:     110,
		PriceCents: priceCents,
		Currency:   enums.CurrencyXOF,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&pack).Error)
	return pack
}

func seedOrder(t *testing.T, db *gorm.DB, userID uuid.UUID, pack models.Pack, status enums.OrderStatus, at time.Time) models.Order {
	t.Helper()

	order := models.Order{
		ID:         uuid.New(),
		UserID:     userID,
		TotalCents: pack.PriceCents,
		Currency:   pack.Currency,
		Status:     status,
		CreatedAt:  at,
		UpdatedAt:  at,
		Items: []models.OrderItem{{
			ID:             uuid.New(),
			PackID:         pack.ID,
			Quantity:       1,
			UnitPriceCents: pack.PriceCents,
			TotalCents:     pack.PriceCents,
		}},
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}

func TestRepositoryCreateAndFind(t *testing.T) {
	t.Parallel()

	db := newOrdersDB(t, "orders_create")
	repo := NewRepository(db)
	pack := seedPack(t, db, "110 Diamants", 105000)
	userID := uuid.New()

	intentID := "pi_" + uuid.NewString()
	order := &models.Order{
		ID:                    uuid.New(),
		UserID:                userID,
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
	_, err := repo.Create(context.Background(), order)
	require.NoError(t, err)

	byID, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, byID.Items, 1)
	require.NotNil(t, byID.Items[0].Pack)
	assert.Equal(t, "110 Diamants", byID.Items[0].Pack.Name)

	byIntent, err := repo.FindByPaymentIntentID(context.Background(), intentID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, byIntent.ID)
}

func TestRepositoryListByUserPaginates(t *testing.T) {
	t.Parallel()

	db := newOrdersDB(t, "orders_list")
	repo := NewRepository(db)
	pack := seedPack(t, db, "310 Diamants", 280000)
	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedOrder(t, db, userID, pack, enums.OrderStatusPending, base.Add(time.Duration(i)*time.Minute))
	}
	seedOrder(t, db, uuid.New(), pack, enums.OrderStatusPending, base)

	first, err := repo.ListByUser(context.Background(), userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Orders, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.ListByUser(context.Background(), userID, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Empty(t, second.NextCursor)
	assert.True(t, first.Orders[1].CreatedAt.After(second.Orders[0].CreatedAt))
}

func TestRepositoryUpdateStatusGuardsTransition(t *testing.T) {
	t.Parallel()

	db := newOrdersDB(t, "orders_status")
	repo := NewRepository(db)
	pack := seedPack(t, db, "583 Diamants", 520000)
	order := seedOrder(t, db, uuid.New(), pack, enums.OrderStatusPending, time.Now().UTC())

	affected, err := repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = repo.UpdateStatus(context.Background(), order.ID, enums.OrderStatusPending, enums.OrderStatusPaid)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestRepositoryUpdateFulfillmentStoresCiphertextAndStatus(t *testing.T) {
	t.Parallel()

	db := newOrdersDB(t, "orders_fulfillment")
	repo := NewRepository(db)
	pack := seedPack(t, db, "1080 Diamants", 950000)
	order := seedOrder(t, db, uuid.New(), pack, enums.OrderStatusPaid, time.Now().UTC())

	require.NoError(t, repo.UpdateFulfillment(context.Background(), order.ID, "sealed-payload"))

	stored, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusFulfilled, stored.Status)
	require.NotNil(t, stored.FulfilledCode)
	assert.Equal(t, "sealed-payload", *stored.FulfilledCode)
}

func TestRepositoryFindPaidUnfulfilledBefore(t *testing.T) {
	t.Parallel()

	db := newOrdersDB(t, "orders_stuck")
	repo := NewRepository(db)
	pack := seedPack(t, db, "2200 Diamants", 1900000)
	old := time.Now().UTC().Add(-2 * time.Hour)
	stuck := seedOrder(t, db, uuid.New(), pack, enums.OrderStatusPaid, old)
	seedOrder(t, db, uuid.New(), pack, enums.OrderStatusPaid, time.Now().UTC())
	seedOrder(t, db, uuid.New(), pack, enums.OrderStatusPending, old)

	rows, err := repo.FindPaidUnfulfilledBefore(context.Background(), time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, stuck.ID, rows[0].ID)
	require.Len(t, rows[0].Items, 1)
}
