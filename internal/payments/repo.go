package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
	"github.com/nexylabs/nexyshop-backend/pkg/types"
)

// Repository defines persistence operations for payment audit records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateInTx(ctx context.Context, tx *gorm.DB, payment *models.Payment) error
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	UpdateStatusByOrder(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus, payload *types.JSONMap) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateInTx(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) UpdateStatusByOrder(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus, payload *types.JSONMap) error {
	updates := map[string]any{"status": status}
	if payload != nil {
		updates["payload"] = payload
	}
	return r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("order_id = ?", orderID).
		Updates(updates).Error
}
