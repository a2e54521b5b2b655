package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
)

// Repository defines persistence operations for the code inventory.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindAvailable(ctx context.Context, packID uuid.UUID) (*models.CodeRecord, error)
	Claim(ctx context.Context, recordID, userID, orderID uuid.UUID, at time.Time) (int64, error)
	BulkInsert(ctx context.Context, records []models.CodeRecord) error
	CountRemaining(ctx context.Context, packID uuid.UUID) (int64, error)
	CountUsed(ctx context.Context, packID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindAvailable returns the oldest unclaimed record for the pack. On
// Postgres the row is locked FOR UPDATE so concurrent allocators block;
// SQLite serializes writers on its own and rejects the clause.
func (r *repository) FindAvailable(ctx context.Context, packID uuid.UUID) (*models.CodeRecord, error) {
	query := r.db.WithContext(ctx).
		Where("pack_id = ? AND used_at IS NULL", packID).
		Order("created_at ASC")
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var record models.CodeRecord
	if err := query.First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// Claim marks the record used. The used_at IS NULL guard makes the write
// safe even without the row lock; callers must verify one row changed.
func (r *repository) Claim(ctx context.Context, recordID, userID, orderID uuid.UUID, at time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CodeRecord{}).
		Where("id = ? AND used_at IS NULL", recordID).
		Updates(map[string]any{
			"used_at":              at,
			"allocated_to_user_id": userID,
			"allocated_order_id":   orderID,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) BulkInsert(ctx context.Context, records []models.CodeRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *repository) CountRemaining(ctx context.Context, packID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CodeRecord{}).
		Where("pack_id = ? AND used_at IS NULL", packID).
		Count(&count).Error
	return count, err
}

func (r *repository) CountUsed(ctx context.Context, packID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CodeRecord{}).
		Where("pack_id = ? AND used_at IS NOT NULL", packID).
		Count(&count).Error
	return count, err
}
