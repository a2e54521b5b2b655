package messages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	"github.com/nexylabs/nexyshop-backend/pkg/pagination"
)

// Repository exposes persistence helpers for the user inbox.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, message *models.UserMessage) error
	List(ctx context.Context, params listMessagesParams) ([]models.UserMessage, *pagination.Cursor, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	SetRead(ctx context.Context, userID, messageID uuid.UUID, read bool) (int64, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, messageID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an inbox repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listMessagesParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
	UnreadOnly bool
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, message *models.UserMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *repositoryImpl) List(ctx context.Context, params listMessagesParams) ([]models.UserMessage, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.UserMessage{}).Where("user_id = ?", params.UserID)
	if params.UnreadOnly {
		query = query.Where("read_status = ?", false)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.UserMessage
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	if len(rows) > normalized {
		rows = rows[:normalized]
		last := rows[len(rows)-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

func (r *repositoryImpl) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserMessage{}).
		Where("user_id = ? AND read_status = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) SetRead(ctx context.Context, userID, messageID uuid.UUID, read bool) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.UserMessage{}).
		Where("id = ? AND user_id = ?", messageID, userID).
		UpdateColumn("read_status", read)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.UserMessage{}).
		Where("user_id = ? AND read_status = ?", userID, false).
		UpdateColumn("read_status", true)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, userID, messageID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", messageID, userID).
		Delete(&models.UserMessage{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
