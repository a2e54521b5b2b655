package messages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
	"github.com/nexylabs/nexyshop-backend/pkg/pagination"
)

// Service defines inbox list/read operations.
type Service interface {
	DeliverInTx(ctx context.Context, tx *gorm.DB, message *models.UserMessage) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, messageID uuid.UUID) error
	MarkUnread(ctx context.Context, userID, messageID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, messageID uuid.UUID) error
}

type service struct {
	repo Repository
}

// ListParams configures pagination for the inbox.
type ListParams struct {
	UserID     uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned messages and the cursor for the next page.
type ListResult struct {
	Items  []models.UserMessage `json:"items"`
	Cursor string               `json:"cursor"`
}

// NewService wires inbox dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "messages repository required")
	}
	return &service{repo: repo}, nil
}

// DeliverInTx writes a message as part of a larger transaction, typically
// alongside the order state change that triggered it.
func (s *service) DeliverInTx(ctx context.Context, tx *gorm.DB, message *models.UserMessage) error {
	if message == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "message required")
	}
	if message.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "message user id required")
	}
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if err := s.repo.WithTx(tx).Create(ctx, message); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create message")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listMessagesParams{
		UserID:     params.UserID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread messages")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, messageID uuid.UUID) error {
	return s.setRead(ctx, userID, messageID, true)
}

func (s *service) MarkUnread(ctx context.Context, userID, messageID uuid.UUID) error {
	return s.setRead(ctx, userID, messageID, false)
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark messages read")
	}
	return count, nil
}

func (s *service) Delete(ctx context.Context, userID, messageID uuid.UUID) error {
	if userID == uuid.Nil || messageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and message id required")
	}
	affected, err := s.repo.Delete(ctx, userID, messageID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete message")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
	}
	return nil
}

func (s *service) setRead(ctx context.Context, userID, messageID uuid.UUID, read bool) error {
	if userID == uuid.Nil || messageID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and message id required")
	}
	affected, err := s.repo.SetRead(ctx, userID, messageID, read)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update message read state")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
	}
	return nil
}
