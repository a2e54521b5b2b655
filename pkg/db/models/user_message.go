package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexylabs/nexyshop-backend/pkg/enums"
)

// UserMessage is an inbox entry delivered to a single user.
type UserMessage struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index:idx_user_messages_user_read"`
	Kind       enums.MessageKind `gorm:"column:kind;type:text;not null;default:'notification'"`
	Title      string            `gorm:"column:title;type:text;not null"`
	Content    string            `gorm:"column:content;type:text;not null"`
	Code       *string           `gorm:"column:code;type:text"`
	ReadStatus bool              `gorm:"column:read_status;not null;default:false;index:idx_user_messages_user_read"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
