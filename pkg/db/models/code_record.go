package models

import (
	"time"

	"github.com/google/uuid"
)

// CodeRecord is one encrypted redemption code in inventory. A record is
// available while used_at is NULL; claiming it is append-only, the
// allocation columns are never cleared once set.
type CodeRecord struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PackID            uuid.UUID  `gorm:"column:pack_id;type:uuid;not null;index"`
	CodeEncrypted     string     `gorm:"column:code_encrypted;type:text;not null"`
	UsedAt            *time.Time `gorm:"column:used_at;index"`
	AllocatedToUserID *uuid.UUID `gorm:"column:allocated_to_user_id;type:uuid"`
	AllocatedOrderID  *uuid.UUID `gorm:"column:allocated_order_id;type:uuid"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
