package models

import (
	"time"

	"github.com/google/uuid"
)

// SiteSetting is a keyed runtime toggle. Non-public settings never reach
// the storefront payload.
type SiteSetting struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Key       string    `gorm:"column:key;type:text;not null;uniqueIndex"`
	Value     *string   `gorm:"column:value;type:text"`
	IsPublic  bool      `gorm:"column:is_public;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
