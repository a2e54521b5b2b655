package models

import (
	"time"

	"github.com/google/uuid"
)

// SiteContent is a keyed block of storefront copy or imagery.
type SiteContent struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Key         string    `gorm:"column:key;type:text;not null;uniqueIndex"`
	Value       *string   `gorm:"column:value;type:text"`
	ContentType string    `gorm:"column:content_type;type:text;not null;default:'text'"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
