package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexylabs/nexyshop-backend/pkg/enums"
)

// Product is a storefront listing shown under a game category.
type Product struct {
	ID             uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name           string         `gorm:"column:name;type:text;not null"`
	Slug           string         `gorm:"column:slug;type:text;not null;uniqueIndex"`
	Description    *string        `gorm:"column:description;type:text"`
	ImageURL       *string        `gorm:"column:image_url;type:text"`
	BasePriceCents int            `gorm:"column:base_price_cents;not null"`
	Currency       enums.Currency `gorm:"column:currency;type:text;not null;default:'XOF'"`
	IsActive       bool           `gorm:"column:is_active;not null"`
	SortOrder      int            `gorm:"column:sort_order;not null;default:0"`
	CategoryID     uuid.UUID      `gorm:"column:category_id;type:uuid;not null;index"`
	CreatedAt      time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
