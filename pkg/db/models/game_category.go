package models

import (
	"time"

	"github.com/google/uuid"
)

// GameCategory groups storefront products by game.
type GameCategory struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Slug      string    `gorm:"column:slug;type:text;not null;uniqueIndex"`
	ImageURL  *string   `gorm:"column:image_url;type:text"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
	IsActive  bool      `gorm:"column:is_active;not null"`
	Products  []Product `gorm:"foreignKey:CategoryID"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
