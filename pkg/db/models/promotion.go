package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexylabs/nexyshop-backend/pkg/enums"
)

// Promotion discounts a product or a whole category inside a time window.
type Promotion struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string              `gorm:"column:name;type:text;not null"`
	ScopeType     string              `gorm:"column:scope_type;type:text;not null"`
	ScopeID       *uuid.UUID          `gorm:"column:scope_id;type:uuid"`
	DiscountType  enums.PromotionType `gorm:"column:discount_type;type:text;not null;default:'percentage'"`
	DiscountValue int                 `gorm:"column:discount_value;not null;default:0"`
	StartAt       *time.Time          `gorm:"column:start_at"`
	EndAt         *time.Time          `gorm:"column:end_at"`
	IsActive      bool                `gorm:"column:is_active;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
