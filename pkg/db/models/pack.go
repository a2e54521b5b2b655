package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexylabs/nexyshop-backend/pkg/enums"
)

// Pack is a purchasable bundle of in-game currency.
type Pack struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string         `gorm:"column:name;type:text;not null"`
	Amount     int            `gorm:"column:amount;not null"`
	PriceCents int            `gorm:"column:price_cents;not null"`
	Currency   enums.Currency `gorm:"column:currency;type:text;not null;default:'XOF'"`
	IsActive   bool           `gorm:"column:is_active;not null"`
	SortOrder  int            `gorm:"column:sort_order;not null;default:0"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
