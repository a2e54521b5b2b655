package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexylabs/nexyshop-backend/pkg/enums"
)

// Order is a customer purchase of one pack. FulfilledCode stores the
// allocated code as ciphertext and is only exposed through the reveal path.
type Order struct {
	ID                    uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	TotalCents            int               `gorm:"column:total_cents;not null"`
	Currency              enums.Currency    `gorm:"column:currency;type:text;not null;default:'XOF'"`
	Status                enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	StripePaymentIntentID *string           `gorm:"column:stripe_payment_intent_id;uniqueIndex"`
	FulfilledCode         *string           `gorm:"column:fulfilled_code;type:text"`
	Items                 []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt             time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
