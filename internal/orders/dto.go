package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	"github.com/nexylabs/nexyshop-backend/pkg/enums"
)

// OrderItemSummary is one pack line as returned to the customer.
type OrderItemSummary struct {
	PackID         uuid.UUID `json:"pack_id"`
	PackName       string    `json:"pack_name,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unit_price_cents"`
	TotalCents     int       `json:"total_cents"`
}

// OrderSummary exposes the fields returned in the customer order list.
type OrderSummary struct {
	ID         uuid.UUID          `json:"id"`
	Status     enums.OrderStatus  `json:"status"`
	TotalCents int                `json:"total_cents"`
	Currency   enums.Currency     `json:"currency"`
	Items      []OrderItemSummary `json:"items"`
	CreatedAt  time.Time          `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"-"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// RevealedCode carries the decrypted code for a fulfilled order. Code is
// nil until fulfillment completes.
type RevealedCode struct {
	OrderID uuid.UUID `json:"order_id"`
	Code    *string   `json:"code"`
}

func toSummary(order models.Order) OrderSummary {
	items := make([]OrderItemSummary, 0, len(order.Items))
	for _, item := range order.Items {
		summary := OrderItemSummary{
			PackID:         item.PackID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		}
		if item.Pack != nil {
			summary.PackName = item.Pack.Name
		}
		items = append(items, summary)
	}
	return OrderSummary{
		ID:         order.ID,
		Status:     order.Status,
		TotalCents: order.TotalCents,
		Currency:   order.Currency,
		Items:      items,
		CreatedAt:  order.CreatedAt,
	}
}
