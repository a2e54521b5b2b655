package stripewebhook

import (
	"context"
	"time"

	pkgredis "github.com/nexylabs/nexyshop-backend/pkg/redis"
)

const (
	eventGuardScope = "stripe-webhook"
	eventGuardTTL   = 7 * 24 * time.Hour
)

// EventGuard deduplicates webhook deliveries by event ID so Stripe retries
// of an already processed event become no-ops.
type EventGuard struct {
	store pkgredis.IdempotencyStore
}

func NewEventGuard(store pkgredis.IdempotencyStore) *EventGuard {
	return &EventGuard{store: store}
}

// CheckAndMark claims the event ID. It returns false when another delivery
// already claimed it. A nil store disables deduplication.
func (g *EventGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if g == nil || g.store == nil || eventID == "" {
		return true, nil
	}
	key := g.store.IdempotencyKey(eventGuardScope, eventID)
	return g.store.SetNX(ctx, key, "1", eventGuardTTL)
}

// Release drops the claim so a failed event can be retried by Stripe.
func (g *EventGuard) Release(ctx context.Context, eventID string) error {
	if g == nil || g.store == nil || eventID == "" {
		return nil
	}
	return g.store.Del(ctx, g.store.IdempotencyKey(eventGuardScope, eventID))
}
