package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nexylabs/nexyshop-backend/pkg/crypto"
	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
	"github.com/nexylabs/nexyshop-backend/pkg/metrics"
)

// Allocator claims exactly one unused code per paid order. Every claim
// happens inside the caller's transaction so an order update and the code
// claim commit or roll back together.
type Allocator struct {
	repo    Repository
	enc     *crypto.Encryptor
	metrics *metrics.FulfillmentMetrics
}

// NewAllocator builds an allocator with the required dependencies.
func NewAllocator(repo Repository, enc *crypto.Encryptor, m *metrics.FulfillmentMetrics) (*Allocator, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if enc == nil {
		return nil, fmt.Errorf("encryptor required")
	}
	return &Allocator{repo: repo, enc: enc, metrics: m}, nil
}

// AllocateForOrder claims one available code for the order's pack, marks it
// used and returns the decrypted plaintext. Exhausted inventory is a hard
// failure so a paid order is never silently left without a code.
func (a *Allocator) AllocateForOrder(ctx context.Context, tx *gorm.DB, order *models.Order) (string, error) {
	if order == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if len(order.Items) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "order has no items")
	}

	item := order.Items[0]
	repo := a.repo.WithTx(tx)

	record, err := repo.FindAvailable(ctx, item.PackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			a.metrics.IncAllocationFailure(item.PackID.String())
			return "", pkgerrors.New(pkgerrors.CodeNoInventory, "no code available").
				WithDetails(map[string]any{"pack_id": item.PackID})
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find available code")
	}

	affected, err := repo.Claim(ctx, record.ID, order.UserID, order.ID, time.Now().UTC())
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim code")
	}
	if affected != 1 {
		// Raced by another allocator between select and update.
		a.metrics.IncAllocationFailure(item.PackID.String())
		return "", pkgerrors.New(pkgerrors.CodeConflict, "code already claimed")
	}

	plaintext, err := a.enc.Decrypt(record.CodeEncrypted)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrypt allocated code")
	}

	a.metrics.IncCodeAllocated(item.PackID.String())
	return plaintext, nil
}
