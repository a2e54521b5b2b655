package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
)

type encryptor interface {
	Encrypt(plaintext string) (string, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service handles admin-side inventory provisioning.
type Service interface {
	ImportCodes(ctx context.Context, packID uuid.UUID, codes []string) (int, error)
	Remaining(ctx context.Context, packID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
	enc  encryptor
	tx   txRunner
}

// NewService builds the provisioning service.
func NewService(repo Repository, enc encryptor, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if enc == nil {
		return nil, fmt.Errorf("encryptor required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, enc: enc, tx: tx}, nil
}

// ImportCodes encrypts each plaintext code and stores it as available
// inventory for the pack. Blank lines are skipped, duplicates within the
// batch are rejected.
func (s *service) ImportCodes(ctx context.Context, packID uuid.UUID, codes []string) (int, error) {
	if packID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "pack id required")
	}

	seen := make(map[string]struct{}, len(codes))
	records := make([]models.CodeRecord, 0, len(codes))
	for _, raw := range codes {
		code := strings.TrimSpace(raw)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "duplicate code in batch")
		}
		seen[code] = struct{}{}

		sealed, err := s.enc.Encrypt(code)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encrypt code")
		}
		records = append(records, models.CodeRecord{
			ID:            uuid.New(),
			PackID:        packID,
			CodeEncrypted: sealed,
		})
	}
	if len(records) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "no codes provided")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).BulkInsert(ctx, records)
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert codes")
	}
	return len(records), nil
}

func (s *service) Remaining(ctx context.Context, packID uuid.UUID) (int64, error) {
	if packID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "pack id required")
	}
	count, err := s.repo.CountRemaining(ctx, packID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count remaining codes")
	}
	return count, nil
}
