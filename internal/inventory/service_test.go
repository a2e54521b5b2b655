package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nexylabs/nexyshop-backend/pkg/db/models"
	pkgerrors "github.com/nexylabs/nexyshop-backend/pkg/errors"
)

type directTxRunner struct {
	db *gorm.DB
}

func (r directTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func TestImportCodesEncryptsAndStores(t *testing.T) {
	t.Parallel()

	db := newInventoryDB(t, "inventory_import")
	enc := newTestEncryptor(t)
	svc, err := NewService(NewRepository(db), enc, directTxRunner{db: db})
	require.NoError(t, err)

	packID := uuid.New()
	count, err := svc.ImportCodes(context.Background(), packID, []string{
		"FF-110-0001",
		"  FF-110-0002  ",
		"",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var records []models.CodeRecord
	require.NoError(t, db.Order("created_at ASC").Find(&records).Error)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, packID, record.PackID)
		assert.Nil(t, record.UsedAt)
		assert.NotContains(t, record.CodeEncrypted, "FF-110")
	}

	plaintext, err := enc.Decrypt(records[0].CodeEncrypted)
	require.NoError(t, err)
	assert.Equal(t, "FF-110-0001", plaintext)

	remaining, err := svc.Remaining(context.Background(), packID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)
}

func TestImportCodesRejectsDuplicatesInBatch(t *testing.T) {
	t.Parallel()

	db := newInventoryDB(t, "inventory_import_dup")
	svc, err := NewService(NewRepository(db), newTestEncryptor(t), directTxRunner{db: db})
	require.NoError(t, err)

	_, err = svc.ImportCodes(context.Background(), uuid.New(), []string{"SAME", "SAME"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, db.Model(&models.CodeRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImportCodesRejectsEmptyBatch(t *testing.T) {
	t.Parallel()

	db := newInventoryDB(t, "inventory_import_empty")
	svc, err := NewService(NewRepository(db), newTestEncryptor(t), directTxRunner{db: db})
	require.NoError(t, err)

	_, err = svc.ImportCodes(context.Background(), uuid.New(), []string{"", "   "})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.ImportCodes(context.Background(), uuid.Nil, []string{"X"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestRemainingCountsOnlyUnused(t *testing.T) {
	t.Parallel()

	db := newInventoryDB(t, "inventory_remaining")
	enc := newTestEncryptor(t)
	packID := uuid.New()
	repo := NewRepository(db)
	svc, err := NewService(repo, enc, directTxRunner{db: db})
	require.NoError(t, err)

	_, err = svc.ImportCodes(context.Background(), packID, []string{"A", "B", "C"})
	require.NoError(t, err)

	allocator, err := NewAllocator(repo, enc, nil)
	require.NoError(t, err)
	err = db.Transaction(func(tx *gorm.DB) error {
		_, txErr := allocator.AllocateForOrder(context.Background(), tx, orderFor(packID))
		return txErr
	})
	require.NoError(t, err)

	remaining, err := svc.Remaining(context.Background(), packID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)

	used, err := repo.CountUsed(context.Background(), packID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), used)
}
