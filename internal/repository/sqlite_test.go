package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbaldan/invoice-audit/internal/entity"
)

func openTestRepo(t *testing.T) *SQLiteAuditRepository {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func xmlEntry(docID, registryID int64, company string, modifiedAt time.Time) *entity.AuditEntry {
	invoiceAmount := decimal.RequireFromString("87.80")
	logAmount := decimal.RequireFromString("50.00")
	transmitted := modifiedAt.Add(2 * time.Hour)
	return &entity.AuditEntry{
		DocumentID:    docID,
		Year:          2025,
		ClientID:      42,
		DocType:       "FT",
		DocNumber:     "125/A",
		PaymentType:   "MP05",
		User:          "mrossi",
		OperationType: "UPDATE",
		Note:          "corretto importo a 50,00",
		ModifiedAt:    modifiedAt,
		Company:       company,
		RegistryID:    &registryID,
		TransmittedAt: &transmitted,
		InvoiceAmount: &invoiceAmount,
		LogAmount:     &logAmount,
	}
}

func TestInsertAndList(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	modifiedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	first := xmlEntry(1001, 77, "CV", modifiedAt)
	require.NoError(t, repo.Insert(ctx, first))
	assert.NotZero(t, first.ID)

	second := xmlEntry(1002, 78, "BG", modifiedAt.Add(time.Minute))
	require.NoError(t, repo.Insert(ctx, second))

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// Insertion order, newest first.
	assert.Equal(t, int64(1002), all[0].DocumentID)
	assert.Equal(t, int64(1001), all[1].DocumentID)
	assert.Equal(t, "87.80", all[1].InvoiceAmount.StringFixed(2))
	assert.Equal(t, "50.00", all[1].LogAmount.StringFixed(2))
	assert.True(t, all[1].ModifiedAt.Equal(modifiedAt))
	require.NotNil(t, all[1].TransmittedAt)
	assert.Nil(t, all[1].LatestLogAmount)
	assert.Nil(t, all[1].PrintedAt)

	company := "CV"
	cv, err := repo.List(ctx, &company)
	require.NoError(t, err)
	require.Len(t, cv, 1)
	assert.Equal(t, "CV", cv[0].Company)
}

func TestExists(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	modifiedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, xmlEntry(1001, 77, "CV", modifiedAt)))

	found, err := repo.Exists(ctx, 1001, 77, "CV", modifiedAt)
	require.NoError(t, err)
	assert.True(t, found)

	// Any component of the key differing means a distinct finding.
	for _, tc := range []struct {
		doc, reg int64
		company  string
		at       time.Time
	}{
		{1002, 77, "CV", modifiedAt},
		{1001, 78, "CV", modifiedAt},
		{1001, 77, "BG", modifiedAt},
		{1001, 77, "CV", modifiedAt.Add(time.Second)},
	} {
		found, err := repo.Exists(ctx, tc.doc, tc.reg, tc.company, tc.at)
		require.NoError(t, err)
		assert.False(t, found)
	}
}

func TestDeleteAll(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, xmlEntry(1, 1, "CV", time.Now().UTC())))
	require.NoError(t, repo.DeleteAll(ctx))

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestLegacyEntryRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	printed := time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
	latest := decimal.RequireFromString("50.00")
	prior := decimal.RequireFromString("80.00")
	e := &entity.AuditEntry{
		DocumentID:      500,
		Company:         "BG",
		ModifiedAt:      printed.Add(5 * time.Minute),
		PrintedAt:       &printed,
		LatestLogAmount: &latest,
		PriorLogAmount:  &prior,
	}
	require.NoError(t, repo.Insert(ctx, e))

	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	got := all[0]
	require.NotNil(t, got.PrintedAt)
	assert.Equal(t, "50.00", got.LatestLogAmount.StringFixed(2))
	assert.Equal(t, "80.00", got.PriorLogAmount.StringFixed(2))
	assert.Nil(t, got.RegistryID)
	assert.Nil(t, got.InvoiceAmount)
}
