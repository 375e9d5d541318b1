package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gbaldan/invoice-audit/internal/entity"
	"github.com/gbaldan/invoice-audit/internal/invoicexml"
)

func invoicePayload(total string) []byte {
	return []byte(fmt.Sprintf(`<FatturaElettronica><FatturaElettronicaBody>
		<DatiGenerali><DatiGeneraliDocumento><ImportoTotaleDocumento>%s</ImportoTotaleDocumento></DatiGeneraliDocumento></DatiGenerali>
		<DatiBeniServizi>
			<DettaglioLinee><Descrizione>Spesa Materiale consumo</Descrizione><PrezzoTotale>10.00</PrezzoTotale><AliquotaIVA>22.00</AliquotaIVA></DettaglioLinee>
		</DatiBeniServizi>
	</FatturaElettronicaBody></FatturaElettronica>`, total))
}

func xmlRecord(company string, year int, docID, registryID int64) entity.ChangeLogRecord {
	return entity.ChangeLogRecord{
		DocumentID: docID,
		Year:       year,
		Company:    company,
		User:       "mrossi",
		Note:       "ridotto importo a 50,00",
		ModifiedAt: "2025-03-10 09:00:00",
		RegistryID: registryID,
	}
}

func newTestEngine(src *fakeSource, repo *fakeRepo) *Engine {
	return NewEngine(src, repo, invoicexml.NewEvaluator(nil), nil)
}

func TestProcessRecordPersists(t *testing.T) {
	src := &fakeSource{
		company: "BG",
		invoices: map[int64]*entity.InvoiceRecord{
			77: {RegistryID: 77, TransmittedAt: "2025-03-10 11:00:00", Payload: invoicePayload("100.00")},
		},
	}
	repo := &fakeRepo{}
	eng := newTestEngine(src, repo)

	persisted, err := eng.ProcessRecord(context.Background(), xmlRecord("BG", 2025, 1001, 77))
	require.NoError(t, err)
	assert.True(t, persisted)

	require.Len(t, repo.entries, 1)
	e := repo.entries[0]
	assert.Equal(t, "87.80", e.InvoiceAmount.StringFixed(2))
	assert.Equal(t, "50.00", e.LogAmount.StringFixed(2))
	require.NotNil(t, e.RegistryID)
	assert.Equal(t, int64(77), *e.RegistryID)
	assert.Nil(t, e.PrintedAt)
	assert.Nil(t, e.LatestLogAmount)
}

func TestProcessRecordIdempotent(t *testing.T) {
	src := &fakeSource{
		company: "BG",
		invoices: map[int64]*entity.InvoiceRecord{
			77: {RegistryID: 77, TransmittedAt: "2025-03-10 11:00:00", Payload: invoicePayload("100.00")},
		},
	}
	repo := &fakeRepo{}
	eng := newTestEngine(src, repo)
	rec := xmlRecord("BG", 2025, 1001, 77)

	persisted, err := eng.ProcessRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.True(t, persisted)

	persisted, err = eng.ProcessRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, persisted)
	assert.Len(t, repo.entries, 1)
}

func TestProcessRecordYearEligibility(t *testing.T) {
	tests := []struct {
		company string
		year    int
		want    bool
	}{
		{"CV", 2023, false},
		{"CV", 2024, true},
		{"BG", 2024, false},
		{"BG", 2025, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s-%d", tt.company, tt.year), func(t *testing.T) {
			src := &fakeSource{
				company: tt.company,
				invoices: map[int64]*entity.InvoiceRecord{
					77: {RegistryID: 77, TransmittedAt: "2026-01-10 11:00:00", Payload: invoicePayload("100.00")},
				},
			}
			repo := &fakeRepo{}
			eng := newTestEngine(src, repo)

			persisted, err := eng.ProcessRecord(context.Background(), xmlRecord(tt.company, tt.year, 1, 77))
			require.NoError(t, err)
			assert.Equal(t, tt.want, persisted)
		})
	}
}

func TestProcessRecordSkips(t *testing.T) {
	goodInvoices := map[int64]*entity.InvoiceRecord{
		77: {RegistryID: 77, TransmittedAt: "2025-03-10 11:00:00", Payload: invoicePayload("100.00")},
	}
	tests := []struct {
		name     string
		record   entity.ChangeLogRecord
		invoices map[int64]*entity.InvoiceRecord
	}{
		{"missing registry id", xmlRecord("BG", 2025, 1, 0), goodInvoices},
		{"invoice absent from registry", xmlRecord("BG", 2025, 1, 99), goodInvoices},
		{"no transmission timestamp", xmlRecord("BG", 2025, 1, 77), map[int64]*entity.InvoiceRecord{
			77: {RegistryID: 77, Payload: invoicePayload("100.00")},
		}},
		{"malformed payload", xmlRecord("BG", 2025, 1, 77), map[int64]*entity.InvoiceRecord{
			77: {RegistryID: 77, TransmittedAt: "2025-03-10 11:00:00", Payload: []byte("<broken")},
		}},
		{"unparseable transmission timestamp", xmlRecord("BG", 2025, 1, 77), map[int64]*entity.InvoiceRecord{
			77: {RegistryID: 77, TransmittedAt: "domani", Payload: invoicePayload("100.00")},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{company: "BG", invoices: tt.invoices}
			repo := &fakeRepo{}
			eng := newTestEngine(src, repo)

			persisted, err := eng.ProcessRecord(context.Background(), tt.record)
			require.NoError(t, err)
			assert.False(t, persisted)
			assert.Empty(t, repo.entries)
		})
	}
}

func TestProcessRecordModificationAfterTransmission(t *testing.T) {
	src := &fakeSource{
		company: "BG",
		invoices: map[int64]*entity.InvoiceRecord{
			77: {RegistryID: 77, TransmittedAt: "2025-03-10 08:00:00", Payload: invoicePayload("100.00")},
		},
	}
	eng := newTestEngine(src, &fakeRepo{})

	// Modified at 09:00, transmitted at 08:00: not earlier, skipped.
	persisted, err := eng.ProcessRecord(context.Background(), xmlRecord("BG", 2025, 1, 77))
	require.NoError(t, err)
	assert.False(t, persisted)
}

func TestProcessRecordDateOnlyTransmission(t *testing.T) {
	src := &fakeSource{
		company: "BG",
		invoices: map[int64]*entity.InvoiceRecord{
			77: {RegistryID: 77, TransmittedAt: "20250311", Payload: invoicePayload("100.00")},
		},
	}
	repo := &fakeRepo{}
	eng := newTestEngine(src, repo)

	persisted, err := eng.ProcessRecord(context.Background(), xmlRecord("BG", 2025, 1, 77))
	require.NoError(t, err)
	assert.True(t, persisted)
}

func TestProcessRecordNoteWithoutAmount(t *testing.T) {
	src := &fakeSource{
		company: "BG",
		invoices: map[int64]*entity.InvoiceRecord{
			77: {RegistryID: 77, TransmittedAt: "2025-03-10 11:00:00", Payload: invoicePayload("100.00")},
		},
	}
	eng := newTestEngine(src, &fakeRepo{})

	rec := xmlRecord("BG", 2025, 1, 77)
	rec.Note = "nessun importo"
	persisted, err := eng.ProcessRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.False(t, persisted)
}

func TestProcessRecordStoreErrorPropagates(t *testing.T) {
	src := &fakeSource{
		company: "BG",
		invoices: map[int64]*entity.InvoiceRecord{
			77: {RegistryID: 77, TransmittedAt: "2025-03-10 11:00:00", Payload: invoicePayload("100.00")},
		},
	}
	eng := newTestEngine(src, &fakeRepo{insertErr: errRepoDown})

	_, err := eng.ProcessRecord(context.Background(), xmlRecord("BG", 2025, 1, 77))
	assert.ErrorIs(t, err, errRepoDown)
}
