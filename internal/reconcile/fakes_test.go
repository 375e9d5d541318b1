package reconcile

import (
	"context"
	"errors"
	"time"

	"github.com/gbaldan/invoice-audit/internal/entity"
)

type fakeSource struct {
	company  string
	records  []entity.ChangeLogRecord
	invoices map[int64]*entity.InvoiceRecord
	fetchErr error
}

func (f *fakeSource) Company() string { return f.company }

func (f *fakeSource) FetchChangeLogs(ctx context.Context) ([]entity.ChangeLogRecord, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.records, nil
}

func (f *fakeSource) FetchInvoice(ctx context.Context, registryID int64) (*entity.InvoiceRecord, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.invoices[registryID], nil
}

func (f *fakeSource) Close() error { return nil }

type dedupKey struct {
	documentID int64
	registryID int64
	company    string
	modifiedAt time.Time
}

var errRepoDown = errors.New("repo down")

type fakeRepo struct {
	entries   []*entity.AuditEntry
	insertErr error
}

func (r *fakeRepo) Insert(ctx context.Context, e *entity.AuditEntry) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	e.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, e)
	return nil
}

func (r *fakeRepo) Exists(ctx context.Context, documentID, registryID int64, company string, modifiedAt time.Time) (bool, error) {
	for _, e := range r.entries {
		if e.RegistryID == nil {
			continue
		}
		k := dedupKey{e.DocumentID, *e.RegistryID, e.Company, e.ModifiedAt}
		if k == (dedupKey{documentID, registryID, company, modifiedAt}) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) DeleteAll(ctx context.Context) error {
	r.entries = nil
	return nil
}

func (r *fakeRepo) List(ctx context.Context, company *string) ([]*entity.AuditEntry, error) {
	var out []*entity.AuditEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if company == nil || r.entries[i].Company == *company {
			out = append(out, r.entries[i])
		}
	}
	return out, nil
}
