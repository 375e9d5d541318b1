// Package source streams raw change-log and invoice-registry rows from the
// per-company operational databases.
package source

import (
	"context"

	"github.com/gbaldan/invoice-audit/internal/entity"
)

// Fetcher is the read-only view of one company's operational source.
// FetchChangeLogs failures are fatal for that company's run; FetchInvoice
// returning (nil, nil) means the registry has no such invoice, a normal
// outcome the caller skips over.
type Fetcher interface {
	Company() string
	FetchChangeLogs(ctx context.Context) ([]entity.ChangeLogRecord, error)
	FetchInvoice(ctx context.Context, registryID int64) (*entity.InvoiceRecord, error)
	Close() error
}
