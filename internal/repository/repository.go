// Package repository persists reconciled audit entries.
package repository

import (
	"context"
	"time"

	"github.com/gbaldan/invoice-audit/internal/entity"
)

// AuditRepository is the audit store. Exists checks the dedup key that makes
// re-runs idempotent; List returns entries in insertion order, newest first.
type AuditRepository interface {
	Insert(ctx context.Context, e *entity.AuditEntry) error
	Exists(ctx context.Context, documentID, registryID int64, company string, modifiedAt time.Time) (bool, error)
	DeleteAll(ctx context.Context) error
	List(ctx context.Context, company *string) ([]*entity.AuditEntry, error)
}
