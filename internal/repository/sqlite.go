package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/gbaldan/invoice-audit/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS invoice_audit_entries (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id       INTEGER NOT NULL,
	year              INTEGER,
	client_id         INTEGER,
	doc_type          TEXT,
	doc_date          TEXT,
	doc_number        TEXT,
	invoice_type      TEXT,
	invoice_date      TEXT,
	invoice_number    TEXT,
	payment_type      TEXT,
	history_id        INTEGER,
	table_name        TEXT,
	acting_user       TEXT,
	operation_type    TEXT,
	note              TEXT,
	modified_at       TEXT NOT NULL,
	company           TEXT NOT NULL,
	plate             TEXT,
	printed_at        TEXT,
	latest_log_amount TEXT,
	prior_log_amount  TEXT,
	registry_id       INTEGER,
	transmitted_at    TEXT,
	invoice_amount    TEXT,
	log_amount        TEXT
);
CREATE INDEX IF NOT EXISTS ix_invoice_audit_dedup
	ON invoice_audit_entries (document_id, registry_id, company, modified_at)`

// SQLiteAuditRepository is the local-file variant of the audit store, used by
// in-memory runs and tests. Timestamps are stored as RFC 3339 text and
// amounts as fixed two-decimal text.
type SQLiteAuditRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (or creates) a SQLite audit store at path; ":memory:"
// yields a throwaway store.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteAuditRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The in-memory database vanishes with its last connection.
	db.SetMaxOpenConns(1)
	r := &SQLiteAuditRepository{db: db, logger: logger}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteAuditRepository) Close() error { return r.db.Close() }

func (r *SQLiteAuditRepository) Insert(ctx context.Context, e *entity.AuditEntry) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO invoice_audit_entries (
			document_id, year, client_id, doc_type, doc_date, doc_number,
			invoice_type, invoice_date, invoice_number, payment_type,
			history_id, table_name, acting_user, operation_type, note,
			modified_at, company, plate,
			printed_at, latest_log_amount, prior_log_amount,
			registry_id, transmitted_at, invoice_amount, log_amount
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		e.DocumentID, e.Year, e.ClientID, e.DocType, e.DocDate, e.DocNumber,
		e.InvoiceType, e.InvoiceDate, e.InvoiceNumber, e.PaymentType,
		e.HistoryID, e.TableName, e.User, e.OperationType, e.Note,
		formatTime(e.ModifiedAt), e.Company, e.Plate,
		formatTimePtr(e.PrintedAt), formatDecimalPtr(e.LatestLogAmount), formatDecimalPtr(e.PriorLogAmount),
		e.RegistryID, formatTimePtr(e.TransmittedAt), formatDecimalPtr(e.InvoiceAmount), formatDecimalPtr(e.LogAmount),
	)
	if err != nil {
		r.logger.Error("failed to insert audit entry", "document_id", e.DocumentID, "company", e.Company, "error", err)
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

func (r *SQLiteAuditRepository) Exists(ctx context.Context, documentID, registryID int64, company string, modifiedAt time.Time) (bool, error) {
	var found bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM invoice_audit_entries
			WHERE document_id = ? AND registry_id = ? AND company = ? AND modified_at = ?
		)`, documentID, registryID, company, formatTime(modifiedAt)).Scan(&found)
	if err != nil {
		r.logger.Error("failed dedup lookup", "document_id", documentID, "company", company, "error", err)
		return false, err
	}
	return found, nil
}

func (r *SQLiteAuditRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM invoice_audit_entries`)
	return err
}

func (r *SQLiteAuditRepository) List(ctx context.Context, company *string) ([]*entity.AuditEntry, error) {
	q := `
		SELECT id, document_id, year, client_id, doc_type, doc_date, doc_number,
		       invoice_type, invoice_date, invoice_number, payment_type,
		       history_id, table_name, acting_user, operation_type, note,
		       modified_at, company, plate,
		       printed_at, latest_log_amount, prior_log_amount,
		       registry_id, transmitted_at, invoice_amount, log_amount
		FROM invoice_audit_entries`
	var args []any
	if company != nil {
		q += ` WHERE company = ?`
		args = append(args, *company)
	}
	q += ` ORDER BY id DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list audit entries", "error", err)
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.Warn("closing audit rows", "error", err)
		}
	}()

	var out []*entity.AuditEntry
	for rows.Next() {
		var (
			e                          entity.AuditEntry
			modifiedAt                 string
			printedAt, transmittedAt   sql.NullString
			latest, prior, inv, logAm  sql.NullString
			registryID                 sql.NullInt64
		)
		if err := rows.Scan(
			&e.ID, &e.DocumentID, &e.Year, &e.ClientID, &e.DocType, &e.DocDate, &e.DocNumber,
			&e.InvoiceType, &e.InvoiceDate, &e.InvoiceNumber, &e.PaymentType,
			&e.HistoryID, &e.TableName, &e.User, &e.OperationType, &e.Note,
			&modifiedAt, &e.Company, &e.Plate,
			&printedAt, &latest, &prior,
			&registryID, &transmittedAt, &inv, &logAm,
		); err != nil {
			return nil, err
		}
		if e.ModifiedAt, err = time.Parse(time.RFC3339Nano, modifiedAt); err != nil {
			return nil, err
		}
		if e.PrintedAt, err = parseTimePtr(printedAt); err != nil {
			return nil, err
		}
		if e.TransmittedAt, err = parseTimePtr(transmittedAt); err != nil {
			return nil, err
		}
		if registryID.Valid {
			e.RegistryID = &registryID.Int64
		}
		if e.LatestLogAmount, err = parseDecimalPtr(latest); err != nil {
			return nil, err
		}
		if e.PriorLogAmount, err = parseDecimalPtr(prior); err != nil {
			return nil, err
		}
		if e.InvoiceAmount, err = parseDecimalPtr(inv); err != nil {
			return nil, err
		}
		if e.LogAmount, err = parseDecimalPtr(logAm); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func formatDecimalPtr(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.StringFixed(2)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDecimalPtr(s sql.NullString) (*decimal.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
