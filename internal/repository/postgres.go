package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gbaldan/invoice-audit/internal/entity"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS invoice_audit_entries (
	id                BIGSERIAL PRIMARY KEY,
	document_id       BIGINT NOT NULL,
	year              INT,
	client_id         BIGINT,
	doc_type          TEXT,
	doc_date          TEXT,
	doc_number        TEXT,
	invoice_type      TEXT,
	invoice_date      TEXT,
	invoice_number    TEXT,
	payment_type      TEXT,
	history_id        BIGINT,
	table_name        TEXT,
	acting_user       TEXT,
	operation_type    TEXT,
	note              TEXT,
	modified_at       TIMESTAMPTZ NOT NULL,
	company           TEXT NOT NULL,
	plate             TEXT,
	printed_at        TIMESTAMPTZ,
	latest_log_amount NUMERIC(18,2),
	prior_log_amount  NUMERIC(18,2),
	registry_id       BIGINT,
	transmitted_at    TIMESTAMPTZ,
	invoice_amount    NUMERIC(18,2),
	log_amount        NUMERIC(18,2)
);
CREATE INDEX IF NOT EXISTS ix_invoice_audit_dedup
	ON invoice_audit_entries (document_id, registry_id, company, modified_at)`

type PostgresAuditRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresAuditRepository(pool *pgxpool.Pool, logger *slog.Logger) *PostgresAuditRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAuditRepository{pool: pool, logger: logger}
}

// EnsureSchema creates the audit table and dedup index if missing.
func (r *PostgresAuditRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, pgSchema)
	return err
}

func (r *PostgresAuditRepository) Insert(ctx context.Context, e *entity.AuditEntry) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO invoice_audit_entries (
			document_id, year, client_id, doc_type, doc_date, doc_number,
			invoice_type, invoice_date, invoice_number, payment_type,
			history_id, table_name, acting_user, operation_type, note,
			modified_at, company, plate,
			printed_at, latest_log_amount, prior_log_amount,
			registry_id, transmitted_at, invoice_amount, log_amount
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
		RETURNING id`,
		e.DocumentID, e.Year, e.ClientID, e.DocType, e.DocDate, e.DocNumber,
		e.InvoiceType, e.InvoiceDate, e.InvoiceNumber, e.PaymentType,
		e.HistoryID, e.TableName, e.User, e.OperationType, e.Note,
		e.ModifiedAt, e.Company, e.Plate,
		e.PrintedAt, nullDecimal(e.LatestLogAmount), nullDecimal(e.PriorLogAmount),
		e.RegistryID, e.TransmittedAt, nullDecimal(e.InvoiceAmount), nullDecimal(e.LogAmount),
	).Scan(&e.ID)
	if err != nil {
		r.logger.Error("failed to insert audit entry", "document_id", e.DocumentID, "company", e.Company, "error", err)
		return err
	}
	return nil
}

func (r *PostgresAuditRepository) Exists(ctx context.Context, documentID, registryID int64, company string, modifiedAt time.Time) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM invoice_audit_entries
			WHERE document_id = $1 AND registry_id = $2 AND company = $3 AND modified_at = $4
		)`, documentID, registryID, company, modifiedAt).Scan(&found)
	if err != nil {
		r.logger.Error("failed dedup lookup", "document_id", documentID, "company", company, "error", err)
		return false, err
	}
	return found, nil
}

func (r *PostgresAuditRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM invoice_audit_entries`)
	return err
}

func (r *PostgresAuditRepository) List(ctx context.Context, company *string) ([]*entity.AuditEntry, error) {
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
		q += ` WHERE company = $1`
		args = append(args, *company)
	}
	q += ` ORDER BY id DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("failed to list audit entries", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []*entity.AuditEntry
	for rows.Next() {
		var (
			e                         entity.AuditEntry
			latest, prior, inv, logAm decimal.NullDecimal
		)
		if err := rows.Scan(
			&e.ID, &e.DocumentID, &e.Year, &e.ClientID, &e.DocType, &e.DocDate, &e.DocNumber,
			&e.InvoiceType, &e.InvoiceDate, &e.InvoiceNumber, &e.PaymentType,
			&e.HistoryID, &e.TableName, &e.User, &e.OperationType, &e.Note,
			&e.ModifiedAt, &e.Company, &e.Plate,
			&e.PrintedAt, &latest, &prior,
			&e.RegistryID, &e.TransmittedAt, &inv, &logAm,
		); err != nil {
			return nil, err
		}
		e.LatestLogAmount = fromNullDecimal(latest)
		e.PriorLogAmount = fromNullDecimal(prior)
		e.InvoiceAmount = fromNullDecimal(inv)
		e.LogAmount = fromNullDecimal(logAm)
		out = append(out, &e)
	}
	return out, rows.Err()
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
