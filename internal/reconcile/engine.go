// Package reconcile decides which change-log records represent suspicious
// post-invoicing amount modifications.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/gbaldan/invoice-audit/constants"
	"github.com/gbaldan/invoice-audit/internal/entity"
	"github.com/gbaldan/invoice-audit/internal/invoicexml"
	"github.com/gbaldan/invoice-audit/internal/parse"
	"github.com/gbaldan/invoice-audit/internal/repository"
	"github.com/gbaldan/invoice-audit/internal/source"
)

// Engine evaluates one company's change-log records against its transmitted
// invoices and persists confirmed findings.
type Engine struct {
	source    source.Fetcher
	repo      repository.AuditRepository
	evaluator *invoicexml.Evaluator
	logger    *slog.Logger
}

func NewEngine(src source.Fetcher, repo repository.AuditRepository, ev *invoicexml.Evaluator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{source: src, repo: repo, evaluator: ev, logger: logger}
}

// ProcessRecord runs one change-log record through the invoice-comparison
// workflow. It returns true when an entry was persisted. Records that fail a
// parse or eligibility gate are skipped with a log line; only source and
// store errors propagate.
func (e *Engine) ProcessRecord(ctx context.Context, rec entity.ChangeLogRecord) (bool, error) {
	if !constants.EligibleYear(rec.Company, rec.Year) {
		e.logger.Debug("skip: year outside audit window", "company", rec.Company, "document_id", rec.DocumentID, "year", rec.Year)
		return false, nil
	}
	if rec.RegistryID <= 0 {
		e.logger.Debug("skip: no invoice registry id", "company", rec.Company, "document_id", rec.DocumentID)
		return false, nil
	}

	inv, err := e.source.FetchInvoice(ctx, rec.RegistryID)
	if err != nil {
		return false, err
	}
	if inv == nil {
		e.logger.Debug("skip: invoice not in registry", "company", rec.Company, "registry_id", rec.RegistryID)
		return false, nil
	}
	if inv.TransmittedAt == "" {
		e.logger.Debug("skip: invoice has no transmission timestamp", "company", rec.Company, "registry_id", rec.RegistryID)
		return false, nil
	}

	invoiceAmount, ok := e.evaluator.Amount(inv.Payload)
	if !ok {
		e.logger.Warn("skip: invoice amount unavailable", "company", rec.Company, "registry_id", rec.RegistryID)
		return false, nil
	}

	modifiedAt, ok := parse.Timestamp(rec.ModifiedAt)
	if !ok {
		e.logger.Warn("skip: unparseable modification timestamp", "company", rec.Company, "document_id", rec.DocumentID, "modified_at", rec.ModifiedAt)
		return false, nil
	}
	transmittedAt, ok := parse.Timestamp(inv.TransmittedAt)
	if !ok {
		e.logger.Warn("skip: unparseable transmission timestamp", "company", rec.Company, "registry_id", rec.RegistryID, "transmitted_at", inv.TransmittedAt)
		return false, nil
	}
	if !modifiedAt.Before(transmittedAt) {
		e.logger.Debug("skip: modification not before transmission", "company", rec.Company, "document_id", rec.DocumentID)
		return false, nil
	}

	// Gate the audit window again now that the timestamps are canonical.
	if !constants.EligibleYear(rec.Company, rec.Year) {
		return false, nil
	}

	logAmount, ok := parse.Amount(rec.Note)
	if !ok {
		e.logger.Debug("skip: no amount in note", "company", rec.Company, "document_id", rec.DocumentID)
		return false, nil
	}

	exists, err := e.repo.Exists(ctx, rec.DocumentID, rec.RegistryID, rec.Company, modifiedAt)
	if err != nil {
		return false, err
	}
	if exists {
		e.logger.Debug("skip: already recorded", "company", rec.Company, "document_id", rec.DocumentID, "registry_id", rec.RegistryID)
		return false, nil
	}

	registryID := rec.RegistryID
	entry := &entity.AuditEntry{
		DocumentID:    rec.DocumentID,
		Year:          rec.Year,
		ClientID:      rec.ClientID,
		DocType:       rec.DocType,
		DocDate:       rec.DocDate,
		DocNumber:     rec.DocNumber,
		InvoiceType:   rec.InvoiceType,
		InvoiceDate:   rec.InvoiceDate,
		InvoiceNumber: rec.InvoiceNumber,
		PaymentType:   rec.PaymentType,
		HistoryID:     rec.HistoryID,
		TableName:     rec.TableName,
		User:          rec.User,
		OperationType: rec.OperationType,
		Note:          rec.Note,
		ModifiedAt:    modifiedAt,
		Company:       rec.Company,
		Plate:         rec.Plate,
		RegistryID:    &registryID,
		TransmittedAt: &transmittedAt,
		InvoiceAmount: &invoiceAmount,
		LogAmount:     &logAmount,
	}
	if err := e.repo.Insert(ctx, entry); err != nil {
		return false, err
	}

	e.logger.Info("persisted audit entry",
		"company", rec.Company, "document_id", rec.DocumentID,
		"registry_id", rec.RegistryID, "user", rec.User,
		"invoice_amount", invoiceAmount.StringFixed(2),
		"log_amount", logAmount.StringFixed(2),
	)
	return true, nil
}
