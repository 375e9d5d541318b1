package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuditEntry is one confirmed suspicious modification, persisted to the audit
// store. Exactly one of the two amount pairs is populated per row: the legacy
// print-comparison pair (PrintedAt + LatestLogAmount/PriorLogAmount) or the
// invoice-comparison pair (RegistryID + TransmittedAt + InvoiceAmount/LogAmount).
type AuditEntry struct {
	ID            int64     `json:"id"`
	DocumentID    int64     `json:"document_id"`
	Year          int       `json:"year"`
	ClientID      int64     `json:"client_id"`
	DocType       string    `json:"doc_type"`
	DocDate       string    `json:"doc_date"`
	DocNumber     string    `json:"doc_number"`
	InvoiceType   string    `json:"invoice_type"`
	InvoiceDate   string    `json:"invoice_date"`
	InvoiceNumber string    `json:"invoice_number"`
	PaymentType   string    `json:"payment_type"`
	HistoryID     int64     `json:"history_id"`
	TableName     string    `json:"table_name"`
	User          string    `json:"user"`
	OperationType string    `json:"operation_type"`
	Note          string    `json:"note"`
	ModifiedAt    time.Time `json:"modified_at"`
	Company       string    `json:"company"`
	Plate         string    `json:"plate,omitempty"`

	// Legacy print-comparison pair.
	PrintedAt       *time.Time       `json:"printed_at,omitempty"`
	LatestLogAmount *decimal.Decimal `json:"latest_log_amount,omitempty"`
	PriorLogAmount  *decimal.Decimal `json:"prior_log_amount,omitempty"`

	// Invoice-comparison pair.
	RegistryID    *int64           `json:"registry_id,omitempty"`
	TransmittedAt *time.Time       `json:"transmitted_at,omitempty"`
	InvoiceAmount *decimal.Decimal `json:"invoice_amount,omitempty"`
	LogAmount     *decimal.Decimal `json:"log_amount,omitempty"`
}
