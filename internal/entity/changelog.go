package entity

// ChangeLogRecord is one raw audit-trail row fetched from a company's
// operational source. Timestamps are kept as the raw strings the source
// returned; the reconcile package parses them into canonical form.
type ChangeLogRecord struct {
	DocumentID    int64  `json:"document_id"`
	Year          int    `json:"year"`
	ClientID      int64  `json:"client_id"`
	DocType       string `json:"doc_type"`
	DocDate       string `json:"doc_date"`
	DocNumber     string `json:"doc_number"`
	InvoiceType   string `json:"invoice_type"`
	InvoiceDate   string `json:"invoice_date"`
	InvoiceNumber string `json:"invoice_number"`
	PaymentType   string `json:"payment_type"`
	HistoryID     int64  `json:"history_id"`
	TableName     string `json:"table_name"`
	User          string `json:"user"`
	OperationType string `json:"operation_type"`
	Note          string `json:"note"`
	ModifiedAt    string `json:"modified_at"`
	PrintedAt     string `json:"printed_at,omitempty"`
	Company       string `json:"company"`
	RegistryID    int64  `json:"registry_id,omitempty"`
	Plate         string `json:"plate,omitempty"`
}
