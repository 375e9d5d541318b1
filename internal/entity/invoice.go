package entity

// InvoiceRecord is the transmitted electronic invoice as stored in the
// source's registry: the transmission timestamp (raw string, full timestamp
// or yyyymmdd numeral) plus the embedded XML payload.
type InvoiceRecord struct {
	RegistryID    int64  `json:"registry_id"`
	TransmittedAt string `json:"transmitted_at"`
	Payload       []byte `json:"payload"`
}
