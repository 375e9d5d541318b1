// Package invoicexml derives the authoritative invoice amount from the
// electronically-transmitted invoice payload.
package invoicexml

import (
	"encoding/xml"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// materialConsumptionMarker tags consumable-material expense lines, which are
// excluded from the auditable invoice amount together with their VAT.
const materialConsumptionMarker = "Spesa Materiale consumo"

type document struct {
	Total string `xml:"FatturaElettronicaBody>DatiGenerali>DatiGeneraliDocumento>ImportoTotaleDocumento"`
	Lines []line `xml:"FatturaElettronicaBody>DatiBeniServizi>DettaglioLinee"`
}

type line struct {
	Description string `xml:"Descrizione"`
	Total       string `xml:"PrezzoTotale"`
	VATRate     string `xml:"AliquotaIVA"`
}

// Evaluator computes the official invoice amount from a transmitted XML
// payload. A nil logger falls back to slog.Default().
type Evaluator struct {
	logger *slog.Logger
}

func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{logger: logger}
}

// Amount returns the invoice's declared total minus every material-consumption
// line and its VAT, rounded to two decimals. A missing total counts as zero.
// Malformed payloads or unparseable numeric fields return false; the caller
// skips the record rather than aborting the run.
func (e *Evaluator) Amount(payload []byte) (decimal.Decimal, bool) {
	var doc document
	if err := xml.Unmarshal(payload, &doc); err != nil {
		e.logger.Warn("invoice payload is not valid XML", "error", err)
		return decimal.Decimal{}, false
	}

	total := decimal.Zero
	if s := strings.TrimSpace(doc.Total); s != "" {
		var err error
		total, err = decimal.NewFromString(s)
		if err != nil {
			e.logger.Warn("invoice total is not numeric", "total", s)
			return decimal.Decimal{}, false
		}
	}

	deduction := decimal.Zero
	vatDeduction := decimal.Zero
	for _, l := range doc.Lines {
		if !strings.Contains(l.Description, materialConsumptionMarker) {
			continue
		}
		lineTotal, err := decimal.NewFromString(strings.TrimSpace(l.Total))
		if err != nil {
			e.logger.Warn("line total is not numeric", "description", l.Description, "total", l.Total)
			return decimal.Decimal{}, false
		}
		deduction = deduction.Add(lineTotal)
		if s := strings.TrimSpace(l.VATRate); s != "" {
			rate, err := decimal.NewFromString(s)
			if err != nil {
				e.logger.Warn("line VAT rate is not numeric", "description", l.Description, "rate", s)
				return decimal.Decimal{}, false
			}
			vatDeduction = vatDeduction.Add(lineTotal.Mul(rate).Div(decimal.NewFromInt(100)))
		}
	}

	return total.Sub(deduction).Sub(vatDeduction).Round(2), true
}
