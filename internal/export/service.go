// Package export renders persisted audit entries as XLSX or CSV artifacts.
package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/gbaldan/invoice-audit/internal/entity"
	"github.com/gbaldan/invoice-audit/internal/repository"
)

// Service is a tiny façade over the audit repository that produces export
// bytes for reporting.
type Service struct {
	repo   repository.AuditRepository
	logger *slog.Logger
}

func NewService(repo repository.AuditRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

var headers = []string{
	"Company",
	"Document ID",
	"Year",
	"Client ID",
	"Doc Type",
	"Doc Number",
	"Invoice Number",
	"Payment Type",
	"User",
	"Operation",
	"Note",
	"Modified At",
	"Printed At",
	"Latest Log Amount",
	"Prior Log Amount",
	"Registry ID",
	"Transmitted At",
	"Invoice Amount",
	"Log Amount",
	"Plate",
}

func entryRow(e *entity.AuditEntry) []string {
	return []string{
		e.Company,
		fmt.Sprintf("%d", e.DocumentID),
		fmt.Sprintf("%d", e.Year),
		fmt.Sprintf("%d", e.ClientID),
		e.DocType,
		e.DocNumber,
		e.InvoiceNumber,
		e.PaymentType,
		e.User,
		e.OperationType,
		e.Note,
		formatTime(&e.ModifiedAt),
		formatTime(e.PrintedAt),
		formatAmount(e.LatestLogAmount),
		formatAmount(e.PriorLogAmount),
		formatID(e.RegistryID),
		formatTime(e.TransmittedAt),
		formatAmount(e.InvoiceAmount),
		formatAmount(e.LogAmount),
		e.Plate,
	}
}

// ExportXLSX returns an XLSX workbook (as bytes) of the audit entries,
// optionally restricted to one company.
func (s *Service) ExportXLSX(ctx context.Context, company *string) ([]byte, error) {
	start := time.Now()

	entries, err := s.repo.List(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Audit"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for row, e := range entries {
		for col, v := range entryRow(e) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	// Widen the note and timestamp columns.
	_ = f.SetColWidth(sheet, "K", "K", 48)
	_ = f.SetColWidth(sheet, "L", "M", 20)
	_ = f.SetColWidth(sheet, "Q", "Q", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok", "rows", len(entries), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// ExportCSV returns the audit entries as CSV: semicolon separator, UTF-8 BOM
// and every field quoted, the format the accounting side's spreadsheets expect.
func (s *Service) ExportCSV(ctx context.Context, company *string) ([]byte, error) {
	entries, err := s.repo.List(ctx, company)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	writeCSVRow(&buf, headers)
	for _, e := range entries {
		writeCSVRow(&buf, entryRow(e))
	}

	s.logger.Info("export.csv.ok", "rows", len(entries))
	return buf.Bytes(), nil
}

func writeCSVRow(buf *bytes.Buffer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(';')
		}
		buf.WriteByte('"')
		for _, r := range field {
			if r == '"' {
				buf.WriteString(`""`)
				continue
			}
			buf.WriteRune(r)
		}
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func formatAmount(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func formatID(id *int64) string {
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%d", *id)
}
