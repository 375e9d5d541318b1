package reconcile

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gbaldan/invoice-audit/internal/entity"
	"github.com/gbaldan/invoice-audit/internal/parse"
)

// printModifyThreshold rules out edits made in the same transaction as the
// print itself.
const printModifyThreshold = 60 * time.Second

// LegacyEntries runs the print-comparison workflow, the predecessor of the
// invoice-comparison one; its findings still live in the store, so it stays
// reproducible. Records are grouped by document, each group is ordered by
// modification time descending, and the amounts parsed from the two most
// recent notes are compared: a group qualifies when the invoice was printed
// before the edit, the edit lowered the amount to a still-positive value, and
// the print-to-edit gap exceeds the threshold. Every qualifying record in a
// group yields an entry.
func LegacyEntries(records []entity.ChangeLogRecord, logger *slog.Logger) []*entity.AuditEntry {
	if logger == nil {
		logger = slog.Default()
	}

	groups := map[int64][]entity.ChangeLogRecord{}
	for _, rec := range records {
		groups[rec.DocumentID] = append(groups[rec.DocumentID], rec)
	}

	var out []*entity.AuditEntry
	for docID, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			ti, _ := parse.Timestamp(group[i].ModifiedAt)
			tj, _ := parse.Timestamp(group[j].ModifiedAt)
			return ti.After(tj)
		})

		latest, okLatest := parse.Amount(group[0].Note)
		var prior decimal.Decimal
		var okPrior bool
		if len(group) > 1 {
			prior, okPrior = parse.Amount(group[1].Note)
		}
		if !okLatest || !okPrior {
			continue
		}
		if !latest.LessThan(prior) || !latest.IsPositive() {
			continue
		}

		for _, rec := range group {
			printedAt, okPrint := parse.Timestamp(rec.PrintedAt)
			modifiedAt, okMod := parse.Timestamp(rec.ModifiedAt)
			if !okPrint || !okMod {
				continue
			}
			if !printedAt.Before(modifiedAt) {
				continue
			}
			if modifiedAt.Sub(printedAt) <= printModifyThreshold {
				continue
			}

			logger.Info("legacy finding",
				"document_id", docID, "company", rec.Company,
				"latest_amount", latest.StringFixed(2), "prior_amount", prior.StringFixed(2),
				"delta_sec", modifiedAt.Sub(printedAt).Seconds(),
			)

			printed := printedAt
			latestCopy := latest
			priorCopy := prior
			out = append(out, &entity.AuditEntry{
				DocumentID:      rec.DocumentID,
				Year:            rec.Year,
				ClientID:        rec.ClientID,
				DocType:         rec.DocType,
				DocDate:         rec.DocDate,
				DocNumber:       rec.DocNumber,
				InvoiceType:     rec.InvoiceType,
				InvoiceDate:     rec.InvoiceDate,
				InvoiceNumber:   rec.InvoiceNumber,
				PaymentType:     rec.PaymentType,
				HistoryID:       rec.HistoryID,
				TableName:       rec.TableName,
				User:            rec.User,
				OperationType:   rec.OperationType,
				Note:            rec.Note,
				ModifiedAt:      modifiedAt,
				Company:         rec.Company,
				Plate:           rec.Plate,
				PrintedAt:       &printed,
				LatestLogAmount: &latestCopy,
				PriorLogAmount:  &priorCopy,
			})
		}
	}
	return out
}

// RunLegacy fetches the company's change logs and persists every finding of
// the print-comparison workflow. Returns the number of entries persisted.
func (e *Engine) RunLegacy(ctx context.Context) (int, error) {
	records, err := e.source.FetchChangeLogs(ctx)
	if err != nil {
		return 0, err
	}
	entries := LegacyEntries(records, e.logger)
	for i, entry := range entries {
		if err := e.repo.Insert(ctx, entry); err != nil {
			return i, err
		}
	}
	return len(entries), nil
}
