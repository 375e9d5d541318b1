package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/gbaldan/invoice-audit/internal/common"
	"github.com/gbaldan/invoice-audit/internal/entity"
)

// changeLogQuery joins the ERP's history tables into the flat change-log
// shape the engine consumes. Rows come back ordered by document id so the
// checkpoint cut-off can be applied on a monotone stream.
const changeLogQuery = `
SELECT h.id_documento,
       h.anno,
       h.id_cliente,
       h.tipo_doc,
       h.data_doc,
       h.num_doc,
       h.tipo_fattura,
       h.data_fattura,
       h.numero_fattura,
       h.tipo_pagamento,
       h.id_hst,
       h.nome_tabella,
       h.utente,
       h.tipo_operazione,
       h.note,
       h.data_modifica,
       h.data_stampa_fattura,
       h.id_reg_pd,
       h.targa
FROM storico_documenti h
WHERE h.tipo_operazione IN ('UPDATE', 'DELETE')
ORDER BY h.id_documento, h.data_modifica`

const invoiceQuery = `
SELECT r.id_reg_pd, r.data_trasmissione, r.xml_fattura
FROM registro_fatture_pd r
WHERE r.id_reg_pd = ?`

// SQLFetcher reads one company's source over database/sql.
type SQLFetcher struct {
	company string
	db      *sql.DB
	logger  *slog.Logger
}

// Open dials the operational source described by d. The connection is probed
// immediately so a bad descriptor surfaces before any processing starts.
func Open(ctx context.Context, d Descriptor, logger *slog.Logger) (*SQLFetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := mysql.NewConfig()
	cfg.User = d.Username
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = d.Addr
	cfg.DBName = d.Database
	cfg.ParseTime = false
	cfg.Timeout = 10 * time.Second

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, common.NewAppError("SOURCE_ERROR", fmt.Sprintf("opening source for %s", d.Company), err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.NewAppError("SOURCE_ERROR", fmt.Sprintf("pinging source for %s", d.Company), err)
	}
	logger.Info("connected to company source", "company", d.Company, "addr", d.Addr)
	return &SQLFetcher{company: d.Company, db: db, logger: logger}, nil
}

func (f *SQLFetcher) Company() string { return f.company }

func (f *SQLFetcher) Close() error { return f.db.Close() }

func (f *SQLFetcher) FetchChangeLogs(ctx context.Context) ([]entity.ChangeLogRecord, error) {
	rows, err := f.db.QueryContext(ctx, changeLogQuery)
	if err != nil {
		return nil, common.NewAppError("SOURCE_ERROR", fmt.Sprintf("querying change logs for %s", f.company), err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			f.logger.Warn("closing change-log rows", "company", f.company, "error", err)
		}
	}()

	var out []entity.ChangeLogRecord
	for rows.Next() {
		var (
			rec         entity.ChangeLogRecord
			year        sql.NullInt64
			clientID    sql.NullInt64
			docType     sql.NullString
			docDate     sql.NullString
			docNumber   sql.NullString
			invType     sql.NullString
			invDate     sql.NullString
			invNumber   sql.NullString
			paymentType sql.NullString
			historyID   sql.NullInt64
			tableName   sql.NullString
			user        sql.NullString
			opType      sql.NullString
			note        sql.NullString
			modifiedAt  sql.NullString
			printedAt   sql.NullString
			registryID  sql.NullInt64
			plate       sql.NullString
		)
		if err := rows.Scan(
			&rec.DocumentID, &year, &clientID, &docType, &docDate, &docNumber,
			&invType, &invDate, &invNumber, &paymentType, &historyID, &tableName,
			&user, &opType, &note, &modifiedAt, &printedAt, &registryID, &plate,
		); err != nil {
			return nil, common.NewAppError("SOURCE_ERROR", fmt.Sprintf("scanning change log for %s", f.company), err)
		}
		rec.Year = int(year.Int64)
		rec.ClientID = clientID.Int64
		rec.DocType = docType.String
		rec.DocDate = docDate.String
		rec.DocNumber = docNumber.String
		rec.InvoiceType = invType.String
		rec.InvoiceDate = invDate.String
		rec.InvoiceNumber = invNumber.String
		rec.PaymentType = paymentType.String
		rec.HistoryID = historyID.Int64
		rec.TableName = tableName.String
		rec.User = user.String
		rec.OperationType = opType.String
		rec.Note = note.String
		rec.ModifiedAt = modifiedAt.String
		rec.PrintedAt = printedAt.String
		rec.RegistryID = registryID.Int64
		rec.Plate = plate.String
		rec.Company = f.company
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewAppError("SOURCE_ERROR", fmt.Sprintf("reading change logs for %s", f.company), err)
	}
	f.logger.Info("fetched change logs", "company", f.company, "records", len(out))
	return out, nil
}

func (f *SQLFetcher) FetchInvoice(ctx context.Context, registryID int64) (*entity.InvoiceRecord, error) {
	var (
		rec           entity.InvoiceRecord
		transmittedAt sql.NullString
		payload       []byte
	)
	err := f.db.QueryRowContext(ctx, invoiceQuery, registryID).Scan(&rec.RegistryID, &transmittedAt, &payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewAppError("SOURCE_ERROR", fmt.Sprintf("querying invoice %d for %s", registryID, f.company), err)
	}
	rec.TransmittedAt = transmittedAt.String
	rec.Payload = payload
	return &rec, nil
}
