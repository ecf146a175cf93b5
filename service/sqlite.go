package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nambasaf/Azure-a2a-demo/config"
	"github.com/nambasaf/Azure-a2a-demo/model"
)

// SQLiteLedger stores request records in a single table keyed by
// (partition_key, row_key). The merge upsert is a single
// INSERT ... ON CONFLICT DO UPDATE touching only the supplied columns,
// so the field-level merge happens inside the database rather than as
// a read-then-write in this process.
type SQLiteLedger struct {
	db        *sql.DB
	table     string
	partition string
}

// ledgerColumns maps ledger field names to table columns. Only these
// fields may appear in a MergeUpsert call.
var ledgerColumns = map[string]string{
	model.FieldStatus:        "status",
	model.FieldSourceBlob:    "source_blob",
	model.FieldTextBlob:      "text_blob",
	model.FieldSummaryBlob:   "summary_blob",
	model.FieldStructureBlob: "structure_blob",
	model.FieldReportBlob:    "report_blob",
}

func NewSQLiteLedger(cfg *config.LedgerConfig) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ledger := &SQLiteLedger{
		db:        db,
		table:     cfg.Table,
		partition: cfg.Partition,
	}

	if err := ledger.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return ledger, nil
}

func (l *SQLiteLedger) initSchema() error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
partition_key TEXT NOT NULL,
row_key TEXT NOT NULL,
status TEXT,
source_blob TEXT,
text_blob TEXT,
summary_blob TEXT,
structure_blob TEXT,
report_blob TEXT,
updated_at TIMESTAMP NOT NULL,
PRIMARY KEY (partition_key, row_key)
)`, l.table)

	_, err := l.db.Exec(stmt)
	return err
}

func (l *SQLiteLedger) MergeUpsert(ctx context.Context, requestID string, fields map[string]any) error {
	columns := []string{"partition_key", "row_key", "updated_at"}
	args := []any{l.partition, requestID, time.Now().UTC().Format(time.RFC3339Nano)}
	updates := []string{"updated_at = excluded.updated_at"}

	for field, value := range fields {
		column, ok := ledgerColumns[field]
		if !ok {
			return model.ErrBadRequest("unknown ledger field " + field)
		}
		columns = append(columns, column)
		args = append(args, value)
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", column, column))
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %q (%s) VALUES (%s) ON CONFLICT (partition_key, row_key) DO UPDATE SET %s",
		l.table,
		strings.Join(columns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", "),
		strings.Join(updates, ", "),
	)

	if _, err := l.db.ExecContext(ctx, stmt, args...); err != nil {
		return model.ErrStoreUnavailable("failed to upsert ledger record "+requestID, err)
	}
	return nil
}

func (l *SQLiteLedger) Get(ctx context.Context, requestID string) (*model.RequestRecord, error) {
	stmt := fmt.Sprintf(
		`SELECT status, source_blob, text_blob, summary_blob, structure_blob, report_blob, updated_at
FROM %q WHERE partition_key = ? AND row_key = ?`, l.table)

	var (
		record    = model.RequestRecord{RequestID: requestID}
		status    sql.NullString
		source    sql.NullString
		text      sql.NullString
		summary   sql.NullString
		structure sql.NullString
		report    sql.NullString
		updatedAt string
	)

	row := l.db.QueryRowContext(ctx, stmt, l.partition, requestID)
	err := row.Scan(&status, &source, &text, &summary, &structure, &report, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound("no ledger record for request " + requestID)
	}
	if err != nil {
		return nil, model.ErrStoreUnavailable("failed to read ledger record "+requestID, err)
	}

	record.Status = status.String
	record.SourceBlob = source.String
	record.TextBlob = text.String
	record.SummaryBlob = summary.String
	record.StructureBlob = structure.String
	record.ReportBlob = report.String
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		record.UpdatedAt = ts
	}

	return &record, nil
}

// Close releases the underlying database handle.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
