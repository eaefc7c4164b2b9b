package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRecord captures a best-effort trail row for a mutating call.
// OldValues/NewValues are optional snapshots of the touched record.
type AuditRecord struct {
	Table     string
	RecordID  string
	Action    string
	OldValues map[string]any
	NewValues map[string]any
	ChangedBy int64
	At        time.Time
}

// AuditLogger writes records into audit_logs. Callers treat writes as
// fire-and-forget: a failed audit write never rolls back the operation.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the audit row.
func (l *AuditLogger) Record(ctx context.Context, rec AuditRecord) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if rec.Table == "" || rec.RecordID == "" || rec.Action == "" {
		return errors.New("audit record requires table/record_id/action")
	}
	oldJSON, err := json.Marshal(rec.OldValues)
	if err != nil {
		return err
	}
	newJSON, err := json.Marshal(rec.NewValues)
	if err != nil {
		return err
	}
	var at any
	if !rec.At.IsZero() {
		at = rec.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (table_name, record_id, action, old_values, new_values, changed_by, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		rec.Table, rec.RecordID, rec.Action, oldJSON, newJSON, rec.ChangedBy, at)
	return err
}
