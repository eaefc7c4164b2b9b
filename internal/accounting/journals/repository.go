package journals

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
	"github.com/tokoprima/tokoprima/internal/accounting/periods"
	"github.com/tokoprima/tokoprima/internal/accounting/shared"
	"github.com/tokoprima/tokoprima/internal/platform/db"
)

// ListFilter narrows List results.
type ListFilter struct {
	PeriodID   int64
	PostedOnly bool
	From       time.Time
	To         time.Time
}

// Repository encapsulates DB operations for journals.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]JournalEntry, error)
	GetWithLines(ctx context.Context, id int64) (JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a posting transaction.
type TxRepository interface {
	InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error)
	InsertLines(ctx context.Context, journalID int64, lines []JournalLine) error
	GetEntryWithLines(ctx context.Context, id int64) (JournalEntry, error)
	UpdateDraft(ctx context.Context, entry JournalEntry) error
	DeleteDraft(ctx context.Context, id int64) error
	MarkPosted(ctx context.Context, id int64, number string, postedBy int64) error

	// Account and period lookups needed inside journal transactions.
	GetAccounts(ctx context.Context, ids []int64) (map[int64]accounts.Account, error)
	GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, journal_number, period_id, date, description, reference, reference_type, posted_by, is_posted, created_at, updated_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	var number *string
	err := row.Scan(&e.ID, &number, &e.PeriodID, &e.Date, &e.Description, &e.Reference, &e.ReferenceType, &e.PostedBy, &e.IsPosted, &e.CreatedAt, &e.UpdatedAt)
	if number != nil {
		e.Number = *number
	}
	return e, err
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE ($1 = 0 OR period_id = $1)
AND (NOT $2 OR is_posted)
AND ($3::timestamptz IS NULL OR date >= $3)
AND ($4::timestamptz IS NULL OR date <= $4)
ORDER BY date, journal_number`
	rows, err := r.db.Query(ctx, query, filter.PeriodID, filter.PostedOnly, nullTime(filter.From), nullTime(filter.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *repository) GetWithLines(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.db, id)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertEntry(ctx context.Context, entry JournalEntry) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (journal_number, period_id, date, description, reference, reference_type, posted_by, is_posted)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id, created_at, updated_at`,
		nullString(entry.Number), entry.PeriodID, entry.Date, entry.Description, entry.Reference, entry.ReferenceType, entry.PostedBy, entry.IsPosted)
	if err := row.Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return JournalEntry{}, shared.ErrNumberCollision
		}
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertLines(ctx context.Context, journalID int64, lines []JournalLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (journal_id, account_id, debit, kredit, description)
VALUES ($1,$2,$3,$4,$5)`, journalID, line.AccountID, line.Debit, line.Kredit, line.Description); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) GetEntryWithLines(ctx context.Context, id int64) (JournalEntry, error) {
	entry, err := scanEntry(r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	lines, err := queryLines(ctx, r.tx, id)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines = lines
	return entry, nil
}

func (r *txRepository) UpdateDraft(ctx context.Context, entry JournalEntry) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries
SET date=$2, description=$3, reference=$4, reference_type=$5, period_id=$6, updated_at=NOW()
WHERE id=$1 AND NOT is_posted`, entry.ID, entry.Date, entry.Description, entry.Reference, entry.ReferenceType, entry.PeriodID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE journal_id=$1`, entry.ID); err != nil {
		return err
	}
	return r.InsertLines(ctx, entry.ID, entry.Lines)
}

func (r *txRepository) DeleteDraft(ctx context.Context, id int64) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_lines WHERE journal_id=$1`, id); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1 AND NOT is_posted`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

func (r *txRepository) MarkPosted(ctx context.Context, id int64, number string, postedBy int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries
SET journal_number=$2, is_posted=TRUE, posted_by=$3, updated_at=NOW()
WHERE id=$1 AND NOT is_posted`, id, number, postedBy)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return shared.ErrNumberCollision
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrJournalNotFound
	}
	return nil
}

func (r *txRepository) GetAccounts(ctx context.Context, ids []int64) (map[int64]accounts.Account, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, code, name, type, category, parent_id, is_active, created_at, updated_at
FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make(map[int64]accounts.Account, len(ids))
	for rows.Next() {
		var a accounts.Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Category, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		result[a.ID] = a
	}
	return result, rows.Err()
}

// GetPeriodForUpdate locks the period row so that posting serialises against a
// concurrent close of the same period.
func (r *txRepository) GetPeriodForUpdate(ctx context.Context, periodID int64) (periods.Period, error) {
	var p periods.Period
	err := r.tx.QueryRow(ctx, `SELECT id, name, start_date, end_date, is_active, closed_at, created_at, updated_at
FROM accounting_periods WHERE id=$1 FOR UPDATE`, periodID).
		Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.IsActive, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrPeriodNotFound
		}
		return periods.Period{}, err
	}
	return p, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q querier, journalID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT id, journal_id, account_id, debit, kredit, description, created_at, updated_at
FROM journal_lines WHERE journal_id=$1 ORDER BY id ASC`, journalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalID, &line.AccountID, &line.Debit, &line.Kredit, &line.Description, &line.CreatedAt, &line.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func nullString(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func nullTime(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val
}
