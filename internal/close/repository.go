package close

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
	"github.com/tokoprima/tokoprima/internal/accounting/journals"
	"github.com/tokoprima/tokoprima/internal/accounting/periods"
	"github.com/tokoprima/tokoprima/internal/accounting/reports"
	"github.com/tokoprima/tokoprima/internal/accounting/shared"
	"github.com/tokoprima/tokoprima/internal/platform/db"
)

// Repository exposes the persistence operations of period closing.
type Repository interface {
	GetPeriod(ctx context.Context, id int64) (periods.Period, error)
	DraftCount(ctx context.Context, periodID int64) (int, error)
	AccountBalances(ctx context.Context, periodID int64) ([]reports.AccountBalance, error)
	GetAccountByCode(ctx context.Context, code string) (accounts.Account, error)
	GetRecord(ctx context.Context, periodID int64) (ClosingRecord, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository is the slice of operations available inside the close
// transaction.
type TxRepository interface {
	GetPeriodForUpdate(ctx context.Context, id int64) (periods.Period, error)
	DraftCount(ctx context.Context, periodID int64) (int, error)
	AccountBalances(ctx context.Context, periodID int64) ([]reports.AccountBalance, error)
	GetAccountByCode(ctx context.Context, code string) (accounts.Account, error)
	InsertClosingEntry(ctx context.Context, entry journals.JournalEntry) (journals.JournalEntry, error)
	InsertOpeningBalances(ctx context.Context, balances []OpeningBalance) error
	InsertRecord(ctx context.Context, rec ClosingRecord) (ClosingRecord, error)
	MarkClosed(ctx context.Context, periodID int64, at time.Time) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetPeriod(ctx context.Context, id int64) (periods.Period, error) {
	return scanPeriod(r.db.QueryRow(ctx, `SELECT id, name, start_date, end_date, is_active, closed_at, created_at, updated_at
FROM accounting_periods WHERE id=$1`, id))
}

func (r *repository) DraftCount(ctx context.Context, periodID int64) (int, error) {
	return draftCount(ctx, r.db, periodID)
}

func (r *repository) AccountBalances(ctx context.Context, periodID int64) ([]reports.AccountBalance, error) {
	return accountBalances(ctx, r.db, periodID)
}

func (r *repository) GetAccountByCode(ctx context.Context, code string) (accounts.Account, error) {
	return accountByCode(ctx, r.db, code)
}

func (r *repository) GetRecord(ctx context.Context, periodID int64) (ClosingRecord, error) {
	var rec ClosingRecord
	var journalID *int64
	err := r.db.QueryRow(ctx, `SELECT id, period_id, successor_period_id, journal_entry_id, net_income, closed_by, closed_at
FROM closing_records WHERE period_id=$1`, periodID).
		Scan(&rec.ID, &rec.PeriodID, &rec.SuccessorID, &journalID, &rec.NetIncome, &rec.ClosedBy, &rec.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ClosingRecord{}, ErrRecordNotFound
		}
		return ClosingRecord{}, err
	}
	if journalID != nil {
		rec.JournalEntryID = *journalID
	}

	rows, err := r.db.Query(ctx, `SELECT period_id, account_id, balance FROM opening_balances
WHERE period_id=$1 ORDER BY account_id`, rec.SuccessorID)
	if err != nil {
		return ClosingRecord{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var ob OpeningBalance
		if err := rows.Scan(&ob.PeriodID, &ob.AccountID, &ob.Balance); err != nil {
			return ClosingRecord{}, err
		}
		rec.OpeningBalances = append(rec.OpeningBalances, ob)
	}
	return rec, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

// GetPeriodForUpdate locks the period row so the close serialises against
// concurrent postings targeting the same period.
func (r *txRepository) GetPeriodForUpdate(ctx context.Context, id int64) (periods.Period, error) {
	return scanPeriod(r.tx.QueryRow(ctx, `SELECT id, name, start_date, end_date, is_active, closed_at, created_at, updated_at
FROM accounting_periods WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) DraftCount(ctx context.Context, periodID int64) (int, error) {
	return draftCount(ctx, r.tx, periodID)
}

func (r *txRepository) AccountBalances(ctx context.Context, periodID int64) ([]reports.AccountBalance, error) {
	return accountBalances(ctx, r.tx, periodID)
}

func (r *txRepository) GetAccountByCode(ctx context.Context, code string) (accounts.Account, error) {
	return accountByCode(ctx, r.tx, code)
}

func (r *txRepository) InsertClosingEntry(ctx context.Context, entry journals.JournalEntry) (journals.JournalEntry, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO journal_entries (journal_number, period_id, date, description, reference, reference_type, posted_by, is_posted)
VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE) RETURNING id, created_at, updated_at`,
		entry.Number, entry.PeriodID, entry.Date, entry.Description, entry.Reference, entry.ReferenceType, entry.PostedBy).
		Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return journals.JournalEntry{}, shared.ErrNumberCollision
		}
		return journals.JournalEntry{}, err
	}
	for _, line := range entry.Lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (journal_id, account_id, debit, kredit, description)
VALUES ($1,$2,$3,$4,$5)`, entry.ID, line.AccountID, line.Debit, line.Kredit, line.Description); err != nil {
			return journals.JournalEntry{}, err
		}
	}
	return entry, nil
}

func (r *txRepository) InsertOpeningBalances(ctx context.Context, balances []OpeningBalance) error {
	for _, ob := range balances {
		if _, err := r.tx.Exec(ctx, `INSERT INTO opening_balances (period_id, account_id, balance)
VALUES ($1,$2,$3)`, ob.PeriodID, ob.AccountID, ob.Balance); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) InsertRecord(ctx context.Context, rec ClosingRecord) (ClosingRecord, error) {
	var journalID any
	if rec.JournalEntryID != 0 {
		journalID = rec.JournalEntryID
	}
	err := r.tx.QueryRow(ctx, `INSERT INTO closing_records (period_id, successor_period_id, journal_entry_id, net_income, closed_by, closed_at)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		rec.PeriodID, rec.SuccessorID, journalID, rec.NetIncome, rec.ClosedBy, rec.ClosedAt).
		Scan(&rec.ID)
	return rec, err
}

func (r *txRepository) MarkClosed(ctx context.Context, periodID int64, at time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE accounting_periods SET closed_at=$2, is_active=FALSE, updated_at=NOW()
WHERE id=$1 AND closed_at IS NULL`, periodID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAlreadyClosed
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanPeriod(row pgx.Row) (periods.Period, error) {
	var p periods.Period
	err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.IsActive, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return periods.Period{}, shared.ErrPeriodNotFound
		}
		return periods.Period{}, err
	}
	return p, nil
}

func draftCount(ctx context.Context, q querier, periodID int64) (int, error) {
	var count int
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE period_id=$1 AND NOT is_posted`, periodID).Scan(&count)
	return count, err
}

func accountByCode(ctx context.Context, q querier, code string) (accounts.Account, error) {
	var a accounts.Account
	err := q.QueryRow(ctx, `SELECT id, code, name, type, category, parent_id, is_active, created_at, updated_at
FROM accounts WHERE code=$1`, code).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Category, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrAccountNotFound
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func accountBalances(ctx context.Context, q querier, periodID int64) ([]reports.AccountBalance, error) {
	rows, err := q.Query(ctx, `SELECT a.id, a.code, a.name, a.type,
       COALESCE(ob.balance, 0),
       COALESCE(m.debit, 0), COALESCE(m.kredit, 0)
FROM accounts a
LEFT JOIN opening_balances ob ON ob.account_id = a.id AND ob.period_id = $1
LEFT JOIN (
    SELECT l.account_id, SUM(l.debit) AS debit, SUM(l.kredit) AS kredit
    FROM journal_lines l
    JOIN journal_entries e ON e.id = l.journal_id
    WHERE e.period_id = $1 AND e.is_posted
    GROUP BY l.account_id
) m ON m.account_id = a.id
WHERE a.is_active OR ob.balance IS NOT NULL OR m.account_id IS NOT NULL
ORDER BY a.code`, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var balances []reports.AccountBalance
	for rows.Next() {
		var b reports.AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.Opening, &b.Debit, &b.Kredit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
