package gl

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokoprima/tokoprima/internal/accounting/accounts"
	"github.com/tokoprima/tokoprima/internal/accounting/shared"
)

// Repository loads the raw inputs of a ledger computation.
type Repository interface {
	GetAccount(ctx context.Context, id int64) (accounts.Account, error)
	OpeningBalance(ctx context.Context, periodID, accountID int64) (int64, error)
	ActivityTotals(ctx context.Context, periodID, accountID int64, from, until time.Time) (debit, kredit int64, err error)
	Movements(ctx context.Context, periodID, accountID int64, from, to time.Time) ([]Movement, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetAccount(ctx context.Context, id int64) (accounts.Account, error) {
	var a accounts.Account
	err := r.db.QueryRow(ctx, `SELECT id, code, name, type, category, parent_id, is_active, created_at, updated_at
FROM accounts WHERE id=$1`, id).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Category, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, shared.ErrUnknownAccount
		}
		return accounts.Account{}, err
	}
	return a, nil
}

// OpeningBalance returns the carried-forward balance seeded by the previous
// period's close, or 0 when the close never wrote one.
func (r *repository) OpeningBalance(ctx context.Context, periodID, accountID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT balance FROM opening_balances WHERE period_id=$1 AND account_id=$2`,
		periodID, accountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

// ActivityTotals sums posted debits and kredits for the account in
// [from, until).
func (r *repository) ActivityTotals(ctx context.Context, periodID, accountID int64, from, until time.Time) (int64, int64, error) {
	var debit, kredit int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(l.debit),0), COALESCE(SUM(l.kredit),0)
FROM journal_lines l
JOIN journal_entries e ON e.id = l.journal_id
WHERE l.account_id=$1 AND e.period_id=$2 AND e.is_posted AND e.date >= $3 AND e.date < $4`,
		accountID, periodID, from, until).Scan(&debit, &kredit)
	return debit, kredit, err
}

func (r *repository) Movements(ctx context.Context, periodID, accountID int64, from, to time.Time) ([]Movement, error) {
	rows, err := r.db.Query(ctx, `SELECT e.date, e.id, e.journal_number, e.description, e.reference, l.debit, l.kredit
FROM journal_lines l
JOIN journal_entries e ON e.id = l.journal_id
WHERE l.account_id=$1 AND e.period_id=$2 AND e.is_posted AND e.date >= $3 AND e.date <= $4
ORDER BY e.date, e.journal_number, l.id`,
		accountID, periodID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movements []Movement
	for rows.Next() {
		var m Movement
		var number *string
		if err := rows.Scan(&m.Date, &m.JournalID, &number, &m.Description, &m.Reference, &m.Debit, &m.Kredit); err != nil {
			return nil, err
		}
		if number != nil {
			m.JournalNumber = *number
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
