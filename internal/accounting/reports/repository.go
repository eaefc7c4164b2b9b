package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository loads aggregated inputs for the report builders.
type Repository interface {
	AccountBalances(ctx context.Context, periodID int64) ([]AccountBalance, error)
	EntryTotals(ctx context.Context, filter EntryFilter) ([]EntryTotals, error)
}

// EntryFilter narrows the recapitulation input. An empty ReferenceType means
// all entries.
type EntryFilter struct {
	PeriodID      int64
	ReferenceType string
	From          time.Time
	To            time.Time
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// AccountBalances returns one row per account with its opening balance and
// posted activity inside the period. Deactivated accounts stay visible as
// long as they carry an opening balance or activity, so historical reports
// keep resolving them.
func (r *repository) AccountBalances(ctx context.Context, periodID int64) ([]AccountBalance, error) {
	rows, err := r.db.Query(ctx, `SELECT a.id, a.code, a.name, a.type,
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
	var balances []AccountBalance
	for rows.Next() {
		var b AccountBalance
		if err := rows.Scan(&b.AccountID, &b.Code, &b.Name, &b.Type, &b.Opening, &b.Debit, &b.Kredit); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

func (r *repository) EntryTotals(ctx context.Context, filter EntryFilter) ([]EntryTotals, error) {
	rows, err := r.db.Query(ctx, `SELECT e.date, COALESCE(SUM(l.debit),0), COALESCE(SUM(l.kredit),0)
FROM journal_entries e
JOIN journal_lines l ON l.journal_id = e.id
WHERE e.period_id = $1 AND e.is_posted
AND ($2 = '' OR e.reference_type = $2)
AND ($3::timestamptz IS NULL OR e.date >= $3)
AND ($4::timestamptz IS NULL OR e.date <= $4)
GROUP BY e.id, e.date
ORDER BY e.date, e.id`,
		filter.PeriodID, filter.ReferenceType, nullTime(filter.From), nullTime(filter.To))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []EntryTotals
	for rows.Next() {
		var t EntryTotals
		if err := rows.Scan(&t.Date, &t.TotalDebit, &t.TotalKredit); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func nullTime(val time.Time) any {
	if val.IsZero() {
		return nil
	}
	return val
}
