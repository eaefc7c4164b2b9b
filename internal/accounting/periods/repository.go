package periods

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokoprima/tokoprima/internal/accounting/shared"
)

// Repository encapsulates DB operations for accounting periods.
type Repository interface {
	List(ctx context.Context) ([]Period, error)
	Get(ctx context.Context, id int64) (Period, error)
	GetActive(ctx context.Context) (Period, error)
	Insert(ctx context.Context, in CreateInput) (Period, error)
	RangeConflict(ctx context.Context, start, end time.Time) (bool, error)
	Activate(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const periodColumns = `id, name, start_date, end_date, is_active, closed_at, created_at, updated_at`

func scanPeriod(row pgx.Row) (Period, error) {
	var p Period
	err := row.Scan(&p.ID, &p.Name, &p.StartDate, &p.EndDate, &p.IsActive, &p.ClosedAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context) ([]Period, error) {
	rows, err := r.db.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods ORDER BY start_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var periods []Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrPeriodNotFound
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) GetActive(ctx context.Context) (Period, error) {
	p, err := scanPeriod(r.db.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE is_active LIMIT 1`))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Period{}, shared.ErrNoActivePeriod
		}
		return Period{}, err
	}
	return p, nil
}

func (r *repository) Insert(ctx context.Context, in CreateInput) (Period, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounting_periods (name, start_date, end_date, is_active)
VALUES ($1,$2,$3,FALSE) RETURNING `+periodColumns, in.Name, in.StartDate, in.EndDate)
	return scanPeriod(row)
}

func (r *repository) RangeConflict(ctx context.Context, start, end time.Time) (bool, error) {
	var conflict bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM accounting_periods WHERE start_date <= $2 AND end_date >= $1)`, start, end).Scan(&conflict)
	return conflict, err
}

// Activate flips the active flag to the given period in one statement so that
// at most one period is ever active.
func (r *repository) Activate(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounting_periods SET is_active = (id = $1), updated_at = NOW()
WHERE is_active OR id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrPeriodNotFound
	}
	return nil
}
