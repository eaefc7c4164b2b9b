package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tokoprima/tokoprima/internal/accounting/shared"
)

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	List(ctx context.Context, includeInactive bool) ([]Account, error)
	Get(ctx context.Context, id int64) (Account, error)
	GetByCode(ctx context.Context, code string) (Account, error)
	Insert(ctx context.Context, in CreateInput) (Account, error)
	SetActive(ctx context.Context, id int64, active bool) error
	SetParent(ctx context.Context, id int64, parentID *int64) error
	Delete(ctx context.Context, id int64) error
	HasPostedLines(ctx context.Context, id int64) (bool, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, code, name, type, category, parent_id, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.Category, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) List(ctx context.Context, includeInactive bool) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE is_active ORDER BY code`
	if includeInactive {
		query = `SELECT ` + accountColumns + ` FROM accounts ORDER BY code`
	}
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (Account, error) {
	a, err := scanAccount(r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE code=$1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Insert(ctx context.Context, in CreateInput) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (code, name, type, category, parent_id, is_active)
VALUES ($1,$2,$3,$4,$5,TRUE) RETURNING `+accountColumns, in.Code, in.Name, in.Type, in.Category, in.ParentID)
	a, err := scanAccount(row)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateCode
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET is_active=$2, updated_at=NOW() WHERE id=$1`, id, active)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *repository) SetParent(ctx context.Context, id int64, parentID *int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET parent_id=$2, updated_at=NOW() WHERE id=$1`, id, parentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

func (r *repository) HasPostedLines(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM journal_lines l JOIN journal_entries e ON e.id = l.journal_id
WHERE l.account_id = $1 AND e.is_posted)`, id).Scan(&exists)
	return exists, err
}
