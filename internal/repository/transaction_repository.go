package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/finance-tracker/internal/domain"
)

// TransactionRepository defines persistence access for transactions.
// Every query is scoped to a user id.
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	ListByMonth(ctx context.Context, userID, monthYear string) ([]domain.Transaction, error)
	// Delete removes the user's transaction and returns it; pgx.ErrNoRows when absent.
	Delete(ctx context.Context, userID, id string) (*domain.Transaction, error)
	MonthTotals(ctx context.Context, userID, monthYear string) (domain.Totals, error)
	// YearTotals sums a year; Totals.Count is the number of months with data.
	YearTotals(ctx context.Context, userID, year string) (domain.Totals, error)
	AllTotals(ctx context.Context, userID string) (domain.Totals, error)
	Months(ctx context.Context, userID string) ([]string, error)
}

type transactionRepository struct {
	db DBTX
}

// NewTransactionRepository returns a Postgres-backed implementation.
func NewTransactionRepository(db DBTX) TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, user_id, month_year, type, amount, description, category, transaction_date, created_at`

const totalsSelect = `
        SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0),
               COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0),`

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	const query = `
        INSERT INTO transactions (user_id, month_year, type, amount, description, category, transaction_date)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at`

	return r.db.QueryRow(ctx, query,
		tx.UserID,
		tx.MonthYear,
		string(tx.Type),
		tx.Amount,
		tx.Description,
		tx.Category,
		tx.TransactionDate,
	).Scan(&tx.ID, &tx.CreatedAt)
}

func (r *transactionRepository) ListByMonth(ctx context.Context, userID, monthYear string) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + `
        FROM transactions
        WHERE user_id=$1 AND month_year=$2
        ORDER BY transaction_date DESC, created_at DESC`

	rows, err := r.db.Query(ctx, query, userID, monthYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tx)
	}
	return result, rows.Err()
}

func (r *transactionRepository) Delete(ctx context.Context, userID, id string) (*domain.Transaction, error) {
	query := `DELETE FROM transactions WHERE id=$1 AND user_id=$2 RETURNING ` + transactionColumns
	return scanTransaction(r.db.QueryRow(ctx, query, id, userID))
}

func (r *transactionRepository) MonthTotals(ctx context.Context, userID, monthYear string) (domain.Totals, error) {
	query := totalsSelect + `
               COUNT(*)
        FROM transactions
        WHERE user_id=$1 AND month_year=$2`
	return scanTotals(r.db.QueryRow(ctx, query, userID, monthYear))
}

func (r *transactionRepository) YearTotals(ctx context.Context, userID, year string) (domain.Totals, error) {
	query := totalsSelect + `
               COUNT(DISTINCT month_year)
        FROM transactions
        WHERE user_id=$1 AND month_year LIKE $2 || '-%'`
	return scanTotals(r.db.QueryRow(ctx, query, userID, year))
}

func (r *transactionRepository) AllTotals(ctx context.Context, userID string) (domain.Totals, error) {
	query := totalsSelect + `
               COUNT(*)
        FROM transactions
        WHERE user_id=$1`
	return scanTotals(r.db.QueryRow(ctx, query, userID))
}

func (r *transactionRepository) Months(ctx context.Context, userID string) ([]string, error) {
	const query = `
        SELECT DISTINCT month_year
        FROM transactions
        WHERE user_id=$1
        ORDER BY month_year DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	months := make([]string, 0)
	for rows.Next() {
		var month string
		if err := rows.Scan(&month); err != nil {
			return nil, err
		}
		months = append(months, month)
	}
	return months, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tx     domain.Transaction
		txType string
	)
	if err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.MonthYear,
		&txType,
		&tx.Amount,
		&tx.Description,
		&tx.Category,
		&tx.TransactionDate,
		&tx.CreatedAt,
	); err != nil {
		return nil, err
	}
	tx.Type = domain.TransactionType(txType)
	return &tx, nil
}

func scanTotals(row pgx.Row) (domain.Totals, error) {
	var totals domain.Totals
	err := row.Scan(&totals.Income, &totals.Expenses, &totals.Count)
	return totals, err
}
