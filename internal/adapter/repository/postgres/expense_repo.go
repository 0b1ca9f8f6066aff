package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

const expenseColumns = `id, group_id, payer_id, description, amount, expense_date, created_at, updated_at`

// ExpenseRepository implements usecase.ExpenseRepository.
type ExpenseRepository struct {
	db DBTX
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db DBTX) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create inserts a new expense.
func (r *ExpenseRepository) Create(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := conn(r.db, tx).Exec(ctx, query,
		expense.ID,
		expense.GroupID,
		expense.PayerID,
		expense.Description,
		decimalToNumeric(expense.Amount),
		toTimestamptz(expense.ExpenseDate),
		toTimestamptz(expense.CreatedAt),
		toTimestamptz(expense.UpdatedAt),
	)

	return err
}

// Update overwrites the mutable fields of an expense.
func (r *ExpenseRepository) Update(ctx context.Context, tx usecase.Transaction, expense *domain.Expense) error {
	query := `
		UPDATE expenses
		SET payer_id = $2, description = $3, amount = $4, expense_date = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		expense.ID,
		expense.PayerID,
		expense.Description,
		decimalToNumeric(expense.Amount),
		toTimestamptz(expense.ExpenseDate),
		toTimestamptz(expense.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}

	return nil
}

// Delete removes an expense.
func (r *ExpenseRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}

	return nil
}

// GetByID retrieves an expense by ID.
func (r *ExpenseRepository) GetByID(ctx context.Context, id string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`

	expense, err := scanExpense(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrExpenseNotFound
	}

	return expense, err
}

// ListByGroup lists the expenses of a group ordered by ID.
func (r *ExpenseRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE group_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := []*domain.Expense{}
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}

	return expenses, rows.Err()
}

// DeleteByGroup removes every expense of a group.
func (r *ExpenseRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) error {
	_, err := conn(r.db, tx).Exec(ctx, `DELETE FROM expenses WHERE group_id = $1`, groupID)
	return err
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var (
		e                                 domain.Expense
		amount                            pgtype.Numeric
		expenseDate, createdAt, updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&e.ID,
		&e.GroupID,
		&e.PayerID,
		&e.Description,
		&amount,
		&expenseDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Amount = numericToDecimal(amount)
	e.ExpenseDate = fromTimestamptz(expenseDate)
	e.CreatedAt = fromTimestamptz(createdAt)
	e.UpdatedAt = fromTimestamptz(updatedAt)

	return &e, nil
}

// SplitRepository implements usecase.SplitRepository.
type SplitRepository struct {
	db DBTX
}

// NewSplitRepository creates a new SplitRepository.
func NewSplitRepository(db DBTX) *SplitRepository {
	return &SplitRepository{db: db}
}

// CreateBatch inserts all splits of one or more expenses in a single statement.
// Each split's position in the slice is stored so reads return them in the
// order they were computed; the first share of an even split carries its
// rounding remainder.
func (r *SplitRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, groupID string, splits []domain.ExpenseSplit) error {
	if len(splits) == 0 {
		return nil
	}

	expenseIDs := make([]string, len(splits))
	userIDs := make([]string, len(splits))
	amounts := make([]pgtype.Numeric, len(splits))
	percentages := make([]pgtype.Numeric, len(splits))
	for i, s := range splits {
		expenseIDs[i] = s.ExpenseID
		userIDs[i] = s.UserID
		amounts[i] = decimalToNumeric(s.Amount)
		percentages[i] = decimalToNumeric(s.Percentage)
	}

	query := `
		INSERT INTO expense_splits (expense_id, group_id, user_id, amount, percentage, position)
		SELECT e, $2, u, a, p, n
		FROM unnest($1::text[], $3::text[], $4::numeric[], $5::numeric[]) WITH ORDINALITY AS t(e, u, a, p, n)
	`

	_, err := conn(r.db, tx).Exec(ctx, query, expenseIDs, groupID, userIDs, amounts, percentages)
	return err
}

// DeleteByExpense removes the splits of an expense.
func (r *SplitRepository) DeleteByExpense(ctx context.Context, tx usecase.Transaction, expenseID string) error {
	_, err := conn(r.db, tx).Exec(ctx, `DELETE FROM expense_splits WHERE expense_id = $1`, expenseID)
	return err
}

// ListByExpense lists the splits of an expense in insertion order.
func (r *SplitRepository) ListByExpense(ctx context.Context, expenseID string) ([]domain.ExpenseSplit, error) {
	return r.list(ctx, `
		SELECT expense_id, user_id, amount, percentage
		FROM expense_splits
		WHERE expense_id = $1
		ORDER BY position
	`, expenseID)
}

// ListByGroup lists every split of a group by expense, in insertion order.
func (r *SplitRepository) ListByGroup(ctx context.Context, groupID string) ([]domain.ExpenseSplit, error) {
	return r.list(ctx, `
		SELECT expense_id, user_id, amount, percentage
		FROM expense_splits
		WHERE group_id = $1
		ORDER BY expense_id, position
	`, groupID)
}

// DeleteByGroup removes every split of a group.
func (r *SplitRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) error {
	_, err := conn(r.db, tx).Exec(ctx, `DELETE FROM expense_splits WHERE group_id = $1`, groupID)
	return err
}

func (r *SplitRepository) list(ctx context.Context, query string, arg string) ([]domain.ExpenseSplit, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	splits := []domain.ExpenseSplit{}
	for rows.Next() {
		var (
			s                  domain.ExpenseSplit
			amount, percentage pgtype.Numeric
		)
		if err := rows.Scan(&s.ExpenseID, &s.UserID, &amount, &percentage); err != nil {
			return nil, err
		}
		s.Amount = numericToDecimal(amount)
		s.Percentage = numericToDecimal(percentage)
		splits = append(splits, s)
	}

	return splits, rows.Err()
}
