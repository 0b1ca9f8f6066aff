package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

const settlementColumns = `id, group_id, payer_id, payee_id, amount, status, created_at, updated_at`

// SettlementRepository implements usecase.SettlementRepository.
type SettlementRepository struct {
	db DBTX
}

// NewSettlementRepository creates a new SettlementRepository.
func NewSettlementRepository(db DBTX) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Create inserts a new settlement.
func (r *SettlementRepository) Create(ctx context.Context, tx usecase.Transaction, s *domain.Settlement) error {
	query := `
		INSERT INTO settlements (` + settlementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := conn(r.db, tx).Exec(ctx, query,
		s.ID,
		s.GroupID,
		s.PayerID,
		s.PayeeID,
		decimalToNumeric(s.Amount),
		string(s.Status),
		toTimestamptz(s.CreatedAt),
		toTimestamptz(s.UpdatedAt),
	)

	return err
}

// UpdateStatus sets the status of a settlement.
func (r *SettlementRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.SettlementStatus, updatedAt time.Time) error {
	tag, err := conn(r.db, tx).Exec(ctx,
		`UPDATE settlements SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), toTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSettlementNotFound
	}

	return nil
}

// GetByID retrieves a settlement by ID.
func (r *SettlementRepository) GetByID(ctx context.Context, id string) (*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE id = $1`

	s, err := scanSettlement(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSettlementNotFound
	}

	return s, err
}

// ListByGroup lists the settlements of a group ordered by ID.
func (r *SettlementRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Settlement, error) {
	query := `SELECT ` + settlementColumns + ` FROM settlements WHERE group_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settlements := []*domain.Settlement{}
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, s)
	}

	return settlements, rows.Err()
}

// DeleteByGroup removes every settlement of a group.
func (r *SettlementRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) error {
	_, err := conn(r.db, tx).Exec(ctx, `DELETE FROM settlements WHERE group_id = $1`, groupID)
	return err
}

func scanSettlement(row pgx.Row) (*domain.Settlement, error) {
	var (
		s                    domain.Settlement
		amount               pgtype.Numeric
		status               string
		createdAt, updatedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&s.ID,
		&s.GroupID,
		&s.PayerID,
		&s.PayeeID,
		&amount,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.Amount = numericToDecimal(amount)
	s.Status = domain.SettlementStatus(status)
	s.CreatedAt = fromTimestamptz(createdAt)
	s.UpdatedAt = fromTimestamptz(updatedAt)

	return &s, nil
}
