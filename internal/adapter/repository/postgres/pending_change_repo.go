package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

const pendingChangeColumns = `id, seq, group_id, entity_type, entity_id, operation, payload, enqueued_at`

// PendingChangeRepository implements usecase.PendingChangeRepository.
// seq is a bigserial, so insertion order is FIFO order.
type PendingChangeRepository struct {
	db DBTX
}

// NewPendingChangeRepository creates a new PendingChangeRepository.
func NewPendingChangeRepository(db DBTX) *PendingChangeRepository {
	return &PendingChangeRepository{db: db}
}

// Append stores a change and assigns its Seq.
func (r *PendingChangeRepository) Append(ctx context.Context, tx usecase.Transaction, change *domain.PendingChange) error {
	query := `
		INSERT INTO pending_changes (id, group_id, entity_type, entity_id, operation, payload, enqueued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`

	return conn(r.db, tx).QueryRow(ctx, query,
		change.ID,
		change.GroupID,
		string(change.EntityType),
		change.EntityID,
		string(change.Operation),
		[]byte(change.Payload),
		toTimestamptz(change.EnqueuedAt),
	).Scan(&change.Seq)
}

// Replace swaps the payload of a queued change, keeping its position.
func (r *PendingChangeRepository) Replace(ctx context.Context, tx usecase.Transaction, id string, payload json.RawMessage) error {
	_, err := conn(r.db, tx).Exec(ctx, `UPDATE pending_changes SET payload = $2 WHERE id = $1`, id, []byte(payload))
	return err
}

// DeleteByIDs removes the given changes.
func (r *PendingChangeRepository) DeleteByIDs(ctx context.Context, tx usecase.Transaction, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := conn(r.db, tx).Exec(ctx, `DELETE FROM pending_changes WHERE id = ANY($1)`, ids)
	return err
}

// ListByEntity lists the queued changes of one entity.
func (r *PendingChangeRepository) ListByEntity(ctx context.Context, tx usecase.Transaction, groupID string, entityType domain.EntityType, entityID string) ([]*domain.PendingChange, error) {
	query := `
		SELECT ` + pendingChangeColumns + `
		FROM pending_changes
		WHERE group_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY seq
	`

	rows, err := conn(r.db, tx).Query(ctx, query, groupID, string(entityType), entityID)
	if err != nil {
		return nil, err
	}

	return collectPendingChanges(rows)
}

// ListAll lists every queued change in FIFO order.
func (r *PendingChangeRepository) ListAll(ctx context.Context) ([]*domain.PendingChange, error) {
	rows, err := r.db.Query(ctx, `SELECT `+pendingChangeColumns+` FROM pending_changes ORDER BY seq`)
	if err != nil {
		return nil, err
	}

	return collectPendingChanges(rows)
}

// CountByGroup returns how many changes are queued for a group.
func (r *PendingChangeRepository) CountByGroup(ctx context.Context, groupID string) (int, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM pending_changes WHERE group_id = $1`, groupID).Scan(&count)
	return int(count), err
}

// MaxSeq returns the highest Seq queued for a group, 0 when none is.
func (r *PendingChangeRepository) MaxSeq(ctx context.Context, groupID string) (int64, error) {
	var seq int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(seq), 0) FROM pending_changes WHERE group_id = $1`, groupID).Scan(&seq)
	return seq, err
}

// DeleteByGroup removes every queued change of a group.
func (r *PendingChangeRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) error {
	_, err := conn(r.db, tx).Exec(ctx, `DELETE FROM pending_changes WHERE group_id = $1`, groupID)
	return err
}

// DeleteByGroupThrough removes the group's changes with Seq <= seq.
func (r *PendingChangeRepository) DeleteByGroupThrough(ctx context.Context, tx usecase.Transaction, groupID string, seq int64) (int, error) {
	tag, err := conn(r.db, tx).Exec(ctx, `DELETE FROM pending_changes WHERE group_id = $1 AND seq <= $2`, groupID, seq)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func collectPendingChanges(rows pgx.Rows) ([]*domain.PendingChange, error) {
	defer rows.Close()

	changes := []*domain.PendingChange{}
	for rows.Next() {
		var (
			c                     domain.PendingChange
			entityType, operation string
			payload               []byte
			enqueuedAt            pgtype.Timestamptz
		)
		err := rows.Scan(
			&c.ID,
			&c.Seq,
			&c.GroupID,
			&entityType,
			&c.EntityID,
			&operation,
			&payload,
			&enqueuedAt,
		)
		if err != nil {
			return nil, err
		}

		c.EntityType = domain.EntityType(entityType)
		c.Operation = domain.ChangeOperation(operation)
		c.Payload = json.RawMessage(payload)
		c.EnqueuedAt = fromTimestamptz(enqueuedAt)
		changes = append(changes, &c)
	}

	return changes, rows.Err()
}
