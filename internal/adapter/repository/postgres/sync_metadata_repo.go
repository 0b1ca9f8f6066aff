package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

const syncMetadataColumns = `group_id, remote_handle, status, version, last_sync_at, local_last_modified, remote_last_modified, last_error`

// SyncMetadataRepository implements usecase.SyncMetadataRepository.
type SyncMetadataRepository struct {
	db DBTX
}

// NewSyncMetadataRepository creates a new SyncMetadataRepository.
func NewSyncMetadataRepository(db DBTX) *SyncMetadataRepository {
	return &SyncMetadataRepository{db: db}
}

// Get retrieves the metadata of a group.
func (r *SyncMetadataRepository) Get(ctx context.Context, groupID string) (*domain.SyncMetadata, error) {
	query := `SELECT ` + syncMetadataColumns + ` FROM sync_metadata WHERE group_id = $1`

	meta, err := scanSyncMetadata(r.db.QueryRow(ctx, query, groupID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSyncMetadataNotFound
	}

	return meta, err
}

// Save inserts or overwrites the metadata row of a group.
func (r *SyncMetadataRepository) Save(ctx context.Context, tx usecase.Transaction, meta *domain.SyncMetadata) error {
	query := `
		INSERT INTO sync_metadata (` + syncMetadataColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (group_id) DO UPDATE
		SET remote_handle = EXCLUDED.remote_handle,
			status = EXCLUDED.status,
			version = EXCLUDED.version,
			last_sync_at = EXCLUDED.last_sync_at,
			local_last_modified = EXCLUDED.local_last_modified,
			remote_last_modified = EXCLUDED.remote_last_modified,
			last_error = EXCLUDED.last_error
	`

	_, err := conn(r.db, tx).Exec(ctx, query,
		meta.GroupID,
		meta.RemoteHandle,
		string(meta.Status),
		meta.Version,
		toTimestamptz(meta.LastSyncAt),
		toTimestamptz(meta.LocalLastModified),
		toTimestamptz(meta.RemoteLastModified),
		meta.LastError,
	)

	return err
}

// List lists the metadata of every group.
func (r *SyncMetadataRepository) List(ctx context.Context) ([]*domain.SyncMetadata, error) {
	return r.list(ctx, `SELECT `+syncMetadataColumns+` FROM sync_metadata ORDER BY group_id`)
}

// ListByStatus lists the metadata rows in one status.
func (r *SyncMetadataRepository) ListByStatus(ctx context.Context, status domain.SyncStatus) ([]*domain.SyncMetadata, error) {
	return r.list(ctx, `SELECT `+syncMetadataColumns+` FROM sync_metadata WHERE status = $1 ORDER BY group_id`, string(status))
}

func (r *SyncMetadataRepository) list(ctx context.Context, query string, args ...any) ([]*domain.SyncMetadata, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metas := []*domain.SyncMetadata{}
	for rows.Next() {
		meta, err := scanSyncMetadata(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}

	return metas, rows.Err()
}

func scanSyncMetadata(row pgx.Row) (*domain.SyncMetadata, error) {
	var (
		m                                         domain.SyncMetadata
		status                                    string
		lastSyncAt, localModified, remoteModified pgtype.Timestamptz
	)
	err := row.Scan(
		&m.GroupID,
		&m.RemoteHandle,
		&status,
		&m.Version,
		&lastSyncAt,
		&localModified,
		&remoteModified,
		&m.LastError,
	)
	if err != nil {
		return nil, err
	}

	if m.Status, err = domain.ParseSyncStatus(status); err != nil {
		return nil, err
	}
	m.LastSyncAt = fromTimestamptz(lastSyncAt)
	m.LocalLastModified = fromTimestamptz(localModified)
	m.RemoteLastModified = fromTimestamptz(remoteModified)

	return &m, nil
}
