package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/splitsync/internal/domain"
	"github.com/iho/splitsync/internal/usecase"
)

const groupColumns = `id, name, owner_email, sync_enabled, created_at, updated_at`

// GroupRepository implements usecase.GroupRepository.
type GroupRepository struct {
	db DBTX
}

// NewGroupRepository creates a new GroupRepository.
func NewGroupRepository(db DBTX) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a new group.
func (r *GroupRepository) Create(ctx context.Context, tx usecase.Transaction, group *domain.Group) error {
	query := `
		INSERT INTO groups (` + groupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := conn(r.db, tx).Exec(ctx, query,
		group.ID,
		group.Name,
		group.OwnerEmail,
		group.SyncEnabled,
		toTimestamptz(group.CreatedAt),
		toTimestamptz(group.UpdatedAt),
	)

	return err
}

// Update overwrites the mutable fields of a group.
func (r *GroupRepository) Update(ctx context.Context, tx usecase.Transaction, group *domain.Group) error {
	query := `
		UPDATE groups
		SET name = $2, owner_email = $3, sync_enabled = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := conn(r.db, tx).Exec(ctx, query,
		group.ID,
		group.Name,
		group.OwnerEmail,
		group.SyncEnabled,
		toTimestamptz(group.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}

	return nil
}

// Upsert inserts a group or overwrites every column of an existing one.
func (r *GroupRepository) Upsert(ctx context.Context, tx usecase.Transaction, group *domain.Group) error {
	query := `
		INSERT INTO groups (` + groupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			owner_email = EXCLUDED.owner_email,
			sync_enabled = EXCLUDED.sync_enabled,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := conn(r.db, tx).Exec(ctx, query,
		group.ID,
		group.Name,
		group.OwnerEmail,
		group.SyncEnabled,
		toTimestamptz(group.CreatedAt),
		toTimestamptz(group.UpdatedAt),
	)

	return err
}

// GetByID retrieves a group by ID.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`

	group, err := scanGroup(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGroupNotFound
	}

	return group, err
}

// List lists all groups by name.
func (r *GroupRepository) List(ctx context.Context) ([]*domain.Group, error) {
	return r.list(ctx, `SELECT `+groupColumns+` FROM groups ORDER BY name, id`)
}

// ListSyncEnabled lists groups with background sync turned on.
func (r *GroupRepository) ListSyncEnabled(ctx context.Context) ([]*domain.Group, error) {
	return r.list(ctx, `SELECT `+groupColumns+` FROM groups WHERE sync_enabled ORDER BY id`)
}

func (r *GroupRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Group, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*domain.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	return groups, rows.Err()
}

func scanGroup(row pgx.Row) (*domain.Group, error) {
	var (
		g                    domain.Group
		createdAt, updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&g.ID, &g.Name, &g.OwnerEmail, &g.SyncEnabled, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	g.CreatedAt = fromTimestamptz(createdAt)
	g.UpdatedAt = fromTimestamptz(updatedAt)
	return &g, nil
}

const memberColumns = `group_id, user_id, email, name, joined_at`

// MemberRepository implements usecase.MemberRepository.
type MemberRepository struct {
	db DBTX
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(db DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

// Add inserts a member.
func (r *MemberRepository) Add(ctx context.Context, tx usecase.Transaction, member *domain.Member) error {
	query := `
		INSERT INTO group_members (` + memberColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := conn(r.db, tx).Exec(ctx, query,
		member.GroupID,
		member.UserID,
		member.Email,
		member.Name,
		toTimestamptz(member.JoinedAt),
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateMember
	}

	return err
}

// Remove deletes a member.
func (r *MemberRepository) Remove(ctx context.Context, tx usecase.Transaction, groupID, userID string) error {
	tag, err := conn(r.db, tx).Exec(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}

	return nil
}

// Get retrieves one member of a group.
func (r *MemberRepository) Get(ctx context.Context, groupID, userID string) (*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM group_members WHERE group_id = $1 AND user_id = $2`

	member, err := scanMember(r.db.QueryRow(ctx, query, groupID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemberNotFound
	}

	return member, err
}

// ListByGroup lists the members of a group ordered by user ID.
func (r *MemberRepository) ListByGroup(ctx context.Context, groupID string) ([]*domain.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM group_members WHERE group_id = $1 ORDER BY user_id`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*domain.Member{}
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	return members, rows.Err()
}

// DeleteByGroup removes every member of a group.
func (r *MemberRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) error {
	_, err := conn(r.db, tx).Exec(ctx, `DELETE FROM group_members WHERE group_id = $1`, groupID)
	return err
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	var (
		m        domain.Member
		joinedAt pgtype.Timestamptz
	)
	if err := row.Scan(&m.GroupID, &m.UserID, &m.Email, &m.Name, &joinedAt); err != nil {
		return nil, err
	}
	m.JoinedAt = fromTimestamptz(joinedAt)
	return &m, nil
}
