package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/domain"
)

// GroupUseCase handles groups and their members.
type GroupUseCase struct {
	store  LocalStore
	queue  *OfflineQueue
	remote RemoteSnapshotStore
	idGen  IDGenerator
	clock  Clock
	logger zerolog.Logger
}

// NewGroupUseCase creates a new GroupUseCase.
func NewGroupUseCase(
	store LocalStore,
	queue *OfflineQueue,
	remote RemoteSnapshotStore,
	idGen IDGenerator,
	clock Clock,
	logger zerolog.Logger,
) *GroupUseCase {
	return &GroupUseCase{
		store:  store,
		queue:  queue,
		remote: remote,
		idGen:  idGen,
		clock:  clock,
		logger: logger.With().Str("component", "groups").Logger(),
	}
}

// CreateGroupInput represents input for creating a group.
type CreateGroupInput struct {
	Name        string
	OwnerUserID string
	OwnerEmail  string
	OwnerName   string
	SyncEnabled bool
}

// CreateGroup creates a group with its creator as the first member.
func (uc *GroupUseCase) CreateGroup(ctx context.Context, input CreateGroupInput) (*domain.Group, error) {
	now := uc.clock.Now()
	group := &domain.Group{
		ID:          uc.idGen.Generate(),
		Name:        strings.TrimSpace(input.Name),
		OwnerEmail:  domain.NormalizeEmail(input.OwnerEmail),
		SyncEnabled: input.SyncEnabled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	owner := &domain.Member{
		GroupID:  group.ID,
		UserID:   input.OwnerUserID,
		Email:    group.OwnerEmail,
		Name:     input.OwnerName,
		JoinedAt: now,
	}
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	err := uc.queue.Mutate(ctx, group.ID, func(tx Transaction) error {
		if err := uc.store.Groups.Create(ctx, tx, group); err != nil {
			return err
		}
		if err := uc.store.Members.Add(ctx, tx, owner); err != nil {
			return err
		}
		return uc.queue.Enqueue(ctx, tx, EnqueueInput{
			GroupID:    group.ID,
			EntityType: domain.EntityTypeGroup,
			EntityID:   group.ID,
			Operation:  domain.ChangeOperationCreate,
			Payload:    group,
		})
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// GetGroup retrieves a group by ID.
func (uc *GroupUseCase) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	return uc.store.Groups.GetByID(ctx, id)
}

// ListGroups lists all local groups.
func (uc *GroupUseCase) ListGroups(ctx context.Context) ([]*domain.Group, error) {
	return uc.store.Groups.List(ctx)
}

// SetSyncEnabled turns background sync of a group on or off.
func (uc *GroupUseCase) SetSyncEnabled(ctx context.Context, id string, enabled bool) (*domain.Group, error) {
	group, err := uc.store.Groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if group.SyncEnabled == enabled {
		return group, nil
	}

	group.SyncEnabled = enabled
	group.UpdatedAt = uc.clock.Now()

	if err := uc.store.Groups.Update(ctx, nil, group); err != nil {
		return nil, err
	}

	return group, nil
}

// RenameGroup changes a group's name.
func (uc *GroupUseCase) RenameGroup(ctx context.Context, id, name string) (*domain.Group, error) {
	if _, err := uc.store.Groups.GetByID(ctx, id); err != nil {
		return nil, err
	}

	var group *domain.Group
	err := uc.queue.Mutate(ctx, id, func(tx Transaction) error {
		g, err := uc.store.Groups.GetByID(ctx, id)
		if err != nil {
			return err
		}

		g.Name = strings.TrimSpace(name)
		g.UpdatedAt = uc.clock.Now()
		if err := g.Validate(); err != nil {
			return err
		}

		if err := uc.store.Groups.Update(ctx, tx, g); err != nil {
			return err
		}
		group = g
		return uc.queue.Enqueue(ctx, tx, EnqueueInput{
			GroupID:    g.ID,
			EntityType: domain.EntityTypeGroup,
			EntityID:   g.ID,
			Operation:  domain.ChangeOperationUpdate,
			Payload:    g,
		})
	})
	if err != nil {
		return nil, err
	}

	return group, nil
}

// AddMemberInput represents input for adding a member.
type AddMemberInput struct {
	GroupID string
	UserID  string
	Email   string
	Name    string
}

// AddMember adds a member and shares the group's remote copy with them.
// Sharing is best-effort and never undoes the local change.
func (uc *GroupUseCase) AddMember(ctx context.Context, input AddMemberInput) (*domain.Member, error) {
	if _, err := uc.store.Groups.GetByID(ctx, input.GroupID); err != nil {
		return nil, err
	}

	member := &domain.Member{
		GroupID:  input.GroupID,
		UserID:   input.UserID,
		Email:    domain.NormalizeEmail(input.Email),
		Name:     input.Name,
		JoinedAt: uc.clock.Now(),
	}
	if err := member.Validate(); err != nil {
		return nil, err
	}

	err := uc.queue.Mutate(ctx, member.GroupID, func(tx Transaction) error {
		if err := uc.store.Members.Add(ctx, tx, member); err != nil {
			return err
		}
		return uc.queue.Enqueue(ctx, tx, EnqueueInput{
			GroupID:    member.GroupID,
			EntityType: domain.EntityTypeMember,
			EntityID:   member.UserID,
			Operation:  domain.ChangeOperationCreate,
			Payload:    member,
		})
	})
	if err != nil {
		return nil, err
	}

	if handle := uc.remoteHandle(ctx, member.GroupID); handle != "" {
		if err := uc.remote.SetPermissions(ctx, handle, []string{member.Email}); err != nil {
			uc.logger.Warn().Err(err).
				Str("group_id", member.GroupID).
				Str("email", member.Email).
				Msg("failed to grant remote access")
		}
	}

	return member, nil
}

// RemoveMember removes a member and revokes their remote access.
// Revocation is best-effort and never undoes the local change.
func (uc *GroupUseCase) RemoveMember(ctx context.Context, groupID, userID string) error {
	if _, err := uc.store.Members.Get(ctx, groupID, userID); err != nil {
		return err
	}

	var member *domain.Member
	err := uc.queue.Mutate(ctx, groupID, func(tx Transaction) error {
		var err error
		member, err = uc.store.Members.Get(ctx, groupID, userID)
		if err != nil {
			return err
		}

		if err := uc.store.Members.Remove(ctx, tx, groupID, userID); err != nil {
			return err
		}
		return uc.queue.Enqueue(ctx, tx, EnqueueInput{
			GroupID:    groupID,
			EntityType: domain.EntityTypeMember,
			EntityID:   userID,
			Operation:  domain.ChangeOperationDelete,
			Payload:    member,
		})
	})
	if err != nil {
		return err
	}

	if handle := uc.remoteHandle(ctx, groupID); handle != "" && member.Email != "" {
		if err := uc.remote.RemovePermission(ctx, handle, member.Email); err != nil {
			uc.logger.Warn().Err(err).
				Str("group_id", groupID).
				Str("email", member.Email).
				Msg("failed to revoke remote access")
		}
	}

	return nil
}

// ListMembers lists the members of a group.
func (uc *GroupUseCase) ListMembers(ctx context.Context, groupID string) ([]*domain.Member, error) {
	if _, err := uc.store.Groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}
	return uc.store.Members.ListByGroup(ctx, groupID)
}

func (uc *GroupUseCase) remoteHandle(ctx context.Context, groupID string) string {
	meta, err := uc.store.SyncMeta.Get(ctx, groupID)
	if err != nil {
		if !errors.Is(err, domain.ErrSyncMetadataNotFound) {
			uc.logger.Warn().Err(err).Str("group_id", groupID).Msg("failed to read sync metadata")
		}
		return ""
	}
	return meta.RemoteHandle
}

// requireMember returns ErrNotGroupMember when userID is not in the group.
func requireMember(ctx context.Context, members MemberRepository, groupID, userID string) error {
	_, err := members.Get(ctx, groupID, userID)
	if errors.Is(err, domain.ErrMemberNotFound) {
		return domain.ErrNotGroupMember
	}
	return err
}
