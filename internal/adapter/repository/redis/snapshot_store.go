package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iho/splitsync/internal/domain"
)

const (
	fieldGroupID      = "group_id"
	fieldData         = "data"
	fieldVersion      = "version"
	fieldLastModified = "last_modified"
	fieldModifiedBy   = "modified_by"
)

// SnapshotStore implements usecase.RemoteSnapshotStore on a shared Redis
// instance. Every group has one file hash addressed by an opaque handle;
// access is tracked per file and per e-mail in two sets.
//
// Reads and writes are checked against principal, the e-mail of the device
// owner. An empty principal disables the checks.
type SnapshotStore struct {
	client    redis.UniversalClient
	prefix    string
	principal string
	newHandle func() string
}

// NewSnapshotStore creates a new SnapshotStore acting on behalf of principal.
func NewSnapshotStore(client redis.UniversalClient, principal string) *SnapshotStore {
	return &SnapshotStore{
		client:    client,
		prefix:    "snapshot:",
		principal: domain.NormalizeEmail(principal),
		newHandle: uuid.NewString,
	}
}

func (s *SnapshotStore) groupKey(groupID string) string { return s.prefix + "group:" + groupID }
func (s *SnapshotStore) fileKey(handle string) string   { return s.prefix + "file:" + handle }
func (s *SnapshotStore) aclKey(handle string) string    { return s.prefix + "acl:" + handle }
func (s *SnapshotStore) accessKey(email string) string  { return s.prefix + "access:" + email }

// Upload writes the snapshot for groupID, creating the file on first use.
func (s *SnapshotStore) Upload(ctx context.Context, groupID string, data []byte, meta domain.RemoteMetadata) (string, error) {
	handle, err := s.handleFor(ctx, groupID)
	if err != nil {
		return "", err
	}

	exists, err := s.client.Exists(ctx, s.fileKey(handle)).Result()
	if err != nil {
		return "", classify(err)
	}
	if exists > 0 {
		if err := s.checkAccess(ctx, handle); err != nil {
			return "", err
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.fileKey(handle),
			fieldGroupID, groupID,
			fieldData, data,
			fieldVersion, meta.Version,
			fieldLastModified, meta.LastModified.UTC().Format(time.RFC3339Nano),
			fieldModifiedBy, domain.NormalizeEmail(meta.ModifiedBy),
		)
		for _, email := range []string{s.principal, domain.NormalizeEmail(meta.ModifiedBy)} {
			if email == "" {
				continue
			}
			pipe.SAdd(ctx, s.aclKey(handle), email)
			pipe.SAdd(ctx, s.accessKey(email), handle)
		}
		return nil
	})
	if err != nil {
		return "", classify(err)
	}
	return handle, nil
}

// handleFor returns the handle already bound to groupID or binds a new one.
func (s *SnapshotStore) handleFor(ctx context.Context, groupID string) (string, error) {
	key := s.groupKey(groupID)
	handle, err := s.client.Get(ctx, key).Result()
	if err == nil {
		return handle, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", classify(err)
	}

	candidate := s.newHandle()
	set, err := s.client.SetNX(ctx, key, candidate, 0).Result()
	if err != nil {
		return "", classify(err)
	}
	if set {
		return candidate, nil
	}
	// Another device bound the group first.
	handle, err = s.client.Get(ctx, key).Result()
	if err != nil {
		return "", classify(err)
	}
	return handle, nil
}

// Download returns the snapshot bytes stored under handle.
func (s *SnapshotStore) Download(ctx context.Context, handle string) ([]byte, error) {
	if err := s.checkAccess(ctx, handle); err != nil {
		return nil, err
	}
	data, err := s.client.HGet(ctx, s.fileKey(handle), fieldData).Bytes()
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

// GetMetadata returns the version stamp of the file without its body.
func (s *SnapshotStore) GetMetadata(ctx context.Context, handle string) (domain.RemoteMetadata, error) {
	if err := s.checkAccess(ctx, handle); err != nil {
		return domain.RemoteMetadata{}, err
	}
	vals, err := s.client.HMGet(ctx, s.fileKey(handle), fieldVersion, fieldLastModified, fieldModifiedBy).Result()
	if err != nil {
		return domain.RemoteMetadata{}, classify(err)
	}
	if vals[0] == nil {
		return domain.RemoteMetadata{}, domain.ErrRemoteNotFound
	}

	var meta domain.RemoteMetadata
	if meta.Version, err = strconv.ParseInt(fmt.Sprint(vals[0]), 10, 64); err != nil {
		return domain.RemoteMetadata{}, fmt.Errorf("parse remote version: %w", err)
	}
	if raw, ok := vals[1].(string); ok && raw != "" {
		if meta.LastModified, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return domain.RemoteMetadata{}, fmt.Errorf("parse remote last modified: %w", err)
		}
	}
	if raw, ok := vals[2].(string); ok {
		meta.ModifiedBy = raw
	}
	return meta, nil
}

// ListAccessible returns the handles of every existing file principal can read.
func (s *SnapshotStore) ListAccessible(ctx context.Context, principal string) ([]string, error) {
	handles, err := s.client.SMembers(ctx, s.accessKey(domain.NormalizeEmail(principal))).Result()
	if err != nil {
		return nil, classify(err)
	}
	if len(handles) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	checks := make([]*redis.IntCmd, len(handles))
	for i, h := range handles {
		checks[i] = pipe.Exists(ctx, s.fileKey(h))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, classify(err)
	}

	result := make([]string, 0, len(handles))
	for i, h := range handles {
		if checks[i].Val() > 0 {
			result = append(result, h)
		}
	}
	sort.Strings(result)
	return result, nil
}

// SetPermissions grants read/write access to every e-mail in emails.
func (s *SnapshotStore) SetPermissions(ctx context.Context, handle string, emails []string) error {
	if err := s.checkAccess(ctx, handle); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, e := range emails {
			email := domain.NormalizeEmail(e)
			if email == "" {
				continue
			}
			pipe.SAdd(ctx, s.aclKey(handle), email)
			pipe.SAdd(ctx, s.accessKey(email), handle)
		}
		return nil
	})
	return classify(err)
}

// RemovePermission revokes access for a single e-mail.
func (s *SnapshotStore) RemovePermission(ctx context.Context, handle, email string) error {
	if err := s.checkAccess(ctx, handle); err != nil {
		return err
	}
	email = domain.NormalizeEmail(email)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, s.aclKey(handle), email)
		pipe.SRem(ctx, s.accessKey(email), handle)
		return nil
	})
	return classify(err)
}

// checkAccess returns ErrRemoteNotFound for a missing file and
// ErrRemoteForbidden when the principal is not on its access list.
func (s *SnapshotStore) checkAccess(ctx context.Context, handle string) error {
	exists, err := s.client.Exists(ctx, s.fileKey(handle)).Result()
	if err != nil {
		return classify(err)
	}
	if exists == 0 {
		return domain.ErrRemoteNotFound
	}
	if s.principal == "" {
		return nil
	}
	ok, err := s.client.SIsMember(ctx, s.aclKey(handle), s.principal).Result()
	if err != nil {
		return classify(err)
	}
	if !ok {
		return domain.ErrRemoteForbidden
	}
	return nil
}

// classify maps redis errors onto the remote store error kinds.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return domain.ErrRemoteNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", domain.ErrRemoteTransient, err)
	}
}
