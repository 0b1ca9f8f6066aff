package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/iho/splitsync/internal/domain"
)

type remoteFile struct {
	groupID string
	data    []byte
	meta    domain.RemoteMetadata
	acl     map[string]bool
}

// InMemoryRemoteStore is an in-memory RemoteSnapshotStore. Handles are
// "file-<groupID>".
type InMemoryRemoteStore struct {
	mu    sync.RWMutex
	files map[string]*remoteFile

	uploads int

	UploadFunc           func(ctx context.Context, groupID string, data []byte, meta domain.RemoteMetadata) (string, error)
	GetMetadataFunc      func(ctx context.Context, handle string) (domain.RemoteMetadata, error)
	SetPermissionsFunc   func(ctx context.Context, handle string, emails []string) error
	RemovePermissionFunc func(ctx context.Context, handle, email string) error
}

func NewInMemoryRemoteStore() *InMemoryRemoteStore {
	return &InMemoryRemoteStore{
		files: make(map[string]*remoteFile),
	}
}

func (s *InMemoryRemoteStore) Upload(ctx context.Context, groupID string, data []byte, meta domain.RemoteMetadata) (string, error) {
	if s.UploadFunc != nil {
		return s.UploadFunc(ctx, groupID, data, meta)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := "file-" + groupID
	f, ok := s.files[handle]
	if !ok {
		f = &remoteFile{groupID: groupID, acl: make(map[string]bool)}
		s.files[handle] = f
	}
	f.data = append([]byte(nil), data...)
	f.meta = meta
	if meta.ModifiedBy != "" {
		f.acl[meta.ModifiedBy] = true
	}
	s.uploads++
	return handle, nil
}

func (s *InMemoryRemoteStore) Download(ctx context.Context, handle string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[handle]
	if !ok {
		return nil, domain.ErrRemoteNotFound
	}
	return append([]byte(nil), f.data...), nil
}

func (s *InMemoryRemoteStore) GetMetadata(ctx context.Context, handle string) (domain.RemoteMetadata, error) {
	if s.GetMetadataFunc != nil {
		return s.GetMetadataFunc(ctx, handle)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[handle]
	if !ok {
		return domain.RemoteMetadata{}, domain.ErrRemoteNotFound
	}
	return f.meta, nil
}

func (s *InMemoryRemoteStore) ListAccessible(ctx context.Context, principal string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var handles []string
	for handle, f := range s.files {
		if f.acl[principal] {
			handles = append(handles, handle)
		}
	}
	sort.Strings(handles)
	return handles, nil
}

func (s *InMemoryRemoteStore) SetPermissions(ctx context.Context, handle string, emails []string) error {
	if s.SetPermissionsFunc != nil {
		return s.SetPermissionsFunc(ctx, handle, emails)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[handle]
	if !ok {
		return domain.ErrRemoteNotFound
	}
	for _, e := range emails {
		f.acl[e] = true
	}
	return nil
}

func (s *InMemoryRemoteStore) RemovePermission(ctx context.Context, handle, email string) error {
	if s.RemovePermissionFunc != nil {
		return s.RemovePermissionFunc(ctx, handle, email)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[handle]
	if !ok {
		return domain.ErrRemoteNotFound
	}
	delete(f.acl, email)
	return nil
}

// Delete drops a file, simulating removal on the remote side.
func (s *InMemoryRemoteStore) Delete(handle string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, handle)
}

// HasAccess reports whether email is on the file's access list.
func (s *InMemoryRemoteStore) HasAccess(handle, email string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[handle]
	return ok && f.acl[email]
}

// Put stores raw snapshot bytes as if another device had uploaded them.
func (s *InMemoryRemoteStore) Put(groupID string, data []byte, meta domain.RemoteMetadata, readers ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := "file-" + groupID
	f := &remoteFile{groupID: groupID, data: data, meta: meta, acl: make(map[string]bool)}
	for _, r := range readers {
		f.acl[r] = true
	}
	s.files[handle] = f
	return handle
}

// UploadCount returns how many uploads went through the default path.
func (s *InMemoryRemoteStore) UploadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploads
}
