package redis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/iho/splitsync/internal/domain"
)

func newTestSnapshotStore(t *testing.T, principal string) *SnapshotStore {
	t.Helper()
	client, _ := newTestRedisClient(t)
	store := NewSnapshotStore(client, principal)
	n := 0
	store.newHandle = func() string {
		n++
		return fmt.Sprintf("h%d", n)
	}
	return store
}

func TestSnapshotStore_UploadAndDownload(t *testing.T) {
	ctx := context.Background()
	store := newTestSnapshotStore(t, "alice@example.com")
	modified := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	handle, err := store.Upload(ctx, "g1", []byte(`{"version":1}`), domain.RemoteMetadata{
		Version: 1, LastModified: modified, ModifiedBy: "Alice@example.com",
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if handle != "h1" {
		t.Fatalf("expected handle h1, got %s", handle)
	}

	data, err := store.Download(ctx, handle)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if string(data) != `{"version":1}` {
		t.Fatalf("unexpected data %q", data)
	}

	meta, err := store.GetMetadata(ctx, handle)
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if meta.Version != 1 || !meta.LastModified.Equal(modified) || meta.ModifiedBy != "alice@example.com" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
}

func TestSnapshotStore_UploadReusesHandle(t *testing.T) {
	ctx := context.Background()
	store := newTestSnapshotStore(t, "alice@example.com")

	first, err := store.Upload(ctx, "g1", []byte("v1"), domain.RemoteMetadata{Version: 1})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	second, err := store.Upload(ctx, "g1", []byte("v2"), domain.RemoteMetadata{Version: 2})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if first != second {
		t.Fatalf("expected same handle, got %s and %s", first, second)
	}

	meta, err := store.GetMetadata(ctx, second)
	if err != nil {
		t.Fatalf("GetMetadata failed: %v", err)
	}
	if meta.Version != 2 {
		t.Fatalf("expected version 2, got %d", meta.Version)
	}
}

func TestSnapshotStore_MissingFile(t *testing.T) {
	ctx := context.Background()
	store := newTestSnapshotStore(t, "alice@example.com")

	if _, err := store.Download(ctx, "nope"); !errors.Is(err, domain.ErrRemoteNotFound) {
		t.Fatalf("expected ErrRemoteNotFound, got %v", err)
	}
	if _, err := store.GetMetadata(ctx, "nope"); !errors.Is(err, domain.ErrRemoteNotFound) {
		t.Fatalf("expected ErrRemoteNotFound, got %v", err)
	}
	if err := store.SetPermissions(ctx, "nope", []string{"bob@example.com"}); !errors.Is(err, domain.ErrRemoteNotFound) {
		t.Fatalf("expected ErrRemoteNotFound, got %v", err)
	}
}

func TestSnapshotStore_Permissions(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestRedisClient(t)
	alice := NewSnapshotStore(client, "alice@example.com")
	bob := NewSnapshotStore(client, "bob@example.com")

	handle, err := alice.Upload(ctx, "g1", []byte("data"), domain.RemoteMetadata{Version: 1, ModifiedBy: "alice@example.com"})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if _, err := bob.Download(ctx, handle); !errors.Is(err, domain.ErrRemoteForbidden) {
		t.Fatalf("expected ErrRemoteForbidden, got %v", err)
	}
	if _, err := bob.Upload(ctx, "g1", []byte("evil"), domain.RemoteMetadata{Version: 9}); !errors.Is(err, domain.ErrRemoteForbidden) {
		t.Fatalf("expected ErrRemoteForbidden on upload, got %v", err)
	}

	if err := alice.SetPermissions(ctx, handle, []string{"Bob@Example.com "}); err != nil {
		t.Fatalf("SetPermissions failed: %v", err)
	}
	handles, err := bob.ListAccessible(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("ListAccessible failed: %v", err)
	}
	if len(handles) != 1 || handles[0] != handle {
		t.Fatalf("expected [%s], got %v", handle, handles)
	}
	if _, err := bob.Download(ctx, handle); err != nil {
		t.Fatalf("Download after grant failed: %v", err)
	}

	if err := alice.RemovePermission(ctx, handle, "bob@example.com"); err != nil {
		t.Fatalf("RemovePermission failed: %v", err)
	}
	handles, err = bob.ListAccessible(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("ListAccessible failed: %v", err)
	}
	if len(handles) != 0 {
		t.Fatalf("expected no handles, got %v", handles)
	}
}

func TestSnapshotStore_ListAccessibleSkipsDeletedFiles(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestRedisClient(t)
	store := NewSnapshotStore(client, "alice@example.com")

	h1, err := store.Upload(ctx, "g1", []byte("a"), domain.RemoteMetadata{Version: 1})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	h2, err := store.Upload(ctx, "g2", []byte("b"), domain.RemoteMetadata{Version: 1})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	mr.Del("snapshot:file:" + h1)

	handles, err := store.ListAccessible(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("ListAccessible failed: %v", err)
	}
	if len(handles) != 1 || handles[0] != h2 {
		t.Fatalf("expected [%s], got %v", h2, handles)
	}
}

func TestSnapshotStore_ConnectionErrorIsTransient(t *testing.T) {
	client, mr := newTestRedisClient(t)
	store := NewSnapshotStore(client, "alice@example.com")
	mr.Close()

	_, err := store.GetMetadata(context.Background(), "h1")
	if !errors.Is(err, domain.ErrRemoteTransient) {
		t.Fatalf("expected ErrRemoteTransient, got %v", err)
	}
}
