package port

import (
	"context"
	"time"

	"github.com/fhuszti/media-cache-go/internal/model"
)

// Store defines durable CRUD for cache items. Exactly two implementations
// exist (MariaDB rows + filesystem, and bbolt key/value + blobs); one is
// selected at construction and never branched on per call.
type Store interface {
	// EnsureInitialized is an idempotent guard callers run before any other
	// operation. Accessors on an uninitialized store return ErrNotInitialized.
	EnsureInitialized(ctx context.Context) error
	Upsert(ctx context.Context, item *model.CacheItem) error
	// UpsertMany executes inside a single transaction; on failure the entire
	// batch rolls back and the error propagates.
	UpsertMany(ctx context.Context, items []model.CacheItem) error
	Get(ctx context.Context, key string) (*model.CacheItem, error)
	List(ctx context.Context) ([]model.CacheItem, error)
	Delete(ctx context.Context, key string) error
	ClearAll(ctx context.Context) error
}

// BlobStore extends the blob-capable backend with raw binary payloads,
// 1:1 with a cache item key where no real filesystem exists.
type BlobStore interface {
	SaveBlob(ctx context.Context, key string, data []byte) error
	GetBlob(ctx context.Context, key string) ([]byte, error)
	DeleteBlob(ctx context.Context, key string) error
	ClearAllBlobs(ctx context.Context) error
	// BlobHandle returns a reusable, cached, revocable handle to the blob's
	// bytes. Handles must be revoked on delete/clear so they never outlive
	// the blob they point at.
	BlobHandle(ctx context.Context, key string) (string, error)
	// ResolveHandle returns the bytes a previously issued handle points at.
	ResolveHandle(ctx context.Context, handle string) ([]byte, error)
	RevokeHandle(key string)
	// DisposeAll revokes every outstanding handle.
	DisposeAll()
}

// FileInfo describes a stored media file.
type FileInfo struct {
	SizeBytes int64
	ModTime   time.Time
}

// MediaFiles is the media byte persistence behind CacheItem.LocalPath.
// Paths are relative to the cache root, e.g. "IMAGE/1a2b3c4d.jpg".
type MediaFiles interface {
	// EnsureLayout creates the expected directory skeleton
	// (<MEDIA_TYPE>/thumbnails for every media type).
	EnsureLayout() error
	Stat(relPath string) (FileInfo, error)
	Read(relPath string) ([]byte, error)
	Write(relPath string, data []byte) error
	Remove(relPath string) error
	// Wipe removes every stored file, then recreates the layout.
	Wipe() error
}
