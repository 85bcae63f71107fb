package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fhuszti/media-cache-go/internal/port"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

// BlobStore is an in-memory port.BlobStore for tests.
type BlobStore struct {
	mu      sync.Mutex
	Blobs   map[string][]byte
	handles map[string]string // key -> handle
	byToken map[string]string // handle -> key

	SaveErr  error
	GetErr   error
	DelErr   error
	ClearErr error

	Revoked     []string
	DisposedAll bool
	ClearCalled bool

	DeleteCtx context.Context
}

// compile-time check: *BlobStore must satisfy port.BlobStore
var _ port.BlobStore = (*BlobStore)(nil)

func NewBlobStore() *BlobStore {
	return &BlobStore{
		Blobs:   map[string][]byte{},
		handles: map[string]string{},
		byToken: map[string]string{},
	}
}

func (b *BlobStore) SaveBlob(ctx context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SaveErr != nil {
		return b.SaveErr
	}
	b.Blobs[key] = data
	return nil
}

func (b *BlobStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.GetErr != nil {
		return nil, b.GetErr
	}
	data, ok := b.Blobs[key]
	if !ok {
		return nil, cacheService.ErrBlobNotFound
	}
	return data, nil
}

func (b *BlobStore) DeleteBlob(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.DeleteCtx = ctx
	if b.DelErr != nil {
		return b.DelErr
	}
	delete(b.Blobs, key)
	return nil
}

func (b *BlobStore) ClearAllBlobs(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ClearCalled = true
	if b.ClearErr != nil {
		return b.ClearErr
	}
	b.Blobs = map[string][]byte{}
	return nil
}

func (b *BlobStore) BlobHandle(ctx context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.Blobs[key]; !ok {
		return "", cacheService.ErrBlobNotFound
	}
	if handle, ok := b.handles[key]; ok {
		return handle, nil
	}
	handle := uuid.NewString()
	b.handles[key] = handle
	b.byToken[handle] = key
	return handle, nil
}

func (b *BlobStore) ResolveHandle(ctx context.Context, handle string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key, ok := b.byToken[handle]
	if !ok {
		return nil, cacheService.ErrBlobNotFound
	}
	data, ok := b.Blobs[key]
	if !ok {
		return nil, cacheService.ErrBlobNotFound
	}
	return data, nil
}

func (b *BlobStore) RevokeHandle(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Revoked = append(b.Revoked, key)
	if handle, ok := b.handles[key]; ok {
		delete(b.byToken, handle)
		delete(b.handles, key)
	}
}

func (b *BlobStore) DisposeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.DisposedAll = true
	b.handles = map[string]string{}
	b.byToken = map[string]string{}
}
