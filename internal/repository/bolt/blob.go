package bolt

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fhuszti/media-cache-go/internal/port"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

// BlobStore serves raw binary payloads keyed by cache key, plus revocable
// handles to them. Handles are process-local, like object URLs: issuing one
// twice for the same key returns the cached token, and revoking it
// invalidates the token immediately.
type BlobStore struct {
	store *Store

	mu      sync.Mutex
	handles map[string]string // cache key -> handle token
	tokens  map[string]string // handle token -> cache key
}

// compile-time check: *BlobStore must satisfy port.BlobStore
var _ port.BlobStore = (*BlobStore)(nil)

func NewBlobStore(store *Store) *BlobStore {
	return &BlobStore{
		store:   store,
		handles: make(map[string]string),
		tokens:  make(map[string]string),
	}
}

func (b *BlobStore) SaveBlob(ctx context.Context, key string, data []byte) error {
	if err := b.store.guard(); err != nil {
		return err
	}
	log.Printf("saving blob for %q (%d bytes)...", key, len(data))

	err := b.store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("save blob %q: %w", key, err)
	}
	return nil
}

func (b *BlobStore) GetBlob(ctx context.Context, key string) ([]byte, error) {
	if err := b.store.guard(); err != nil {
		return nil, err
	}

	var data []byte
	err := b.store.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketBlobs).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get blob %q: %w", key, err)
	}
	if data == nil {
		return nil, cacheService.ErrBlobNotFound
	}
	return data, nil
}

func (b *BlobStore) DeleteBlob(ctx context.Context, key string) error {
	if err := b.store.guard(); err != nil {
		return err
	}
	log.Printf("deleting blob for %q...", key)

	err := b.store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBlobs).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	b.RevokeHandle(key)
	return nil
}

func (b *BlobStore) ClearAllBlobs(ctx context.Context) error {
	if err := b.store.guard(); err != nil {
		return err
	}
	log.Println("clearing all blobs...")

	err := b.store.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketBlobs); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketBlobs)
		return err
	})
	if err != nil {
		return fmt.Errorf("clear blobs: %w", err)
	}
	b.DisposeAll()
	return nil
}

func (b *BlobStore) BlobHandle(ctx context.Context, key string) (string, error) {
	if err := b.store.guard(); err != nil {
		return "", err
	}

	b.mu.Lock()
	if token, ok := b.handles[key]; ok {
		b.mu.Unlock()
		return token, nil
	}
	b.mu.Unlock()

	// Only issue handles for blobs that actually exist.
	if _, err := b.GetBlob(ctx, key); err != nil {
		return "", err
	}

	token := uuid.NewString()
	b.mu.Lock()
	b.handles[key] = token
	b.tokens[token] = key
	b.mu.Unlock()
	return token, nil
}

func (b *BlobStore) ResolveHandle(ctx context.Context, handle string) ([]byte, error) {
	b.mu.Lock()
	key, ok := b.tokens[handle]
	b.mu.Unlock()
	if !ok {
		return nil, cacheService.ErrBlobNotFound
	}
	return b.GetBlob(ctx, key)
}

func (b *BlobStore) RevokeHandle(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if token, ok := b.handles[key]; ok {
		delete(b.tokens, token)
		delete(b.handles, key)
	}
}

func (b *BlobStore) DisposeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handles = make(map[string]string)
	b.tokens = make(map[string]string)
}
