package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

// Bucket names
var (
	bucketItems = []byte("cache_items")
	bucketBlobs = []byte("media_items")
	bucketFiles = []byte("media_files")
)

// Store is the blob-capable backend: cache items as JSON values, raw media
// payloads as blobs, no real filesystem underneath. It doubles as the
// MediaFiles implementation so the rest of the cache never branches on the
// backend kind.
type Store struct {
	db *bolt.DB

	// initialized is an idempotent guard, not a lock: two overlapping
	// EnsureInitialized calls are not serialized against each other.
	initialized bool
}

// compile-time checks
var (
	_ port.Store      = (*Store)(nil)
	_ port.MediaFiles = (*Store)(nil)
)

func NewStore(path string) (*Store, error) {
	log.Printf("opening bolt store at %q...", path)
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) EnsureInitialized(ctx context.Context) error {
	if s.initialized {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketItems, bucketBlobs, bucketFiles} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store init: %w", err)
	}
	s.initialized = true
	return nil
}

func (s *Store) guard() error {
	if !s.initialized {
		return cacheService.ErrNotInitialized
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, item *model.CacheItem) error {
	if err := s.guard(); err != nil {
		return err
	}
	log.Printf("upserting cache item %q...", item.Key)

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal cache item %q: %w", item.Key, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketItems).Put([]byte(item.Key), data)
	})
	if err != nil {
		return fmt.Errorf("upsert cache item %q: %w", item.Key, err)
	}
	return nil
}

func (s *Store) UpsertMany(ctx context.Context, items []model.CacheItem) error {
	if err := s.guard(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	log.Printf("upserting %d cache items in one transaction...", len(items))

	// A single bolt write transaction: any failure rolls the whole batch back.
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketItems)
		for i := range items {
			data, err := json.Marshal(&items[i])
			if err != nil {
				return fmt.Errorf("marshal cache item %q: %w", items[i].Key, err)
			}
			if err := b.Put([]byte(items[i].Key), data); err != nil {
				return fmt.Errorf("put cache item %q: %w", items[i].Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (*model.CacheItem, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketItems).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get cache item %q: %w", key, err)
	}
	if data == nil {
		return nil, cacheService.ErrItemNotFound
	}

	var item model.CacheItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("unmarshal cache item %q: %w", key, err)
	}
	return &item, nil
}

func (s *Store) List(ctx context.Context) ([]model.CacheItem, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	var items []model.CacheItem
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketItems).ForEach(func(k, v []byte) error {
			var item model.CacheItem
			if err := json.Unmarshal(v, &item); err != nil {
				return fmt.Errorf("unmarshal cache item %q: %w", k, err)
			}
			items = append(items, item)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list cache items: %w", err)
	}

	// Most recently downloaded first, like the row backend.
	sort.Slice(items, func(i, j int) bool {
		return items[i].DownloadedAt > items[j].DownloadedAt
	})
	return items, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.guard(); err != nil {
		return err
	}
	log.Printf("deleting cache item %q...", key)

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketItems).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete cache item %q: %w", key, err)
	}
	return nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	if err := s.guard(); err != nil {
		return err
	}
	log.Println("clearing all cache items...")

	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketItems); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketItems)
		return err
	})
	if err != nil {
		return fmt.Errorf("clear cache items: %w", err)
	}
	return nil
}
