package bolt

import (
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/fhuszti/media-cache-go/internal/port"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

// Media byte persistence on the blob backend: localPath-addressed payloads
// live in their own bucket, so the rest of the cache reads and writes "files"
// without knowing there is no filesystem underneath.

func (s *Store) EnsureLayout() error {
	// No directories to create; buckets appear in EnsureInitialized.
	return s.guard()
}

func (s *Store) Stat(relPath string) (port.FileInfo, error) {
	if err := s.guard(); err != nil {
		return port.FileInfo{}, err
	}

	var size int64 = -1
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketFiles).Get([]byte(relPath)); v != nil {
			size = int64(len(v))
		}
		return nil
	})
	if err != nil {
		return port.FileInfo{}, fmt.Errorf("stat %q: %w", relPath, err)
	}
	if size < 0 {
		return port.FileInfo{}, cacheService.ErrFileNotFound
	}
	return port.FileInfo{SizeBytes: size}, nil
}

func (s *Store) Read(relPath string) ([]byte, error) {
	if err := s.guard(); err != nil {
		return nil, err
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketFiles).Get([]byte(relPath)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", relPath, err)
	}
	if data == nil {
		return nil, cacheService.ErrFileNotFound
	}
	return data, nil
}

func (s *Store) Write(relPath string, data []byte) error {
	if err := s.guard(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFiles).Put([]byte(relPath), data)
	})
	if err != nil {
		return fmt.Errorf("write %q: %w", relPath, err)
	}
	return nil
}

func (s *Store) Remove(relPath string) error {
	if err := s.guard(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketFiles).Delete([]byte(relPath))
	})
	if err != nil {
		return fmt.Errorf("remove %q: %w", relPath, err)
	}
	return nil
}

func (s *Store) Wipe() error {
	if err := s.guard(); err != nil {
		return err
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketFiles); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketFiles)
		return err
	})
	if err != nil {
		return fmt.Errorf("wipe media files: %w", err)
	}
	return nil
}
