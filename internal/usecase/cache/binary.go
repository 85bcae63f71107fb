package cache

import (
	"context"
	"log"
	"time"

	"github.com/fhuszti/media-cache-go/internal/mediakey"
	"github.com/fhuszti/media-cache-go/internal/model"
)

// DownloadMediaAsBinary fetches the media synchronously and stores the raw
// bytes as a blob keyed by the cache key. Blob-capable backend only.
func (s *Service) DownloadMediaAsBinary(ctx context.Context, url string, mt model.MediaType) error {
	if s.blobs == nil {
		return ErrNoBlobStore
	}

	item := s.ensureItem(ctx, refOf(url, mt))

	res, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		s.failItem(ctx, item, err)
		return err
	}

	if err := s.blobs.SaveBlob(ctx, item.Key, res.Data); err != nil {
		s.failItem(ctx, item, err)
		return err
	}

	now := time.Now().UnixMilli()
	item.Size = int64(len(res.Data))
	item.DownloadedAt = now
	item.Timestamp = now
	item.OriginalFileName = res.OriginalFileName
	item.ErrorCode = ""
	item.IsPermanentFailure = false
	item.IsUserDeleted = false
	item.IsDownloading = false
	s.saveItem(ctx, item)

	log.Printf("✅  Stored binary for %s %q (%d bytes)", mt, url, item.Size)
	return nil
}

// GetMediaURL returns a revocable local handle to the blob bytes, cached per
// key; the handle resolves through the blob route until revoked.
func (s *Service) GetMediaURL(ctx context.Context, url string, mt model.MediaType) (string, error) {
	if s.blobs == nil {
		return "", ErrNoBlobStore
	}

	key := mediakey.CacheKey(url, mt)
	handle, err := s.blobs.BlobHandle(ctx, key)
	if err != nil {
		return "", err
	}
	return "/blobs/" + handle, nil
}

// DeleteMediaBinary removes the blob and revokes its outstanding handle.
func (s *Service) DeleteMediaBinary(ctx context.Context, url string, mt model.MediaType) error {
	if s.blobs == nil {
		return ErrNoBlobStore
	}

	key := mediakey.CacheKey(url, mt)
	s.blobs.RevokeHandle(key)
	if err := s.blobs.DeleteBlob(ctx, key); err != nil {
		return err
	}

	if item := s.getOrLoadItem(ctx, url, mt); item != nil {
		item.Size = 0
		item.DownloadedAt = 0
		s.saveItem(ctx, *item)
	}
	return nil
}

// ClearAllBinaryMedia revokes every handle and drops every stored blob.
func (s *Service) ClearAllBinaryMedia(ctx context.Context) error {
	if s.blobs == nil {
		return ErrNoBlobStore
	}

	s.blobs.DisposeAll()
	return s.blobs.ClearAllBlobs(ctx)
}
