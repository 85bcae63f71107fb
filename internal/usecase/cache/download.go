package cache

import (
	"context"
	"log"
	"time"

	"github.com/fhuszti/media-cache-go/internal/mediakey"
	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
	"github.com/fhuszti/media-cache-go/internal/queue"
)

// DownloadMedia is the idempotent entry point. Terminal failure/deletion
// state blocks the request unless forced; an already-usable local file
// short-circuits without any network call.
func (s *Service) DownloadMedia(ctx context.Context, in port.DownloadMediaInput) {
	item := s.getOrLoadItem(ctx, in.URL, in.MediaType)

	if item != nil && item.Terminal() && !in.Force {
		log.Printf("skipping download of %s %q: item is in a terminal state", in.MediaType, in.URL)
		return
	}

	if !in.Force && s.shortCircuit(ctx, in.MediaRef) {
		return
	}

	s.enqueue(ctx, queue.NewOperation(in.URL, in.MediaType, port.OpDownload, in.NotificationDate, in.Force))
}

// ForceMediaDownload is DownloadMedia with force=true; it is the only way to
// resurrect a permanently failed or user-deleted item.
func (s *Service) ForceMediaDownload(ctx context.Context, ref port.MediaRef) {
	s.DownloadMedia(ctx, port.DownloadMediaInput{MediaRef: ref, Force: true})
}

// CheckMediaExists enqueues a download when no local file exists, a thumbnail
// when the file exists without one, and nothing otherwise.
func (s *Service) CheckMediaExists(ctx context.Context, ref port.MediaRef) {
	localPath := mediakey.LocalPath(ref.URL, ref.MediaType)
	fi, err := s.files.Stat(localPath)
	if err != nil || fi.SizeBytes < minValidFileSize {
		s.DownloadMedia(ctx, port.DownloadMediaInput{MediaRef: ref})
		return
	}

	if !s.thumbs.Supported(ref.MediaType) {
		return
	}
	thumbPath := mediakey.ThumbnailPath(ref.URL, ref.MediaType)
	if _, err := s.files.Stat(thumbPath); err != nil {
		s.GenerateThumbnail(ctx, ref.URL, ref.MediaType, false)
	}
}

// shortCircuit marks the item materialized from an existing valid local file,
// chaining thumbnail generation when missing. Reports whether it applied.
func (s *Service) shortCircuit(ctx context.Context, ref port.MediaRef) bool {
	localPath := mediakey.LocalPath(ref.URL, ref.MediaType)
	fi, err := s.files.Stat(localPath)
	if err != nil || fi.SizeBytes < minValidFileSize {
		return false
	}

	item := s.ensureItem(ctx, ref)
	item.LocalPath = localPath
	item.Size = fi.SizeBytes
	item.Timestamp = time.Now().UnixMilli()
	if item.DownloadedAt == 0 {
		item.DownloadedAt = fi.ModTime.UnixMilli()
	}
	item.IsDownloading = false
	s.saveItem(ctx, item)

	log.Printf("✅  %s %q already cached (%d bytes), skipping fetch", ref.MediaType, ref.URL, fi.SizeBytes)
	s.maybeEnqueueThumbnail(ctx, item)
	return true
}

// runDownload executes a dequeued download operation.
func (s *Service) runDownload(ctx context.Context, op port.QueueOperation) error {
	ref := port.MediaRef{URL: op.URL, MediaType: op.MediaType, NotificationDate: op.NotificationDate}

	if !op.Force && s.shortCircuit(ctx, ref) {
		return nil
	}

	item := s.ensureItem(ctx, ref)
	item.IsDownloading = true
	localPath := mediakey.LocalPath(op.URL, op.MediaType)

	// a stale partial file must never survive under the resolved path
	if err := s.files.Remove(localPath); err != nil {
		log.Printf("⚠️  Failed to remove stale file %q: %v", localPath, err)
	}

	res, err := s.fetcher.Fetch(ctx, op.URL)
	if err != nil {
		s.failItem(ctx, item, err)
		return err
	}

	if err := s.files.Write(localPath, res.Data); err != nil {
		s.failItem(ctx, item, err)
		return err
	}

	now := time.Now().UnixMilli()
	item.LocalPath = localPath
	item.Size = int64(len(res.Data))
	item.DownloadedAt = now
	item.Timestamp = now
	item.OriginalFileName = res.OriginalFileName
	item.ErrorCode = ""
	item.IsPermanentFailure = false
	item.IsUserDeleted = false
	item.IsDownloading = false
	s.saveItem(ctx, item)

	log.Printf("✅  Downloaded %s %q (%d bytes)", op.MediaType, op.URL, item.Size)
	s.maybeEnqueueThumbnail(ctx, item)
	return nil
}

// failItem records a terminal failure. No retry is ever scheduled; only an
// explicit force re-request can recover the item.
func (s *Service) failItem(ctx context.Context, item model.CacheItem, cause error) {
	item.IsDownloading = false
	item.GeneratingThumbnail = false
	item.IsPermanentFailure = true
	item.ErrorCode = cause.Error()
	s.saveItem(ctx, item)
	log.Printf("❌  %s %q failed permanently: %v", item.MediaType, item.URL, cause)
}
