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

// GenerateThumbnail enqueues thumbnail generation. Unsupported media kinds
// (audio, icon) never touch the queue. Preconditions are checked here and
// re-checked at execution time. force only regenerates an existing thumbnail;
// it does not override a terminal item, whose recovery path is a forced
// download.
func (s *Service) GenerateThumbnail(ctx context.Context, url string, mt model.MediaType, force bool) {
	if !s.thumbs.Supported(mt) {
		return
	}

	item := s.getOrLoadItem(ctx, url, mt)
	if !thumbnailAllowed(item, force) {
		return
	}

	s.enqueue(ctx, queue.NewOperation(url, mt, port.OpThumbnail, item.NotificationDate, force))
}

// maybeEnqueueThumbnail chains thumbnail generation after a successful
// download when the media kind supports it and no thumbnail exists yet.
func (s *Service) maybeEnqueueThumbnail(ctx context.Context, item model.CacheItem) {
	if !s.thumbs.Supported(item.MediaType) || item.LocalThumbPath != "" {
		return
	}
	s.enqueue(ctx, queue.NewOperation(item.URL, item.MediaType, port.OpThumbnail, item.NotificationDate, false))
}

// runThumbnail executes a dequeued thumbnail operation. A failed thumbnail is
// a terminal failure of the whole item.
func (s *Service) runThumbnail(ctx context.Context, op port.QueueOperation) error {
	item := s.getOrLoadItem(ctx, op.URL, op.MediaType)
	if !thumbnailAllowed(item, op.Force) {
		if item != nil && item.GeneratingThumbnail {
			item.GeneratingThumbnail = false
			s.saveItem(ctx, *item)
		}
		return nil
	}

	src, err := s.files.Read(item.LocalPath)
	if err != nil {
		s.failItem(ctx, *item, err)
		return err
	}

	thumb, err := s.thumbs.Generate(ctx, op.MediaType, src)
	if err != nil {
		s.failItem(ctx, *item, err)
		return err
	}

	thumbPath := mediakey.ThumbnailPath(op.URL, op.MediaType)
	if err := s.files.Write(thumbPath, thumb); err != nil {
		s.failItem(ctx, *item, err)
		return err
	}

	item.LocalThumbPath = thumbPath
	item.GeneratingThumbnail = false
	item.Timestamp = time.Now().UnixMilli()
	s.saveItem(ctx, *item)

	log.Printf("✅  Generated thumbnail for %s %q", op.MediaType, op.URL)
	return nil
}

// thumbnailAllowed checks the generation preconditions: a materialized,
// non-terminal item without an existing thumbnail (unless forced).
func thumbnailAllowed(item *model.CacheItem, force bool) bool {
	if item == nil || !item.Materialized() || item.Terminal() {
		return false
	}
	return item.LocalThumbPath == "" || force
}
