package cache

import (
	"context"
	"log"
	"time"

	"github.com/fhuszti/media-cache-go/internal/mediakey"
	"github.com/fhuszti/media-cache-go/internal/model"
)

// MarkAsPermanentFailure flags the item as terminally failed with the given
// error code. Automatic retry is blocked until a force re-request.
func (s *Service) MarkAsPermanentFailure(ctx context.Context, url string, mt model.MediaType, errorCode string) {
	s.queue.Remove(url, mt)

	item := s.ensureItem(ctx, refOf(url, mt))
	item.IsDownloading = false
	item.GeneratingThumbnail = false
	item.IsPermanentFailure = true
	item.ErrorCode = errorCode
	s.saveItem(ctx, item)
	log.Printf("⚠️  Marked %s %q as permanently failed (%s)", mt, url, errorCode)
}

// DeleteCachedMedia removes the local media and thumbnail files. A permanent
// delete removes the item row entirely; a soft delete keeps the row with
// isUserDeleted set so a later force download can resurrect it. Reports
// whether anything was deleted.
func (s *Service) DeleteCachedMedia(ctx context.Context, url string, mt model.MediaType, permanent bool) bool {
	item := s.getOrLoadItem(ctx, url, mt)
	if item == nil {
		return false
	}

	s.queue.Remove(url, mt)
	s.removeLocalFiles(ctx, *item)

	if permanent {
		if err := s.store.Delete(ctx, item.Key); err != nil {
			log.Printf("❌  Failed to delete cache item %q: %v", item.Key, err)
			return false
		}
		s.mu.Lock()
		delete(s.items, item.Key)
		s.mu.Unlock()
		s.invalidateDetails(ctx, item.Key)
		s.publishItems()
		return true
	}

	softDelete(item)
	s.saveItem(ctx, *item)
	return true
}

// ClearCache soft-deletes every item in one transaction, removing local files
// along the way.
func (s *Service) ClearCache(ctx context.Context) bool {
	s.mu.Lock()
	all := make([]model.CacheItem, 0, len(s.items))
	for _, item := range s.items {
		all = append(all, item)
	}
	s.mu.Unlock()

	cleared := make([]model.CacheItem, 0, len(all))
	for i := range all {
		item := all[i]
		s.queue.Remove(item.URL, item.MediaType)
		s.removeLocalFiles(ctx, item)
		softDelete(&item)
		cleared = append(cleared, item)
	}

	if len(cleared) > 0 {
		if err := s.store.UpsertMany(ctx, cleared); err != nil {
			log.Printf("❌  Failed to clear cache: %v", err)
			return false
		}
	}

	s.mu.Lock()
	for _, item := range cleared {
		s.items[item.Key] = item
	}
	s.mu.Unlock()

	for _, item := range cleared {
		s.invalidateDetails(ctx, item.Key)
	}
	s.publishItems()
	log.Printf("✅  Soft-deleted %d cached items", len(cleared))
	return true
}

// ClearCacheComplete wipes files, metadata rows and in-memory state, then
// recreates the directory skeleton.
func (s *Service) ClearCacheComplete(ctx context.Context) bool {
	s.mu.Lock()
	keys := make([]string, 0, len(s.items))
	for key, item := range s.items {
		keys = append(keys, key)
		s.queue.Remove(item.URL, item.MediaType)
	}
	s.mu.Unlock()

	if err := s.files.Wipe(); err != nil {
		log.Printf("❌  Failed to wipe media files: %v", err)
		return false
	}
	if err := s.store.ClearAll(ctx); err != nil {
		log.Printf("❌  Failed to clear cache items: %v", err)
		return false
	}
	if s.blobs != nil {
		s.blobs.DisposeAll()
		if err := s.blobs.ClearAllBlobs(ctx); err != nil {
			log.Printf("❌  Failed to clear blobs: %v", err)
			return false
		}
	}

	s.mu.Lock()
	s.items = make(map[string]model.CacheItem)
	s.mu.Unlock()

	for _, key := range keys {
		s.invalidateDetails(ctx, key)
	}
	s.publishItems()
	log.Printf("✅  Cache wiped completely")
	return true
}

// removeLocalFiles deletes the media and thumbnail files for an item, falling
// back to the derived paths when the item carries none.
func (s *Service) removeLocalFiles(ctx context.Context, item model.CacheItem) {
	localPath := item.LocalPath
	if localPath == "" {
		localPath = mediakey.LocalPath(item.URL, item.MediaType)
	}
	thumbPath := item.LocalThumbPath
	if thumbPath == "" {
		thumbPath = mediakey.ThumbnailPath(item.URL, item.MediaType)
	}

	if err := s.files.Remove(localPath); err != nil {
		log.Printf("⚠️  Failed to remove %q: %v", localPath, err)
	}
	if err := s.files.Remove(thumbPath); err != nil {
		log.Printf("⚠️  Failed to remove %q: %v", thumbPath, err)
	}
	if s.blobs != nil {
		s.blobs.RevokeHandle(item.Key)
		if err := s.blobs.DeleteBlob(ctx, item.Key); err != nil {
			log.Printf("⚠️  Failed to delete blob %q: %v", item.Key, err)
		}
	}
}

func softDelete(item *model.CacheItem) {
	item.IsUserDeleted = true
	item.LocalPath = ""
	item.LocalThumbPath = ""
	item.Size = 0
	item.IsDownloading = false
	item.GeneratingThumbnail = false
	item.IsPermanentFailure = false
	item.ErrorCode = ""
	item.Timestamp = time.Now().UnixMilli()
}
