package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fhuszti/media-cache-go/internal/broadcast"
	"github.com/fhuszti/media-cache-go/internal/mediakey"
	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
	"github.com/fhuszti/media-cache-go/internal/queue"
)

// minValidFileSize is the smallest byte count an existing local file can have
// and still count as a usable download. Anything below it is treated as a
// truncated write and re-fetched.
const minValidFileSize = 512

// Service is the cache orchestrator. All public methods degrade to a
// no-op/nil/false return on store failures so UI-facing calls never throw;
// the underlying error is logged.
type Service struct {
	store   port.Store
	files   port.MediaFiles
	blobs   port.BlobStore // nil on the filesystem backend
	fetcher port.Fetcher
	thumbs  port.Thumbnailer
	details port.Cache

	queue port.OperationQueue

	mu    sync.Mutex
	items map[string]model.CacheItem

	itemsBC *broadcast.Broadcaster[port.ItemsSnapshot]
}

// compile-time check: *Service must satisfy port.Orchestrator
var _ port.Orchestrator = (*Service)(nil)

// NewService wires the orchestrator and reloads durable state. Items that
// were mid-download or mid-thumbnail when the previous process stopped get
// their transient flags reset in one batch and are re-enqueued exactly once.
func NewService(ctx context.Context, store port.Store, files port.MediaFiles, blobs port.BlobStore, fetcher port.Fetcher, thumbs port.Thumbnailer, details port.Cache) (*Service, error) {
	s := &Service{
		store:   store,
		files:   files,
		blobs:   blobs,
		fetcher: fetcher,
		thumbs:  thumbs,
		details: details,
		items:   make(map[string]model.CacheItem),
		itemsBC: broadcast.New[port.ItemsSnapshot](),
	}
	s.queue = queue.New(s.execute)

	if err := s.reload(ctx); err != nil {
		s.queue.Close()
		return nil, fmt.Errorf("failed to reload cache state: %w", err)
	}
	return s, nil
}

func (s *Service) reload(ctx context.Context) error {
	if err := s.store.EnsureInitialized(ctx); err != nil {
		return err
	}
	if err := s.files.EnsureLayout(); err != nil {
		return err
	}

	stored, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	var resets []model.CacheItem
	var reenqueue []port.QueueOperation
	for i := range stored {
		item := stored[i]
		wasDownloading := item.IsDownloading
		wasThumbnailing := item.GeneratingThumbnail
		if wasDownloading || wasThumbnailing {
			// a restart can never resume believing an operation is live
			item.IsDownloading = false
			item.GeneratingThumbnail = false
			resets = append(resets, item)
			if wasDownloading {
				reenqueue = append(reenqueue, queue.NewOperation(item.URL, item.MediaType, port.OpDownload, item.NotificationDate, false))
			}
			if wasThumbnailing {
				reenqueue = append(reenqueue, queue.NewOperation(item.URL, item.MediaType, port.OpThumbnail, item.NotificationDate, false))
			}
		}
		s.items[item.Key] = item
	}

	if len(resets) > 0 {
		if err := s.store.UpsertMany(ctx, resets); err != nil {
			return err
		}
	}

	s.publishItems()

	for _, op := range reenqueue {
		if s.enqueue(ctx, op) {
			log.Printf("⚠️  Re-enqueued interrupted %s for %s %q", op.Op, op.MediaType, op.URL)
		}
	}
	return nil
}

// Close drains the in-flight operation, stops the worker and revokes every
// outstanding blob handle.
func (s *Service) Close() {
	s.queue.Close()
	s.itemsBC.CloseAll()
	if s.blobs != nil {
		s.blobs.DisposeAll()
	}
}

// execute is the queue's executor; it is the only place download and
// thumbnail operations actually run.
func (s *Service) execute(ctx context.Context, op port.QueueOperation) error {
	switch op.Op {
	case port.OpDownload:
		return s.runDownload(ctx, op)
	case port.OpThumbnail:
		return s.runThumbnail(ctx, op)
	default:
		return fmt.Errorf("unknown queue operation %q", op.Op)
	}
}

// enqueue marks the matching transient flag on the item, then appends the
// operation. The flag is persisted first so the worker can never complete the
// operation before the flag write lands; a rejected duplicate re-writes a
// flag that is already true.
func (s *Service) enqueue(ctx context.Context, op port.QueueOperation) bool {
	item := s.ensureItem(ctx, port.MediaRef{URL: op.URL, MediaType: op.MediaType, NotificationDate: op.NotificationDate})
	switch op.Op {
	case port.OpDownload:
		item.IsDownloading = true
	case port.OpThumbnail:
		item.GeneratingThumbnail = true
	}
	s.saveItem(ctx, item)
	return s.queue.Enqueue(op)
}

// ensureItem returns the current item for the ref, creating a bare one when
// none exists yet.
func (s *Service) ensureItem(ctx context.Context, ref port.MediaRef) model.CacheItem {
	if item := s.getOrLoadItem(ctx, ref.URL, ref.MediaType); item != nil {
		if ref.NotificationDate != 0 {
			item.NotificationDate = ref.NotificationDate
		}
		return *item
	}
	return model.CacheItem{
		Key:              mediakey.CacheKey(ref.URL, ref.MediaType),
		URL:              ref.URL,
		MediaType:        ref.MediaType,
		NotificationDate: ref.NotificationDate,
		Timestamp:        time.Now().UnixMilli(),
	}
}

func refOf(url string, mt model.MediaType) port.MediaRef {
	return port.MediaRef{URL: url, MediaType: mt}
}

// getOrLoadItem looks the item up in memory, then in the store, then probes
// the file layout to lazily reconstruct an already-materialized item after
// metadata loss. Returns nil when nothing is known about the ref.
func (s *Service) getOrLoadItem(ctx context.Context, url string, mt model.MediaType) *model.CacheItem {
	key := mediakey.CacheKey(url, mt)

	s.mu.Lock()
	if item, ok := s.items[key]; ok {
		s.mu.Unlock()
		cp := item
		return &cp
	}
	s.mu.Unlock()

	item, err := s.store.Get(ctx, key)
	if err == nil {
		s.mu.Lock()
		s.items[key] = *item
		s.mu.Unlock()
		cp := *item
		return &cp
	}

	// self-healing: an already-materialized file survives metadata loss
	localPath := mediakey.LocalPath(url, mt)
	fi, statErr := s.files.Stat(localPath)
	if statErr != nil || fi.SizeBytes < minValidFileSize {
		return nil
	}

	rebuilt := model.CacheItem{
		Key:          key,
		URL:          url,
		MediaType:    mt,
		LocalPath:    localPath,
		Size:         fi.SizeBytes,
		Timestamp:    time.Now().UnixMilli(),
		DownloadedAt: fi.ModTime.UnixMilli(),
	}
	if rebuilt.DownloadedAt < 0 {
		rebuilt.DownloadedAt = 0
	}
	thumbPath := mediakey.ThumbnailPath(url, mt)
	if _, err := s.files.Stat(thumbPath); err == nil {
		rebuilt.LocalThumbPath = thumbPath
	}

	log.Printf("⚠️  Reconstructed cache item for %s %q from existing file %q", mt, url, localPath)
	s.saveItem(ctx, rebuilt)
	return &rebuilt
}

// saveItem persists the item, mirrors it in memory, invalidates the hot
// details cache and publishes a fresh items snapshot. Store failures are
// logged, never propagated: the in-memory mirror stays authoritative for
// readers either way.
func (s *Service) saveItem(ctx context.Context, item model.CacheItem) {
	if err := s.store.Upsert(ctx, &item); err != nil {
		log.Printf("❌  Failed to persist cache item %q: %v", item.Key, err)
	}

	s.mu.Lock()
	s.items[item.Key] = item
	s.mu.Unlock()

	s.invalidateDetails(ctx, item.Key)
	s.publishItems()
}

func (s *Service) invalidateDetails(ctx context.Context, key string) {
	if err := s.details.DeleteItemDetails(ctx, key); err != nil {
		log.Printf("⚠️  Failed to invalidate details cache for %q: %v", key, err)
	}
	if err := s.details.DeleteStats(ctx); err != nil {
		log.Printf("⚠️  Failed to invalidate stats cache: %v", err)
	}
}

// publishItems emits a brand new snapshot object so consumers relying on
// reference equality see every change.
func (s *Service) publishItems() {
	s.itemsBC.Publish(s.snapshotItems())
}

func (s *Service) snapshotItems() port.ItemsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(port.ItemsSnapshot, len(s.items))
	for k, v := range s.items {
		snap[k] = v
	}
	return snap
}

// SubscribeItems registers an item stream consumer. The current snapshot is
// published right away so late subscribers do not wait for the next mutation.
func (s *Service) SubscribeItems() (uuid.UUID, <-chan port.ItemsSnapshot) {
	id, ch := s.itemsBC.Subscribe()
	s.publishItems()
	return id, ch
}

func (s *Service) UnsubscribeItems(id uuid.UUID) {
	s.itemsBC.Unsubscribe(id)
}

func (s *Service) SubscribeQueue() (uuid.UUID, <-chan port.QueueSnapshot) {
	return s.queue.Subscribe()
}

// QueueState returns the current queue snapshot.
func (s *Service) QueueState() port.QueueSnapshot {
	return s.queue.Snapshot()
}

func (s *Service) UnsubscribeQueue(id uuid.UUID) {
	s.queue.Unsubscribe(id)
}
