package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/fhuszti/media-cache-go/internal/model"
)

// MediaRef identifies a remote media as supplied by the surrounding
// application.
type MediaRef struct {
	URL              string
	MediaType        model.MediaType
	NotificationDate int64
}

// DownloadMediaInput is the full intent behind a download request.
type DownloadMediaInput struct {
	MediaRef
	Force bool
}

// ItemsSnapshot is the full keyed collection of cache items, emitted as a
// fresh copy on every mutation.
type ItemsSnapshot map[string]model.CacheItem

// MediaDownloader enqueues or short-circuits media downloads.
type MediaDownloader interface {
	// DownloadMedia is the idempotent entry point; it respects terminal
	// failure/deletion state unless forced.
	DownloadMedia(ctx context.Context, in DownloadMediaInput)
	// ForceMediaDownload is DownloadMedia with force=true.
	ForceMediaDownload(ctx context.Context, ref MediaRef)
	// CheckMediaExists enqueues a download if no local file exists, a
	// thumbnail if the file exists without one, or nothing at all.
	CheckMediaExists(ctx context.Context, ref MediaRef)
}

// ThumbnailRequester enqueues thumbnail generation for a cached item.
type ThumbnailRequester interface {
	GenerateThumbnail(ctx context.Context, url string, mt model.MediaType, force bool)
}

// ItemGetter returns cached state, lazily reconstructing an item from an
// already-materialized file after metadata loss.
type ItemGetter interface {
	GetCachedItem(ctx context.Context, url string, mt model.MediaType) *model.CacheItem
}

// StatsGetter aggregates count/size/by-type over non-deleted items.
type StatsGetter interface {
	GetCacheStats(ctx context.Context) model.CacheStats
}

// FailureMarker flags an item as terminally failed.
type FailureMarker interface {
	MarkAsPermanentFailure(ctx context.Context, url string, mt model.MediaType, errorCode string)
}

// MediaDeleter removes local media and thumbnail files. A permanent delete
// removes the item row entirely; otherwise the item is soft-deleted so a
// later force call can resurrect it. It reports whether anything was deleted.
type MediaDeleter interface {
	DeleteCachedMedia(ctx context.Context, url string, mt model.MediaType, permanent bool) bool
}

// CacheClearer bulk-deletes the cache: ClearCache soft-deletes every item,
// ClearCacheComplete wipes files, metadata and in-memory state and recreates
// the directory skeleton.
type CacheClearer interface {
	ClearCache(ctx context.Context) bool
	ClearCacheComplete(ctx context.Context) bool
}

// ItemStreamSource is the continuously-updated item metadata stream.
type ItemStreamSource interface {
	SubscribeItems() (uuid.UUID, <-chan ItemsSnapshot)
	UnsubscribeItems(id uuid.UUID)
}

// QueueStreamSource is the continuously-updated queue state stream.
type QueueStreamSource interface {
	SubscribeQueue() (uuid.UUID, <-chan QueueSnapshot)
	UnsubscribeQueue(id uuid.UUID)
}

// BinaryMedia is the binary-path API, only meaningful on the blob-capable
// backend; every method fails with ErrNoBlobStore elsewhere.
type BinaryMedia interface {
	DownloadMediaAsBinary(ctx context.Context, url string, mt model.MediaType) error
	// GetMediaURL returns a revocable handle to the blob bytes, cached per key.
	GetMediaURL(ctx context.Context, url string, mt model.MediaType) (string, error)
	DeleteMediaBinary(ctx context.Context, url string, mt model.MediaType) error
	ClearAllBinaryMedia(ctx context.Context) error
}

// Orchestrator is the full public contract of the cache service.
type Orchestrator interface {
	MediaDownloader
	ThumbnailRequester
	ItemGetter
	StatsGetter
	FailureMarker
	MediaDeleter
	CacheClearer
	ItemStreamSource
	QueueStreamSource
	BinaryMedia
}
