package port

import (
	"github.com/google/uuid"

	"github.com/fhuszti/media-cache-go/internal/model"
)

// QueueOp is the kind of work a queue operation performs.
type QueueOp string

const (
	OpDownload  QueueOp = "download"
	OpThumbnail QueueOp = "thumbnail"
)

// QueueOperation is a single unit of queued work. It is created on enqueue,
// consumed exactly once by the worker, then discarded: never persisted,
// never retried automatically.
type QueueOperation struct {
	// Key is cacheKey + "::" + op; the queue deduplicates on it.
	Key              string          `json:"key"`
	URL              string          `json:"url"`
	MediaType        model.MediaType `json:"media_type"`
	Op               QueueOp         `json:"op"`
	NotificationDate int64           `json:"notification_date,omitempty"`
	Force            bool            `json:"force,omitempty"`
	EnqueuedAt       int64           `json:"enqueued_at"`
}

// QueueSnapshot is an immutable copy of the queue state, emitted after every
// enqueue/dequeue/start/stop transition.
type QueueSnapshot struct {
	Queue        []QueueOperation `json:"queue"`
	IsProcessing bool             `json:"is_processing"`
}

// OperationQueue serializes download and thumbnail operations: strictly FIFO,
// one at a time globally, deduplicated by (cacheKey, op).
type OperationQueue interface {
	// Enqueue appends the operation and reports whether it was accepted;
	// it no-ops silently when an identical (cacheKey, op) pair is already
	// queued or executing.
	Enqueue(op QueueOperation) bool
	// Remove cancels every not-yet-started operation for (url, mediaType).
	// It has no effect on one already executing.
	Remove(url string, mt model.MediaType)
	Snapshot() QueueSnapshot
	Subscribe() (uuid.UUID, <-chan QueueSnapshot)
	Unsubscribe(id uuid.UUID)
	// Close stops the worker after the in-flight operation finishes.
	Close()
}
