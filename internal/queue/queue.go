package queue

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fhuszti/media-cache-go/internal/broadcast"
	"github.com/fhuszti/media-cache-go/internal/mediakey"
	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
)

// Executor runs a single dequeued operation to completion. Failures are the
// executor's to record on the cache item; the queue only logs them.
type Executor func(ctx context.Context, op port.QueueOperation) error

// Queue is the single-flight FIFO worker serializing download and thumbnail
// operations. One operation of either kind executes at a time, for any key:
// that global single concurrency is what prevents write races on the store,
// so it must not be widened to per-key workers.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	ops     []port.QueueOperation
	pending map[string]struct{}

	processing bool
	closed     bool

	exec Executor
	bc   *broadcast.Broadcaster[port.QueueSnapshot]
	done chan struct{}
}

// compile-time check: *Queue must satisfy port.OperationQueue
var _ port.OperationQueue = (*Queue)(nil)

func New(exec Executor) *Queue {
	q := &Queue{
		pending: make(map[string]struct{}),
		exec:    exec,
		bc:      broadcast.New[port.QueueSnapshot](),
		done:    make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.worker()
	return q
}

// NewOperation builds a queue operation for (url, mediaType); its key is the
// cache key suffixed with the operation kind, which is what the queue
// deduplicates on.
func NewOperation(url string, mt model.MediaType, op port.QueueOp, notificationDate int64, force bool) port.QueueOperation {
	return port.QueueOperation{
		Key:              mediakey.CacheKey(url, mt) + "::" + string(op),
		URL:              url,
		MediaType:        mt,
		Op:               op,
		NotificationDate: notificationDate,
		Force:            force,
		EnqueuedAt:       time.Now().UnixMilli(),
	}
}

func (q *Queue) Enqueue(op port.QueueOperation) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if _, dup := q.pending[op.Key]; dup {
		// identical (cacheKey, op) already queued or executing
		q.mu.Unlock()
		return false
	}
	q.pending[op.Key] = struct{}{}
	q.ops = append(q.ops, op)
	snapshot := q.snapshotLocked()
	q.mu.Unlock()

	q.bc.Publish(snapshot)
	q.cond.Signal()
	return true
}

func (q *Queue) Remove(url string, mt model.MediaType) {
	prefix := mediakey.CacheKey(url, mt) + "::"

	q.mu.Lock()
	kept := q.ops[:0]
	removed := false
	for _, op := range q.ops {
		if len(op.Key) >= len(prefix) && op.Key[:len(prefix)] == prefix {
			delete(q.pending, op.Key)
			removed = true
			continue
		}
		kept = append(kept, op)
	}
	q.ops = kept
	var snapshot port.QueueSnapshot
	if removed {
		snapshot = q.snapshotLocked()
	}
	q.mu.Unlock()

	if removed {
		q.bc.Publish(snapshot)
	}
}

func (q *Queue) Snapshot() port.QueueSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

func (q *Queue) Subscribe() (uuid.UUID, <-chan port.QueueSnapshot) {
	return q.bc.Subscribe()
}

func (q *Queue) Unsubscribe(id uuid.UUID) {
	q.bc.Unsubscribe(id)
}

// Close stops the worker once the in-flight operation (if any) finishes.
// Not-yet-started operations are discarded.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.ops = nil
	q.mu.Unlock()

	q.cond.Signal()
	<-q.done
	q.bc.CloseAll()
}

// snapshotLocked copies the queue state; callers hold q.mu.
func (q *Queue) snapshotLocked() port.QueueSnapshot {
	ops := make([]port.QueueOperation, len(q.ops))
	copy(ops, q.ops)
	return port.QueueSnapshot{Queue: ops, IsProcessing: q.processing}
}

func (q *Queue) worker() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.ops) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}

		op := q.ops[0]
		q.ops = q.ops[1:]
		q.processing = true
		started := q.snapshotLocked()
		q.mu.Unlock()

		q.bc.Publish(started)
		q.run(op)

		q.mu.Lock()
		// the key stays pending until the run finishes, so an identical
		// operation cannot sneak in mid-execution
		delete(q.pending, op.Key)
		q.processing = false
		stopped := q.snapshotLocked()
		q.mu.Unlock()

		q.bc.Publish(stopped)
		// returning to the top of the loop is the yield between items
	}
}

func (q *Queue) run(op port.QueueOperation) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("queue operation %q panicked: %v", op.Key, r)
		}
	}()

	if err := q.exec(context.Background(), op); err != nil {
		log.Printf("queue operation %q failed: %v", op.Key, err)
	}
}
