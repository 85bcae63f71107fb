package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
)

// gatedExecutor blocks each run until released, so tests control exactly when
// the worker advances.
type gatedExecutor struct {
	mu      sync.Mutex
	ran     []string
	started chan string
	release chan struct{}
	err     error
}

func newGatedExecutor() *gatedExecutor {
	return &gatedExecutor{
		started: make(chan string, 16),
		release: make(chan struct{}, 16),
	}
}

func (g *gatedExecutor) exec(ctx context.Context, op port.QueueOperation) error {
	g.started <- op.Key
	<-g.release
	g.mu.Lock()
	g.ran = append(g.ran, op.Key)
	g.mu.Unlock()
	return g.err
}

func (g *gatedExecutor) executed() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.ran))
	copy(out, g.ran)
	return out
}

func waitStart(t *testing.T, g *gatedExecutor) string {
	t.Helper()
	select {
	case key := <-g.started:
		return key
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an operation to start")
		return ""
	}
}

func TestQueue_DedupSameKeyAndOp(t *testing.T) {
	g := newGatedExecutor()
	q := New(g.exec)
	defer q.Close()

	// occupy the worker so later enqueues stay visible in the queue
	q.Enqueue(NewOperation("https://x/busy.jpg", model.MediaTypeImage, port.OpDownload, 0, false))
	waitStart(t, g)

	op := NewOperation("https://x/a.jpg", model.MediaTypeImage, port.OpDownload, 0, false)
	if !q.Enqueue(op) {
		t.Fatal("first enqueue should be accepted")
	}
	if q.Enqueue(NewOperation("https://x/a.jpg", model.MediaTypeImage, port.OpDownload, 0, false)) {
		t.Error("second enqueue of the same (key, op) should be a silent no-op")
	}

	if got := len(q.Snapshot().Queue); got != 1 {
		t.Errorf("queue length = %d, want 1", got)
	}

	// a different op for the same key is not a duplicate
	if !q.Enqueue(NewOperation("https://x/a.jpg", model.MediaTypeImage, port.OpThumbnail, 0, false)) {
		t.Error("thumbnail op for the same key should be accepted")
	}

	g.release <- struct{}{}
	g.release <- struct{}{}
	g.release <- struct{}{}
}

func TestQueue_FIFOOrder(t *testing.T) {
	g := newGatedExecutor()
	q := New(g.exec)
	defer q.Close()

	first := NewOperation("https://x/1.jpg", model.MediaTypeImage, port.OpDownload, 0, false)
	second := NewOperation("https://x/2.jpg", model.MediaTypeImage, port.OpDownload, 0, false)
	third := NewOperation("https://x/3.jpg", model.MediaTypeImage, port.OpDownload, 0, false)
	q.Enqueue(first)
	q.Enqueue(second)
	q.Enqueue(third)

	for i := 0; i < 3; i++ {
		waitStart(t, g)
		g.release <- struct{}{}
	}

	// wait for the last run to be recorded
	deadline := time.Now().Add(2 * time.Second)
	for len(g.executed()) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	got := g.executed()
	want := []string{first.Key, second.Key, third.Key}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("execution order = %v, want %v", got, want)
		}
	}
}

func TestQueue_RemoveCancelsQueuedOnly(t *testing.T) {
	g := newGatedExecutor()
	q := New(g.exec)
	defer q.Close()

	running := NewOperation("https://x/running.jpg", model.MediaTypeImage, port.OpDownload, 0, false)
	queued := NewOperation("https://x/queued.jpg", model.MediaTypeImage, port.OpDownload, 0, false)
	q.Enqueue(running)
	waitStart(t, g)
	q.Enqueue(queued)

	// cancels the queued one; no preemption of the running one
	q.Remove("https://x/queued.jpg", model.MediaTypeImage)
	q.Remove("https://x/running.jpg", model.MediaTypeImage)

	if got := len(q.Snapshot().Queue); got != 0 {
		t.Errorf("queue length after remove = %d, want 0", got)
	}

	g.release <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for len(g.executed()) < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	got := g.executed()
	if len(got) != 1 || got[0] != running.Key {
		t.Errorf("executed = %v, want only the running op", got)
	}

	// a removed op can be enqueued again
	if !q.Enqueue(NewOperation("https://x/queued.jpg", model.MediaTypeImage, port.OpDownload, 0, false)) {
		t.Error("re-enqueue after remove should be accepted")
	}
	waitStart(t, g)
	g.release <- struct{}{}
}

func TestQueue_SnapshotReportsProcessing(t *testing.T) {
	g := newGatedExecutor()
	q := New(g.exec)
	defer q.Close()

	q.Enqueue(NewOperation("https://x/a.jpg", model.MediaTypeImage, port.OpDownload, 0, false))
	waitStart(t, g)

	if !q.Snapshot().IsProcessing {
		t.Error("IsProcessing should be true while an operation executes")
	}

	g.release <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for q.Snapshot().IsProcessing && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if q.Snapshot().IsProcessing {
		t.Error("IsProcessing should be false once the queue drains")
	}
}

func TestQueue_ExecutorErrorDoesNotStopWorker(t *testing.T) {
	g := newGatedExecutor()
	g.err = errors.New("fetch failed")
	q := New(g.exec)
	defer q.Close()

	q.Enqueue(NewOperation("https://x/bad.jpg", model.MediaTypeImage, port.OpDownload, 0, false))
	waitStart(t, g)
	g.release <- struct{}{}

	q.Enqueue(NewOperation("https://x/next.jpg", model.MediaTypeImage, port.OpDownload, 0, false))
	waitStart(t, g)
	g.release <- struct{}{}

	deadline := time.Now().Add(2 * time.Second)
	for len(g.executed()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if len(g.executed()) != 2 {
		t.Errorf("executed %d operations, want 2", len(g.executed()))
	}
}

func TestQueue_SubscribersSeeTransitions(t *testing.T) {
	g := newGatedExecutor()
	q := New(g.exec)
	defer q.Close()

	id, ch := q.Subscribe()
	defer q.Unsubscribe(id)

	op := NewOperation("https://x/a.jpg", model.MediaTypeImage, port.OpDownload, 0, false)
	q.Enqueue(op)

	// enqueue snapshot
	select {
	case snap := <-ch:
		if len(snap.Queue) != 1 || snap.Queue[0].Key != op.Key {
			t.Errorf("enqueue snapshot = %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for enqueue snapshot")
	}

	waitStart(t, g)
	// start snapshot: op dequeued, processing
	select {
	case snap := <-ch:
		if len(snap.Queue) != 0 || !snap.IsProcessing {
			t.Errorf("start snapshot = %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for start snapshot")
	}

	g.release <- struct{}{}
	// stop snapshot
	select {
	case snap := <-ch:
		if snap.IsProcessing {
			t.Errorf("stop snapshot = %+v", snap)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stop snapshot")
	}
}
