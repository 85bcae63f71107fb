package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
)

// Fetcher implements port.Fetcher for tests.
type Fetcher struct {
	mu       sync.Mutex
	Out      *port.FetchResult
	Err      error
	Calls    int
	LastURL  string
	ByURL    map[string]*port.FetchResult
	ErrByURL map[string]error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*port.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.LastURL = url
	if err, ok := f.ErrByURL[url]; ok {
		return nil, err
	}
	if out, ok := f.ByURL[url]; ok {
		return out, nil
	}
	return f.Out, f.Err
}

func (f *Fetcher) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}

// Thumbnailer implements port.Thumbnailer for tests.
type Thumbnailer struct {
	mu       sync.Mutex
	Out      []byte
	Err      error
	Calls    int
	LastType model.MediaType
	Supports map[model.MediaType]bool
}

func (t *Thumbnailer) Supported(mt model.MediaType) bool {
	if t.Supports != nil {
		return t.Supports[mt]
	}
	switch mt {
	case model.MediaTypeImage, model.MediaTypeGif, model.MediaTypeVideo:
		return true
	default:
		return false
	}
}

func (t *Thumbnailer) Generate(ctx context.Context, mt model.MediaType, src []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls++
	t.LastType = mt
	return t.Out, t.Err
}

func (t *Thumbnailer) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Calls
}
