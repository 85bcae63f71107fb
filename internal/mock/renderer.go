package mock

import (
	"context"

	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
)

// HTTPRenderer implements port.HTTPRenderer for tests.
type HTTPRenderer struct {
	ItemOut     []byte
	ItemEtag    string
	ItemErr     error
	StatsOut    []byte
	StatsEtag   string
	StatsErr    error
	ItemCalled  bool
	StatsCalled bool
}

func (m *HTTPRenderer) RenderGetItem(ctx context.Context, getter port.ItemGetter, url string, mt model.MediaType) ([]byte, string, error) {
	m.ItemCalled = true
	return m.ItemOut, m.ItemEtag, m.ItemErr
}

func (m *HTTPRenderer) RenderGetStats(ctx context.Context, getter port.StatsGetter) ([]byte, string, error) {
	m.StatsCalled = true
	return m.StatsOut, m.StatsEtag, m.StatsErr
}
