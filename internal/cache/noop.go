package cache

import (
	"context"
	"time"

	"github.com/fhuszti/media-cache-go/internal/port"
)

type NoopCache struct{}

// compile-time check: *NoopCache must satisfy port.Cache
var _ port.Cache = (*NoopCache)(nil)

func NewNoop() *NoopCache {
	return &NoopCache{}
}

func (n *NoopCache) GetItemDetails(ctx context.Context, key string) ([]byte, error) {
	return nil, nil // always cache miss
}

func (n *NoopCache) GetEtagItemDetails(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (n *NoopCache) SetItemDetails(ctx context.Context, key string, data []byte, ttl time.Duration) {
}

func (n *NoopCache) SetEtagItemDetails(ctx context.Context, key string, etag string, ttl time.Duration) {
}

func (n *NoopCache) DeleteItemDetails(ctx context.Context, key string) error { return nil }

func (n *NoopCache) GetStats(ctx context.Context) ([]byte, error) { return nil, nil }

func (n *NoopCache) GetEtagStats(ctx context.Context) (string, error) { return "", nil }

func (n *NoopCache) SetStats(ctx context.Context, data []byte, ttl time.Duration) {}

func (n *NoopCache) SetEtagStats(ctx context.Context, etag string, ttl time.Duration) {}

func (n *NoopCache) DeleteStats(ctx context.Context) error { return nil }
