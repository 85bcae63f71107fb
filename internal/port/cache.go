package port

import (
	"context"
	"time"
)

// Cache provides optional hot caching for rendered cache-item and stats
// responses. A no-op implementation is used when Redis is not configured.
type Cache interface {
	GetItemDetails(ctx context.Context, key string) ([]byte, error)
	GetEtagItemDetails(ctx context.Context, key string) (string, error)
	SetItemDetails(ctx context.Context, key string, data []byte, ttl time.Duration)
	SetEtagItemDetails(ctx context.Context, key string, etag string, ttl time.Duration)
	DeleteItemDetails(ctx context.Context, key string) error

	GetStats(ctx context.Context) ([]byte, error)
	GetEtagStats(ctx context.Context) (string, error)
	SetStats(ctx context.Context, data []byte, ttl time.Duration)
	SetEtagStats(ctx context.Context, etag string, ttl time.Duration)
	DeleteStats(ctx context.Context) error
}
