package renderer

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/fhuszti/media-cache-go/internal/mediakey"
	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

const (
	itemDetailsTTL = 5 * time.Minute
	statsTTL       = time.Minute
)

type httpRenderer struct {
	cache port.Cache
}

// compile-time check: *httpRenderer must satisfy port.HTTPRenderer
var _ port.HTTPRenderer = (*httpRenderer)(nil)

// NewHTTPRenderer creates a new HTTPRenderer implementation.
func NewHTTPRenderer(cache port.Cache) port.HTTPRenderer {
	return &httpRenderer{cache: cache}
}

// RenderGetItem fetches item details either from cache or from the wrapped use
// case. It returns the JSON encoded output and a quoted ETag string.
func (r *httpRenderer) RenderGetItem(ctx context.Context, getter port.ItemGetter, url string, mt model.MediaType) ([]byte, string, error) {
	key := mediakey.CacheKey(url, mt)

	raw, err := r.cache.GetItemDetails(ctx, key)
	etag, errEtag := r.cache.GetEtagItemDetails(ctx, key)
	if err == nil && errEtag == nil && raw != nil && etag != "" {
		return raw, etag, nil
	}

	item := getter.GetCachedItem(ctx, url, mt)
	if item == nil {
		return nil, "", cacheService.ErrItemNotFound
	}

	raw, err = json.Marshal(item)
	if err != nil {
		return nil, "", fmt.Errorf("json marshal: %w", err)
	}

	etag = fmt.Sprintf("\"%08x\"", crc32.ChecksumIEEE(raw))
	r.cache.SetItemDetails(ctx, key, raw, itemDetailsTTL)
	r.cache.SetEtagItemDetails(ctx, key, etag, itemDetailsTTL)

	return raw, etag, nil
}

// RenderGetStats is RenderGetItem for the aggregate stats payload.
func (r *httpRenderer) RenderGetStats(ctx context.Context, getter port.StatsGetter) ([]byte, string, error) {
	raw, err := r.cache.GetStats(ctx)
	etag, errEtag := r.cache.GetEtagStats(ctx)
	if err == nil && errEtag == nil && raw != nil && etag != "" {
		return raw, etag, nil
	}

	stats := getter.GetCacheStats(ctx)

	raw, err = json.Marshal(stats)
	if err != nil {
		return nil, "", fmt.Errorf("json marshal: %w", err)
	}

	etag = fmt.Sprintf("\"%08x\"", crc32.ChecksumIEEE(raw))
	r.cache.SetStats(ctx, raw, statsTTL)
	r.cache.SetEtagStats(ctx, etag, statsTTL)

	return raw, etag, nil
}
