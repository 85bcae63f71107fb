package port

import (
	"context"

	"github.com/fhuszti/media-cache-go/internal/model"
)

// HTTPRenderer mediates between HTTP handlers and read use cases. It provides
// caching capabilities and returns both the JSON representation of the result
// and an ETag value derived from it.
type HTTPRenderer interface {
	RenderGetItem(ctx context.Context, getter ItemGetter, url string, mt model.MediaType) ([]byte, string, error)
	RenderGetStats(ctx context.Context, getter StatsGetter) ([]byte, string, error)
}
