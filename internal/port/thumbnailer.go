package port

import (
	"context"

	"github.com/fhuszti/media-cache-go/internal/model"
)

// Thumbnailer produces a reduced JPEG preview for supported media kinds.
// Audio and icon are unsupported; Generate is never called for them.
type Thumbnailer interface {
	Supported(mt model.MediaType) bool
	Generate(ctx context.Context, mt model.MediaType, src []byte) ([]byte, error)
}
