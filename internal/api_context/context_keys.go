package api_context

import (
	"context"

	"github.com/fhuszti/media-cache-go/internal/model"
)

type ctxKey string

const (
	MediaRefKey   ctxKey = "mediaRef"
	AuthUserIDKey ctxKey = "authUserID"
	AuthRolesKey  ctxKey = "authRoles"
)

// MediaRef is the (url, mediaType) pair extracted from a request.
type MediaRef struct {
	URL       string
	MediaType model.MediaType
}

func MediaRefFromContext(ctx context.Context) (MediaRef, bool) {
	ref, ok := ctx.Value(MediaRefKey).(MediaRef)
	return ref, ok
}

func AuthUserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(AuthUserIDKey).(string)
	return id, ok
}

func AuthRolesFromContext(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(AuthRolesKey).([]string)
	return roles, ok
}
