package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fhuszti/media-cache-go/internal/api_context"
	"github.com/fhuszti/media-cache-go/internal/handler/api"
	"github.com/fhuszti/media-cache-go/internal/model"
)

// WithMediaRef extracts the (url, media_type) pair from query parameters and
// stashes it in the request context.
func WithMediaRef() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawURL := r.URL.Query().Get("url")
			if rawURL == "" {
				api.WriteError(w, http.StatusBadRequest, "url is required", nil)
				return
			}
			if _, err := url.ParseRequestURI(rawURL); err != nil {
				api.WriteError(w, http.StatusBadRequest, fmt.Sprintf("url %q is not valid", rawURL), nil)
				return
			}

			rawType := r.URL.Query().Get("media_type")
			if rawType == "" {
				api.WriteError(w, http.StatusBadRequest, "media_type is required", nil)
				return
			}
			mt, err := model.ParseMediaType(rawType)
			if err != nil {
				api.WriteError(w, http.StatusBadRequest, fmt.Sprintf("media_type %q is not valid", rawType), nil)
				return
			}

			// stash it in context and call the real handler
			ctx := context.WithValue(r.Context(), api_context.MediaRefKey, api_context.MediaRef{URL: rawURL, MediaType: mt})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
