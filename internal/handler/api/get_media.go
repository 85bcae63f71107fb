package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/fhuszti/media-cache-go/internal/api_context"
	"github.com/fhuszti/media-cache-go/internal/port"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

func GetMediaHandler(renderer port.HTTPRenderer, svc port.ItemGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := api_context.MediaRefFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "media reference is required", nil)
			return
		}

		raw, etag, err := renderer.RenderGetItem(r.Context(), svc, ref.URL, ref.MediaType)
		if err != nil {
			if errors.Is(err, cacheService.ErrItemNotFound) {
				WriteError(w, http.StatusNotFound, "Media not found", nil)
				return
			}
			WriteError(w, http.StatusInternalServerError, "Could not get media details", err)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=300")
		if match := r.Header.Get("If-None-Match"); match == etag {
			w.WriteHeader(http.StatusNotModified)
			log.Printf("✅  Returning cached details for %s %q", ref.MediaType, ref.URL)
			return
		}

		RespondRawJSON(w, http.StatusOK, raw)
		log.Printf("✅  Successfully returned details for %s %q", ref.MediaType, ref.URL)
	}
}
