package api

import (
	"log"
	"net/http"

	"github.com/fhuszti/media-cache-go/internal/api_context"
	"github.com/fhuszti/media-cache-go/internal/port"
)

// DeleteMediaHandler deletes the local files of a cached media. With
// ?permanent=true the item row is removed entirely; otherwise the item is
// soft-deleted and a later force download can resurrect it.
func DeleteMediaHandler(svc port.MediaDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := api_context.MediaRefFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "media reference is required", nil)
			return
		}

		permanent := r.URL.Query().Get("permanent") == "true"
		if !svc.DeleteCachedMedia(r.Context(), ref.URL, ref.MediaType, permanent) {
			WriteError(w, http.StatusNotFound, "Media not found", nil)
			return
		}

		w.WriteHeader(http.StatusNoContent)
		log.Printf("✅  Successfully deleted %s %q (permanent=%t)", ref.MediaType, ref.URL, permanent)
	}
}
