package api

import (
	"log"
	"net/http"

	"github.com/fhuszti/media-cache-go/internal/port"
)

// ClearCacheHandler soft-deletes every cached item. With ?complete=true it
// wipes files, metadata and in-memory state and recreates the directory
// skeleton.
func ClearCacheHandler(svc port.CacheClearer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		complete := r.URL.Query().Get("complete") == "true"

		var ok bool
		if complete {
			ok = svc.ClearCacheComplete(r.Context())
		} else {
			ok = svc.ClearCache(r.Context())
		}
		if !ok {
			WriteError(w, http.StatusInternalServerError, "Failed to clear cache", nil)
			return
		}

		w.WriteHeader(http.StatusNoContent)
		log.Printf("✅  Successfully cleared cache (complete=%t)", complete)
	}
}
