package api

import (
	"log"
	"net/http"

	"github.com/fhuszti/media-cache-go/internal/port"
)

func GetStatsHandler(renderer port.HTTPRenderer, svc port.StatsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, etag, err := renderer.RenderGetStats(r.Context(), svc)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "Could not get cache stats", err)
			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=60")
		if match := r.Header.Get("If-None-Match"); match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		RespondRawJSON(w, http.StatusOK, raw)
		log.Printf("✅  Successfully returned cache stats")
	}
}
