package api

import (
	"log"
	"net/http"

	"github.com/fhuszti/media-cache-go/internal/port"
)

func GenerateThumbnailHandler(svc port.ThumbnailRequester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, mt, ok := decodeMediaRequest(w, r)
		if !ok {
			return
		}

		svc.GenerateThumbnail(r.Context(), req.URL, mt, req.Force)

		w.WriteHeader(http.StatusAccepted)
		log.Printf("✅  Thumbnail requested for %s %q", mt, req.URL)
	}
}
