package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
	"github.com/fhuszti/media-cache-go/internal/validation"
)

type MarkFailureRequest struct {
	URL       string `json:"url" validate:"required,url"`
	MediaType string `json:"media_type" validate:"required,mediatype"`
	ErrorCode string `json:"error_code"`
}

func MarkFailureHandler(svc port.FailureMarker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MarkFailureRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request payload", err)
			return
		}

		if errs := validation.ValidateStruct(req); errs != nil {
			errsJSON, err := validation.ErrorsToJson(errs)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, "failed to encode validation errors", err)
				return
			}
			RespondRawJSON(w, http.StatusBadRequest, []byte(errsJSON))
			log.Printf("❌  Validation failed: %s", errsJSON)
			return
		}

		mt, err := model.ParseMediaType(req.MediaType)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid media type", err)
			return
		}

		svc.MarkAsPermanentFailure(r.Context(), req.URL, mt, req.ErrorCode)

		w.WriteHeader(http.StatusNoContent)
		log.Printf("✅  Marked %s %q as permanently failed", mt, req.URL)
	}
}
