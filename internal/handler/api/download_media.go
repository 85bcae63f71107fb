package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
	"github.com/fhuszti/media-cache-go/internal/validation"
)

type MediaRequest struct {
	URL              string `json:"url" validate:"required,url"`
	MediaType        string `json:"media_type" validate:"required,mediatype"`
	NotificationDate int64  `json:"notification_date"`
	Force            bool   `json:"force"`
}

func decodeMediaRequest(w http.ResponseWriter, r *http.Request) (*MediaRequest, model.MediaType, bool) {
	var req MediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request payload", err)
		return nil, "", false
	}

	if errs := validation.ValidateStruct(req); errs != nil {
		errsJSON, err := validation.ErrorsToJson(errs)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to encode validation errors", err)
			return nil, "", false
		}
		RespondRawJSON(w, http.StatusBadRequest, []byte(errsJSON))
		log.Printf("❌  Validation failed: %s", errsJSON)
		return nil, "", false
	}

	mt, err := model.ParseMediaType(req.MediaType)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid media type", err)
		return nil, "", false
	}
	return &req, mt, true
}

func DownloadMediaHandler(svc port.MediaDownloader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, mt, ok := decodeMediaRequest(w, r)
		if !ok {
			return
		}

		svc.DownloadMedia(r.Context(), port.DownloadMediaInput{
			MediaRef: port.MediaRef{
				URL:              req.URL,
				MediaType:        mt,
				NotificationDate: req.NotificationDate,
			},
			Force: req.Force,
		})

		w.WriteHeader(http.StatusAccepted)
		log.Printf("✅  Download requested for %s %q", mt, req.URL)
	}
}

func ForceDownloadMediaHandler(svc port.MediaDownloader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, mt, ok := decodeMediaRequest(w, r)
		if !ok {
			return
		}

		svc.ForceMediaDownload(r.Context(), port.MediaRef{
			URL:              req.URL,
			MediaType:        mt,
			NotificationDate: req.NotificationDate,
		})

		w.WriteHeader(http.StatusAccepted)
		log.Printf("✅  Forced download requested for %s %q", mt, req.URL)
	}
}

func CheckMediaHandler(svc port.MediaDownloader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, mt, ok := decodeMediaRequest(w, r)
		if !ok {
			return
		}

		svc.CheckMediaExists(r.Context(), port.MediaRef{
			URL:              req.URL,
			MediaType:        mt,
			NotificationDate: req.NotificationDate,
		})

		w.WriteHeader(http.StatusAccepted)
		log.Printf("✅  Existence check requested for %s %q", mt, req.URL)
	}
}
