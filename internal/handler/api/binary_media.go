package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fhuszti/media-cache-go/internal/api_context"
	"github.com/fhuszti/media-cache-go/internal/port"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

// DownloadMediaBinaryHandler downloads a media synchronously into the blob
// store. Only meaningful on the blob-capable backend.
func DownloadMediaBinaryHandler(svc port.BinaryMedia) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, mt, ok := decodeMediaRequest(w, r)
		if !ok {
			return
		}

		if err := svc.DownloadMediaAsBinary(r.Context(), req.URL, mt); err != nil {
			writeBinaryError(w, "Failed to download media binary", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
		log.Printf("✅  Successfully downloaded binary for %s %q", mt, req.URL)
	}
}

// GetMediaURLHandler returns a revocable local handle to a cached blob.
// Only meaningful on the blob-capable backend.
func GetMediaURLHandler(svc port.BinaryMedia) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := api_context.MediaRefFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "media reference is required", nil)
			return
		}

		url, err := svc.GetMediaURL(r.Context(), ref.URL, ref.MediaType)
		if err != nil {
			writeBinaryError(w, "Could not get media URL", err)
			return
		}

		RespondJSON(w, http.StatusOK, map[string]string{"url": url})
		log.Printf("✅  Issued blob handle for %s %q", ref.MediaType, ref.URL)
	}
}

func DeleteMediaBinaryHandler(svc port.BinaryMedia) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref, ok := api_context.MediaRefFromContext(r.Context())
		if !ok {
			WriteError(w, http.StatusBadRequest, "media reference is required", nil)
			return
		}

		if err := svc.DeleteMediaBinary(r.Context(), ref.URL, ref.MediaType); err != nil {
			writeBinaryError(w, "Failed to delete media binary", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
		log.Printf("✅  Successfully deleted binary for %s %q", ref.MediaType, ref.URL)
	}
}

func ClearAllBinaryMediaHandler(svc port.BinaryMedia) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ClearAllBinaryMedia(r.Context()); err != nil {
			writeBinaryError(w, "Failed to clear binary media", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
		log.Printf("✅  Successfully cleared all binary media")
	}
}

// ServeBlobHandler serves the bytes behind a previously issued blob handle.
func ServeBlobHandler(blobs port.BlobStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		if token == "" {
			WriteError(w, http.StatusBadRequest, "token is required", nil)
			return
		}

		data, err := blobs.ResolveHandle(r.Context(), token)
		if err != nil {
			if errors.Is(err, cacheService.ErrBlobNotFound) {
				WriteError(w, http.StatusNotFound, "Blob not found", nil)
				return
			}
			WriteError(w, http.StatusInternalServerError, "Could not read blob", err)
			return
		}

		w.Header().Set("Content-Type", http.DetectContentType(data))
		w.Header().Set("Cache-Control", "no-store, max-age=0, must-revalidate")
		if _, err := w.Write(data); err != nil {
			log.Printf("❌  Failed to write blob payload: %v", err)
		}
	}
}

func writeBinaryError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, cacheService.ErrNoBlobStore):
		WriteError(w, http.StatusNotImplemented, "binary media is not supported on this backend", nil)
	case errors.Is(err, cacheService.ErrItemNotFound), errors.Is(err, cacheService.ErrBlobNotFound):
		WriteError(w, http.StatusNotFound, "Media not found", nil)
	default:
		WriteError(w, http.StatusInternalServerError, msg, err)
	}
}
