package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fhuszti/media-cache-go/internal/mock"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

func TestDownloadMediaBinaryHandler(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		svc := &mock.BinaryMedia{}
		handler := DownloadMediaBinaryHandler(svc)
		body := `{"url": "https://example.com/a.jpg", "media_type": "image"}`
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/media/binary", strings.NewReader(body)))

		if rr.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
		}
		if !svc.DownloadCalled {
			t.Error("DownloadMediaAsBinary should have been called")
		}
	})

	t.Run("no blob store", func(t *testing.T) {
		svc := &mock.BinaryMedia{DownloadErr: cacheService.ErrNoBlobStore}
		handler := DownloadMediaBinaryHandler(svc)
		body := `{"url": "https://example.com/a.jpg", "media_type": "image"}`
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/media/binary", strings.NewReader(body)))

		if rr.Code != http.StatusNotImplemented {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNotImplemented)
		}
	})
}

func TestGetMediaURLHandler(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		svc := &mock.BinaryMedia{URLOut: "/blobs/abc-123"}
		handler := GetMediaURLHandler(svc)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withRef(httptest.NewRequest(http.MethodGet, "/media/url", nil)))

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		var payload map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("invalid JSON body: %v", err)
		}
		if payload["url"] != "/blobs/abc-123" {
			t.Errorf("url = %q", payload["url"])
		}
	})

	t.Run("unknown media", func(t *testing.T) {
		svc := &mock.BinaryMedia{URLErr: cacheService.ErrItemNotFound}
		handler := GetMediaURLHandler(svc)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withRef(httptest.NewRequest(http.MethodGet, "/media/url", nil)))

		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
		}
	})

	t.Run("missing ref", func(t *testing.T) {
		handler := GetMediaURLHandler(&mock.BinaryMedia{})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/url", nil))

		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
		}
	})
}

func TestDeleteMediaBinaryHandler(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		svc := &mock.BinaryMedia{}
		handler := DeleteMediaBinaryHandler(svc)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withRef(httptest.NewRequest(http.MethodDelete, "/media/binary", nil)))

		if rr.Code != http.StatusNoContent {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
		}
		if !svc.DeleteCalled {
			t.Error("DeleteMediaBinary should have been called")
		}
	})

	t.Run("no blob store", func(t *testing.T) {
		svc := &mock.BinaryMedia{DeleteErr: cacheService.ErrNoBlobStore}
		handler := DeleteMediaBinaryHandler(svc)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, withRef(httptest.NewRequest(http.MethodDelete, "/media/binary", nil)))

		if rr.Code != http.StatusNotImplemented {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNotImplemented)
		}
	})
}

func TestClearAllBinaryMediaHandler(t *testing.T) {
	svc := &mock.BinaryMedia{}
	handler := ClearAllBinaryMediaHandler(svc)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/cache/binary", nil))

	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if !svc.ClearCalled {
		t.Error("ClearAllBinaryMedia should have been called")
	}
}

func serveBlobRequest(t *testing.T, blobs *mock.BlobStore, token string) *httptest.ResponseRecorder {
	t.Helper()

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("token", token)
	req := httptest.NewRequest(http.MethodGet, "/blobs/"+token, nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rr := httptest.NewRecorder()
	ServeBlobHandler(blobs)(rr, req)
	return rr
}

func TestServeBlobHandler(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		blobs := mock.NewBlobStore()
		if err := blobs.SaveBlob(context.Background(), "IMAGE_https://example.com/a.jpg", []byte("blob-bytes")); err != nil {
			t.Fatalf("SaveBlob: %v", err)
		}
		token, err := blobs.BlobHandle(context.Background(), "IMAGE_https://example.com/a.jpg")
		if err != nil {
			t.Fatalf("BlobHandle: %v", err)
		}

		rr := serveBlobRequest(t, blobs, token)

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
		}
		if rr.Body.String() != "blob-bytes" {
			t.Errorf("body = %q", rr.Body.String())
		}
		if got := rr.Header().Get("Cache-Control"); got != "no-store, max-age=0, must-revalidate" {
			t.Errorf("cache-control = %q", got)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		rr := serveBlobRequest(t, mock.NewBlobStore(), "no-such-token")
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
		}
	})

	t.Run("revoked token", func(t *testing.T) {
		blobs := mock.NewBlobStore()
		if err := blobs.SaveBlob(context.Background(), "IMAGE_https://example.com/a.jpg", []byte("blob-bytes")); err != nil {
			t.Fatalf("SaveBlob: %v", err)
		}
		token, err := blobs.BlobHandle(context.Background(), "IMAGE_https://example.com/a.jpg")
		if err != nil {
			t.Fatalf("BlobHandle: %v", err)
		}
		blobs.RevokeHandle("IMAGE_https://example.com/a.jpg")

		rr := serveBlobRequest(t, blobs, token)
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusNotFound)
		}
	})
}
