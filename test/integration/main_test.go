package integration

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fhuszti/media-cache-go/internal/cache"
	"github.com/fhuszti/media-cache-go/internal/downloader"
	"github.com/fhuszti/media-cache-go/internal/handler/api"
	cMiddleware "github.com/fhuszti/media-cache-go/internal/middleware"
	"github.com/fhuszti/media-cache-go/internal/renderer"
	"github.com/fhuszti/media-cache-go/internal/repository/bolt"
	"github.com/fhuszti/media-cache-go/internal/thumbnailer"
	cacheSvc "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

type env struct {
	router *chi.Mux
	svc    *cacheSvc.Service
	origin *httptest.Server
	blobs  *bolt.BlobStore
}

// newEnv wires the whole stack on the bolt backend: a real store, a real
// queue, a real thumbnailer and an httptest origin serving sample medias.
func newEnv(t *testing.T) *env {
	t.Helper()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sample.png":
			w.Header().Set("Content-Disposition", `attachment; filename="sample.png"`)
			if _, err := w.Write(samplePNG(t)); err != nil {
				t.Errorf("write sample: %v", err)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(origin.Close)

	store, err := bolt.NewStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open bolt store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	blobs := bolt.NewBlobStore(store)

	fetcher := downloader.NewHTTPFetcher("", "")
	thumbs := thumbnailer.New(64)
	details := cache.NewNoop()

	svc, err := cacheSvc.NewService(context.Background(), store, store, blobs, fetcher, thumbs, details)
	if err != nil {
		t.Fatalf("init service: %v", err)
	}
	t.Cleanup(svc.Close)

	rendererSvc := renderer.NewHTTPRenderer(details)

	r := chi.NewRouter()
	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	r.Post("/media/download", api.DownloadMediaHandler(svc))
	r.Post("/media/download/force", api.ForceDownloadMediaHandler(svc))
	r.Post("/media/check", api.CheckMediaHandler(svc))
	r.Post("/media/thumbnail", api.GenerateThumbnailHandler(svc))
	r.Post("/media/failure", api.MarkFailureHandler(svc))
	r.With(cMiddleware.WithMediaRef()).Get("/media", api.GetMediaHandler(rendererSvc, svc))
	r.With(cMiddleware.WithMediaRef()).Delete("/media", api.DeleteMediaHandler(svc))
	r.Get("/cache/stats", api.GetStatsHandler(rendererSvc, svc))
	r.Delete("/cache", api.ClearCacheHandler(svc))
	r.Post("/media/binary", api.DownloadMediaBinaryHandler(svc))
	r.With(cMiddleware.WithMediaRef()).Get("/media/url", api.GetMediaURLHandler(svc))
	r.With(cMiddleware.WithMediaRef()).Delete("/media/binary", api.DeleteMediaBinaryHandler(svc))
	r.Delete("/cache/binary", api.ClearAllBinaryMediaHandler(svc))
	r.Get("/blobs/{token}", api.ServeBlobHandler(blobs))

	return &env{router: r, svc: svc, origin: origin, blobs: blobs}
}

func (e *env) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// samplePNG is large enough to clear the minimum valid file size.
func samplePNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 256, 192))
	for x := 0; x < 256; x++ {
		for y := 0; y < 192; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode sample png: %v", err)
	}
	return buf.Bytes()
}

type errorResponse struct {
	Error string `json:"error"`
}
