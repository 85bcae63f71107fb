package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/afero"

	"github.com/fhuszti/media-cache-go/internal/cache"
	"github.com/fhuszti/media-cache-go/internal/config"
	"github.com/fhuszti/media-cache-go/internal/db"
	"github.com/fhuszti/media-cache-go/internal/downloader"
	"github.com/fhuszti/media-cache-go/internal/handler/api"
	"github.com/fhuszti/media-cache-go/internal/logger"
	cMiddleware "github.com/fhuszti/media-cache-go/internal/middleware"
	"github.com/fhuszti/media-cache-go/internal/migration"
	"github.com/fhuszti/media-cache-go/internal/port"
	"github.com/fhuszti/media-cache-go/internal/renderer"
	"github.com/fhuszti/media-cache-go/internal/repository/bolt"
	"github.com/fhuszti/media-cache-go/internal/repository/mariadb"
	"github.com/fhuszti/media-cache-go/internal/storage"
	"github.com/fhuszti/media-cache-go/internal/thumbnailer"
	cacheSvc "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	store, files, blobs, cleanup := initBackend(ctx, cfg)
	defer cleanup()

	var details port.Cache
	if cfg.RedisAddr != "" {
		details = cache.NewCache(cfg.RedisAddr, cfg.RedisPassword)
		logger.Info(ctx, "✅  Redis cache enabled")
	} else {
		details = cache.NewNoop()
		logger.Warn(ctx, "⚠️  Redis not configured — caching is disabled")
	}

	fetcher := downloader.NewHTTPFetcher(cfg.APIBaseURL, cfg.APIBearerToken)
	thumbs := thumbnailer.New(cfg.ThumbMaxDimension)

	svc, err := cacheSvc.NewService(ctx, store, files, blobs, fetcher, thumbs, details)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialise cache service: %v", err)
		os.Exit(1)
	}
	defer svc.Close()

	r := initRouter(ctx, cfg.JWTPublicKey)
	rendererSvc := renderer.NewHTTPRenderer(details)

	r.Post("/media/download", api.DownloadMediaHandler(svc))
	r.Post("/media/download/force", api.ForceDownloadMediaHandler(svc))
	r.Post("/media/check", api.CheckMediaHandler(svc))
	r.Post("/media/thumbnail", api.GenerateThumbnailHandler(svc))
	r.Post("/media/failure", api.MarkFailureHandler(svc))

	r.With(cMiddleware.WithMediaRef()).Get("/media", api.GetMediaHandler(rendererSvc, svc))
	r.With(cMiddleware.WithMediaRef()).Delete("/media", api.DeleteMediaHandler(svc))

	r.Get("/cache/stats", api.GetStatsHandler(rendererSvc, svc))
	r.Delete("/cache", api.ClearCacheHandler(svc))

	r.Get("/streams/items", api.ItemsStreamHandler(svc))
	r.Get("/streams/queue", api.QueueStreamHandler(svc))

	// The binary path only exists where blobs can live.
	if blobs != nil {
		r.Post("/media/binary", api.DownloadMediaBinaryHandler(svc))
		r.With(cMiddleware.WithMediaRef()).Get("/media/url", api.GetMediaURLHandler(svc))
		r.With(cMiddleware.WithMediaRef()).Delete("/media/binary", api.DeleteMediaBinaryHandler(svc))
		r.Delete("/cache/binary", api.ClearAllBinaryMediaHandler(svc))
		r.Get("/blobs/{token}", api.ServeBlobHandler(blobs))
	}

	listenRouter(ctx, r, cfg)
}

// initBackend picks the durable backend once; nothing downstream ever
// branches on it again.
func initBackend(ctx context.Context, cfg *config.Settings) (port.Store, port.MediaFiles, port.BlobStore, func()) {
	switch cfg.StorageBackend {
	case config.BackendBolt:
		logger.Infof(ctx, "initialising bolt store at %q...", cfg.BoltPath)

		store, err := bolt.NewStore(cfg.BoltPath)
		if err != nil {
			logger.Errorf(ctx, "❌  Failed to open bolt store: %v", err)
			os.Exit(1)
		}
		return store, store, bolt.NewBlobStore(store), func() {
			if err := store.Close(); err != nil {
				logger.Errorf(ctx, "bolt close error: %v", err)
			}
		}
	default:
		logger.Info(ctx, "initialising database...")

		database, err := db.New(cfg.MariaDBDSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
		if err != nil {
			logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
			os.Exit(1)
		}
		if err := migration.MigrateUp(database.DB); err != nil {
			logger.Errorf(ctx, "❌  Failed to run migrations: %v", err)
			os.Exit(1)
		}

		store := mariadb.NewCacheItemRepository(database.DB)
		files := storage.NewFsMediaFiles(afero.NewOsFs(), cfg.CacheRoot)
		return store, files, nil, func() {
			if err := database.Close(); err != nil {
				logger.Errorf(ctx, "DB close error: %v", err)
			}
		}
	}
}

func initRouter(ctx context.Context, jwtKey string) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(cMiddleware.WithDSTAuth(jwtKey))

	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	return r
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings) {
	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.ServerPort), Handler: r}

	// start serving
	go func() {
		logger.Infof(ctx, "🚀 API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Listen error: %v", err)
			os.Exit(1)
		}
	}()

	// block until we get SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "❌  Server shutdown failed: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "✅  Server gracefully stopped")
}
