package main

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/fhuszti/media-cache-go/internal/cache"
	"github.com/fhuszti/media-cache-go/internal/config"
	"github.com/fhuszti/media-cache-go/internal/db"
	"github.com/fhuszti/media-cache-go/internal/downloader"
	"github.com/fhuszti/media-cache-go/internal/migration"
	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
	"github.com/fhuszti/media-cache-go/internal/repository/bolt"
	"github.com/fhuszti/media-cache-go/internal/repository/mariadb"
	"github.com/fhuszti/media-cache-go/internal/storage"
	"github.com/fhuszti/media-cache-go/internal/thumbnailer"
	cacheSvc "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

// Pre-warms the cache from a manifest of "<media_type> <url>" lines, one per
// line, read from the file given as the first argument or from stdin.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌  Configuration error: %v", err)
	}

	in := os.Stdin
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			log.Fatalf("❌  Could not open manifest %q: %v", os.Args[1], err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Printf("manifest close error: %v", err)
			}
		}()
		in = f
	}

	ctx := context.Background()

	store, files, blobs, cleanup := initBackend(cfg)
	defer cleanup()

	fetcher := downloader.NewHTTPFetcher(cfg.APIBaseURL, cfg.APIBearerToken)
	thumbs := thumbnailer.New(cfg.ThumbMaxDimension)

	svc, err := cacheSvc.NewService(ctx, store, files, blobs, fetcher, thumbs, cache.NewNoop())
	if err != nil {
		log.Fatalf("❌  Failed to initialise cache service: %v", err)
	}
	defer svc.Close()

	enqueued := warm(ctx, svc, in)
	drain(svc)
	log.Printf("✅  Cache warming completed (%d medias requested)", enqueued)
}

func warm(ctx context.Context, svc port.MediaDownloader, in io.Reader) int {
	count := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			log.Printf("⚠️  Skipping malformed line %q", line)
			continue
		}
		mt, err := model.ParseMediaType(fields[0])
		if err != nil {
			log.Printf("⚠️  Skipping line %q: %v", line, err)
			continue
		}

		svc.DownloadMedia(ctx, port.DownloadMediaInput{
			MediaRef: port.MediaRef{URL: fields[1], MediaType: mt},
		})
		count++
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("❌  Failed to read manifest: %v", err)
	}
	return count
}

// drain waits until the queue is empty and idle.
func drain(svc *cacheSvc.Service) {
	for {
		snap := svc.QueueState()
		if len(snap.Queue) == 0 && !snap.IsProcessing {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func initBackend(cfg *config.Settings) (port.Store, port.MediaFiles, port.BlobStore, func()) {
	switch cfg.StorageBackend {
	case config.BackendBolt:
		store, err := bolt.NewStore(cfg.BoltPath)
		if err != nil {
			log.Fatalf("❌  Failed to open bolt store: %v", err)
		}
		return store, store, bolt.NewBlobStore(store), func() {
			if err := store.Close(); err != nil {
				log.Printf("bolt close error: %v", err)
			}
		}
	default:
		log.Println("initialising database...")
		database, err := db.NewFromConfig(db.MariaDbConfig{
			DSN:             cfg.MariaDBDSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			log.Fatalf("❌  Failed to connect to db: %v", err)
		}
		if err := migration.MigrateUp(database.DB); err != nil {
			log.Fatalf("❌  Failed to run migrations: %v", err)
		}
		store := mariadb.NewCacheItemRepository(database.DB)
		files := storage.NewFsMediaFiles(afero.NewOsFs(), cfg.CacheRoot)
		return store, files, nil, func() {
			if err := database.Close(); err != nil {
				log.Printf("DB close error: %v", err)
			}
		}
	}
}
