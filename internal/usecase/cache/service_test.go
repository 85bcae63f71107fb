package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/fhuszti/media-cache-go/internal/mediakey"
	"github.com/fhuszti/media-cache-go/internal/mock"
	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
	"github.com/fhuszti/media-cache-go/internal/storage"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

type testDeps struct {
	store   *mock.Store
	fs      afero.Fs
	files   port.MediaFiles
	blobs   *mock.BlobStore
	fetcher *mock.Fetcher
	thumbs  *mock.Thumbnailer
	details *mock.Cache
}

func newDeps() *testDeps {
	fs := afero.NewMemMapFs()
	return &testDeps{
		store:   mock.NewStore(),
		fs:      fs,
		files:   storage.NewFsMediaFiles(fs, "/cache"),
		fetcher: &mock.Fetcher{Out: &port.FetchResult{Data: make([]byte, 2048), OriginalFileName: "photo.jpg"}},
		thumbs:  &mock.Thumbnailer{Out: []byte("thumb-bytes")},
		details: &mock.Cache{},
	}
}

func (d *testDeps) newService(t *testing.T) *cacheService.Service {
	t.Helper()
	var blobs port.BlobStore
	if d.blobs != nil {
		blobs = d.blobs
	}
	svc, err := cacheService.NewService(context.Background(), d.store, d.files, blobs, d.fetcher, d.thumbs, d.details)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// settle gives the async queue a moment to do work that should NOT happen.
func settle() {
	time.Sleep(100 * time.Millisecond)
}

func writeLocalFile(t *testing.T, d *testDeps, url string, mt model.MediaType, size int) string {
	t.Helper()
	path := mediakey.LocalPath(url, mt)
	if err := d.files.Write(path, make([]byte, size)); err != nil {
		t.Fatalf("failed to seed local file: %v", err)
	}
	return path
}

func TestDownloadMedia_DownloadsAndChainsThumbnail(t *testing.T) {
	d := newDeps()
	svc := d.newService(t)
	ctx := context.Background()
	url := "https://example.com/a.jpg"

	svc.DownloadMedia(ctx, port.DownloadMediaInput{MediaRef: port.MediaRef{URL: url, MediaType: model.MediaTypeImage, NotificationDate: 42}})

	waitFor(t, "download to complete", func() bool {
		item := svc.GetCachedItem(ctx, url, model.MediaTypeImage)
		return item != nil && item.Materialized() && item.LocalThumbPath != ""
	})

	item := svc.GetCachedItem(ctx, url, model.MediaTypeImage)
	if item.Size != 2048 {
		t.Errorf("size = %d, want 2048", item.Size)
	}
	if item.OriginalFileName != "photo.jpg" {
		t.Errorf("original file name = %q", item.OriginalFileName)
	}
	if item.NotificationDate != 42 {
		t.Errorf("notification date = %d, want 42", item.NotificationDate)
	}
	if item.IsDownloading || item.GeneratingThumbnail {
		t.Error("transient flags should be cleared once the chain completes")
	}
	if item.DownloadedAt == 0 {
		t.Error("downloadedAt should be set")
	}

	media, err := d.files.Read(item.LocalPath)
	if err != nil || len(media) != 2048 {
		t.Errorf("media file read = %d bytes, err %v", len(media), err)
	}
	thumb, err := d.files.Read(item.LocalThumbPath)
	if err != nil || string(thumb) != "thumb-bytes" {
		t.Errorf("thumb file read = %q, err %v", thumb, err)
	}
}

func TestDownloadMedia_ShortCircuitsOnValidLocalFile(t *testing.T) {
	d := newDeps()
	svc := d.newService(t)
	ctx := context.Background()
	url := "https://example.com/b.jpg"
	writeLocalFile(t, d, url, model.MediaTypeImage, 600)

	svc.DownloadMedia(ctx, port.DownloadMediaInput{MediaRef: port.MediaRef{URL: url, MediaType: model.MediaTypeImage}})

	item := svc.GetCachedItem(ctx, url, model.MediaTypeImage)
	if item == nil || !item.Materialized() {
		t.Fatal("item should be materialized from the existing file")
	}
	if item.Size != 600 {
		t.Errorf("size = %d, want 600", item.Size)
	}

	waitFor(t, "chained thumbnail", func() bool {
		it := svc.GetCachedItem(ctx, url, model.MediaTypeImage)
		return it.LocalThumbPath != ""
	})
	if d.fetcher.CallCount() != 0 {
		t.Errorf("fetcher called %d times, want 0", d.fetcher.CallCount())
	}
}

func TestDownloadMedia_BelowThresholdRefetches(t *testing.T) {
	d := newDeps()
	svc := d.newService(t)
	ctx := context.Background()
	url := "https://example.com/tiny.jpg"
	writeLocalFile(t, d, url, model.MediaTypeImage, 100)

	svc.DownloadMedia(ctx, port.DownloadMediaInput{MediaRef: port.MediaRef{URL: url, MediaType: model.MediaTypeImage}})

	waitFor(t, "refetch of undersized file", func() bool {
		return d.fetcher.CallCount() == 1
	})
	waitFor(t, "item to materialize", func() bool {
		item := svc.GetCachedItem(ctx, url, model.MediaTypeImage)
		return item != nil && item.Size == 2048
	})
}

func TestDownloadMedia_TerminalStateGuard(t *testing.T) {
	d := newDeps()
	url := "https://example.com/failed.jpg"
	key := mediakey.CacheKey(url, model.MediaTypeImage)
	d.store.Items[key] = model.CacheItem{
		Key:                key,
		URL:                url,
		MediaType:          model.MediaTypeImage,
		IsPermanentFailure: true,
		ErrorCode:          "fetch failed",
	}
	svc := d.newService(t)
	ctx := context.Background()

	svc.DownloadMedia(ctx, port.DownloadMediaInput{MediaRef: port.MediaRef{URL: url, MediaType: model.MediaTypeImage}})
	settle()
	if d.fetcher.CallCount() != 0 {
		t.Fatalf("fetcher called %d times for a terminal item, want 0", d.fetcher.CallCount())
	}

	// force proceeds and clears the terminal flag on success
	svc.ForceMediaDownload(ctx, port.MediaRef{URL: url, MediaType: model.MediaTypeImage})
	waitFor(t, "forced download to succeed", func() bool {
		item := svc.GetCachedItem(ctx, url, model.MediaTypeImage)
		return item != nil && item.Materialized() && !item.IsPermanentFailure
	})
	item := svc.GetCachedItem(ctx, url, model.MediaTypeImage)
	if item.ErrorCode != "" {
		t.Errorf("error code = %q, want empty after forced success", item.ErrorCode)
	}
}

func TestDownloadMedia_FetchFailureIsTerminal(t *testing.T) {
	d := newDeps()
	d.fetcher.Out = nil
	d.fetcher.Err = errTest
	svc := d.newService(t)
	ctx := context.Background()
	url := "https://example.com/broken.jpg"

	svc.DownloadMedia(ctx, port.DownloadMediaInput{MediaRef: port.MediaRef{URL: url, MediaType: model.MediaTypeImage}})

	waitFor(t, "terminal failure", func() bool {
		item := svc.GetCachedItem(ctx, url, model.MediaTypeImage)
		return item != nil && item.IsPermanentFailure
	})
	item := svc.GetCachedItem(ctx, url, model.MediaTypeImage)
	if item.ErrorCode == "" {
		t.Error("error code should carry the failure")
	}
	if item.IsDownloading {
		t.Error("isDownloading must never remain true after the operation")
	}

	// no automatic retry
	calls := d.fetcher.CallCount()
	settle()
	if d.fetcher.CallCount() != calls {
		t.Error("failed download must not be retried")
	}
}

func TestTransientFlagsResetOnReload(t *testing.T) {
	d := newDeps()
	urlDown := "https://example.com/mid-download.jpg"
	urlThumb := "https://example.com/mid-thumb.jpg"
	keyDown := mediakey.CacheKey(urlDown, model.MediaTypeImage)
	keyThumb := mediakey.CacheKey(urlThumb, model.MediaTypeImage)
	d.store.Items[keyDown] = model.CacheItem{
		Key: keyDown, URL: urlDown, MediaType: model.MediaTypeImage, IsDownloading: true,
	}
	thumbLocal := writeLocalFile(t, d, urlThumb, model.MediaTypeImage, 2048)
	d.store.Items[keyThumb] = model.CacheItem{
		Key: keyThumb, URL: urlThumb, MediaType: model.MediaTypeImage,
		LocalPath: thumbLocal, Size: 2048, GeneratingThumbnail: true,
	}

	svc := d.newService(t)
	ctx := context.Background()

	// both interrupted operations are re-run exactly once
	waitFor(t, "interrupted download re-run", func() bool {
		item := svc.GetCachedItem(ctx, urlDown, model.MediaTypeImage)
		return item != nil && item.Materialized() && !item.IsDownloading
	})
	waitFor(t, "interrupted thumbnail re-run", func() bool {
		item := svc.GetCachedItem(ctx, urlThumb, model.MediaTypeImage)
		return item != nil && item.LocalThumbPath != "" && !item.GeneratingThumbnail
	})

	settle()
	if got := d.fetcher.CallCount(); got != 1 {
		t.Errorf("fetcher called %d times, want exactly 1", got)
	}
}

func TestGetCachedItem_ReconstructsFromDisk(t *testing.T) {
	d := newDeps()
	url := "https://example.com/survivor.jpg"
	localPath := writeLocalFile(t, d, url, model.MediaTypeImage, 4096)

	// metadata store is empty; only the file survived
	svc := d.newService(t)

	item := svc.GetCachedItem(context.Background(), url, model.MediaTypeImage)
	if item == nil {
		t.Fatal("expected a reconstructed item")
	}
	if item.LocalPath != localPath {
		t.Errorf("localPath = %q, want %q", item.LocalPath, localPath)
	}
	if item.Size != 4096 {
		t.Errorf("size = %d, want 4096", item.Size)
	}
	if _, err := d.store.Get(context.Background(), item.Key); err != nil {
		t.Errorf("reconstructed item should be persisted: %v", err)
	}
}

func TestGetCachedItem_UnknownIsNil(t *testing.T) {
	d := newDeps()
	svc := d.newService(t)

	if item := svc.GetCachedItem(context.Background(), "https://example.com/nope.jpg", model.MediaTypeImage); item != nil {
		t.Errorf("expected nil, got %+v", item)
	}
}
