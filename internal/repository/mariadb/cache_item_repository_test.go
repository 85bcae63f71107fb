package mariadb

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/fhuszti/media-cache-go/internal/model"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

func newRepo(t *testing.T) (*CacheItemRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewCacheItemRepository(sqlDB)
	mock.ExpectPing()
	if err := repo.EnsureInitialized(context.Background()); err != nil {
		t.Fatalf("EnsureInitialized() returned unexpected error: %v", err)
	}
	return repo, mock
}

func itemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"key", "url", "media_type", "local_path", "local_thumb_path",
		"size", "timestamp", "downloaded_at", "notification_date",
		"original_file_name", "is_downloading", "generating_thumbnail",
		"is_permanent_failure", "error_code", "is_user_deleted",
	})
}

func TestCacheItemRepository_NotInitialized(t *testing.T) {
	sqlDB, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("unexpected error when opening stub database: %s", err)
	}
	defer func() { _ = sqlDB.Close() }()

	repo := NewCacheItemRepository(sqlDB)

	if _, err := repo.Get(context.Background(), "IMAGE_https://x/a.jpg"); !errors.Is(err, cacheService.ErrNotInitialized) {
		t.Errorf("Get() error = %v, want ErrNotInitialized", err)
	}
	if err := repo.Upsert(context.Background(), &model.CacheItem{}); !errors.Is(err, cacheService.ErrNotInitialized) {
		t.Errorf("Upsert() error = %v, want ErrNotInitialized", err)
	}
	if _, err := repo.List(context.Background()); !errors.Is(err, cacheService.ErrNotInitialized) {
		t.Errorf("List() error = %v, want ErrNotInitialized", err)
	}
}

func TestCacheItemRepository_Upsert_Success(t *testing.T) {
	repo, mock := newRepo(t)

	item := &model.CacheItem{
		Key:          "IMAGE_https://x/a.jpg",
		URL:          "https://x/a.jpg",
		MediaType:    model.MediaTypeImage,
		LocalPath:    "IMAGE/0a1b2c3d.jpg",
		Size:         2048,
		DownloadedAt: 1700000000000,
	}

	mock.ExpectExec("INSERT INTO cache_items").
		WithArgs(
			item.Key, item.URL, item.MediaType,
			item.LocalPath, item.LocalThumbPath,
			item.Size, item.Timestamp, item.DownloadedAt, item.NotificationDate,
			item.OriginalFileName,
			item.IsDownloading, item.GeneratingThumbnail,
			item.IsPermanentFailure, item.ErrorCode, item.IsUserDeleted,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Upsert(context.Background(), item); err != nil {
		t.Errorf("Upsert() returned unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCacheItemRepository_UpsertMany_SingleTransaction(t *testing.T) {
	repo, mock := newRepo(t)

	items := []model.CacheItem{
		{Key: "IMAGE_https://x/a.jpg", URL: "https://x/a.jpg", MediaType: model.MediaTypeImage},
		{Key: "VIDEO_https://x/b.mp4", URL: "https://x/b.mp4", MediaType: model.MediaTypeVideo},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cache_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO cache_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := repo.UpsertMany(context.Background(), items); err != nil {
		t.Errorf("UpsertMany() returned unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCacheItemRepository_UpsertMany_RollsBackOnFailure(t *testing.T) {
	repo, mock := newRepo(t)

	items := []model.CacheItem{
		{Key: "IMAGE_https://x/a.jpg", MediaType: model.MediaTypeImage},
		{Key: "VIDEO_https://x/b.mp4", MediaType: model.MediaTypeVideo},
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cache_items").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO cache_items").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.UpsertMany(context.Background(), items)
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestCacheItemRepository_Get_Success(t *testing.T) {
	repo, mock := newRepo(t)

	rows := itemRows().AddRow(
		"GIF_https://x/c.gif", "https://x/c.gif", "gif", "GIF/11223344.gif", "",
		512, 1700000000000, 1700000000000, 0,
		"c.gif", false, false,
		false, "", false,
	)
	mock.ExpectQuery("SELECT (.+) FROM cache_items").
		WithArgs("GIF_https://x/c.gif").
		WillReturnRows(rows)

	item, err := repo.Get(context.Background(), "GIF_https://x/c.gif")
	if err != nil {
		t.Fatalf("Get() returned unexpected error: %v", err)
	}
	if item.MediaType != model.MediaTypeGif {
		t.Errorf("MediaType = %q, want %q", item.MediaType, model.MediaTypeGif)
	}
	if item.LocalPath != "GIF/11223344.gif" {
		t.Errorf("LocalPath = %q", item.LocalPath)
	}
	if item.Size != 512 {
		t.Errorf("Size = %d, want 512", item.Size)
	}
}

func TestCacheItemRepository_Get_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM cache_items").
		WithArgs("IMAGE_https://x/missing.jpg").
		WillReturnRows(itemRows())

	_, err := repo.Get(context.Background(), "IMAGE_https://x/missing.jpg")
	if !errors.Is(err, cacheService.ErrItemNotFound) {
		t.Errorf("Get() error = %v, want ErrItemNotFound", err)
	}
}

func TestCacheItemRepository_List_OrdersByDownloadedAt(t *testing.T) {
	repo, mock := newRepo(t)

	rows := itemRows().
		AddRow("IMAGE_https://x/new.jpg", "https://x/new.jpg", "image", "", "", 0, 0, 200, 0, "", false, false, false, "", false).
		AddRow("IMAGE_https://x/old.jpg", "https://x/old.jpg", "image", "", "", 0, 0, 100, 0, "", false, false, false, "", false)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY downloaded_at DESC")).
		WillReturnRows(rows)

	items, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() returned unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("List() returned %d items, want 2", len(items))
	}
	if items[0].Key != "IMAGE_https://x/new.jpg" {
		t.Errorf("items[0].Key = %q, want most recently downloaded first", items[0].Key)
	}
}

func TestCacheItemRepository_Delete(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec("DELETE FROM cache_items WHERE").
		WithArgs("AUDIO_https://x/a.mp3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "AUDIO_https://x/a.mp3"); err != nil {
		t.Errorf("Delete() returned unexpected error: %v", err)
	}
}

func TestCacheItemRepository_ClearAll(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec("DELETE FROM cache_items").
		WillReturnResult(sqlmock.NewResult(0, 3))

	if err := repo.ClearAll(context.Background()); err != nil {
		t.Errorf("ClearAll() returned unexpected error: %v", err)
	}
}
