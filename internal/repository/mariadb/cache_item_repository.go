package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

const itemColumns = "`key`, url, media_type, local_path, local_thumb_path, size, timestamp, downloaded_at, notification_date, original_file_name, is_downloading, generating_thumbnail, is_permanent_failure, error_code, is_user_deleted"

// CacheItemRepository is the row-oriented store: one cache_items row per key,
// media bytes living on the filesystem next to it.
type CacheItemRepository struct {
	db *sql.DB

	// initialized is an idempotent guard, not a lock: two overlapping
	// EnsureInitialized calls are not serialized against each other.
	initialized bool
}

// compile-time check: *CacheItemRepository must satisfy port.Store
var _ port.Store = (*CacheItemRepository)(nil)

func NewCacheItemRepository(db *sql.DB) *CacheItemRepository {
	return &CacheItemRepository{db: db}
}

func (r *CacheItemRepository) EnsureInitialized(ctx context.Context) error {
	if r.initialized {
		return nil
	}
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("store init: %w", err)
	}
	r.initialized = true
	return nil
}

func (r *CacheItemRepository) guard() error {
	if !r.initialized {
		return cacheService.ErrNotInitialized
	}
	return nil
}

func (r *CacheItemRepository) Upsert(ctx context.Context, item *model.CacheItem) error {
	if err := r.guard(); err != nil {
		return err
	}
	log.Printf("upserting cache item %q...", item.Key)

	const query = `
      INSERT INTO cache_items
        (` + itemColumns + `)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
      ON DUPLICATE KEY UPDATE
        url                  = VALUES(url),
        media_type           = VALUES(media_type),
        local_path           = VALUES(local_path),
        local_thumb_path     = VALUES(local_thumb_path),
        size                 = VALUES(size),
        timestamp            = VALUES(timestamp),
        downloaded_at        = VALUES(downloaded_at),
        notification_date    = VALUES(notification_date),
        original_file_name   = VALUES(original_file_name),
        is_downloading       = VALUES(is_downloading),
        generating_thumbnail = VALUES(generating_thumbnail),
        is_permanent_failure = VALUES(is_permanent_failure),
        error_code           = VALUES(error_code),
        is_user_deleted      = VALUES(is_user_deleted)
    `
	_, err := r.db.ExecContext(ctx, query, itemArgs(item)...)
	if err != nil {
		return fmt.Errorf("upsert cache item %q: %w", item.Key, err)
	}

	return nil
}

func (r *CacheItemRepository) UpsertMany(ctx context.Context, items []model.CacheItem) error {
	if err := r.guard(); err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	log.Printf("upserting %d cache items in one transaction...", len(items))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert batch: %w", err)
	}

	for i := range items {
		if err := upsertTx(ctx, tx, &items[i]); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("rollback failed after upsert error: %v", rbErr)
			}
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert batch: %w", err)
	}
	return nil
}

func upsertTx(ctx context.Context, tx *sql.Tx, item *model.CacheItem) error {
	const query = `
      INSERT INTO cache_items
        (` + itemColumns + `)
      VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
      ON DUPLICATE KEY UPDATE
        url                  = VALUES(url),
        media_type           = VALUES(media_type),
        local_path           = VALUES(local_path),
        local_thumb_path     = VALUES(local_thumb_path),
        size                 = VALUES(size),
        timestamp            = VALUES(timestamp),
        downloaded_at        = VALUES(downloaded_at),
        notification_date    = VALUES(notification_date),
        original_file_name   = VALUES(original_file_name),
        is_downloading       = VALUES(is_downloading),
        generating_thumbnail = VALUES(generating_thumbnail),
        is_permanent_failure = VALUES(is_permanent_failure),
        error_code           = VALUES(error_code),
        is_user_deleted      = VALUES(is_user_deleted)
    `
	if _, err := tx.ExecContext(ctx, query, itemArgs(item)...); err != nil {
		return fmt.Errorf("upsert cache item %q: %w", item.Key, err)
	}
	return nil
}

func (r *CacheItemRepository) Get(ctx context.Context, key string) (*model.CacheItem, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	log.Printf("fetching cache item %q from the database...", key)

	const query = `
      SELECT ` + itemColumns + `
      FROM cache_items
      WHERE ` + "`key`" + ` = ?
    `
	row := r.db.QueryRowContext(ctx, query, key)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cacheService.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cache item %q: %w", key, err)
	}
	return item, nil
}

func (r *CacheItemRepository) List(ctx context.Context) ([]model.CacheItem, error) {
	if err := r.guard(); err != nil {
		return nil, err
	}
	log.Println("listing cache items from the database...")

	const query = `
      SELECT ` + itemColumns + `
      FROM cache_items
      ORDER BY downloaded_at DESC
    `
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list cache items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []model.CacheItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cache item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cache items: %w", err)
	}
	return items, nil
}

func (r *CacheItemRepository) Delete(ctx context.Context, key string) error {
	if err := r.guard(); err != nil {
		return err
	}
	log.Printf("deleting cache item %q from the database...", key)

	_, err := r.db.ExecContext(ctx, "DELETE FROM cache_items WHERE `key` = ?", key)
	if err != nil {
		return fmt.Errorf("delete cache item %q: %w", key, err)
	}
	return nil
}

func (r *CacheItemRepository) ClearAll(ctx context.Context) error {
	if err := r.guard(); err != nil {
		return err
	}
	log.Println("clearing all cache items from the database...")

	if _, err := r.db.ExecContext(ctx, "DELETE FROM cache_items"); err != nil {
		return fmt.Errorf("clear cache items: %w", err)
	}
	return nil
}

func itemArgs(item *model.CacheItem) []any {
	return []any{
		item.Key, item.URL, item.MediaType,
		item.LocalPath, item.LocalThumbPath,
		item.Size, item.Timestamp, item.DownloadedAt, item.NotificationDate,
		item.OriginalFileName,
		item.IsDownloading, item.GeneratingThumbnail,
		item.IsPermanentFailure, item.ErrorCode, item.IsUserDeleted,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.CacheItem, error) {
	var item model.CacheItem
	if err := row.Scan(
		&item.Key, &item.URL, &item.MediaType,
		&item.LocalPath, &item.LocalThumbPath,
		&item.Size, &item.Timestamp, &item.DownloadedAt, &item.NotificationDate,
		&item.OriginalFileName,
		&item.IsDownloading, &item.GeneratingThumbnail,
		&item.IsPermanentFailure, &item.ErrorCode, &item.IsUserDeleted,
	); err != nil {
		return nil, err
	}
	return &item, nil
}
