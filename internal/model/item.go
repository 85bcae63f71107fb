package model

// CacheItem is the unit of cached media. Exactly one item exists per key;
// the key is a deterministic function of (mediaType, url), so changing either
// yields a different logical item, never a mutation of this one.
type CacheItem struct {
	Key              string    `json:"key"`
	URL              string    `json:"url"`
	MediaType        MediaType `json:"media_type"`
	LocalPath        string    `json:"local_path,omitempty"`
	LocalThumbPath   string    `json:"local_thumb_path,omitempty"`
	Size             int64     `json:"size"`
	Timestamp        int64     `json:"timestamp"`
	DownloadedAt     int64     `json:"downloaded_at"`
	NotificationDate int64     `json:"notification_date,omitempty"`
	OriginalFileName string    `json:"original_file_name,omitempty"`

	// Transient flags: true only while this process has an operation in
	// flight. They are reset to false whenever the store is loaded from
	// durable state, so a restart can never resume believing an operation
	// is live.
	IsDownloading       bool `json:"is_downloading"`
	GeneratingThumbnail bool `json:"generating_thumbnail"`

	// Terminal markers: both block automatic re-fetch unless the caller
	// passes an explicit force intent.
	IsPermanentFailure bool   `json:"is_permanent_failure"`
	ErrorCode          string `json:"error_code,omitempty"`
	IsUserDeleted      bool   `json:"is_user_deleted"`
}

// Materialized reports whether the item's bytes are present in storage.
func (it *CacheItem) Materialized() bool {
	return it.LocalPath != ""
}

// Terminal reports whether the item is in a state that blocks automatic
// re-fetch.
func (it *CacheItem) Terminal() bool {
	return it.IsPermanentFailure || it.IsUserDeleted
}

// CacheStats aggregates count and size over non-deleted items.
type CacheStats struct {
	Count      int                 `json:"count"`
	TotalSize  int64               `json:"total_size"`
	ByType     map[MediaType]int   `json:"by_type"`
	SizeByType map[MediaType]int64 `json:"size_by_type"`
}
