package cache

import (
	"context"

	"github.com/fhuszti/media-cache-go/internal/model"
)

// GetCachedItem returns known state for the ref, lazily reconstructing the
// item from an already-materialized file after metadata loss. Nil when
// nothing is known.
func (s *Service) GetCachedItem(ctx context.Context, url string, mt model.MediaType) *model.CacheItem {
	return s.getOrLoadItem(ctx, url, mt)
}

// GetCacheStats aggregates count and size by media type over non-deleted
// items.
func (s *Service) GetCacheStats(ctx context.Context) model.CacheStats {
	stats := model.CacheStats{
		ByType:     make(map[model.MediaType]int),
		SizeByType: make(map[model.MediaType]int64),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.IsUserDeleted {
			continue
		}
		stats.Count++
		stats.TotalSize += item.Size
		stats.ByType[item.MediaType]++
		stats.SizeByType[item.MediaType] += item.Size
	}
	return stats
}
