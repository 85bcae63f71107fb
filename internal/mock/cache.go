package mock

import (
	"context"
	"time"
)

// Cache implements cache behaviour for tests.
type Cache struct {
	// stored values
	ItemOut  []byte
	StatsOut []byte

	// etag values
	EtagItem  string
	EtagStats string

	// errors
	GetItemErr      error
	GetEtagItemErr  error
	DelItemErr      error
	GetStatsErr     error
	GetEtagStatsErr error
	DelStatsErr     error

	// call flags
	GetItemCalled      bool
	GetEtagItemCalled  bool
	SetItemCalled      bool
	SetEtagItemCalled  bool
	DelItemCalled      bool
	GetStatsCalled     bool
	GetEtagStatsCalled bool
	SetStatsCalled     bool
	SetEtagStatsCalled bool
	DelStatsCalled     bool
}

func (c *Cache) GetItemDetails(ctx context.Context, key string) ([]byte, error) {
	c.GetItemCalled = true
	if c.GetItemErr != nil {
		return nil, c.GetItemErr
	}
	return c.ItemOut, nil
}

func (c *Cache) GetEtagItemDetails(ctx context.Context, key string) (string, error) {
	c.GetEtagItemCalled = true
	if c.GetEtagItemErr != nil {
		return "", c.GetEtagItemErr
	}
	return c.EtagItem, nil
}

func (c *Cache) SetItemDetails(ctx context.Context, key string, data []byte, ttl time.Duration) {
	c.SetItemCalled = true
	c.ItemOut = data
}

func (c *Cache) SetEtagItemDetails(ctx context.Context, key string, etag string, ttl time.Duration) {
	c.SetEtagItemCalled = true
	c.EtagItem = etag
}

func (c *Cache) DeleteItemDetails(ctx context.Context, key string) error {
	c.DelItemCalled = true
	return c.DelItemErr
}

func (c *Cache) GetStats(ctx context.Context) ([]byte, error) {
	c.GetStatsCalled = true
	if c.GetStatsErr != nil {
		return nil, c.GetStatsErr
	}
	return c.StatsOut, nil
}

func (c *Cache) GetEtagStats(ctx context.Context) (string, error) {
	c.GetEtagStatsCalled = true
	if c.GetEtagStatsErr != nil {
		return "", c.GetEtagStatsErr
	}
	return c.EtagStats, nil
}

func (c *Cache) SetStats(ctx context.Context, data []byte, ttl time.Duration) {
	c.SetStatsCalled = true
	c.StatsOut = data
}

func (c *Cache) SetEtagStats(ctx context.Context, etag string, ttl time.Duration) {
	c.SetEtagStatsCalled = true
	c.EtagStats = etag
}

func (c *Cache) DeleteStats(ctx context.Context) error {
	c.DelStatsCalled = true
	return c.DelStatsErr
}
