package mock

import (
	"context"
	"sync"

	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
	cacheService "github.com/fhuszti/media-cache-go/internal/usecase/cache"
)

// Store is an in-memory port.Store for tests.
type Store struct {
	mu    sync.Mutex
	Items map[string]model.CacheItem

	InitErr       error
	UpsertErr     error
	UpsertManyErr error
	GetErr        error
	ListErr       error
	DeleteErr     error
	ClearAllErr   error

	InitCalled       bool
	UpsertCalls      int
	UpsertManyCalls  int
	DeleteCalls      int
	ClearAllCalled   bool
	LastUpserted     *model.CacheItem
	LastUpsertedMany []model.CacheItem
}

// compile-time check: *Store must satisfy port.Store
var _ port.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{Items: map[string]model.CacheItem{}}
}

func (s *Store) EnsureInitialized(ctx context.Context) error {
	s.InitCalled = true
	return s.InitErr
}

func (s *Store) Upsert(ctx context.Context, item *model.CacheItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpsertCalls++
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	cp := *item
	s.Items[item.Key] = cp
	s.LastUpserted = &cp
	return nil
}

func (s *Store) UpsertMany(ctx context.Context, items []model.CacheItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.UpsertManyCalls++
	if s.UpsertManyErr != nil {
		return s.UpsertManyErr
	}
	for _, item := range items {
		s.Items[item.Key] = item
	}
	s.LastUpsertedMany = items
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (*model.CacheItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	item, ok := s.Items[key]
	if !ok {
		return nil, cacheService.ErrItemNotFound
	}
	cp := item
	return &cp, nil
}

func (s *Store) List(ctx context.Context) ([]model.CacheItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]model.CacheItem, 0, len(s.Items))
	for _, item := range s.Items {
		out = append(out, item)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DeleteCalls++
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.Items, key)
	return nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ClearAllCalled = true
	if s.ClearAllErr != nil {
		return s.ClearAllErr
	}
	s.Items = map[string]model.CacheItem{}
	return nil
}
