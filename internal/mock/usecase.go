package mock

import (
	"context"

	"github.com/google/uuid"

	"github.com/fhuszti/media-cache-go/internal/model"
	"github.com/fhuszti/media-cache-go/internal/port"
)

// MediaDownloader implements port.MediaDownloader for tests.
type MediaDownloader struct {
	DownloadCalled bool
	ForceCalled    bool
	CheckCalled    bool
	In             port.DownloadMediaInput
	Ref            port.MediaRef
}

func (m *MediaDownloader) DownloadMedia(ctx context.Context, in port.DownloadMediaInput) {
	m.DownloadCalled = true
	m.In = in
}

func (m *MediaDownloader) ForceMediaDownload(ctx context.Context, ref port.MediaRef) {
	m.ForceCalled = true
	m.Ref = ref
}

func (m *MediaDownloader) CheckMediaExists(ctx context.Context, ref port.MediaRef) {
	m.CheckCalled = true
	m.Ref = ref
}

// ThumbnailRequester implements port.ThumbnailRequester for tests.
type ThumbnailRequester struct {
	Called bool
	URL    string
	Type   model.MediaType
	Force  bool
}

func (m *ThumbnailRequester) GenerateThumbnail(ctx context.Context, url string, mt model.MediaType, force bool) {
	m.Called = true
	m.URL = url
	m.Type = mt
	m.Force = force
}

// ItemGetter implements port.ItemGetter for tests.
type ItemGetter struct {
	Out    *model.CacheItem
	Called bool
}

func (m *ItemGetter) GetCachedItem(ctx context.Context, url string, mt model.MediaType) *model.CacheItem {
	m.Called = true
	return m.Out
}

// StatsGetter implements port.StatsGetter for tests.
type StatsGetter struct {
	Out    model.CacheStats
	Called bool
}

func (m *StatsGetter) GetCacheStats(ctx context.Context) model.CacheStats {
	m.Called = true
	return m.Out
}

// FailureMarker implements port.FailureMarker for tests.
type FailureMarker struct {
	Called    bool
	URL       string
	Type      model.MediaType
	ErrorCode string
}

func (m *FailureMarker) MarkAsPermanentFailure(ctx context.Context, url string, mt model.MediaType, errorCode string) {
	m.Called = true
	m.URL = url
	m.Type = mt
	m.ErrorCode = errorCode
}

// MediaDeleter implements port.MediaDeleter for tests.
type MediaDeleter struct {
	Deleted   bool
	Called    bool
	URL       string
	Type      model.MediaType
	Permanent bool
}

func (m *MediaDeleter) DeleteCachedMedia(ctx context.Context, url string, mt model.MediaType, permanent bool) bool {
	m.Called = true
	m.URL = url
	m.Type = mt
	m.Permanent = permanent
	return m.Deleted
}

// CacheClearer implements port.CacheClearer for tests.
type CacheClearer struct {
	ClearOut       bool
	CompleteOut    bool
	ClearCalled    bool
	CompleteCalled bool
}

func (m *CacheClearer) ClearCache(ctx context.Context) bool {
	m.ClearCalled = true
	return m.ClearOut
}

func (m *CacheClearer) ClearCacheComplete(ctx context.Context) bool {
	m.CompleteCalled = true
	return m.CompleteOut
}

// BinaryMedia implements port.BinaryMedia for tests.
type BinaryMedia struct {
	URLOut         string
	DownloadErr    error
	URLErr         error
	DeleteErr      error
	ClearErr       error
	DownloadCalled bool
	URLCalled      bool
	DeleteCalled   bool
	ClearCalled    bool
}

func (m *BinaryMedia) DownloadMediaAsBinary(ctx context.Context, url string, mt model.MediaType) error {
	m.DownloadCalled = true
	return m.DownloadErr
}

func (m *BinaryMedia) GetMediaURL(ctx context.Context, url string, mt model.MediaType) (string, error) {
	m.URLCalled = true
	return m.URLOut, m.URLErr
}

func (m *BinaryMedia) DeleteMediaBinary(ctx context.Context, url string, mt model.MediaType) error {
	m.DeleteCalled = true
	return m.DeleteErr
}

func (m *BinaryMedia) ClearAllBinaryMedia(ctx context.Context) error {
	m.ClearCalled = true
	return m.ClearErr
}

// ItemStreamSource implements port.ItemStreamSource for tests.
type ItemStreamSource struct {
	Ch           chan port.ItemsSnapshot
	Unsubscribed bool
	SubscribedID uuid.UUID
}

func (m *ItemStreamSource) SubscribeItems() (uuid.UUID, <-chan port.ItemsSnapshot) {
	m.SubscribedID = uuid.New()
	return m.SubscribedID, m.Ch
}

func (m *ItemStreamSource) UnsubscribeItems(id uuid.UUID) {
	m.Unsubscribed = true
}

// QueueStreamSource implements port.QueueStreamSource for tests.
type QueueStreamSource struct {
	Ch           chan port.QueueSnapshot
	Unsubscribed bool
	SubscribedID uuid.UUID
}

func (m *QueueStreamSource) SubscribeQueue() (uuid.UUID, <-chan port.QueueSnapshot) {
	m.SubscribedID = uuid.New()
	return m.SubscribedID, m.Ch
}

func (m *QueueStreamSource) UnsubscribeQueue(id uuid.UUID) {
	m.Unsubscribed = true
}
