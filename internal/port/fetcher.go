package port

import "context"

// FetchResult carries the downloaded bytes and an optional display hint
// extracted from the response.
type FetchResult struct {
	Data             []byte
	OriginalFileName string
}

// Fetcher retrieves the bytes behind a media URL, optionally through an
// authenticated proxy endpoint when the direct fetch is blocked.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}
