package downloader

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	neturl "net/url"
	"time"

	"github.com/fhuszti/media-cache-go/internal/port"
)

const fetchTimeout = 60 * time.Second

// HTTPFetcher downloads media bytes over plain GET, falling back to an
// authenticated proxy endpoint when the direct fetch is blocked and a proxy
// is configured.
type HTTPFetcher struct {
	client      *http.Client
	apiBaseURL  string
	bearerToken string
}

// compile-time check
var _ port.Fetcher = (*HTTPFetcher)(nil)

func NewHTTPFetcher(apiBaseURL, bearerToken string) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: fetchTimeout,
		},
		apiBaseURL:  apiBaseURL,
		bearerToken: bearerToken,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*port.FetchResult, error) {
	res, directErr := f.get(ctx, url, "")
	if directErr == nil {
		return res, nil
	}
	if f.apiBaseURL == "" {
		return nil, directErr
	}

	log.Printf("direct fetch of %q failed (%v), retrying through proxy", url, directErr)
	proxyURL := f.apiBaseURL + "/attachments/proxy-media?url=" + neturl.QueryEscape(url)
	res, proxyErr := f.get(ctx, proxyURL, f.bearerToken)
	if proxyErr != nil {
		return nil, fmt.Errorf("direct fetch failed (%v) and proxy fetch failed: %w", directErr, proxyErr)
	}
	return res, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url, bearer string) (*port.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &port.FetchResult{
		Data:             data,
		OriginalFileName: fileNameFromDisposition(resp.Header.Get("Content-Disposition")),
	}, nil
}

func fileNameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
