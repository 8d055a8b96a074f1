package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// ErrTooLarge is returned when a remote document exceeds the byte ceiling
var ErrTooLarge = errors.New("document exceeds size limit")

// fetchSleepFunc is replaced in tests
var fetchSleepFunc = time.Sleep

const fetchAttempts = 3

// Fetcher downloads petition documents from URLs
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
}

// NewFetcher creates a Fetcher. Redirect chains longer than three are refused.
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
}

// FetchResult is a downloaded document
type FetchResult struct {
	Data      []byte
	MediaType string
	FileName  string
	FinalURL  string
}

type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.code, e.status)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// FetchWithRetry retries 429 and 5xx responses with linear backoff
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		res, err := f.Fetch(ctx, rawURL)
		if err == nil {
			return res, nil
		}
		lastErr = err

		var se *statusError
		if !errors.As(err, &se) || !se.retryable() || ctx.Err() != nil {
			return nil, err
		}
		if attempt < fetchAttempts {
			fetchSleepFunc(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}
	return nil, lastErr
}

// Fetch downloads one document
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
	}

	mediaType := ""
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			mediaType = mt
		}
	}

	finalURL := resp.Request.URL.String()
	return &FetchResult{
		Data:      body,
		MediaType: mediaType,
		FileName:  fileName(resp.Request.URL, resp.Header.Get("Content-Disposition")),
		FinalURL:  finalURL,
	}, nil
}

// fileName prefers the Content-Disposition filename, then the last path segment
func fileName(u *url.URL, disposition string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return path.Base(params["filename"])
		}
	}

	name := path.Base(strings.TrimRight(u.Path, "/"))
	if name == "." || name == "/" || name == "" {
		return u.Host
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
