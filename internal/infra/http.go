package infra

import (
	"context"
	"io"
	"net/http"
	"time"
)

// defaultUserAgent identifies the client to national statistics sites,
// some of which reject requests without a browser-like agent.
const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) dataseb/1.0"

var httpClient = &http.Client{Timeout: 60 * time.Second}

// SetHTTPTimeout overrides the shared client timeout. Call before any
// fetch, typically from configuration loading.
func SetHTTPTimeout(d time.Duration) {
	if d > 0 {
		httpClient.Timeout = d
	}
}

// DoGet performs a GET request with the given headers and returns the
// response body, the HTTP status code, and any transport error. The
// caller must close the body when err is nil.
func DoGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, resp.StatusCode, nil
}

// GetBytes fetches a URL and returns the full response body, failing on
// any status of 400 or above.
func GetBytes(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	body, status, err := DoGet(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	if status >= 400 {
		b, _ := io.ReadAll(io.LimitReader(body, 512))
		return nil, &ErrHTTPStatus{URL: url, Status: status, Snippet: string(b)}
	}
	return io.ReadAll(body)
}

// ErrHTTPStatus reports a non-success HTTP response.
type ErrHTTPStatus struct {
	URL     string
	Status  int
	Snippet string
}

func (e *ErrHTTPStatus) Error() string {
	if e.Snippet == "" {
		return "http " + http.StatusText(e.Status) + ": " + e.URL
	}
	return "http " + http.StatusText(e.Status) + ": " + e.URL + ": " + e.Snippet
}
