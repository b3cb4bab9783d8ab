package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/crewviz/pkg/observability"
)

// MaxBodySize bounds the size of fetched documents.
const MaxBodySize = 32 << 20

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetcher downloads documents over HTTP with retries.
type Fetcher struct {
	Client   *http.Client
	Attempts int
	Delay    time.Duration
	Header   http.Header
}

// NewFetcher returns a Fetcher with a 30 second client timeout and three
// attempts starting at a one second backoff.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:   &http.Client{Timeout: 30 * time.Second},
		Attempts: 3,
		Delay:    time.Second,
	}
}

// Get fetches url and returns the response body.
//
// Network errors, 429 and 5xx responses are retried. Other non-2xx
// responses fail immediately with a [*StatusError].
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := Retry(ctx, f.Attempts, f.Delay, func() error {
		b, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	return body, err
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range f.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &RetryableError{Err: err}
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		serr := &StatusError{URL: url, StatusCode: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &RetryableError{Err: serr}
		}
		return nil, serr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, &RetryableError{Err: err}
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes", url, MaxBodySize)
	}
	return body, nil
}
