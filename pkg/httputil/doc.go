// Package httputil provides HTTP helpers for loading remote workflow documents.
//
// # Overview
//
//   - [Retry]: Automatic retry with exponential backoff
//   - [Fetcher]: GET with retries, status classification and a size limit
//
// # Retry
//
// [Retry] re-runs a function while it returns errors wrapped in
// [RetryableError]:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    return doRequest()
//	})
//
// # Fetching
//
// [Fetcher.Get] marks network errors, 429 and 5xx responses as retryable.
// Other non-2xx responses return a [*StatusError] at once:
//
//	body, err := httputil.NewFetcher().Get(ctx, "https://example.com/trace.json")
package httputil
