// Package httputil provides the retry policy shared by the OLS clients.
//
// # Retry
//
// [Retrier] runs a remote call with bounded, fixed-interval retry. A
// failure is transient when it is wrapped with [Retryable] (network errors,
// 429 responses, truncated or malformed bodies) or carries the
// SERVER_ERROR code (5xx responses):
//
//	r := httputil.NewRetrier(5, 5*time.Second, logger)
//	err := r.Do(ctx, "ontologies page 3", func() error {
//	    doc, err = transport.Get(ctx, url)
//	    return err
//	})
//
// Every other error is returned at once. When the attempts are used up the
// last failure is returned wrapped in OBJECT_NOT_RETRIEVED, so callers can
// still reach the HTTP status through errors.As.
//
// # Configuration
//
// Default settings follow the public OLS deployment:
//
//   - Max attempts: 5
//   - Backoff: 5 seconds
//
// Both are set from the ols config file or OLS_MAX_ATTEMPTS and
// OLS_BACKOFF.
package httputil
