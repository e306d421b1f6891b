// Package http provides the HTTP client used to reach the DLsite and chobit
// storefronts.
//
// The Client in this package handles:
//   - User-Agent and cookie headers
//   - Bounded retries with exponential backoff for transient failures
//   - Request rate limiting
//   - Timeout handling
//
// # Basic Usage
//
//	client := http.NewClient(http.DefaultConfig(), log.Logger)
//
//	// Fetch HTML page
//	page, err := client.Get(ctx, workURL)
//
//	// Download cover art
//	data, err := client.Get(ctx, coverURL)
//
// # Errors
//
// A non-200 answer that is not retried (404 and other 4xx codes) is
// reported as *StatusError. Retryable failures surface as a plain error
// once the retries are used up:
//
//	var se *http.StatusError
//	if errors.As(err, &se) && se.StatusCode == 404 {
//	    // work does not exist
//	}
package http
