package http

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Config holds the retry and throttling settings of a Client.
type Config struct {
	// UserAgent is sent with every request.
	UserAgent string

	// Header holds extra headers sent with every request, e.g. cookies.
	Header http.Header

	// Timeout bounds a single attempt.
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int

	// RetryCooldown is the wait before the first retry.
	RetryCooldown time.Duration

	// RetryExponent multiplies the wait after every retry.
	RetryExponent float64

	// RetryWaitMax caps the wait between attempts.
	RetryWaitMax time.Duration

	// RequestsPerSecond limits the request rate; zero disables the limit.
	RequestsPerSecond float64
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		UserAgent:         "dvtag",
		Timeout:           60 * time.Second,
		MaxRetries:        5,
		RetryCooldown:     200 * time.Millisecond,
		RetryExponent:     4.0,
		RetryWaitMax:      30 * time.Second,
		RequestsPerSecond: 2,
	}
}

// StatusError is returned when a server answers with a status other than 200.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d: %s", e.URL, e.StatusCode, e.Status)
}

// Client performs GET requests with retries, backoff and rate limiting.
//
// Transient failures (connection errors, 5xx and 429 responses) are retried
// up to Config.MaxRetries times, waiting RetryCooldown*RetryExponent^n
// between attempts. Every attempt, retries included, first waits for the
// rate limiter.
//
// Example usage:
//
//	client := NewClient(DefaultConfig(), log.Logger)
//
//	page, err := client.Get(ctx, "https://www.dlsite.com/maniax/work/=/product_id/RJ123456.html")
type Client struct {
	retry     *retryablehttp.Client
	userAgent string
	header    http.Header
}

// NewClient creates a client from cfg. Retry attempts are logged to logger
// at debug level.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = cfg.RetryCooldown
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.Backoff = exponentialBackoff(cfg.RetryExponent)
	rc.Logger = &leveledLogger{logger: logger}

	if cfg.RequestsPerSecond > 0 {
		limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
		rc.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, _ int) {
			// A cancelled context fails the request itself right after.
			_ = limiter.Wait(req.Context())
		}
	}

	return &Client{
		retry:     rc,
		userAgent: cfg.UserAgent,
		header:    cfg.Header,
	}
}

// exponentialBackoff waits min*exponent^attempt, capped at max. A
// Retry-After header on 429 and 503 responses takes precedence.
func exponentialBackoff(exponent float64) retryablehttp.Backoff {
	return func(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
		if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
			return retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
		}

		wait := time.Duration(float64(min) * math.Pow(exponent, float64(attemptNum)))
		if wait > max || wait <= 0 {
			return max
		}
		return wait
	}
}

// Get performs a GET request and returns the response body as bytes.
//
// Returns an error if:
//   - The request fails after all retries
//   - The response status is not 200 OK (as *StatusError)
//   - Reading the body fails
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.retry.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(resp.Body)
}

// leveledLogger adapts zerolog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger zerolog.Logger
}

func (l *leveledLogger) Error(msg string, kv ...interface{}) {
	l.logger.Debug().Fields(kv).Msg(msg)
}

func (l *leveledLogger) Warn(msg string, kv ...interface{}) {
	l.logger.Debug().Fields(kv).Msg(msg)
}

func (l *leveledLogger) Info(msg string, kv ...interface{}) {
	l.logger.Trace().Fields(kv).Msg(msg)
}

func (l *leveledLogger) Debug(msg string, kv ...interface{}) {
	l.logger.Trace().Fields(kv).Msg(msg)
}
