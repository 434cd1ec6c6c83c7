package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/tkaya/folio/pkg/logger"
	"github.com/tkaya/folio/pkg/redis"
)

// RetryConfig controls retry behavior for transient upstream failures.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig is suitable for the free-tier market data providers.
var DefaultRetryConfig = RetryConfig{
	MaxRetries:   3,
	InitialDelay: 1 * time.Second,
	MaxDelay:     10 * time.Second,
}

// Client wraps http.Client with retries, logging, and an optional
// Redis-backed rate limiter.
type Client struct {
	httpClient *http.Client
	retry      RetryConfig
	limiter    *redis.RateLimiter
	log        *logger.Logger
}

// New creates an HTTP client with the given timeout.
func New(timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		retry:      DefaultRetryConfig,
		log:        log,
	}
}

// WithRetry overrides the retry configuration.
func (c *Client) WithRetry(cfg RetryConfig) *Client {
	c.retry = cfg
	return c
}

// WithRateLimiter attaches a rate limiter applied before every request.
func (c *Client) WithRateLimiter(limiter *redis.RateLimiter) *Client {
	c.limiter = limiter
	return c
}

// Do executes the request with rate limiting and retries. The response
// body is fully read and returned; the caller never handles the stream.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	var lastErr error
	delay := c.retry.InitialDelay

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			c.log.Debugf("retrying %s %s (attempt %d/%d)",
				req.Method, req.URL.Host, attempt, c.retry.MaxRetries)

			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(delay):
			}

			delay *= 2
			if delay > c.retry.MaxDelay {
				delay = c.retry.MaxDelay
			}
		}

		resp, body, err := c.do(req.Clone(ctx))
		if err == nil && !isRetryableStatus(resp.StatusCode) {
			return resp, body, nil
		}

		if err != nil {
			lastErr = err
			if !isRetryableError(err) {
				return nil, nil, err
			}
		} else {
			lastErr = fmt.Errorf("upstream returned %d", resp.StatusCode)
		}
	}

	return nil, nil, fmt.Errorf("request failed after %d retries: %w", c.retry.MaxRetries, lastErr)
}

// Get is a convenience wrapper for GET requests.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.Do(ctx, req)
}

func (c *Client) do(req *http.Request) (*http.Response, []byte, error) {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("read response body: %w", err)
	}

	c.log.WithFields(map[string]interface{}{
		"method":   req.Method,
		"host":     req.URL.Host,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("http request")

	return resp, body, nil
}

// isRetryableStatus reports whether the status code warrants a retry.
func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// isRetryableError reports whether the transport error is transient.
func isRetryableError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
