package poller

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxBodySize caps how much of a response body is read.
const DefaultMaxBodySize = 1 << 20 // 1MB

// connection pooling limits; widgets poll the same backend host repeatedly
const (
	defaultMaxIdleConns        = 100
	defaultMaxIdleConnsPerHost = 10
	defaultMaxConnsPerHost     = 10
	defaultIdleConnTimeout     = 60 * time.Second // conservative: matches common ALB defaults
)

// Response holds the result of a GET issued by [Client].
type Response struct {
	// Body contains the HTTP response body, truncated to the client's body limit.
	Body []byte

	// StatusCode is the HTTP status code (e.g., 200, 404, 500).
	// Zero if the request failed before receiving a response.
	StatusCode int

	// Latency is the total time taken for the request.
	Latency time.Duration

	// Error contains any transport error that occurred during the request.
	// nil means a response was received, whatever its status code.
	Error error
}

// Client is an HTTP client wrapper for polling JSON collections.
//
// Client issues bare GET requests: no request body and no custom headers.
// Timeouts are per request via context; a zero timeout means the request
// lives as long as its parent context.
type Client struct {
	httpClient  *http.Client
	maxBodySize int64
}

// NewClient creates a new polling [Client].
//
// maxBodySize limits how many bytes of each response body are read. Values
// less than or equal to zero fall back to [DefaultMaxBodySize].
//
// Connection pooling configuration:
//   - MaxIdleConns: 100 total idle connections
//   - MaxIdleConnsPerHost: 10 idle connections per host
//   - MaxConnsPerHost: 10 concurrent connections per host
//   - IdleConnTimeout: 60 seconds before closing idle connections
func NewClient(maxBodySize int64) *Client {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	return &Client{
		httpClient: &http.Client{
			// no default timeout - requests are bounded by their context
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        defaultMaxIdleConns,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				MaxConnsPerHost:     defaultMaxConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		maxBodySize: maxBodySize,
	}
}

// Fetch performs a GET request and returns a structured [Response].
//
// If timeout is positive it is applied via context cancellation; otherwise
// the request may hang until ctx is cancelled.
//
// Fetch always returns a Response; errors are captured in the Error field
// rather than returned separately.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration) Response {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("failed to create request: %w", err),
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{
			Latency: time.Since(start),
			Error:   fmt.Errorf("request failed: %w", err),
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return Response{
			StatusCode: resp.StatusCode,
			Latency:    time.Since(start),
			Error:      fmt.Errorf("failed to read response body: %w", err),
		}
	}

	return Response{
		Body:       body,
		StatusCode: resp.StatusCode,
		Latency:    time.Since(start),
	}
}

// Close closes all idle connections in the client's connection pool.
//
// Safe to call multiple times. After Close, the client remains usable but
// new connections will be established as needed.
func (c *Client) Close() {
	if c == nil || c.httpClient == nil {
		return
	}
	if transport, ok := c.httpClient.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
}
