package apod

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTimeout is the HTTP client timeout used when none is configured
const DefaultTimeout = 30 * time.Second

// RawResponse is the unclassified result of a transport call. The receiver
// owns Body and must close it.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
}

// Transport sends GET requests to the APOD service. A Transport that also
// implements io.Closer is closed when the owning Client is closed.
type Transport interface {
	Get(ctx context.Context, uri string) (*RawResponse, error)
}

// HTTPTransport is the default Transport, backed by net/http
type HTTPTransport struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// HTTPTransportOptions configures an HTTPTransport
type HTTPTransportOptions struct {
	// HTTPClient replaces the default client; Timeout is ignored when set
	HTTPClient *http.Client
	Timeout    time.Duration
	// RateLimit spaces requests to at most this many per second; 0 disables it
	RateLimit float64
	UserAgent string
}

// NewHTTPTransport creates an HTTP transport
func NewHTTPTransport(opts HTTPTransportOptions) *HTTPTransport {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	t := &HTTPTransport{
		httpClient: httpClient,
		userAgent:  opts.UserAgent,
	}

	if opts.RateLimit > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return t
}

// Get performs a GET request. Non-2xx responses are returned, not treated
// as errors; only network failures are.
func (t *HTTPTransport) Get(ctx context.Context, uri string) (*RawResponse, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	return &RawResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

// Close releases idle connections held by the underlying client
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}
