package apod

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Operation names, used in logs, errors and metrics
const (
	OpToday = "today"
	OpDate  = "date"
	OpRange = "range"
	OpCount = "count"
)

// Recorder receives one observation per completed operation. The outcome is
// "ok", an ErrorKind name, "transport_error" or "decode_error".
type Recorder interface {
	ObserveFetch(operation, outcome string, duration time.Duration)
}

// Config configures a Client. Every field is optional.
type Config struct {
	// APIKey defaults to DemoAPIKey
	APIKey string
	// BaseURL defaults to DefaultBaseURL
	BaseURL string
	// Thumbs asks the service for thumbnail URLs of video entries
	Thumbs bool

	// Transport replaces the default HTTPTransport. When set, HTTPClient,
	// Timeout, RateLimit and UserAgent are ignored.
	Transport  Transport
	HTTPClient *http.Client
	Timeout    time.Duration
	RateLimit  float64
	UserAgent  string

	// Classifier defaults to ResponseClassifier
	Classifier Classifier

	// Window pins the valid date window. When zero the window is computed on
	// every call from Clock.
	Window DateWindow
	// Clock defaults to time.Now
	Clock func() time.Time

	// Logger defaults to a no-op logger
	Logger *zerolog.Logger
	// Metrics is optional
	Metrics Recorder
}

// Client is an Astronomy Picture of the Day API client. It is safe for
// concurrent use as long as its Transport is.
type Client struct {
	uris       *URIBuilder
	transport  Transport
	classifier Classifier
	window     DateWindow
	clock      func() time.Time
	logger     zerolog.Logger
	metrics    Recorder

	disposed  atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewClient creates a new APOD client
func NewClient(cfg Config) *Client {
	c := &Client{
		uris:       NewURIBuilder(cfg.BaseURL, cfg.APIKey, cfg.Thumbs),
		transport:  cfg.Transport,
		classifier: cfg.Classifier,
		window:     cfg.Window,
		clock:      cfg.Clock,
		logger:     zerolog.Nop(),
		metrics:    cfg.Metrics,
	}

	if c.transport == nil {
		c.transport = NewHTTPTransport(HTTPTransportOptions{
			HTTPClient: cfg.HTTPClient,
			Timeout:    cfg.Timeout,
			RateLimit:  cfg.RateLimit,
			UserAgent:  cfg.UserAgent,
		})
	}
	if c.classifier == nil {
		c.classifier = NewResponseClassifier()
	}
	if c.clock == nil {
		c.clock = time.Now
	}
	if cfg.Logger != nil {
		c.logger = *cfg.Logger
	}

	return c
}

// Window returns the valid date window as of this call
func (c *Client) Window() DateWindow {
	if !c.window.Last.IsZero() {
		window := c.window
		if window.First.IsZero() {
			window.First = FirstValidDate
		}
		return window
	}
	return WindowAt(c.clock())
}

// FetchToday fetches today's entry
func (c *Client) FetchToday(ctx context.Context) (*Response, error) {
	if c.disposed.Load() {
		return nil, ErrDisposed
	}

	return c.fetch(ctx, OpToday, c.uris.Today(), decodeSingle)
}

// FetchByDate fetches the entry published on d. A date equal to today on the
// caller's clock is fetched as today's entry without validation.
func (c *Client) FetchByDate(ctx context.Context, d time.Time) (*Response, error) {
	if sameDay(d, c.clock()) {
		return c.FetchToday(ctx)
	}

	if c.disposed.Load() {
		return nil, ErrDisposed
	}

	if info := NewValidator(c.Window()).ValidateDate(d); !info.IsNone() {
		return c.rejected(OpDate, info), nil
	}

	return c.fetch(ctx, OpDate, c.uris.Date(Day(d)), decodeSingle)
}

// FetchByDateRange fetches every entry from start to end, oldest first. A
// zero end, or an end equal to today on the caller's clock, means "up to the
// latest entry".
func (c *Client) FetchByDateRange(ctx context.Context, start, end time.Time) (*Response, error) {
	if c.disposed.Load() {
		return nil, ErrDisposed
	}

	if !end.IsZero() && sameDay(end, c.clock()) {
		end = time.Time{}
	}

	if info := NewValidator(c.Window()).ValidateDateRange(start, end); !info.IsNone() {
		return c.rejected(OpRange, info), nil
	}

	if !end.IsZero() {
		end = Day(end)
	}
	return c.fetch(ctx, OpRange, c.uris.Range(Day(start), end), decodeMany)
}

// FetchByCount fetches n random entries
func (c *Client) FetchByCount(ctx context.Context, n int) (*Response, error) {
	if c.disposed.Load() {
		return nil, ErrDisposed
	}

	if info := NewValidator(c.Window()).ValidateCount(n); !info.IsNone() {
		return c.rejected(OpCount, info), nil
	}

	return c.fetch(ctx, OpCount, c.uris.Count(n), decodeMany)
}

// Close releases the transport. It is safe to call more than once; every
// fetch after Close returns ErrDisposed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.disposed.Store(true)
		if closer, ok := c.transport.(io.Closer); ok {
			c.closeErr = closer.Close()
		}
	})
	return c.closeErr
}

// rejected builds the response for input that failed validation. No request is sent.
func (c *Client) rejected(op string, info ErrorInfo) *Response {
	c.logger.Debug().
		Str("operation", op).
		Stringer("kind", info.Kind).
		Str("message", info.Message).
		Msg("Request rejected before sending")
	c.observe(op, info.Kind.String(), 0)
	return newErrorResponse(info)
}

// fetch sends the request, classifies the result and decodes the body
func (c *Client) fetch(ctx context.Context, op, uri string, decode func([]byte) ([]Entry, error)) (*Response, error) {
	start := time.Now()

	c.logger.Debug().
		Str("operation", op).
		Str("url", redactURI(uri)).
		Msg("Making APOD API request")

	raw, err := c.transport.Get(ctx, uri)
	if err != nil {
		c.observe(op, "transport_error", time.Since(start))
		return nil, &TransportError{Operation: op, Err: err}
	}
	if raw == nil {
		c.observe(op, "transport_error", time.Since(start))
		return nil, &TransportError{Operation: op, Err: ErrNilTransport}
	}

	body, err := readAndClose(raw.Body)
	if err != nil {
		c.observe(op, "transport_error", time.Since(start))
		return nil, &TransportError{Operation: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if info := c.classifier.Classify(raw.StatusCode, raw.ContentType, body); !info.IsNone() {
		c.logger.Warn().
			Str("operation", op).
			Int("status", raw.StatusCode).
			Stringer("kind", info.Kind).
			Str("message", info.Message).
			Msg("APOD API returned an error")
		c.observe(op, info.Kind.String(), time.Since(start))
		return newErrorResponse(info), nil
	}

	entries, err := decode(body)
	if err != nil {
		c.observe(op, "decode_error", time.Since(start))
		return nil, &DecodeError{Operation: op, Body: truncate(string(body), 512), Err: err}
	}

	c.logger.Debug().
		Str("operation", op).
		Int("entries", len(entries)).
		Dur("took", time.Since(start)).
		Msg("Retrieved APOD entries")
	c.observe(op, "ok", time.Since(start))

	return newEntriesResponse(entries), nil
}

func (c *Client) observe(op, outcome string, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveFetch(op, outcome, d)
	}
}

// readAndClose drains and closes body exactly once
func readAndClose(body io.ReadCloser) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	defer body.Close()
	return io.ReadAll(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
