package apod

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingBody counts how often the client closes a response body
type trackingBody struct {
	io.Reader
	closes int
}

func (b *trackingBody) Close() error {
	b.closes++
	return nil
}

// mockTransport implements Transport for testing
type mockTransport struct {
	mu          sync.Mutex
	status      int
	contentType string
	body        string
	err         error

	// Track calls for verification
	calls  []string
	bodies []*trackingBody
	closes int
}

func (m *mockTransport) Get(ctx context.Context, uri string) (*RawResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, uri)
	if m.err != nil {
		return nil, m.err
	}

	body := &trackingBody{Reader: strings.NewReader(m.body)}
	m.bodies = append(m.bodies, body)

	status := m.status
	if status == 0 {
		status = http.StatusOK
	}
	return &RawResponse{StatusCode: status, ContentType: m.contentType, Body: body}, nil
}

func (m *mockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

func (m *mockTransport) lastQuery(t *testing.T) url.Values {
	t.Helper()
	require.NotEmpty(t, m.calls)
	u, err := url.Parse(m.calls[len(m.calls)-1])
	require.NoError(t, err)
	return u.Query()
}

// mockRecorder implements Recorder for testing
type mockRecorder struct {
	outcomes []string
}

func (r *mockRecorder) ObserveFetch(operation, outcome string, duration time.Duration) {
	r.outcomes = append(r.outcomes, operation+":"+outcome)
}

// testNow is noon UTC on 2024-03-15, which is also 2024-03-15 in New York
var testNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestClient(transport Transport) *Client {
	logger := zerolog.New(nil).Level(zerolog.Disabled)
	return NewClient(Config{
		APIKey:    "test-key",
		Transport: transport,
		Clock:     func() time.Time { return testNow },
		Logger:    &logger,
	})
}

func TestClient_ValidationShortCircuits(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) (*Response, error)
		want ErrorKind
	}{
		{
			name: "date before first valid date",
			call: func(c *Client) (*Response, error) {
				return c.FetchByDate(context.Background(), NewDate(1995, time.June, 15))
			},
			want: KindDateOutOfRange,
		},
		{
			name: "date in the future",
			call: func(c *Client) (*Response, error) {
				return c.FetchByDate(context.Background(), NewDate(2024, time.March, 16))
			},
			want: KindDateOutOfRange,
		},
		{
			name: "range backwards",
			call: func(c *Client) (*Response, error) {
				return c.FetchByDateRange(context.Background(), NewDate(2020, time.May, 5), NewDate(2020, time.May, 1))
			},
			want: KindStartDateAfterEndDate,
		},
		{
			name: "range start out of window",
			call: func(c *Client) (*Response, error) {
				return c.FetchByDateRange(context.Background(), NewDate(1990, time.May, 5), time.Time{})
			},
			want: KindDateOutOfRange,
		},
		{
			name: "count zero",
			call: func(c *Client) (*Response, error) {
				return c.FetchByCount(context.Background(), 0)
			},
			want: KindCountOutOfRange,
		},
		{
			name: "count too large",
			call: func(c *Client) (*Response, error) {
				return c.FetchByCount(context.Background(), 101)
			},
			want: KindCountOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &mockTransport{body: singleEntryJSON}
			recorder := &mockRecorder{}
			client := newTestClient(transport)
			client.metrics = recorder

			resp, err := tt.call(client)
			require.NoError(t, err)
			require.NotNil(t, resp)

			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.want, resp.Error.Kind)
			assert.Nil(t, resp.Entries)
			assert.Empty(t, transport.calls, "transport must not be called when validation fails")
			require.Len(t, recorder.outcomes, 1)
			assert.Contains(t, recorder.outcomes[0], tt.want.String())
		})
	}
}

func TestClient_FetchToday(t *testing.T) {
	transport := &mockTransport{body: singleEntryJSON, contentType: "application/json"}
	client := newTestClient(transport)

	resp, err := client.FetchToday(context.Background())
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, ngc5907Entry(), resp.Entries[0])

	primary, ok := resp.Primary()
	require.True(t, ok)
	assert.Equal(t, ngc5907Entry(), primary)

	require.Len(t, transport.calls, 1)
	assert.Equal(t, url.Values{"api_key": {"test-key"}}, transport.lastQuery(t))
	require.Len(t, transport.bodies, 1)
	assert.Equal(t, 1, transport.bodies[0].closes)
}

func TestClient_FetchByDate(t *testing.T) {
	transport := &mockTransport{body: singleEntryJSON}
	client := newTestClient(transport)

	resp, err := client.FetchByDate(context.Background(), NewDate(2019, time.November, 16))
	require.NoError(t, err)
	require.True(t, resp.OK())
	assert.Equal(t, "2019-11-16", transport.lastQuery(t).Get("date"))
	assert.Equal(t, 1, transport.bodies[0].closes)
}

func TestClient_FetchByDateTodayFastPath(t *testing.T) {
	transport := &mockTransport{body: singleEntryJSON}
	client := newTestClient(transport)

	_, err := client.FetchByDate(context.Background(), time.Date(2024, time.March, 15, 7, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	query := transport.lastQuery(t)
	assert.False(t, query.Has("date"), "today's date is fetched through the no-argument request")
}

func TestClient_FetchByDateRange(t *testing.T) {
	entries := `[` +
		`{"date":"2020-05-01","title":"one","media_type":"image","url":"u1","service_version":"v1"},` +
		`{"date":"2020-05-02","title":"two","media_type":"image","url":"u2","service_version":"v1"},` +
		`{"date":"2020-05-03","title":"three","media_type":"video","url":"u3","service_version":"v1"},` +
		`{"date":"2020-05-04","title":"four","media_type":"image","url":"u4","service_version":"v1"},` +
		`{"date":"2020-05-05","title":"five","media_type":"image","url":"u5","service_version":"v1"}` +
		`]`
	transport := &mockTransport{body: entries}
	client := newTestClient(transport)

	resp, err := client.FetchByDateRange(context.Background(), NewDate(2020, time.May, 1), NewDate(2020, time.May, 5))
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Len(t, resp.Entries, 5)

	primary, ok := resp.Primary()
	require.True(t, ok)
	assert.Equal(t, resp.Entries[4], primary)
	assert.Equal(t, "five", primary.Title)
	assert.Equal(t, MediaTypeVideo, resp.Entries[2].MediaType)

	query := transport.lastQuery(t)
	assert.Equal(t, "2020-05-01", query.Get("start_date"))
	assert.Equal(t, "2020-05-05", query.Get("end_date"))
}

func TestClient_FetchByDateRangeEndingToday(t *testing.T) {
	tests := []struct {
		name string
		end  time.Time
	}{
		{name: "zero end", end: time.Time{}},
		{name: "end is today", end: NewDate(2024, time.March, 15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &mockTransport{body: `[]`}
			client := newTestClient(transport)

			resp, err := client.FetchByDateRange(context.Background(), NewDate(2024, time.March, 10), tt.end)
			require.NoError(t, err)
			require.True(t, resp.OK())
			assert.Empty(t, resp.Entries)

			query := transport.lastQuery(t)
			assert.Equal(t, "2024-03-10", query.Get("start_date"))
			assert.False(t, query.Has("end_date"))
		})
	}
}

func TestClient_FetchByCount(t *testing.T) {
	transport := &mockTransport{body: twoEntriesJSON}
	client := newTestClient(transport)

	resp, err := client.FetchByCount(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, resp.OK())
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "Janus: Potato Shaped Moon of Saturn", resp.Entries[0].Title)
	assert.Equal(t, "2", transport.lastQuery(t).Get("count"))
}

func TestClient_ClassifiedErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		want        ErrorKind
	}{
		{
			name:        "timeout page",
			status:      http.StatusGatewayTimeout,
			contentType: "text/html",
			body:        "<html>timeout</html>",
			want:        KindTimeout,
		},
		{
			name:        "bad request",
			status:      http.StatusBadRequest,
			contentType: "application/json",
			body:        `{"code":400,"msg":"Date must be between Jun 16, 1995 and Mar 15, 2024.","service_version":"v1"}`,
			want:        KindBadRequest,
		},
		{
			name:        "rate limit",
			status:      http.StatusTooManyRequests,
			contentType: "application/json",
			body:        `{"error":{"code":"OVER_RATE_LIMIT","message":"slow down"}}`,
			want:        KindOverRateLimit,
		},
		{
			name:   "unrecognised",
			status: http.StatusBadGateway,
			body:   "bad gateway",
			want:   KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &mockTransport{status: tt.status, contentType: tt.contentType, body: tt.body}
			client := newTestClient(transport)

			resp, err := client.FetchByCount(context.Background(), 3)
			require.NoError(t, err)
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.want, resp.Error.Kind)
			assert.Nil(t, resp.Entries)

			require.Len(t, transport.bodies, 1)
			assert.Equal(t, 1, transport.bodies[0].closes, "body must be closed exactly once")
		})
	}
}

func TestClient_TransportErrorPropagates(t *testing.T) {
	netErr := errors.New("connection refused")
	transport := &mockTransport{err: netErr}
	client := newTestClient(transport)

	resp, err := client.FetchToday(context.Background())
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, netErr)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, OpToday, transportErr.Operation)
}

func TestClient_DecodeErrorOnSuccess(t *testing.T) {
	transport := &mockTransport{body: `{"date":`}
	client := newTestClient(transport)

	resp, err := client.FetchByDate(context.Background(), NewDate(2010, time.January, 1))
	require.Error(t, err)
	assert.Nil(t, resp)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, OpDate, decodeErr.Operation)
	assert.Equal(t, 1, transport.bodies[0].closes)
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	transport := &mockTransport{body: singleEntryJSON}
	client := newTestClient(transport)

	assert.NotPanics(t, func() {
		assert.NoError(t, client.Close())
		assert.NoError(t, client.Close())
		assert.NoError(t, client.Close())
	})
	assert.Equal(t, 1, transport.closes, "transport must be released exactly once")
}

func TestClient_OperationsFailAfterClose(t *testing.T) {
	transport := &mockTransport{body: singleEntryJSON}
	client := newTestClient(transport)
	require.NoError(t, client.Close())

	ctx := context.Background()
	calls := map[string]func() (*Response, error){
		"today":      func() (*Response, error) { return client.FetchToday(ctx) },
		"date":       func() (*Response, error) { return client.FetchByDate(ctx, NewDate(2010, time.January, 1)) },
		"date today": func() (*Response, error) { return client.FetchByDate(ctx, testNow) },
		"range":      func() (*Response, error) { return client.FetchByDateRange(ctx, NewDate(2010, time.January, 1), time.Time{}) },
		"count":      func() (*Response, error) { return client.FetchByCount(ctx, 3) },
		"bad count":  func() (*Response, error) { return client.FetchByCount(ctx, -1) },
		"bad range":  func() (*Response, error) { return client.FetchByDateRange(ctx, NewDate(1990, time.January, 1), time.Time{}) },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			resp, err := call()
			assert.Nil(t, resp)
			require.ErrorIs(t, err, ErrDisposed)

			var info ErrorInfo
			require.ErrorAs(t, err, &info)
			assert.Equal(t, KindDisposed, info.Kind)
		})
	}

	assert.Empty(t, transport.calls)
}

func TestClient_PinnedWindow(t *testing.T) {
	transport := &mockTransport{body: singleEntryJSON}
	client := NewClient(Config{
		Transport: transport,
		Clock:     func() time.Time { return testNow },
		Window:    DateWindow{Last: NewDate(2000, time.January, 1)},
	})

	window := client.Window()
	assert.Equal(t, FirstValidDate, window.First)
	assert.Equal(t, NewDate(2000, time.January, 1), window.Last)

	resp, err := client.FetchByDate(context.Background(), NewDate(2001, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, KindDateOutOfRange, resp.Error.Kind)
	assert.Empty(t, transport.calls)
}

func TestClient_HTTPTransport(t *testing.T) {
	var gotQuery url.Values
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotUA = r.Header.Get("User-Agent")

		if r.URL.Query().Get("api_key") != "good-key" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":"API_KEY_INVALID","message":"An invalid api_key was supplied."}}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(singleEntryJSON))
	}))
	defer server.Close()

	t.Run("success", func(t *testing.T) {
		client := NewClient(Config{
			APIKey:    "good-key",
			BaseURL:   server.URL,
			UserAgent: "apodctl-test",
			RateLimit: 100,
			Clock:     func() time.Time { return testNow },
		})
		defer client.Close()

		resp, err := client.FetchByDate(context.Background(), NewDate(2019, time.November, 16))
		require.NoError(t, err)
		require.True(t, resp.OK())
		assert.Equal(t, ngc5907Entry(), resp.Entries[0])
		assert.Equal(t, "2019-11-16", gotQuery.Get("date"))
		assert.Equal(t, "apodctl-test", gotUA)
	})

	t.Run("invalid key", func(t *testing.T) {
		client := NewClient(Config{
			APIKey:  "bad-key",
			BaseURL: server.URL,
			Clock:   func() time.Time { return testNow },
		})
		defer client.Close()

		resp, err := client.FetchToday(context.Background())
		require.NoError(t, err)
		assert.Equal(t, KindAPIKeyInvalid, resp.Error.Kind)
		assert.Equal(t, "An invalid api_key was supplied.", resp.Error.Message)
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := NewClient(Config{BaseURL: server.URL})
		defer client.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.FetchToday(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestClient_ConcurrentUse(t *testing.T) {
	transport := &mockTransport{body: singleEntryJSON}
	client := newTestClient(transport)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := client.FetchByDate(context.Background(), NewDate(2019, time.November, 16))
			assert.NoError(t, err)
			assert.True(t, resp.OK())
		}()
	}
	wg.Wait()

	assert.Len(t, transport.calls, 20)
}
