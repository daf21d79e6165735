package apod

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the APOD endpoint on NASA's API gateway
	DefaultBaseURL = "https://api.nasa.gov/planetary/apod"
	// DemoAPIKey is the shared key api.nasa.gov hands out for experimentation.
	// It is heavily rate limited.
	DemoAPIKey = "DEMO_KEY"
)

// URIBuilder builds request URIs for the four request shapes
type URIBuilder struct {
	baseURL string
	apiKey  string
	thumbs  bool
}

// NewURIBuilder creates a URI builder. Empty arguments fall back to
// DefaultBaseURL and DemoAPIKey.
func NewURIBuilder(baseURL, apiKey string, thumbs bool) *URIBuilder {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiKey == "" {
		apiKey = DemoAPIKey
	}

	return &URIBuilder{
		baseURL: baseURL,
		apiKey:  apiKey,
		thumbs:  thumbs,
	}
}

// Today builds the URI for today's entry
func (b *URIBuilder) Today() string {
	return b.build(url.Values{})
}

// Date builds the URI for a single date
func (b *URIBuilder) Date(d time.Time) string {
	return b.build(url.Values{"date": {d.Format(dateLayout)}})
}

// Range builds the URI for a date range. A zero end is omitted, which the
// service reads as "up to today".
func (b *URIBuilder) Range(start, end time.Time) string {
	params := url.Values{"start_date": {start.Format(dateLayout)}}
	if !end.IsZero() {
		params.Set("end_date", end.Format(dateLayout))
	}
	return b.build(params)
}

// Count builds the URI for n random entries
func (b *URIBuilder) Count(n int) string {
	return b.build(url.Values{"count": {strconv.Itoa(n)}})
}

func (b *URIBuilder) build(params url.Values) string {
	params.Set("api_key", b.apiKey)
	if b.thumbs {
		params.Set("thumbs", "true")
	}
	return b.baseURL + "?" + params.Encode()
}

// redactURI strips the api_key parameter so URIs can be logged
func redactURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
