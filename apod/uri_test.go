package apod

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURIBuilder(t *testing.T) {
	b := NewURIBuilder("https://example.test/apod/", "secret", false)

	tests := []struct {
		name string
		uri  string
		want url.Values
	}{
		{
			name: "today",
			uri:  b.Today(),
			want: url.Values{"api_key": {"secret"}},
		},
		{
			name: "date",
			uri:  b.Date(NewDate(2001, time.April, 10)),
			want: url.Values{"api_key": {"secret"}, "date": {"2001-04-10"}},
		},
		{
			name: "range with end",
			uri:  b.Range(NewDate(2019, time.February, 22), NewDate(2019, time.February, 24)),
			want: url.Values{"api_key": {"secret"}, "start_date": {"2019-02-22"}, "end_date": {"2019-02-24"}},
		},
		{
			name: "range without end",
			uri:  b.Range(NewDate(2019, time.February, 22), time.Time{}),
			want: url.Values{"api_key": {"secret"}, "start_date": {"2019-02-22"}},
		},
		{
			name: "count",
			uri:  b.Count(5),
			want: url.Values{"api_key": {"secret"}, "count": {"5"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.uri)
			require.NoError(t, err)
			assert.Equal(t, "https", u.Scheme)
			assert.Equal(t, "example.test", u.Host)
			assert.Equal(t, "/apod", u.Path)
			assert.Equal(t, tt.want, u.Query())
		})
	}
}

func TestURIBuilderDefaults(t *testing.T) {
	b := NewURIBuilder("", "", true)

	u, err := url.Parse(b.Today())
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, u.Scheme+"://"+u.Host+u.Path)
	assert.Equal(t, DemoAPIKey, u.Query().Get("api_key"))
	assert.Equal(t, "true", u.Query().Get("thumbs"))
}

func TestRedactURI(t *testing.T) {
	redacted := redactURI("https://api.nasa.gov/planetary/apod?api_key=secret&date=2001-04-10")
	assert.NotContains(t, redacted, "secret")
	assert.Contains(t, redacted, "date=2001-04-10")
}

func TestPermalink(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{NewDate(2001, time.April, 10), "https://apod.nasa.gov/apod/ap010410.html"},
		{NewDate(1965, time.November, 28), "https://apod.nasa.gov/apod/ap651128.html"},
		{NewDate(2038, time.August, 2), "https://apod.nasa.gov/apod/ap380802.html"},
		{NewDate(1995, time.June, 16), "https://apod.nasa.gov/apod/ap950616.html"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Permalink(Entry{Date: tt.date}))
			assert.Equal(t, tt.want, PermalinkForDate(tt.date))
		})
	}
}
