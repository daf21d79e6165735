package apod

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateLayout is the date format used by the APOD API for both query
// parameters and the "date" field of an entry
const dateLayout = "2006-01-02"

// MediaType represents the kind of content an entry points at
type MediaType int

const (
	// MediaTypeImage is a still image
	MediaTypeImage MediaType = iota
	// MediaTypeVideo is an embedded video
	MediaTypeVideo
	// MediaTypeOther covers anything else the API returns (interactive pages and the like)
	MediaTypeOther
)

// String returns the API name of the media type
func (mt MediaType) String() string {
	switch mt {
	case MediaTypeImage:
		return "image"
	case MediaTypeVideo:
		return "video"
	default:
		return "other"
	}
}

// IsImage checks if the media type is an image
func (mt MediaType) IsImage() bool {
	return mt == MediaTypeImage
}

// MarshalText implements encoding.TextMarshaler
func (mt MediaType) MarshalText() ([]byte, error) {
	return []byte(mt.String()), nil
}

// UnmarshalText converts the API's media_type name into a MediaType.
// Unrecognised names decode as MediaTypeOther.
func (mt *MediaType) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "image":
		*mt = MediaTypeImage
	case "video":
		*mt = MediaTypeVideo
	default:
		*mt = MediaTypeOther
	}
	return nil
}

// Entry is a single Astronomy Picture of the Day record.
// Entries are plain values; two entries are equal when all fields are equal.
type Entry struct {
	Date           time.Time `json:"date"`
	Title          string    `json:"title"`
	Explanation    string    `json:"explanation"`
	MediaType      MediaType `json:"media_type"`
	URL            string    `json:"url"`
	HDURL          string    `json:"hdurl,omitempty"`
	ThumbnailURL   string    `json:"thumbnail_url,omitempty"`
	Copyright      string    `json:"copyright,omitempty"`
	ServiceVersion string    `json:"service_version"`
}

// UnmarshalJSON decodes an entry, parsing the YYYY-MM-DD date in UTC
func (e *Entry) UnmarshalJSON(data []byte) error {
	type alias Entry
	aux := struct {
		*alias
		Date string `json:"date"`
	}{alias: (*alias)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Date == "" {
		e.Date = time.Time{}
		return nil
	}

	date, err := time.Parse(dateLayout, aux.Date)
	if err != nil {
		return fmt.Errorf("invalid entry date %q: %w", aux.Date, err)
	}
	e.Date = date
	return nil
}

// MarshalJSON encodes an entry with its date in the API's YYYY-MM-DD form
func (e Entry) MarshalJSON() ([]byte, error) {
	type alias Entry
	aux := struct {
		alias
		Date string `json:"date"`
	}{alias: alias(e)}

	if !e.Date.IsZero() {
		aux.Date = e.Date.Format(dateLayout)
	}
	return json.Marshal(aux)
}

// BestURL returns the HD URL when available, falling back to the regular URL
func (e *Entry) BestURL() string {
	if e.HDURL != "" {
		return e.HDURL
	}
	return e.URL
}

// StatusCode reports whether a Response carries entries or an error
type StatusCode int

const (
	// StatusOK means Entries is populated
	StatusOK StatusCode = iota
	// StatusError means Error is populated
	StatusError
)

// String returns the string representation of a StatusCode
func (s StatusCode) String() string {
	if s == StatusOK {
		return "OK"
	}
	return "Error"
}

// Response is the uniform result of every fetch operation
type Response struct {
	Status  StatusCode
	Entries []Entry
	Error   ErrorInfo
}

// newEntriesResponse wraps decoded entries in a successful response
func newEntriesResponse(entries []Entry) *Response {
	return &Response{
		Status:  StatusOK,
		Entries: entries,
	}
}

// newErrorResponse wraps an ErrorInfo in a failed response
func newErrorResponse(info ErrorInfo) *Response {
	return &Response{
		Status: StatusError,
		Error:  info,
	}
}

// OK reports whether the response carries entries
func (r *Response) OK() bool {
	return r.Status == StatusOK
}

// Primary returns the most recent entry of the response, which is the last
// element of Entries. It returns false for error responses.
func (r *Response) Primary() (Entry, bool) {
	if r.Status != StatusOK || len(r.Entries) == 0 {
		return Entry{}, false
	}
	return r.Entries[len(r.Entries)-1], true
}

// Err returns the response error as an error value, or nil for successful responses
func (r *Response) Err() error {
	if r.Status == StatusOK {
		return nil
	}
	return r.Error
}
