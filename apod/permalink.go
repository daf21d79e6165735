package apod

import (
	"fmt"
	"time"
)

// PermalinkBase is the archive location of every published entry
const PermalinkBase = "https://apod.nasa.gov/apod/"

// Permalink returns the apod.nasa.gov archive page of an entry
func Permalink(e Entry) string {
	return PermalinkForDate(e.Date)
}

// PermalinkForDate returns the archive page for the given date, in the
// form apYYMMDD.html
func PermalinkForDate(d time.Time) string {
	return fmt.Sprintf("%sap%02d%02d%02d.html", PermalinkBase, d.Year()%100, int(d.Month()), d.Day())
}
