// Package download saves the media of APOD entries to disk concurrently.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/apodctl/apod"
)

const (
	DefaultConcurrency = 4
	MaxConcurrency     = 16

	defaultExt = ".jpg"
)

// ErrNotImage is reported for entries whose media cannot be saved as a file
var ErrNotImage = errors.New("entry is not an image")

// Options configures a Downloader
type Options struct {
	Dir         string
	Concurrency int
	HD          bool // prefer hdurl when present
	Overwrite   bool
	HTTPClient  *http.Client
	Logger      zerolog.Logger
}

// Downloader fetches entry images into a directory
type Downloader struct {
	dir         string
	concurrency int
	hd          bool
	overwrite   bool
	httpClient  *http.Client
	logger      zerolog.Logger
}

// New creates a downloader, clamping concurrency to [1, MaxConcurrency]
func New(opts Options) *Downloader {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	concurrency = min(concurrency, MaxConcurrency)

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	return &Downloader{
		dir:         dir,
		concurrency: concurrency,
		hd:          opts.HD,
		overwrite:   opts.Overwrite,
		httpClient:  httpClient,
		logger:      opts.Logger,
	}
}

// File describes a saved entry
type File struct {
	Date  time.Time
	Title string
	URL   string
	Path  string
	Bytes int64
}

// Skipped describes an entry that was not downloaded
type Skipped struct {
	Date   time.Time
	Title  string
	Reason string
}

// Error contains information about a failed download
type Error struct {
	Date  time.Time
	Title string
	URL   string
	Err   error
}

// Error implements the error interface
func (e Error) Error() string {
	return fmt.Sprintf("failed to download %s (%s): %v", e.Title, e.Date.Format("2006-01-02"), e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}

// BatchResult contains the results of a batch download, each list sorted by date
type BatchResult struct {
	Requested  int
	Successful []File
	Skipped    []Skipped
	Failed     []Error
}

// Download saves every image entry. Individual failures are collected in the
// result and never stop the batch.
func (d *Downloader) Download(ctx context.Context, entries []apod.Entry) (BatchResult, error) {
	result := BatchResult{
		Requested: len(entries),
	}

	if len(entries) == 0 {
		return result, nil
	}

	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return result, fmt.Errorf("failed to create download directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	var mu sync.Mutex

	for _, entry := range entries {
		if !entry.MediaType.IsImage() {
			mu.Lock()
			result.Skipped = append(result.Skipped, Skipped{
				Date:   entry.Date,
				Title:  entry.Title,
				Reason: ErrNotImage.Error(),
			})
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			file, skipped, err := d.downloadEntry(ctx, entry)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				d.logger.Warn().
					Err(err).
					Str("date", entry.Date.Format("2006-01-02")).
					Str("title", entry.Title).
					Msg("Failed to download entry")
				result.Failed = append(result.Failed, Error{
					Date:  entry.Date,
					Title: entry.Title,
					URL:   d.sourceURL(entry),
					Err:   err,
				})
			case skipped:
				result.Skipped = append(result.Skipped, Skipped{
					Date:   entry.Date,
					Title:  entry.Title,
					Reason: "already exists",
				})
			default:
				d.logger.Debug().Str("path", file.Path).Int64("bytes", file.Bytes).Msg("Saved entry")
				result.Successful = append(result.Successful, file)
			}
			return nil // Don't stop on individual errors
		})
	}

	_ = g.Wait()

	slices.SortFunc(result.Successful, func(a, b File) int { return a.Date.Compare(b.Date) })
	slices.SortFunc(result.Skipped, func(a, b Skipped) int { return a.Date.Compare(b.Date) })
	slices.SortFunc(result.Failed, func(a, b Error) int { return a.Date.Compare(b.Date) })

	return result, nil
}

func (d *Downloader) sourceURL(entry apod.Entry) string {
	if d.hd && entry.HDURL != "" {
		return entry.HDURL
	}
	return entry.URL
}

// FileName returns the file name an entry is saved under: its date plus the
// extension of the source URL
func FileName(entry apod.Entry, source string) string {
	ext := defaultExt
	if u, err := url.Parse(source); err == nil {
		if e := path.Ext(u.Path); e != "" {
			ext = e
		}
	}
	return entry.Date.Format("2006-01-02") + ext
}

func (d *Downloader) downloadEntry(ctx context.Context, entry apod.Entry) (File, bool, error) {
	source := d.sourceURL(entry)
	if source == "" {
		return File{}, false, errors.New("entry has no media URL")
	}

	target := filepath.Join(d.dir, FileName(entry, source))
	if !d.overwrite {
		if _, err := os.Stat(target); err == nil {
			return File{}, true, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return File{}, false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return File{}, false, fmt.Errorf("failed to fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return File{}, false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	n, err := writeAtomic(target, resp.Body)
	if err != nil {
		return File{}, false, err
	}

	return File{
		Date:  entry.Date,
		Title: entry.Title,
		URL:   source,
		Path:  target,
		Bytes: n,
	}, false, nil
}

// writeAtomic writes r to a temporary file next to target and renames it into place
func writeAtomic(target string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".apod-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to write media: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return 0, fmt.Errorf("failed to move media into place: %w", err)
	}
	return n, nil
}
