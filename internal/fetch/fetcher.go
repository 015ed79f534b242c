package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/couponcheck/internal/hash"
	"github.com/nao1215/couponcheck/internal/model"
)

// Result is the outcome of downloading one URL.
type Result struct {
	// Index is the position of URL in the input list.
	Index int

	// URL is the requested URL.
	URL string

	// Record is the downloaded image. It is zero when Err is set.
	Record model.ImageRecord

	// Err wraps ErrTransportUnreachable or ErrMalformedResourcePath.
	Err error
}

// Fetcher downloads the images of a source concurrently.
type Fetcher struct {
	client      *http.Client
	workers     int
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithWorkers sets the number of concurrent downloads. Non-positive values
// are ignored.
func WithWorkers(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.workers = n
		}
	}
}

// WithMaxBodySize sets the largest accepted response body in bytes.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher that uses client for every request.
func New(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		workers:     DefaultWorkers,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch downloads a single image listed by src.
func (f *Fetcher) Fetch(ctx context.Context, src model.Source, rawURL string) (model.ImageRecord, error) {
	body, err := Get(ctx, f.client, src, rawURL, f.maxBodySize)
	if err != nil {
		return model.ImageRecord{}, err
	}
	return model.ImageRecord{
		Raw:         body,
		ContentHash: hash.Content(body),
		Name:        NameFromURL(rawURL),
		SourceURL:   rawURL,
		Source:      src.Name,
	}, nil
}

// Stream downloads every URL concurrently and sends one Result per URL.
// Results arrive in completion order; use Result.Index to restore input
// order. The channel is closed once every URL has succeeded or failed.
// The caller must drain the channel.
func (f *Fetcher) Stream(ctx context.Context, src model.Source, urls []string) <-chan Result {
	out := make(chan Result, f.workers)

	go func() {
		defer close(out)

		var g errgroup.Group
		g.SetLimit(f.workers)

		for i, u := range urls {
			g.Go(func() error {
				rec, err := f.Fetch(ctx, src, u)
				if err != nil {
					f.logger.Debug("download failed",
						"source", src.Name,
						"url", u,
						"error", err,
					)
				}
				out <- Result{Index: i, URL: u, Record: rec, Err: err}
				return nil
			})
		}

		// Workers never return an error.
		_ = g.Wait()
	}()

	return out
}

// FetchAll downloads every URL and returns the successful records and the
// failed URLs, both in input order.
func (f *Fetcher) FetchAll(ctx context.Context, src model.Source, urls []string) (model.Collection, []string) {
	results := make([]Result, len(urls))
	for r := range f.Stream(ctx, src, urls) {
		results[r.Index] = r
	}

	collection := make(model.Collection, 0, len(urls))
	failed := make([]string, 0)
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r.URL)
			continue
		}
		collection = append(collection, r.Record)
	}
	return collection, failed
}

// Get performs a GET request for a resource listed by src and returns the
// body. Errors are classified as ErrTransportUnreachable or
// ErrMalformedResourcePath.
func Get(ctx context.Context, client *http.Client, src model.Source, rawURL string, maxBodySize int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResourcePath, err)
	}
	applySourceHeaders(req, src.Cookie, src.Headers)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransportUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrMalformedResourcePath, rawURL, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %s: HTTP %d", ErrTransportUnreachable, rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrTransportUnreachable, rawURL, err)
	}
	if int64(len(body)) > maxBodySize {
		return nil, fmt.Errorf("%w: %w: %s", ErrTransportUnreachable, ErrResponseTooLarge, rawURL)
	}
	return body, nil
}

// IsFetchError reports whether err is one of the classified download errors.
func IsFetchError(err error) bool {
	return errors.Is(err, ErrTransportUnreachable) || errors.Is(err, ErrMalformedResourcePath)
}
