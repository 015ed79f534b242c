package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nao1215/couponcheck/internal/fetch"
	"github.com/nao1215/couponcheck/internal/model"
)

// Scraper loads source pages and extracts their image URLs.
type Scraper struct {
	client      *http.Client
	maxBodySize int64
	logger      *slog.Logger
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithMaxBodySize sets the largest page accepted, in bytes.
func WithMaxBodySize(size int64) Option {
	return func(s *Scraper) {
		if size > 0 {
			s.maxBodySize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scraper) {
		s.logger = logger
	}
}

// New creates a Scraper that loads pages with client.
func New(client *http.Client, opts ...Option) *Scraper {
	s := &Scraper{
		client:      client,
		maxBodySize: fetch.DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Extract loads src.PageURL and returns the image URLs it lists, in page
// order. An unreachable page returns an error wrapping one of the fetch
// package errors.
func (s *Scraper) Extract(ctx context.Context, src model.Source) ([]string, error) {
	re, err := src.Compile()
	if err != nil {
		return nil, err
	}

	body, err := fetch.Get(ctx, s.client, src, src.PageURL, s.maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", src.Name, err)
	}

	urls := ExtractURLs(src.PageURL, body, re, src.Replace, src.ReplaceWith)
	s.logger.Debug("page scraped",
		"source", src.Name,
		"page", src.PageURL,
		"bytes", len(body),
		"urls", len(urls),
	)
	return urls, nil
}
