package match

import (
	"context"
	"log/slog"
	"math"
	"runtime"

	"github.com/nao1215/couponcheck/internal/model"
)

// Threshold is the minimum correlation score at which two coupon images are
// considered the same coupon.
const Threshold = 0.9

// Engine compares coupon images.
// An Engine holds no mutable state and may be used from many goroutines.
type Engine struct {
	// logger receives debug output about comparisons.
	logger *slog.Logger

	// workers bounds the goroutines used to prepare an Index.
	workers int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithWorkers sets how many goroutines prepare index entries in parallel.
// Non-positive values are ignored.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// New creates an Engine. By default it prepares indexes on GOMAXPROCS
// goroutines and logs to slog.Default().
func New(opts ...Option) *Engine {
	e := &Engine{
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// defaultEngine backs the package-level IsDuplicate.
var defaultEngine = New()

// IsDuplicate reports whether candidate already exists in collection,
// either byte-for-byte or visually.
func IsDuplicate(candidate model.ImageRecord, collection model.Collection) bool {
	return defaultEngine.IsDuplicate(candidate, collection)
}

// IsDuplicate reports whether candidate already exists in collection.
//
// Exact content hashes are checked against the whole collection first. Only
// when no hash matches are the images decoded and compared visually. Every
// record is considered before false is returned.
func (e *Engine) IsDuplicate(candidate model.ImageRecord, collection model.Collection) bool {
	for _, r := range collection {
		if r.ContentHash == candidate.ContentHash {
			return true
		}
	}
	if len(collection) == 0 {
		return false
	}

	ix, err := e.NewIndex(context.Background(), collection)
	if err != nil {
		return false
	}
	return ix.Contains(candidate)
}

// Similar reports whether two encoded images show the same coupon.
// Images that cannot be decoded, or whose shapes cannot be compared in
// either orientation, are not similar.
func (e *Engine) Similar(a, b []byte) bool {
	ga, err := decodeGray(a)
	if err != nil {
		e.logger.Debug("cannot decode image", "error", err)
		return false
	}
	gb, err := decodeGray(b)
	if err != nil {
		e.logger.Debug("cannot decode image", "error", err)
		return false
	}
	score, err := bestScore(ga, gb, Threshold)
	if err != nil {
		e.logger.Debug("images not comparable", "error", err)
		return false
	}
	return score >= Threshold
}

// Score returns the best correlation score between two encoded images over
// all sliding positions, trying b as the template first and a second.
// Unlike Similar it reports why a score could not be computed.
func (e *Engine) Score(a, b []byte) (float64, error) {
	ga, err := decodeGray(a)
	if err != nil {
		return 0, err
	}
	gb, err := decodeGray(b)
	if err != nil {
		return 0, err
	}
	return bestScore(ga, gb, math.Inf(1))
}
