package match

import (
	"cmp"
	"context"
	"image"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/couponcheck/internal/hash"
	"github.com/nao1215/couponcheck/internal/model"
)

// Method tells how a duplicate was found.
type Method string

const (
	// MethodNone means no duplicate was found.
	MethodNone Method = ""

	// MethodHash means the content hashes were equal.
	MethodHash Method = "hash"

	// MethodVisual means template matching reached Threshold.
	MethodVisual Method = "visual"
)

// Result describes the outcome of looking a candidate up in an Index.
type Result struct {
	// Duplicate is true when the candidate exists in the collection.
	Duplicate bool

	// Method is how the duplicate was found.
	Method Method

	// Against is the name of the collection record that matched.
	Against string

	// Score is the correlation score for visual matches.
	Score float64
}

// indexEntry is one collection record with its decoded form.
type indexEntry struct {
	record   model.ImageRecord
	gray     *image.Gray
	integral *integral
	phash    uint64
	hasPHash bool
}

// Index is a reference collection prepared for repeated lookups.
// Decoding, summed-area tables and perceptual hashing happen once when the
// index is built.
// After NewIndex returns the index is read-only and safe for concurrent use.
type Index struct {
	entries []indexEntry
	hashes  map[uint64]string
	logger  *slog.Logger
}

// NewIndex prepares collection for lookups. Records that cannot be decoded
// still take part in hash matching. The only error returned is ctx's.
func (e *Engine) NewIndex(ctx context.Context, collection model.Collection) (*Index, error) {
	ix := &Index{
		entries: make([]indexEntry, len(collection)),
		hashes:  make(map[uint64]string, len(collection)),
		logger:  e.logger,
	}

	for i, r := range collection {
		ix.entries[i].record = r
		if _, ok := ix.hashes[r.ContentHash]; !ok {
			ix.hashes[r.ContentHash] = r.Name
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range ix.entries {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry := &ix.entries[i]
			gray, err := decodeGray(entry.record.Raw)
			if err != nil {
				e.logger.Debug("reference image not decodable",
					"name", entry.record.Name,
					"error", err,
				)
				return nil
			}
			entry.gray = gray
			entry.integral = newIntegral(gray)
			if ph, err := hash.Perceptual(gray); err == nil {
				entry.phash = ph
				entry.hasPHash = true
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ix, nil
}

// Len returns the number of records in the index.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Contains reports whether candidate exists in the indexed collection.
func (ix *Index) Contains(candidate model.ImageRecord) bool {
	return ix.Lookup(candidate).Duplicate
}

// Lookup searches the index for candidate and describes the first match.
//
// Hashes are checked first. Visual comparison then walks the decodable
// entries in order of perceptual-hash distance to the candidate, so the most
// likely match is tried first. The order affects speed only: a candidate is
// reported unmatched only after every entry has been compared.
func (ix *Index) Lookup(candidate model.ImageRecord) Result {
	if name, ok := ix.hashes[candidate.ContentHash]; ok {
		return Result{Duplicate: true, Method: MethodHash, Against: name, Score: 1}
	}

	gray, err := decodeGray(candidate.Raw)
	if err != nil {
		ix.logger.Debug("candidate not decodable", "name", candidate.Name, "error", err)
		return Result{}
	}

	order := ix.visualOrder(gray)
	for _, i := range order {
		entry := &ix.entries[i]
		score, err := bestScoreWith(entry.gray, entry.integral, gray, Threshold)
		if err != nil {
			continue
		}
		if score >= Threshold {
			return Result{Duplicate: true, Method: MethodVisual, Against: entry.record.Name, Score: score}
		}
	}
	return Result{}
}

// visualOrder returns the indexes of decodable entries, nearest pHash first.
// Entries without a pHash follow in collection order.
func (ix *Index) visualOrder(candidate *image.Gray) []int {
	order := make([]int, 0, len(ix.entries))
	for i := range ix.entries {
		if ix.entries[i].gray != nil {
			order = append(order, i)
		}
	}

	ph, err := hash.Perceptual(candidate)
	if err != nil {
		return order
	}

	distance := func(i int) int {
		if !ix.entries[i].hasPHash {
			return 65
		}
		return hash.HammingDistance(ph, ix.entries[i].phash)
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(distance(a), distance(b))
	})
	return order
}
