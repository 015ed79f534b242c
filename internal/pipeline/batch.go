package pipeline

import (
	"cmp"
	"context"
	"log/slog"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/couponcheck/internal/fetch"
	"github.com/nao1215/couponcheck/internal/match"
	"github.com/nao1215/couponcheck/internal/outdir"
)

// MatchJob is one downloaded (or failed) live image waiting to be matched.
type MatchJob struct {
	// Index is the position of the URL in the concatenated live list.
	Index int

	// Segment identifies the source the URL came from.
	Segment int

	// Result is the download outcome.
	Result fetch.Result
}

// MatchOutcome is what a match worker decided about one job.
type MatchOutcome struct {
	Index   int
	Segment int
	URL     string
	Name    string

	// Failed is true when the download failed; nothing was matched.
	Failed bool

	// Unmatched is true when the image is missing from the database.
	Unmatched bool

	// Path is where an unmatched image was saved.
	Path string

	// SaveErr is set when an unmatched image could not be saved.
	SaveErr error

	// Match describes how a found image matched.
	Match match.Result
}

// MatchPool compares live images with the database index on a fixed number
// of goroutines. Workers share no mutable state: each collects its own
// outcomes, which are merged once every worker is done.
type MatchPool struct {
	index     *match.Index
	outputDir string
	workers   int
	logger    *slog.Logger
	progress  Progress
}

// PoolOption configures a MatchPool.
type PoolOption func(*MatchPool)

// WithPoolWorkers sets the number of match goroutines.
func WithPoolWorkers(n int) PoolOption {
	return func(p *MatchPool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithPoolLogger sets the logger.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *MatchPool) {
		p.logger = logger
	}
}

// WithPoolProgress sets the progress receiver, advanced once per job.
func WithPoolProgress(progress Progress) PoolOption {
	return func(p *MatchPool) {
		if progress != nil {
			p.progress = progress
		}
	}
}

func defaultMatchWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// NewMatchPool creates a pool matching against index and saving unmatched
// images in outputDir.
func NewMatchPool(index *match.Index, outputDir string, opts ...PoolOption) *MatchPool {
	p := &MatchPool{
		index:     index,
		outputDir: outputDir,
		workers:   defaultMatchWorkers(),
		progress:  NopProgress{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Process consumes jobs until the channel is closed and returns one outcome
// per job, ordered by MatchJob.Index. Once ctx is cancelled the remaining
// jobs are drained without being matched and produce no outcome.
func (p *MatchPool) Process(ctx context.Context, jobs <-chan MatchJob) []MatchOutcome {
	perWorker := make([][]MatchOutcome, p.workers)

	var g errgroup.Group
	for w := range p.workers {
		g.Go(func() error {
			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}
				perWorker[w] = append(perWorker[w], p.matchOne(job))
				p.progress.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	outcomes := slices.Concat(perWorker...)
	slices.SortFunc(outcomes, func(a, b MatchOutcome) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return outcomes
}

func (p *MatchPool) matchOne(job MatchJob) MatchOutcome {
	r := job.Result
	out := MatchOutcome{
		Index:   job.Index,
		Segment: job.Segment,
		URL:     r.URL,
		Name:    r.Record.Name,
	}

	if r.Err != nil {
		out.Failed = true
		return out
	}

	out.Match = p.index.Lookup(r.Record)
	if out.Match.Duplicate {
		p.logger.Debug("coupon found in database",
			"name", r.Record.Name,
			"method", out.Match.Method,
			"against", out.Match.Against,
			"score", out.Match.Score,
		)
		return out
	}

	out.Unmatched = true
	path, err := outdir.Save(p.outputDir, r.Record.Name, r.Record.Raw)
	if err != nil {
		out.SaveErr = err
		p.logger.Error("cannot save coupon", "name", r.Record.Name, "error", err)
		return out
	}
	out.Path = path
	p.logger.Info("coupon missing from database", "name", r.Record.Name, "url", r.URL)
	return out
}
