package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/couponcheck/internal/fetch"
	"github.com/nao1215/couponcheck/internal/match"
	"github.com/nao1215/couponcheck/internal/model"
	"github.com/nao1215/couponcheck/internal/outdir"
)

// Extractor lists the image URLs of a source page.
type Extractor interface {
	Extract(ctx context.Context, src model.Source) ([]string, error)
}

// Downloader downloads the images of a source.
type Downloader interface {
	FetchAll(ctx context.Context, src model.Source, urls []string) (model.Collection, []string)
	Stream(ctx context.Context, src model.Source, urls []string) <-chan fetch.Result
}

// StepOption configures the options shared by DatabaseStep and LiveStep.
type StepOption func(*stepOptions)

type stepOptions struct {
	logger       *slog.Logger
	progress     Progress
	matchWorkers int
}

// WithStepLogger sets the logger used by a step.
func WithStepLogger(logger *slog.Logger) StepOption {
	return func(o *stepOptions) {
		o.logger = logger
	}
}

// WithProgress sets the progress receiver used by a step.
func WithProgress(p Progress) StepOption {
	return func(o *stepOptions) {
		if p != nil {
			o.progress = p
		}
	}
}

// WithMatchWorkers sets how many goroutines compare live images with the
// database. It only affects LiveStep.
func WithMatchWorkers(n int) StepOption {
	return func(o *stepOptions) {
		if n > 0 {
			o.matchWorkers = n
		}
	}
}

func newStepOptions(opts []StepOption) stepOptions {
	o := stepOptions{
		progress:     NopProgress{},
		matchWorkers: defaultMatchWorkers(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// ResetStep deletes the output directory so that every run starts clean.
type ResetStep struct {
	dir string
}

// NewResetStep creates a ResetStep for dir.
func NewResetStep(dir string) *ResetStep {
	return &ResetStep{dir: dir}
}

// Name returns the step name.
func (s *ResetStep) Name() string {
	return "reset"
}

// Do removes the directory. Failure aborts the run before any network
// activity.
func (s *ResetStep) Do(_ context.Context, run *Run) error {
	run.Report.OutputDir = outdir.Abs(s.dir)
	return outdir.Reset(s.dir)
}

// DatabaseStep downloads the reference collection and prepares it for
// matching.
type DatabaseStep struct {
	extractor Extractor
	fetcher   Downloader
	engine    *match.Engine
	sources   []model.Source
	opts      stepOptions
}

// NewDatabaseStep creates a DatabaseStep for the given database sources.
func NewDatabaseStep(extractor Extractor, fetcher Downloader, engine *match.Engine, sources []model.Source, opts ...StepOption) *DatabaseStep {
	return &DatabaseStep{
		extractor: extractor,
		fetcher:   fetcher,
		engine:    engine,
		sources:   sources,
		opts:      newStepOptions(opts),
	}
}

// Name returns the step name.
func (s *DatabaseStep) Name() string {
	return "database"
}

// Do scrapes every database source concurrently, downloads their images and
// builds run.Index. Unreachable pages and failed downloads are recorded in
// the report.
func (s *DatabaseStep) Do(ctx context.Context, run *Run) error {
	pages := scrapeAll(ctx, s.extractor, s.sources)

	total := 0
	for _, p := range pages {
		total += len(p.urls)
	}
	s.opts.progress.Start("database", total)

	type fetched struct {
		collection model.Collection
		failed     []string
	}
	results := make([]fetched, len(pages))

	var g errgroup.Group
	for i, p := range pages {
		if p.err != nil {
			continue
		}
		g.Go(func() error {
			coll, failed := s.fetcher.FetchAll(ctx, p.source, p.urls)
			results[i] = fetched{collection: coll, failed: failed}
			s.opts.progress.Add(len(p.urls))
			return nil
		})
	}
	_ = g.Wait()
	s.opts.progress.Finish()

	for i, p := range pages {
		stats := pageStats(run.Report, p, s.opts.logger)
		stats.Fetched = results[i].collection.Len()
		stats.Failed = len(results[i].failed)
		for _, u := range results[i].failed {
			run.Report.AddFailedURL(u)
		}
		run.Database = append(run.Database, results[i].collection...)
		run.Report.AddSource(stats)
	}
	run.Report.TotalDatabase = run.Database.Len()

	index, err := s.engine.NewIndex(ctx, run.Database)
	if err != nil {
		return err
	}
	run.Index = index

	s.opts.logger.Info("database ready", "images", run.Report.TotalDatabase)
	return nil
}

// LiveStep downloads the live site and matches every image against the
// database.
type LiveStep struct {
	extractor Extractor
	fetcher   Downloader
	engine    *match.Engine
	sources   []model.Source
	outputDir string
	opts      stepOptions
}

// NewLiveStep creates a LiveStep. Unmatched images are saved in outputDir.
func NewLiveStep(extractor Extractor, fetcher Downloader, engine *match.Engine, sources []model.Source, outputDir string, opts ...StepOption) *LiveStep {
	return &LiveStep{
		extractor: extractor,
		fetcher:   fetcher,
		engine:    engine,
		sources:   sources,
		outputDir: outputDir,
		opts:      newStepOptions(opts),
	}
}

// Name returns the step name.
func (s *LiveStep) Name() string {
	return "live"
}

// segment is the slice of the concatenated live URL list owned by one source.
type segment struct {
	source model.Source
	urls   []string
	offset int
	stats  int
}

// Do scrapes the live sources, concatenates their URL lists in source order
// and streams the downloads into the match workers. Every downloaded image
// is compared with the whole database; unmatched images are saved and
// recorded.
func (s *LiveStep) Do(ctx context.Context, run *Run) error {
	if run.Index == nil {
		index, err := s.engine.NewIndex(ctx, run.Database)
		if err != nil {
			return err
		}
		run.Index = index
	}

	pages := scrapeAll(ctx, s.extractor, s.sources)

	stats := make([]model.SourceStats, len(pages))
	segments := make([]segment, 0, len(pages))
	seen := make(map[string]struct{})
	total := 0

	for i, p := range pages {
		stats[i] = pageStats(run.Report, p, s.opts.logger)
		if p.err != nil {
			continue
		}
		urls := make([]string, 0, len(p.urls))
		for _, u := range p.urls {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
		segments = append(segments, segment{source: p.source, urls: urls, offset: total, stats: i})
		total += len(urls)
	}

	s.opts.progress.Start("live", total)
	jobs := s.feed(ctx, segments)

	pool := NewMatchPool(run.Index, s.outputDir,
		WithPoolWorkers(s.opts.matchWorkers),
		WithPoolLogger(s.opts.logger),
		WithPoolProgress(s.opts.progress),
	)
	outcomes := pool.Process(ctx, jobs)
	s.opts.progress.Finish()

	for _, o := range outcomes {
		st := &stats[segments[o.Segment].stats]
		if o.Failed {
			st.Failed++
			run.Report.AddFailedURL(o.URL)
			continue
		}
		st.Fetched++
		run.Report.TotalLive++
		if o.Unmatched {
			if !run.Report.AddUnmatched(o.Name) {
				s.opts.logger.Warn("missing coupons share a name, counted once",
					"name", o.Name,
					"url", o.URL,
				)
			}
			if o.SaveErr != nil {
				run.Report.AddSaveFailure(o.Name)
			}
		}
	}
	for _, st := range stats {
		run.Report.AddSource(st)
	}

	s.opts.logger.Info("live site checked",
		"images", run.Report.TotalLive,
		"missing", run.Report.Missing(),
	)
	return ctx.Err()
}

// feed starts one download stream per segment and fans the results into a
// single channel of match jobs, closed when every stream is drained.
func (s *LiveStep) feed(ctx context.Context, segments []segment) <-chan MatchJob {
	jobs := make(chan MatchJob, s.opts.matchWorkers)

	var wg sync.WaitGroup
	for k, seg := range segments {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range s.fetcher.Stream(ctx, seg.source, seg.urls) {
				jobs <- MatchJob{Index: seg.offset + r.Index, Segment: k, Result: r}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(jobs)
	}()

	return jobs
}

// scraped is the outcome of scraping one source page.
type scraped struct {
	source model.Source
	urls   []string
	err    error
}

// scrapeAll scrapes every source concurrently. Results keep source order.
func scrapeAll(ctx context.Context, extractor Extractor, sources []model.Source) []scraped {
	out := make([]scraped, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			urls, err := extractor.Extract(ctx, src)
			out[i] = scraped{source: src, urls: urls, err: err}
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// pageStats records a page failure in the report and returns the initial
// statistics for the source.
func pageStats(report *model.RunReport, p scraped, logger *slog.Logger) model.SourceStats {
	stats := model.SourceStats{
		Name:      p.source.Name,
		Role:      p.source.Role,
		PageURL:   p.source.PageURL,
		URLsFound: len(p.urls),
	}

	switch {
	case p.err != nil:
		stats.PageFailed = true
		report.AddFailedURL(p.source.PageURL)
		logger.Warn("cannot load source page",
			"source", p.source.Name,
			"url", p.source.PageURL,
			"error", p.err,
		)
	case len(p.urls) == 0:
		logger.Warn("no coupons found on source page",
			"source", p.source.Name,
			"url", p.source.PageURL,
		)
	}

	return stats
}
