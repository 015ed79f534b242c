package model

import (
	"time"
)

// SourceStats summarizes what happened to one configured source during a run.
type SourceStats struct {
	// Name is the configured source name.
	Name string `json:"name"`

	// Role is the side of the run the source feeds.
	Role Role `json:"role"`

	// PageURL is the page the image URLs were extracted from.
	PageURL string `json:"page_url"`

	// PageFailed is true when the page itself could not be loaded.
	PageFailed bool `json:"page_failed"`

	// URLsFound is the number of image URLs extracted from the page.
	URLsFound int `json:"urls_found"`

	// Fetched is the number of images downloaded successfully.
	Fetched int `json:"fetched"`

	// Failed is the number of image downloads that failed.
	Failed int `json:"failed"`
}

// RunReport aggregates the outcome of one reconciliation run.
//
// FailedURLs and Unmatched behave as sets: adding a value twice keeps the
// first position. The report is filled by a single goroutine (the driver
// merges worker outcomes) and is not safe for concurrent use.
type RunReport struct {
	// FailedURLs lists page and image URLs that could not be downloaded.
	FailedURLs []string `json:"failed_urls"`

	// Unmatched lists display names of live coupons not found in the database.
	Unmatched []string `json:"unmatched"`

	// SaveFailures lists unmatched names whose bytes could not be written
	// to the output directory.
	SaveFailures []string `json:"save_failures,omitempty"`

	// TotalLive is the number of live images downloaded successfully.
	// Failed live downloads are not counted.
	TotalLive int `json:"total_live"`

	// TotalDatabase is the size of the database collection.
	TotalDatabase int `json:"total_database"`

	// Sources holds per-source statistics in configuration order.
	Sources []SourceStats `json:"sources"`

	// OutputDir is the absolute path of the directory unmatched images were
	// written to.
	OutputDir string `json:"output_dir"`

	// DatabaseLabel names the database in rendered output (e.g. "HFQPDB").
	DatabaseLabel string `json:"database_label"`

	// LiveLabel names the live site in rendered output (e.g. "Harbor Freight").
	LiveLabel string `json:"live_label"`

	// SubmitURL is where missing coupons can be submitted.
	SubmitURL string `json:"submit_url,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`

	failedSet    map[string]struct{}
	unmatchedSet map[string]struct{}
}

// NewRunReport creates an empty report stamped with the current time.
func NewRunReport() *RunReport {
	return &RunReport{
		FailedURLs:   make([]string, 0),
		Unmatched:    make([]string, 0),
		Sources:      make([]SourceStats, 0),
		StartedAt:    time.Now(),
		failedSet:    make(map[string]struct{}),
		unmatchedSet: make(map[string]struct{}),
	}
}

// AddFailedURL records a URL that could not be downloaded.
func (r *RunReport) AddFailedURL(u string) {
	if r.failedSet == nil {
		r.failedSet = make(map[string]struct{})
	}
	if _, ok := r.failedSet[u]; ok {
		return
	}
	r.failedSet[u] = struct{}{}
	r.FailedURLs = append(r.FailedURLs, u)
}

// AddUnmatched records a live coupon that is missing from the database.
// It returns false when name was already recorded.
func (r *RunReport) AddUnmatched(name string) bool {
	if r.unmatchedSet == nil {
		r.unmatchedSet = make(map[string]struct{})
	}
	if _, ok := r.unmatchedSet[name]; ok {
		return false
	}
	r.unmatchedSet[name] = struct{}{}
	r.Unmatched = append(r.Unmatched, name)
	return true
}

// AddSaveFailure records an unmatched image that could not be written.
func (r *RunReport) AddSaveFailure(name string) {
	r.SaveFailures = append(r.SaveFailures, name)
}

// AddSource appends statistics for a source.
func (r *RunReport) AddSource(s SourceStats) {
	r.Sources = append(r.Sources, s)
}

// Found returns the number of live coupons that exist in the database.
func (r *RunReport) Found() int {
	return r.TotalLive - len(r.Unmatched)
}

// Missing returns the number of live coupons absent from the database.
func (r *RunReport) Missing() int {
	return len(r.Unmatched)
}

// UpToDate reports whether every live coupon was found in the database.
func (r *RunReport) UpToDate() bool {
	return len(r.Unmatched) == 0
}

// FoundRatio returns Found()/TotalLive, or 1 when there were no live coupons.
func (r *RunReport) FoundRatio() float64 {
	if r.TotalLive == 0 {
		return 1
	}
	return float64(r.Found()) / float64(r.TotalLive)
}

// Finish stamps the run duration.
func (r *RunReport) Finish() {
	r.Duration = time.Since(r.StartedAt)
}
