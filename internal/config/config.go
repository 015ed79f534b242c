package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/couponcheck/internal/fetch"
	"github.com/nao1215/couponcheck/internal/model"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "couponcheck"

	// DefaultOutputDir is where unmatched coupons are saved, relative to the
	// working directory.
	DefaultOutputDir = "coupons"

	// DefaultTimeout bounds every HTTP request. Without it a hung image
	// download would stall the database phase indefinitely.
	DefaultTimeout = fetch.DefaultTimeout

	// DefaultWorkers is the number of concurrent downloads per source.
	DefaultWorkers = fetch.DefaultWorkers

	// DefaultMaxBodySize limits pages and images read from the network.
	DefaultMaxBodySize = fetch.DefaultMaxBodySize

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = fetch.DefaultUserAgent

	// DefaultDatabaseLabel names the database in reports.
	DefaultDatabaseLabel = "HFQPDB"

	// DefaultLiveLabel names the live site in reports.
	DefaultLiveLabel = "Harbor Freight"

	// DefaultSubmitURL is where missing coupons can be uploaded.
	DefaultSubmitURL = HFQPDBURL + "/mass_coupon_submit"
)

// Labels are the names used when rendering a report.
type Labels struct {
	// Database names the reference collection (e.g. "HFQPDB").
	Database string `yaml:"database,omitempty"`

	// Live names the collection under test (e.g. "Harbor Freight").
	Live string `yaml:"live,omitempty"`

	// SubmitURL is where missing coupons can be submitted.
	SubmitURL string `yaml:"submitURL,omitempty"`
}

// Config holds all options of a run. It is built once from defaults, the
// optional config file and CLI flags, then passed down explicitly.
type Config struct {
	// Sources are the pages scraped for coupon images.
	Sources []model.Source

	// OutputDir is deleted at the start of the run and receives one file per
	// unmatched coupon.
	OutputDir string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// Workers is the number of concurrent downloads per source.
	Workers int

	// MatchWorkers is the number of goroutines comparing live images with the
	// database. Defaults to GOMAXPROCS.
	MatchWorkers int

	// MaxBodySize is the largest page or image accepted, in bytes.
	MaxBodySize int64

	// UserAgent is sent with every request.
	UserAgent string

	// Proxy is an optional SOCKS5 proxy, "host:port" or "socks5://host:port".
	Proxy string

	// Headers are sent with every request.
	Headers map[string]string

	// Labels are used when rendering the report.
	Labels Labels

	// Verbose enables debug logging and the per-source table in the report.
	Verbose bool

	// JSONLog switches log output on stderr to JSON.
	JSONLog bool

	// JSONReport selects the JSON report. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects the Markdown report.
	MarkdownReport bool

	// ReportFile, when set, receives the report instead of stdout.
	ReportFile string

	// ConfigFilePath is an explicit config file. Empty means search.
	ConfigFilePath string

	// Progress shows progress bars on stderr when it is a terminal.
	Progress bool

	// Pause waits for ENTER before exiting.
	Pause bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Sources:      DefaultSources(),
		OutputDir:    DefaultOutputDir,
		Timeout:      DefaultTimeout,
		Workers:      DefaultWorkers,
		MatchWorkers: runtime.GOMAXPROCS(0),
		MaxBodySize:  DefaultMaxBodySize,
		UserAgent:    DefaultUserAgent,
		Headers:      make(map[string]string),
		Labels: Labels{
			Database:  DefaultDatabaseLabel,
			Live:      DefaultLiveLabel,
			SubmitURL: DefaultSubmitURL,
		},
	}
}

// XDGConfigDir returns the XDG config directory for couponcheck.
// On Linux: ~/.config/couponcheck
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if err := validateSources(c.Sources); err != nil {
		return err
	}
	if c.OutputDir == "" {
		return ErrEmptyOutputDir
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.MatchWorkers <= 0 {
		return ErrInvalidMatchWorkers
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

func validateSources(sources []model.Source) error {
	names := make(map[string]struct{}, len(sources))
	var hasDatabase, hasLive bool

	for i, s := range sources {
		switch {
		case s.Name == "":
			return fmt.Errorf("%w: source #%d has no name", ErrInvalidSource, i+1)
		case s.PageURL == "":
			return fmt.Errorf("%w: source %q has no page URL", ErrInvalidSource, s.Name)
		case s.Pattern == "":
			return fmt.Errorf("%w: source %q has no pattern", ErrInvalidSource, s.Name)
		case !s.Role.Valid():
			return fmt.Errorf("%w: source %q has unknown role %q", ErrInvalidSource, s.Name, s.Role)
		}
		if _, err := s.Compile(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSource, err)
		}
		if _, dup := names[s.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateSourceName, s.Name)
		}
		names[s.Name] = struct{}{}

		hasDatabase = hasDatabase || s.Role == model.RoleDatabase
		hasLive = hasLive || s.Role == model.RoleLive
	}

	if !hasDatabase {
		return ErrNoDatabaseSource
	}
	if !hasLive {
		return ErrNoLiveSource
	}
	return nil
}
