package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoDatabaseSource is returned when no source has the database role.
	ErrNoDatabaseSource = errors.New("no database source configured")

	// ErrNoLiveSource is returned when no source has the live role.
	ErrNoLiveSource = errors.New("no live source configured")

	// ErrInvalidSource is returned for a source with a missing name, page URL
	// or pattern, an unknown role, or a pattern that does not compile.
	ErrInvalidSource = errors.New("invalid source")

	// ErrDuplicateSourceName is returned when two sources share a name.
	ErrDuplicateSourceName = errors.New("duplicate source name")

	// ErrEmptyOutputDir is returned when the output directory is empty.
	ErrEmptyOutputDir = errors.New("output directory must not be empty")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the download worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidMatchWorkers is returned when the match worker count is not positive.
	ErrInvalidMatchWorkers = errors.New("invalid match workers: must be positive")

	// ErrInvalidMaxBodySize is returned when the body size limit is not positive.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
