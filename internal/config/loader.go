package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/couponcheck/internal/model"
)

const (
	// DefaultConfigFile is the config file name searched in the current and
	// home directories.
	DefaultConfigFile = ".couponcheck"

	// XDGConfigFile is the config file name inside XDGConfigDir.
	XDGConfigFile = "config.yaml"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the structure of the YAML configuration file. Zero values leave
// the corresponding default untouched.
type File struct {
	// Sources replaces the built-in sources when not empty.
	Sources []model.Source `yaml:"sources,omitempty"`

	OutputDir    string            `yaml:"outputDir,omitempty"`
	Timeout      time.Duration     `yaml:"timeout,omitempty"`
	Workers      int               `yaml:"workers,omitempty"`
	MatchWorkers int               `yaml:"matchWorkers,omitempty"`
	MaxBodySize  int64             `yaml:"maxBodySize,omitempty"`
	UserAgent    string            `yaml:"userAgent,omitempty"`
	Proxy        string            `yaml:"proxy,omitempty"`
	Headers      map[string]string `yaml:"headers,omitempty"`
	Labels       Labels            `yaml:"labels,omitempty"`
}

// LoadConfigFile reads a YAML configuration file.
// A missing file returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &f, nil
}

// FindConfigFile searches for the configuration file in this order:
//  1. configPath, when specified
//  2. .couponcheck in the current directory
//  3. config.yaml in XDGConfigDir
//  4. .couponcheck in the home directory
//
// It returns an empty string when no file exists.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), XDGConfigFile))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Apply overlays the values set in f onto c.
func (c *Config) Apply(f *File) {
	if f == nil {
		return
	}
	if len(f.Sources) > 0 {
		c.Sources = append([]model.Source(nil), f.Sources...)
	}
	if f.OutputDir != "" {
		c.OutputDir = f.OutputDir
	}
	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	if f.Workers != 0 {
		c.Workers = f.Workers
	}
	if f.MatchWorkers != 0 {
		c.MatchWorkers = f.MatchWorkers
	}
	if f.MaxBodySize != 0 {
		c.MaxBodySize = f.MaxBodySize
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Proxy != "" {
		c.Proxy = f.Proxy
	}
	if len(f.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(f.Headers))
		}
		for k, v := range f.Headers {
			c.Headers[k] = v
		}
	}
	if f.Labels.Database != "" {
		c.Labels.Database = f.Labels.Database
	}
	if f.Labels.Live != "" {
		c.Labels.Live = f.Labels.Live
	}
	if f.Labels.SubmitURL != "" {
		c.Labels.SubmitURL = f.Labels.SubmitURL
	}
}
