package model

import (
	"fmt"
	"regexp"
)

// Source describes one web page that lists coupon images.
type Source struct {
	// Name identifies the source in logs and reports (e.g. "hf-coupons").
	Name string `yaml:"name" json:"name"`

	// Role is the side of the run this source feeds.
	Role Role `yaml:"role" json:"role"`

	// PageURL is the page the image URLs are scraped from.
	PageURL string `yaml:"pageURL" json:"page_url"`

	// Pattern is the regular expression matching image URLs on the page.
	// The whole match is used, not a capture group.
	Pattern string `yaml:"pattern" json:"pattern"`

	// Replace, when set, is substituted by ReplaceWith in every match.
	// HFQPDB lists thumbnails; rewriting the thumbnail prefix yields the
	// full-size image URL.
	Replace string `yaml:"replace,omitempty" json:"replace,omitempty"`

	// ReplaceWith is the replacement for Replace.
	ReplaceWith string `yaml:"replaceWith,omitempty" json:"replace_with,omitempty"`

	// Cookie is sent with every request for this source.
	Cookie string `yaml:"cookie,omitempty" json:"-"`

	// Headers are extra HTTP headers sent with every request for this source.
	Headers map[string]string `yaml:"headers,omitempty" json:"-"`
}

// Compile compiles Pattern.
func (s Source) Compile() (*regexp.Regexp, error) {
	re, err := regexp.Compile(s.Pattern)
	if err != nil {
		return nil, fmt.Errorf("source %q: invalid pattern: %w", s.Name, err)
	}
	return re, nil
}
