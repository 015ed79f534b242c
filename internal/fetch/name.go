package fetch

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NameFromURL returns the display name of an image URL: its final path
// segment, percent-decoded and NFC-normalized. Query and fragment are
// ignored. A URL without a usable segment falls back to its host.
func NameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fallbackName(rawURL)
	}

	name := path.Base(u.Path)
	if name == "/" || name == "." || name == "" {
		name = u.Host
	}
	if name == "" {
		return fallbackName(rawURL)
	}
	return norm.NFC.String(name)
}

// fallbackName is used for strings url.Parse rejects.
func fallbackName(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimRight(raw, "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}
	return norm.NFC.String(raw)
}
