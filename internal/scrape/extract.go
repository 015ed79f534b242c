package scrape

import (
	"bytes"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// ExtractURLs returns the absolute URLs matched by pattern in body.
//
// The page is tokenized as HTML so that entity-encoded attribute values and
// text are searched in decoded form; script bodies and comments are searched
// as they are. JavaScript escapes are resolved before matching. Each match has
// replace substituted by replaceWith (when replace is not empty) and is then
// resolved against base. Only http and https URLs are kept. The result is in
// page order without duplicates.
func ExtractURLs(base string, body []byte, pattern *regexp.Regexp, replace, replaceWith string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		baseURL = &url.URL{}
	}

	seen := make(map[string]struct{})
	urls := make([]string, 0)

	add := func(match string) {
		if replace != "" {
			match = strings.ReplaceAll(match, replace, replaceWith)
		}
		ref, err := url.Parse(strings.TrimSpace(match))
		if err != nil {
			return
		}
		abs := baseURL.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		s := abs.String()
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		urls = append(urls, s)
	}

	for _, chunk := range textChunks(body) {
		for _, m := range pattern.FindAllString(UnescapeJS(chunk), -1) {
			add(m)
		}
	}

	return urls
}

// textChunks splits an HTML document into the strings a URL can appear in:
// text, script and comment content, and attribute values, in document order.
func textChunks(body []byte) []string {
	chunks := make([]string, 0)
	z := html.NewTokenizer(bytes.NewReader(body))

	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a read error; either way the document is done.
			return chunks
		case html.TextToken, html.CommentToken:
			if text := z.Text(); len(text) > 0 {
				chunks = append(chunks, string(text))
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			_, hasAttr := z.TagName()
			for hasAttr {
				var val []byte
				_, val, hasAttr = z.TagAttr()
				if len(val) > 0 {
					chunks = append(chunks, string(val))
				}
			}
		}
	}
}

// UnescapeJS resolves the escapes JSON and JavaScript string literals use for
// URLs: "\/" and "\uXXXX" (including surrogate pairs). Other backslashes are
// left as they are.
func UnescapeJS(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}

		switch s[i+1] {
		case '/':
			b.WriteByte('/')
			i++
		case 'u':
			r, n := decodeUnicodeEscape(s[i:])
			if n == 0 {
				b.WriteByte(c)
				continue
			}
			b.WriteRune(r)
			i += n - 1
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// decodeUnicodeEscape decodes "\uXXXX", or a "\uD8XX\uDCXX" surrogate pair, at
// the start of s. It returns the rune and the number of bytes consumed, or
// zero bytes when s does not start with a valid escape.
func decodeUnicodeEscape(s string) (rune, int) {
	hi, ok := parseHex4(s)
	if !ok {
		return 0, 0
	}
	if hi >= 0xD800 && hi < 0xDC00 {
		if lo, ok := parseHex4(s[6:]); ok && lo >= 0xDC00 && lo < 0xE000 {
			return (hi-0xD800)<<10 + (lo - 0xDC00) + 0x10000, 12
		}
		return utf8.RuneError, 6
	}
	return hi, 6
}

// parseHex4 parses "\uXXXX" at the start of s.
func parseHex4(s string) (rune, bool) {
	if len(s) < 6 || s[0] != '\\' || s[1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(s[2:6], 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
