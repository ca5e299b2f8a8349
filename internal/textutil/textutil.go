// Package textutil holds the string normalization helpers shared by the
// ingestion pipeline: HTML stripping, lenient date parsing, and the
// deduplication key builder.
package textutil

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// StripHTML converts an HTML or HTML-encoded string to plain text. It first
// unescapes entities (handles Greenhouse's double-encoding; no-op on real
// HTML), strips all tags, then collapses whitespace. It never fails: on any
// input the result is a best-effort whitespace-collapsed string.
func StripHTML(content string) string {
	unescaped := html.UnescapeString(content)
	plain := htmlTagRegex.ReplaceAllString(unescaped, " ")
	return strings.Join(strings.Fields(plain), " ")
}

// dateLayouts are the formats the upstream sources are known to emit, tried
// in order.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseDate parses an upstream timestamp string. It accepts ISO-8601, a few
// source-specific layouts, and unix millisecond integers (Lever createdAt).
// It returns nil, never an error, on unparseable input so callers can fall
// back to "now".
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}

	// Unix milliseconds, e.g. "1714067716000".
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil && ms > 1_000_000_000_000 {
		t := time.UnixMilli(ms).UTC()
		return &t
	}

	return nil
}

// diacriticsFold decomposes to NFD, drops combining marks, and recomposes.
var diacriticsFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey builds a stable comparison key: lowercased, diacritics folded,
// punctuation stripped, whitespace collapsed. Deterministic and
// side-effect-free; used for dedup keys on company names and job titles.
func NormalizeKey(text string) string {
	folded, _, err := transform.String(diacriticsFold, text)
	if err != nil {
		folded = text
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
		// Punctuation and symbols are dropped.
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
