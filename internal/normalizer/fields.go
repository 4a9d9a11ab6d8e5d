// Package normalizer turns raw spreadsheet rows into clean pharmacy records.
package normalizer

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"ecpharm/internal/sheet"
)

// foldWidth maps full-width digits to ASCII and hyphen look-alikes to '-'.
// The long vowel mark ー is folded too.
var foldWidth = runes.Map(func(r rune) rune {
	switch {
	case r >= '０' && r <= '９':
		return '0' + (r - '０')
	case strings.ContainsRune("－ー―−‐ｰ–—", r):
		return '-'
	default:
		return r
	}
})

// Fold applies the digit and hyphen folding table to s.
func Fold(s string) string {
	out, _, err := transform.String(foldWidth, s)
	if err != nil {
		return s
	}

	return out
}

// Text returns v as a trimmed string. Missing values and "nan" become "".
// U+3000 is treated as an ordinary space.
func Text(v any) string {
	if v == nil {
		return ""
	}

	s := strings.ReplaceAll(sheet.FormatCell(v), "\u3000", " ")
	s = strings.TrimSpace(s)

	if strings.EqualFold(s, "nan") {
		return ""
	}

	return s
}

// Phone returns the ASCII digits of v. Full-width digits count as digits.
func Phone(v any) string {
	s := Fold(Text(v))

	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// URL makes v an absolute URL. Values with an http or https scheme are kept as is,
// protocol-relative values get https: and anything else gets https://.
func URL(v any) string {
	s := Text(v)
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return s
	case strings.HasPrefix(s, "//"):
		return "https:" + s
	default:
		return "https://" + s
	}
}
