package crawler

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrSpreadsheetNotFound means the page links no spreadsheet matching the pattern.
var ErrSpreadsheetNotFound = errors.New("spreadsheet URL not found in page")

// FindSpreadsheetURL returns the first spreadsheet link on the page. Anchors are
// checked first, with relative hrefs resolved against pageURL; the raw HTML is
// searched as a fallback.
func FindSpreadsheetURL(html, pageURL string, pattern *regexp.Regexp) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}

	var found string

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")

		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}

		found = pattern.FindString(base.ResolveReference(ref).String())

		return found == ""
	})

	if found != "" {
		return found, nil
	}

	if m := pattern.FindString(html); m != "" {
		return m, nil
	}

	return "", ErrSpreadsheetNotFound
}
