package crawler

import (
	"context"
	"fmt"
	"regexp"

	"ecpharm/internal/normalizer"
)

// PageInfo is what the source page says about the current spreadsheet.
type PageInfo struct {
	PageURL        string
	SpreadsheetURL string
	AsOf           string
	AsOfFound      bool
}

// Client fetches the source page and the spreadsheet it links.
type Client struct {
	scraper *Scraper
	pattern *regexp.Regexp
	clock   normalizer.Clock
}

// NewClientWithDeps creates a new crawler client with injected dependencies.
// A nil clock uses the wall clock for the as-of fallback.
func NewClientWithDeps(scraper *Scraper, pattern *regexp.Regexp, clock normalizer.Clock) *Client {
	return &Client{
		scraper: scraper,
		pattern: pattern,
		clock:   clock,
	}
}

// InspectPage fetches pageURL and extracts the spreadsheet URL and as-of date.
// A missing spreadsheet link is fatal; a missing date falls back to today.
func (c *Client) InspectPage(ctx context.Context, pageURL string) (*PageInfo, error) {
	html, err := c.scraper.FetchText(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	sheetURL, err := FindSpreadsheetURL(html, pageURL, c.pattern)
	if err != nil {
		return nil, err
	}

	asOf, found := normalizer.ExtractAsOfDate(html, c.clock)

	return &PageInfo{
		PageURL:        pageURL,
		SpreadsheetURL: sheetURL,
		AsOf:           asOf,
		AsOfFound:      found,
	}, nil
}

// DownloadSpreadsheet fetches the workbook bytes.
func (c *Client) DownloadSpreadsheet(ctx context.Context, sheetURL string) ([]byte, error) {
	data, err := c.scraper.FetchBytes(ctx, sheetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download spreadsheet: %w", err)
	}

	return data, nil
}

// ReadSpreadsheet loads a workbook from disk instead of the network.
func (c *Client) ReadSpreadsheet(path string) ([]byte, error) {
	return c.scraper.ReadLocalFile(path)
}
