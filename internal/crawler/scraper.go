package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"ecpharm/internal/config"
	"ecpharm/pkg/utils"
)

// Scraper errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrBodyTooLarge         = errors.New("response body exceeds limit")
)

// Accept headers for the two kinds of resources.
const (
	acceptHTML  = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	acceptSheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet,application/octet-stream;q=0.9,*/*;q=0.8"
)

// Response is a fetched resource with request metrics.
type Response struct {
	Body        []byte
	ContentType string
	StatusCode  int
	Duration    time.Duration
}

// Scraper performs paced GET requests. Failed requests are not retried.
type Scraper struct {
	client  *http.Client
	headers *utils.HTTPHelper
	limiter *rate.Limiter
	maxBody int64
}

// NewScraperWithConfig creates a scraper from fetch settings. An empty
// userAgent uses a browser-like default.
func NewScraperWithConfig(fetch config.FetchConfig, userAgent string) *Scraper {
	return &Scraper{
		client: &http.Client{
			Timeout: fetch.GetTimeout(),
		},
		headers: utils.NewHTTPHelper(userAgent),
		limiter: rate.NewLimiter(rate.Every(fetch.GetMinInterval()), 1),
		maxBody: fetch.GetMaxBodyBytes(),
	}
}

// FetchWithMetrics GETs url and returns the whole body.
func (s *Scraper) FetchWithMetrics(ctx context.Context, url, accept string) (*Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	startTime := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = s.headers.BuildHeaders(map[string]string{"Accept": accept})

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if int64(len(body)) > s.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, s.maxBody)
	}

	return &Response{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Duration:    time.Since(startTime),
	}, nil
}

// FetchText GETs an HTML page and decodes it to UTF-8 using the declared or
// sniffed charset. Invalid byte sequences are replaced.
func (s *Scraper) FetchText(ctx context.Context, url string) (string, error) {
	resp, err := s.FetchWithMetrics(ctx, url, acceptHTML)
	if err != nil {
		return "", err
	}

	return DecodeHTML(resp.Body, resp.ContentType)
}

// FetchBytes GETs a binary resource.
func (s *Scraper) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := s.FetchWithMetrics(ctx, url, acceptSheet)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// DecodeHTML converts an HTML document to UTF-8.
func DecodeHTML(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", fmt.Errorf("failed to detect charset: %w", err)
	}

	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode page: %w", err)
	}

	return strings.ToValidUTF8(string(text), "\uFFFD"), nil
}

// ReadLocalFile reads content from a local file path.
func (s *Scraper) ReadLocalFile(filePath string) ([]byte, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read local file %s: %w", filePath, err)
	}

	return content, nil
}
