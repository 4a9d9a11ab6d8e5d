package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"ecpharm/internal/config"
)

var defaultPattern = regexp.MustCompile(config.DefaultSpreadsheetPattern)

func testScraper(maxBodyMb int) *Scraper {
	return NewScraperWithConfig(config.FetchConfig{TimeoutSec: 5, MinIntervalMs: 0, MaxBodyMb: maxBodyMb}, "")
}

func TestFindSpreadsheetURL(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		pageURL string
		want    string
		wantErr error
	}{
		{
			name:    "absolute anchor",
			html:    `<a href="https://www.mhlw.go.jp/content/11120000/001643057.xlsx">一覧</a>`,
			pageURL: "https://www.mhlw.go.jp/stf/kinnkyuuhininnyaku_00005.html",
			want:    "https://www.mhlw.go.jp/content/11120000/001643057.xlsx",
		},
		{
			name:    "relative anchor",
			html:    `<p><a href="/content/001.pdf">pdf</a><a href="/content/11120000/001643057.xlsx">xlsx</a></p>`,
			pageURL: "https://www.mhlw.go.jp/stf/kinnkyuuhininnyaku_00005.html",
			want:    "https://www.mhlw.go.jp/content/11120000/001643057.xlsx",
		},
		{
			name:    "first match wins",
			html:    `<a href="/content/a.xlsx">a</a><a href="/content/b.xlsx">b</a>`,
			pageURL: "https://example.go.jp/page.html",
			want:    "https://example.go.jp/content/a.xlsx",
		},
		{
			name:    "raw text fallback",
			html:    `<script>var f = "https://www.mhlw.go.jp/content/11120000/001643057.xlsx";</script>`,
			pageURL: "https://www.mhlw.go.jp/stf/page.html",
			want:    "https://www.mhlw.go.jp/content/11120000/001643057.xlsx",
		},
		{
			name:    "not found",
			html:    `<a href="/content/list.pdf">pdf</a>`,
			pageURL: "https://www.mhlw.go.jp/stf/page.html",
			wantErr: ErrSpreadsheetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindSpreadsheetURL(tt.html, tt.pageURL, defaultPattern)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScraper_FetchText_Headers(t *testing.T) {
	var gotUA, gotAccept string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>令和8年1月27日時点</p>"))
	}))
	defer server.Close()

	text, err := testScraper(1).FetchText(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "令和8年1月27日")
	assert.True(t, strings.HasPrefix(gotUA, "Mozilla/5.0"))
	assert.Contains(t, gotAccept, "text/html")
}

func TestScraper_FetchText_ShiftJIS(t *testing.T) {
	encoded, err := japanese.ShiftJIS.NewEncoder().String("<p>令和８年１月２７日 時点</p>")
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=Shift_JIS")
		_, _ = w.Write([]byte(encoded))
	}))
	defer server.Close()

	text, err := testScraper(1).FetchText(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Contains(t, text, "令和８年１月２７日")
}

func TestDecodeHTML_InvalidBytes(t *testing.T) {
	text, err := DecodeHTML([]byte("ok\xff\xfeok"), "text/html; charset=utf-8")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(text, "ok"))
	assert.True(t, strings.HasSuffix(text, "ok"))
	assert.NotContains(t, text, "\xff")
}

func TestScraper_UnexpectedStatus(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testScraper(1).FetchBytes(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrUnexpectedStatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "requests are not retried")
}

func TestScraper_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 1024*1024+10))
	}))
	defer server.Close()

	_, err := testScraper(1).FetchBytes(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestScraper_Pacing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	s := NewScraperWithConfig(config.FetchConfig{TimeoutSec: 5, MinIntervalMs: 150, MaxBodyMb: 1}, "")

	start := time.Now()
	for i := 0; i < 2; i++ {
		_, err := s.FetchBytes(context.Background(), server.URL)
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestScraper_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testScraper(1).FetchBytes(ctx, "http://127.0.0.1:1/")
	assert.Error(t, err)
}

func TestClient_InspectPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/stf/page.html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><p>令和８年１月27日（火）時点</p><a href="/content/11120000/list.xlsx">一覧</a></body></html>`))
	})
	mux.HandleFunc("/content/11120000/list.xlsx", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("PK\x03\x04"))
	})
	mux.HandleFunc("/stf/empty.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<p>準備中</p>`))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	pattern := regexp.MustCompile(`http://[^/"'\s<>]+/content/[^"'\s<>]+\.xlsx`)
	clock := func() time.Time { return time.Date(2030, 1, 2, 0, 0, 0, 0, time.Local) }
	client := NewClientWithDeps(testScraper(1), pattern, clock)

	info, err := client.InspectPage(context.Background(), server.URL+"/stf/page.html")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/content/11120000/list.xlsx", info.SpreadsheetURL)
	assert.Equal(t, "2026-01-27", info.AsOf)
	assert.True(t, info.AsOfFound)

	data, err := client.DownloadSpreadsheet(context.Background(), info.SpreadsheetURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), data)

	_, err = client.InspectPage(context.Background(), server.URL+"/stf/empty.html")
	assert.True(t, errors.Is(err, ErrSpreadsheetNotFound))

	_, err = client.InspectPage(context.Background(), server.URL+"/missing.html")
	assert.ErrorIs(t, err, ErrUnexpectedStatusCode)
}
