package utils

import "testing"

func TestHTTPHelper_BuildHeaders(t *testing.T) {
	h := NewHTTPHelper("")

	headers := h.BuildHeaders(map[string]string{"Accept": "application/octet-stream"})

	if got := headers.Get("User-Agent"); got != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want default", got)
	}

	if got := headers.Get("Accept"); got != "application/octet-stream" {
		t.Errorf("Accept = %q, want override", got)
	}

	custom := NewHTTPHelper("Mozilla/5.0")
	if got := custom.BuildHeaders(nil).Get("User-Agent"); got != "Mozilla/5.0" {
		t.Errorf("User-Agent = %q, want Mozilla/5.0", got)
	}
}

func TestHTTPHelper_IsValidURL(t *testing.T) {
	h := NewHTTPHelper("")

	tests := map[string]bool{
		"https://www.mhlw.go.jp/content/11120000/001643057.xlsx": true,
		"http://example.com":                                      true,
		"/content/a.xlsx":                                         false,
		"ftp://example.com/a":                                     false,
		"":                                                        false,
	}

	for raw, want := range tests {
		if got := h.IsValidURL(raw); got != want {
			t.Errorf("IsValidURL(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestStringHelper(t *testing.T) {
	s := NewStringHelper()

	if got := s.TruncateString("東京都新宿区", 3); got != "東京都..." {
		t.Errorf("TruncateString() = %q", got)
	}

	if got := s.TruncateString("abc", 3); got != "abc" {
		t.Errorf("TruncateString() = %q", got)
	}
}
