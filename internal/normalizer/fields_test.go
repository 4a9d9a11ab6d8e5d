package normalizer

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, ""},
		{"NaN float", math.NaN(), ""},
		{"nan text", "nan", ""},
		{"NaN text", "NaN", ""},
		{"padded nan", " nan ", ""},
		{"ideographic space", "　東京都 ", "東京都"},
		{"inner ideographic space", "月〜金　9:00", "月〜金 9:00"},
		{"integer", 12, "12"},
		{"plain", "さくら薬局", "さくら薬局"},
		{"blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.input))
		})
	}
}

func TestText_Idempotent(t *testing.T) {
	inputs := []any{nil, math.NaN(), "nan", " NAN　", "　　", " a　b ", "東京都", 3.5, true}

	for _, in := range inputs {
		once := Text(in)
		assert.Equal(t, once, Text(once), "input %#v", in)
	}
}

func TestPhone(t *testing.T) {
	digits := regexp.MustCompile(`^[0-9]*$`)

	tests := []struct {
		input any
		want  string
	}{
		{"03-1234-5678", "0312345678"},
		{"０３－１２３４－５６７８", "0312345678"},
		{"(03) 1234 5678", "0312345678"},
		{"０３ー１２３４ー５６７８（代表）", "0312345678"},
		{"nan", ""},
		{nil, ""},
		{"なし", ""},
	}

	for _, tt := range tests {
		got := Phone(tt.input)
		assert.Equal(t, tt.want, got, "input %#v", tt.input)
		assert.Regexp(t, digits, got)
		assert.Equal(t, got, Phone(got))
	}

	assert.Equal(t, Phone("0120-000-111"), Phone("０１２０－０００－１１１"))
}

func TestURL(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{"example.com/a", "https://example.com/a"},
		{"//example.com", "https://example.com"},
		{"http://x", "http://x"},
		{"HTTPS://Example.com", "HTTPS://Example.com"},
		{" www.example.jp ", "https://www.example.jp"},
		{"", ""},
		{nil, ""},
		{"nan", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, URL(tt.input), "input %#v", tt.input)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "2-8-1", Fold("２−８−１"))
	assert.Equal(t, "1-2-3-4-5-6-7-8", Fold("1－2ー3―4‐5ｰ6–7—8"))
	assert.Equal(t, "新宿区", Fold("新宿区"))
}
