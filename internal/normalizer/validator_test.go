package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ecpharm/internal/models"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	valid := models.CleanRecord{Pref: "東京都", Tel: "0312345678", URL: "https://example.jp"}
	assert.NoError(t, v.Validate([]models.CleanRecord{valid, {}}))

	tests := []struct {
		name    string
		record  models.CleanRecord
		wantErr error
	}{
		{"placeholder", models.CleanRecord{Notes: "NaN"}, ErrPlaceholderText},
		{"untrimmed", models.CleanRecord{Name: " さくら薬局"}, ErrUntrimmedText},
		{"formatted phone", models.CleanRecord{Tel: "03-1234-5678"}, ErrNonDigitPhone},
		{"relative url", models.CleanRecord{URL: "example.jp"}, ErrRelativeURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate([]models.CleanRecord{valid, tt.record})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
