package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"ecpharm/internal/models"
)

// Validation errors.
var (
	ErrPlaceholderText = errors.New("field holds a missing-value marker")
	ErrUntrimmedText   = errors.New("field has surrounding whitespace")
	ErrNonDigitPhone   = errors.New("phone field has non-digit characters")
	ErrRelativeURL     = errors.New("url field is not absolute")
)

// Validator checks the invariants every public record must hold.
type Validator struct {
	phoneKeys []string
}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{
		phoneKeys: []string{"tel", "afterHoursTel"},
	}
}

// Validate returns the first violation found. Violations mean a bug in the
// pipeline, since every field has already been normalized.
func (v *Validator) Validate(records []models.CleanRecord) error {
	for i, rec := range records {
		fields := rec.Strings()

		for _, f := range models.RecordFields {
			if f.Key == "id" {
				continue
			}

			key, val := f.Key, fields[f.Key]
			if strings.EqualFold(val, "nan") {
				return fmt.Errorf("%w: record %d %s", ErrPlaceholderText, i, key)
			}

			if val != strings.TrimSpace(val) {
				return fmt.Errorf("%w: record %d %s", ErrUntrimmedText, i, key)
			}
		}

		for _, key := range v.phoneKeys {
			if strings.Trim(fields[key], "0123456789") != "" {
				return fmt.Errorf("%w: record %d %s", ErrNonDigitPhone, i, key)
			}
		}

		if u := rec.URL; u != "" {
			lower := strings.ToLower(u)
			if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
				return fmt.Errorf("%w: record %d", ErrRelativeURL, i)
			}
		}
	}

	return nil
}
