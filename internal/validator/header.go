// Package validator checks the source spreadsheet layout before it is normalized.
package validator

import (
	"fmt"
	"io"
	"strings"

	"ecpharm/internal/models"
)

// ValidationResult contains header validation results. Findings are never fatal.
type ValidationResult struct {
	Missing  []string
	Unknown  []string
	Warnings []string
	Stats    ValidationStats
	IsValid  bool
}

// ValidationStats contains validation statistics.
type ValidationStats struct {
	TotalColumns   int
	KnownColumns   int
	MissingColumns int
}

// HeaderValidator compares a header row against the columns the pipeline reads.
type HeaderValidator struct {
	expected []string
	known    map[string]bool
}

// NewHeaderValidator creates a validator for the published spreadsheet layout.
func NewHeaderValidator() *HeaderValidator {
	expected := append([]string{models.ColID}, models.TextColumns...)

	known := make(map[string]bool, len(expected)+4)
	for _, c := range expected {
		known[c] = true
	}

	for _, c := range []string{models.ColPharmacistsHeader, models.ColUnnamedIndex, models.ColUnnamedMale, models.ColUnnamedNoAnswer} {
		known[c] = true
	}

	return &HeaderValidator{expected: expected, known: known}
}

// Validate reports expected columns that are absent and columns nobody reads.
func (v *HeaderValidator) Validate(columns []string) *ValidationResult {
	result := &ValidationResult{}

	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true

		if v.known[c] {
			result.Stats.KnownColumns++
			continue
		}

		result.Unknown = append(result.Unknown, c)
	}

	for _, c := range v.expected {
		if !present[c] {
			result.Missing = append(result.Missing, c)
			result.Warnings = append(result.Warnings, fmt.Sprintf("column %q is missing; its fields will be empty", c))
		}
	}

	result.Stats.TotalColumns = len(columns)
	result.Stats.MissingColumns = len(result.Missing)
	result.IsValid = len(result.Missing) == 0

	return result
}

// String returns string representation of validation result.
func (r *ValidationResult) String() string {
	status := "✅ COMPLETE"
	if !r.IsValid {
		status = "⚠️  DEGRADED"
	}

	return fmt.Sprintf(
		"%s | Columns: %d | Known: %d | Missing: %d | Unknown: %d",
		status,
		r.Stats.TotalColumns,
		r.Stats.KnownColumns,
		r.Stats.MissingColumns,
		len(r.Unknown),
	)
}

// PrintWarnings writes validation warnings to w.
func (r *ValidationResult) PrintWarnings(w io.Writer) {
	if len(r.Warnings) == 0 {
		return
	}

	fmt.Fprintln(w, "⚠️  Header Warnings:")

	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  %s\n", warn)
	}

	if len(r.Unknown) > 0 {
		fmt.Fprintf(w, "  unread columns: %s\n", strings.Join(r.Unknown, ", "))
	}
}
