// =============================================================================
// Sales Order Aggregator - Validation Engine
// =============================================================================
//
// This module decides which required fields are missing from a row and
// renders the diagnostic recorded for it.
//
// VALIDATION STRATEGY:
//   - Fields are checked in the order the caller lists them
//   - A field is missing when its extracted value is empty
//   - The result is an ordered list of display names; an empty list means
//     the row is valid
//
// ERROR HANDLING:
//   - Errors are collected, not thrown
//   - A row error never stops processing of subsequent rows
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
)

// =============================================================================
// REQUIRED FIELDS
// =============================================================================

// Field is one required value extracted from a row.
type Field struct {
	// Name is the human-readable name reported when the value is missing.
	Name string

	// Value is the extracted value. Empty means missing.
	Value string
}

// MissingFields returns the names of every field whose value is empty,
// preserving the order of fields.
func MissingFields(fields []Field) []string {
	missing := make([]string, 0, len(fields))
	for _, field := range fields {
		if field.Value == "" {
			missing = append(missing, field.Name)
		}
	}
	return missing
}

// =============================================================================
// ROW ERRORS
// =============================================================================

// RowError describes a row that failed required-field validation.
type RowError struct {
	// Line is the 1-based position of the row among the rows that passed
	// the date filter.
	Line int

	// Missing lists the display names of the missing fields, in check order.
	Missing []string

	// Reason overrides the default message body when set.
	Reason string
}

// Error implements the error interface. The text is the exact message stored
// in the aggregate's error list.
func (e *RowError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return MissingFieldsMessage(e.Line, e.Missing)
}

// MissingFieldsMessage formats the diagnostic for a row with missing fields.
// Names are joined with a bare comma.
//
// Example: "line 3: Missed fields in the input: Customer Name,Order ID"
func MissingFieldsMessage(line int, names []string) string {
	return fmt.Sprintf("line %d: Missed fields in the input: %s", line, strings.Join(names, ","))
}

// CheckRow runs MissingFields and wraps a non-empty result in a RowError.
// It returns nil for a valid row.
func CheckRow(line int, fields []Field) *RowError {
	missing := MissingFields(fields)
	if len(missing) == 0 {
		return nil
	}
	return &RowError{Line: line, Missing: missing}
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats row errors for display or logging.
func FormatErrors(errors []string) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s):\n\n", len(errors)))
	for i, msg := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, msg))
	}
	return builder.String()
}
