// =============================================================================
// Sales Order Aggregator - TSV Parser Module
// =============================================================================
//
// This module turns the raw tab-separated export into a header and a list of
// positional rows. It is deliberately forgiving:
//   - Empty input yields an empty table (no header, no rows)
//   - A missing trailing row is not an error
//   - Rows shorter or longer than the header are kept as-is
//
// FIELD ACCESS:
//   Fields are looked up by column name through the header. An unknown column
//   or a short row resolves to the empty string, which the validation layer
//   treats as "missing".
//
// =============================================================================

package tsvparser

import (
	"fmt"
	"os"
	"strings"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// RowSeparator splits the input into rows.
	RowSeparator = "\n"

	// ColumnSeparator splits a row into fields.
	ColumnSeparator = "\t"
)

// =============================================================================
// TABLE STRUCTURE
// =============================================================================

// Row is one data record, positionally aligned with the table header.
type Row []string

// Table represents a parsed tab-separated document.
type Table struct {
	// Header contains the column names from the first row.
	// It is the only vocabulary Field accepts.
	Header []string

	// Rows contains every row after the header, in input order.
	// Blank lines are kept so that callers see the input exactly as split.
	Rows []Row

	// SourceFile is the path the table was read from, if any.
	SourceFile string

	// index maps a column name to its first position in Header.
	index map[string]int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse splits raw text into a Table.
//
// PARSING PROCESS:
//   1. Split the text on line breaks
//   2. Split the first line on tabs to obtain the header
//   3. Split every remaining line on tabs to obtain the rows
//
// Parse never fails. Callers that need to reject a headerless input should
// check HasHeader.
func Parse(text string) *Table {
	table := &Table{}

	if text == "" {
		table.buildIndex()
		return table
	}

	lines := strings.Split(text, RowSeparator)

	table.Header = splitLine(lines[0])
	table.Rows = make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		table.Rows = append(table.Rows, Row(splitLine(line)))
	}

	table.buildIndex()
	return table
}

// ParseFile reads a TSV file from disk and parses it.
func ParseFile(filePath string) (*Table, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	table := Parse(string(data))
	table.SourceFile = filePath
	return table, nil
}

// FromRecords builds a Table from rows that were already split into fields,
// e.g. by the xlsx reader. The first record is the header.
func FromRecords(records [][]string) *Table {
	table := &Table{}
	if len(records) > 0 {
		table.Header = records[0]
		table.Rows = make([]Row, 0, len(records)-1)
		for _, record := range records[1:] {
			table.Rows = append(table.Rows, Row(record))
		}
	}
	table.buildIndex()
	return table
}

// splitLine strips a carriage return left over from CRLF exports and splits
// the line into fields.
func splitLine(line string) []string {
	line = strings.TrimSuffix(line, "\r")
	return strings.Split(line, ColumnSeparator)
}

// buildIndex records the first position of every header name.
func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		if _, exists := t.index[name]; !exists {
			t.index[name] = i
		}
	}
}

// =============================================================================
// FIELD ACCESS
// =============================================================================

// HasHeader reports whether the table has at least one non-blank column name.
func (t *Table) HasHeader() bool {
	for _, name := range t.Header {
		if strings.TrimSpace(name) != "" {
			return true
		}
	}
	return false
}

// HasColumn reports whether the header contains the given column name.
func (t *Table) HasColumn(column string) bool {
	if t.index == nil {
		t.buildIndex()
	}
	_, ok := t.index[column]
	return ok
}

// Field returns the value of a named column for one row.
//
// RETURNS:
//   - The row value at the column's header position.
//   - "" when the column is not in the header or the row is too short.
func (t *Table) Field(row Row, column string) string {
	if t.index == nil {
		t.buildIndex()
	}
	pos, ok := t.index[column]
	if !ok || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// RowCount returns the number of rows after the header.
func (t *Table) RowCount() int {
	return len(t.Rows)
}
