// =============================================================================
// Sales Order Aggregator - XLSX Parser Module
// =============================================================================
//
// This module reads a sales-order workbook into the same Table shape the TSV
// parser produces, so both inputs flow through the same order parser.
//
// WORKBOOK LAYOUT:
//   The first row of the sheet is the header, every following row is data:
//
//   | Customer Name | Order ID | Order Date | Category | Sub-Category | Product ID | Sales |
//   |---------------|----------|------------|----------|--------------|------------|-------|
//   | Alice         | O1       | 8/1/2016   | Shoes    | Running      | P1         | 19.99 |
//
// DATE CELLS:
//   Excel stores dates as serial numbers and renders them through a number
//   format. Columns listed in Options.DateColumns are read raw and converted
//   from the serial to "2006-01-02T15:04:05" so the rendering format of the
//   workbook does not matter. Text cells in those columns are kept as typed.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-order-aggregator/internal/tsvparser"
)

// DateCellLayout is the text a converted date cell is rendered as.
const DateCellLayout = "2006-01-02T15:04:05"

// Options controls which sheet is read and which columns hold dates.
type Options struct {
	// Sheet is the sheet to read. Empty selects the first sheet.
	Sheet string

	// DateColumns are header names whose numeric cells are Excel dates.
	DateColumns []string
}

// DefaultOptions reads the first sheet and treats "Order Date" as a date.
func DefaultOptions() Options {
	return Options{DateColumns: []string{"Order Date"}}
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse opens an XLSX workbook and reads one sheet into a Table.
//
// RETURNS:
//   - The table. SourceFile is set to filePath.
//   - An error if the workbook cannot be opened or the sheet cannot be read.
func Parse(filePath string, opts Options) (*tsvparser.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	table, err := readSheet(f, opts)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath
	return table, nil
}

// ParseReader reads a workbook from r, e.g. an uploaded request body.
func ParseReader(r io.Reader, opts Options) (*tsvparser.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readSheet(f, opts)
}

// readSheet reads the selected sheet, converting date serials.
func readSheet(f *excelize.File, opts Options) (*tsvparser.Table, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return tsvparser.FromRecords(nil), nil
	}

	dateCols := dateColumnIndexes(rows[0], opts.DateColumns)
	if len(dateCols) > 0 {
		raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read raw rows from sheet %q: %w", sheet, err)
		}
		convertDateCells(rows, raw, dateCols)
	}

	return tsvparser.FromRecords(rows), nil
}

// dateColumnIndexes returns the header positions of the date columns.
func dateColumnIndexes(header []string, columns []string) []int {
	var indexes []int
	for _, column := range columns {
		for i, name := range header {
			if strings.TrimSpace(name) == column {
				indexes = append(indexes, i)
				break
			}
		}
	}
	return indexes
}

// convertDateCells replaces numeric date cells in rows with DateCellLayout
// text. The header row is left untouched.
func convertDateCells(rows, raw [][]string, cols []int) {
	for r := 1; r < len(rows) && r < len(raw); r++ {
		for _, c := range cols {
			if c >= len(rows[r]) || c >= len(raw[r]) {
				continue
			}
			serial, err := strconv.ParseFloat(strings.TrimSpace(raw[r][c]), 64)
			if err != nil {
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				continue
			}
			rows[r][c] = t.Format(DateCellLayout)
		}
	}
}

// SheetNames lists the sheets of a workbook.
func SheetNames(filePath string) ([]string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
