// =============================================================================
// Sales Order Aggregator - Order Parser
// =============================================================================
//
// The Parser is the entry point of the core:
//
//   raw text -> header + rows -> date filter -> entries -> aggregate
//
// PROCESSING RULES:
//   - Rows whose order date is missing, unparseable, or not after the cutoff
//     are dropped silently (logged at debug level)
//   - Admitted rows are numbered from 1; the number appears in row errors
//   - Rows missing a required field become messages under the error key
//   - Everything else is merged per customer
//
// A Parser holds only configuration, so one instance can serve any number
// of independent calls.
//
// =============================================================================

package orders

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-order-aggregator/internal/tsvparser"
)

// ErrNoHeader is returned when the input has no usable header row. The
// aggregate returned alongside it is empty.
var ErrNoHeader = errors.New("input has no header row")

// Parser turns tab-separated sales orders into an Aggregate.
type Parser struct {
	opts   Options
	logger *zap.Logger
}

// NewParser creates a Parser. A nil logger disables logging.
func NewParser(opts Options, logger *zap.Logger) (*Parser, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parser options: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{opts: opts, logger: logger}, nil
}

// Options returns the parser configuration.
func (p *Parser) Options() Options {
	return p.opts
}

// Parse parses raw tab-separated text.
func (p *Parser) Parse(text string) (*Aggregate, error) {
	return p.ParseTable(tsvparser.Parse(text))
}

// ParseTable builds the aggregate for an already split table.
//
// RETURNS:
//   - The aggregate. It is never nil.
//   - ErrNoHeader when the table has no header; the aggregate is empty.
func (p *Parser) ParseTable(table *tsvparser.Table) (*Aggregate, error) {
	if !table.HasHeader() {
		p.logger.Warn("input has no header row", zap.String("source", table.SourceFile))
		return NewAggregate(p.opts.errorKey()), ErrNoHeader
	}

	for _, column := range RequiredColumns {
		if !table.HasColumn(column) {
			p.logger.Debug("header is missing a required column", zap.String("column", column))
		}
	}

	entries, stats := p.buildEntries(table)

	agg := Fold(entries, p.opts.MergePolicy, p.opts.errorKey())
	agg.Stats = stats

	p.logger.Debug("parsed orders",
		zap.String("source", table.SourceFile),
		zap.Int("rows", stats.RowsRead),
		zap.Int("excluded", stats.RowsExcluded),
		zap.Int("admitted", stats.RowsAdmitted),
		zap.Int("row_errors", stats.RowErrors),
		zap.Int("customers", len(agg.Customers())),
		zap.Int("keys", agg.Len()),
	)
	return agg, nil
}

// buildEntries runs the date filter and entry builder over every row.
func (p *Parser) buildEntries(table *tsvparser.Table) ([]Entry, Stats) {
	stats := Stats{RowsRead: table.RowCount()}
	entries := make([]Entry, 0, table.RowCount())

	line := 0
	for i, row := range table.Rows {
		orderDate, err := FilterDate(table, row, p.opts)
		if err != nil {
			stats.RowsExcluded++
			p.logger.Debug("row excluded", zap.Int("row", i+1), zap.Error(err))
			continue
		}

		line++
		entry := buildEntry(table, row, line, orderDate, p.opts)

		if entry.IsError() {
			stats.RowErrors++
		}
		for _, warning := range entry.Warnings {
			stats.Warnings++
			p.logger.Debug("field defaulted", zap.Int("line", line), zap.Error(warning))
		}

		entries = append(entries, entry)
	}

	stats.RowsAdmitted = line
	return entries, stats
}
