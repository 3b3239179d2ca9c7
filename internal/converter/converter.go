// =============================================================================
// Sales Order Aggregator - Converter Module
// =============================================================================
//
// This module runs the batch pipeline for a single input file and for a set
// of files.
//
// CONVERSION PIPELINE:
//   1. Read the input into a table (.xlsx workbook or tab-separated text)
//   2. Parse the table into a per-customer aggregate
//   3. Check the row errors against continue_on_error
//   4. Write the aggregate as JSON to the output directory
//   5. Archive the input and output files
//
// CONCURRENCY:
//   A Converter only reads shared state (config, parser), so ProcessAll runs
//   one per goroutine, bounded by max_concurrency.
//
// =============================================================================

package converter

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/sales-order-aggregator/internal/config"
	"github.com/ginjaninja78/sales-order-aggregator/internal/jsonwriter"
	"github.com/ginjaninja78/sales-order-aggregator/internal/orders"
	"github.com/ginjaninja78/sales-order-aggregator/internal/tsvparser"
	"github.com/ginjaninja78/sales-order-aggregator/internal/xlsxparser"
	"github.com/ginjaninja78/sales-order-aggregator/pkg/utils"
)

// ErrRowErrors is returned when a file has row errors and continue_on_error
// is off.
var ErrRowErrors = errors.New("input has invalid rows")

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of processing a single file.
type Result struct {
	// FilePath is the input file.
	FilePath string

	// OutputFile is the generated JSON file. Empty if processing failed.
	OutputFile string

	// Status classifies the aggregate ("200", "204" or "206").
	Status jsonwriter.Status

	Success bool

	// Error is set when processing failed.
	Error error

	// RowErrors holds the row error messages, also when processing failed
	// because of them.
	RowErrors []string

	Stats ProcessingStats
}

// ProcessingStats contains statistics about one file.
type ProcessingStats struct {
	orders.Stats

	// Customers is the number of distinct customers in the output.
	Customers int

	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter processes one input file.
type Converter struct {
	inputPath string
	cfg       *config.MainConfig
	parser    *orders.Parser
	files     *utils.FileManager
	logger    *zap.Logger
}

// New creates a Converter for inputPath. A nil logger disables logging.
func New(inputPath string, cfg *config.MainConfig, parser *orders.Parser, files *utils.FileManager, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		inputPath: inputPath,
		cfg:       cfg,
		parser:    parser,
		files:     files,
		logger:    logger.With(zap.String("file", filepath.Base(inputPath))),
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline for the file.
func (c *Converter) Run(ctx context.Context) (result Result) {
	start := time.Now()
	result.FilePath = c.inputPath
	defer func() { result.Stats.ProcessingTime = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	c.logger.Info("processing file")

	// =========================================================================
	// STEP 1: READ INPUT
	// =========================================================================

	table, err := ReadTable(c.inputPath, c.cfg.XLSXOptions())
	if err != nil {
		result.Error = err
		return result
	}

	// =========================================================================
	// STEP 2: PARSE
	// =========================================================================

	agg, err := c.parser.ParseTable(table)
	if err != nil {
		result.Error = fmt.Errorf("failed to parse %s: %w", filepath.Base(c.inputPath), err)
		return result
	}

	result.Status = jsonwriter.Classify(agg)
	result.RowErrors = agg.Errors()
	result.Stats.Stats = agg.Stats
	result.Stats.Customers = len(agg.Customers())

	// =========================================================================
	// STEP 3: ROW ERRORS
	// =========================================================================

	for _, msg := range result.RowErrors {
		c.logger.Warn("row error", zap.String("message", msg))
	}
	if len(result.RowErrors) > 0 && !c.cfg.ContinuesOnError() {
		result.Error = fmt.Errorf("%w: %d row errors", ErrRowErrors, len(result.RowErrors))
		return result
	}

	// =========================================================================
	// STEP 4: WRITE OUTPUT
	// =========================================================================

	outputPath := filepath.Join(c.cfg.OutputDir, utils.GenerateOutputFileName(c.cfg.OutputNameFormat, c.inputPath))
	if err := jsonwriter.WriteFile(outputPath, agg, jsonwriter.Options{Pretty: c.cfg.PrettyJSON}); err != nil {
		result.Error = err
		return result
	}
	result.OutputFile = outputPath
	c.logger.Info("wrote output",
		zap.String("output", outputPath),
		zap.String("status", string(result.Status)),
		zap.Int("customers", result.Stats.Customers),
		zap.Int("row_errors", len(result.RowErrors)),
	)

	// =========================================================================
	// STEP 5: ARCHIVE
	// =========================================================================

	if c.files != nil {
		if _, err := c.files.ArchiveInputFile(c.inputPath); err != nil {
			c.logger.Warn("failed to archive input", zap.Error(err))
		}
		if _, err := c.files.ArchiveOutputFile(outputPath); err != nil {
			c.logger.Warn("failed to archive output", zap.Error(err))
		}
	}

	result.Success = true
	return result
}

// ReadTable reads an input file. Files ending in .xlsx are read as
// workbooks, everything else as tab-separated text.
func ReadTable(path string, xlsxOpts xlsxparser.Options) (*tsvparser.Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		table, err := xlsxparser.Parse(path, xlsxOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to read workbook: %w", err)
		}
		return table, nil
	}

	table, err := tsvparser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return table, nil
}

// =============================================================================
// BATCH PROCESSING
// =============================================================================

// ProcessAll runs a Converter for every path, at most cfg.MaxConcurrency at
// a time. Results are returned in path order.
//
// When continue_on_error is off, the first failure cancels files that have
// not started yet and is returned as the error.
func ProcessAll(ctx context.Context, paths []string, cfg *config.MainConfig, parser *orders.Parser, files *utils.FileManager, logger *zap.Logger) ([]Result, error) {
	results := make([]Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.MaxConcurrency, 1))

	for i, path := range paths {
		g.Go(func() error {
			results[i] = New(path, cfg, parser, files, logger).Run(gctx)
			if results[i].Error != nil && !cfg.ContinuesOnError() {
				return fmt.Errorf("%s: %w", filepath.Base(path), results[i].Error)
			}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
