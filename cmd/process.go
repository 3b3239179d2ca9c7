// =============================================================================
// Sales Order Aggregator - Process Command
// =============================================================================
//
// This file defines the 'process' command, which converts every input file
// in the input directory.
//
// COMMAND USAGE:
//   orders process [flags]
//
// FLAGS:
//   --dry-run : Parse and report without writing or archiving anything
//   --file    : Process this file instead of scanning the input directory
//   --verbose : With --dry-run, also list every row error
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Discover input files (input_patterns inside input_dir)
//   3. Convert the files concurrently (max_concurrency at a time)
//   4. Write an error log for failed files and row errors
//   5. Write a summary report
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-order-aggregator/internal/converter"
	"github.com/ginjaninja78/sales-order-aggregator/internal/jsonwriter"
	"github.com/ginjaninja78/sales-order-aggregator/internal/validation"
	"github.com/ginjaninja78/sales-order-aggregator/pkg/utils"
)

var (
	dryRun   bool
	filePath string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Convert every input file to per-customer JSON",
	Long: `The process command scans the input directory for order exports
(tab-separated text or .xlsx) and writes one JSON aggregate per file to the
output directory.

Files are processed concurrently, up to max_concurrency at a time.

On success:
  - The JSON aggregate is written to the output directory
  - The input is moved to the input archive, the output copied to the output archive

On error:
  - An error log is created in the output directory
  - The input stays in the input directory
  - Other files continue unless continue_on_error is false`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd.Context(), cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse and report without writing output files")
	processCmd.Flags().StringVar(&filePath, "file", "", "Process a single file instead of the input directory")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	out := cmd.OutOrStdout()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	rt, err := setup(true)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg := rt.cfg

	fmt.Fprintln(out, "=== Sales Order Aggregator ===")

	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	files.ArchiveOnSuccess = cfg.ArchivesOnSuccess()
	files.UseTimestampSubdirs = cfg.ArchiveTimestampSubdirs
	if !dryRun {
		if err := files.EnsureDirectories(); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	var inputs []string
	if filePath != "" {
		inputs = []string{filePath}
	} else {
		inputs, err = files.DiscoverInputFiles(cfg.InputPatterns...)
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputs) == 0 {
		fmt.Fprintln(out, "No input files found in the input directory.")
		return nil
	}
	fmt.Fprintf(out, "Found %d file(s) to process\n", len(inputs))

	if dryRun {
		return dryRunFiles(rt, inputs, cmd)
	}

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================

	results, runErr := converter.ProcessAll(ctx, inputs, cfg, rt.parser, files, rt.logger)

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	summary := utils.ProcessingSummary{StartTime: start, TotalFiles: len(inputs)}
	var errorLog []utils.ErrorLogEntry

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		errorLog = append(errorLog, utils.RowErrorEntries(name, result.RowErrors, time.Now())...)

		if result.Success {
			summary.SuccessfulFiles++
			summary.TotalRows += result.Stats.RowsRead
			summary.TotalCustomers += result.Stats.Customers
			summary.RowErrors += len(result.RowErrors)
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   result.FilePath,
				OutputFile:  result.OutputFile,
				Status:      string(result.Status),
				Rows:        result.Stats.RowsRead,
				Customers:   result.Stats.Customers,
				RowErrors:   len(result.RowErrors),
				ProcessTime: result.Stats.ProcessingTime,
			})
			fmt.Fprintf(out, "  ✓ %s -> %s (status %s)\n", name, result.OutputFile, result.Status)
			continue
		}

		summary.FailedFiles++
		msg := "not processed"
		if result.Error != nil {
			msg = result.Error.Error()
		}
		summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: msg,
		})
		errorLog = append(errorLog, utils.ErrorLogEntry{
			Timestamp:    time.Now(),
			FileName:     name,
			ErrorType:    "file",
			ErrorMessage: msg,
		})
		fmt.Fprintf(out, "  ✗ %s: %s\n", name, msg)
	}
	summary.EndTime = time.Now()

	// =========================================================================
	// STEP 5: REPORTS
	// =========================================================================

	if logPath, err := utils.WriteErrorLog(errorLog, cfg.OutputDir); err != nil {
		rt.logger.Warn("failed to write error log", zap.Error(err))
	} else if logPath != "" {
		fmt.Fprintf(out, "\nErrors have been logged to %s\n", logPath)
	}

	if summaryPath, err := utils.WriteSummaryLog(summary, cfg.OutputDir); err != nil {
		rt.logger.Warn("failed to write summary", zap.Error(err))
	} else {
		rt.logger.Debug("wrote summary", zap.String("path", summaryPath))
	}

	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(start))

	return runErr
}

// dryRunFiles parses each file and reports its status without side effects.
func dryRunFiles(rt *session, inputs []string, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	for _, input := range inputs {
		name := filepath.Base(input)

		table, err := converter.ReadTable(input, rt.cfg.XLSXOptions())
		if err != nil {
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, err)
			continue
		}
		agg, err := rt.parser.ParseTable(table)
		if err != nil {
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, err)
			continue
		}

		rowErrors := agg.Errors()
		fmt.Fprintf(out, "  • %s: status %s, %d customer(s), %d row error(s)\n",
			name, jsonwriter.Classify(agg), len(agg.Customers()), len(rowErrors))
		if verbose && len(rowErrors) > 0 {
			fmt.Fprintln(out, indent(validation.FormatErrors(rowErrors), "      "))
		}
	}
	return nil
}

// indent prefixes every non-empty line of text with prefix.
func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
