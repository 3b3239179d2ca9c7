// =============================================================================
// Sales Order Aggregator - Validate Command
// =============================================================================
//
// COMMAND USAGE:
//   orders validate
//
// Checks the configuration file and the pending input files without
// processing anything:
//   - The config file loads and its values are valid
//   - Each workbook contains the configured xlsx.sheet
//   - Each input file can be read and has a header row
//   - Each header names every required column
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-order-aggregator/internal/converter"
	"github.com/ginjaninja78/sales-order-aggregator/internal/orders"
	"github.com/ginjaninja78/sales-order-aggregator/internal/xlsxparser"
	"github.com/ginjaninja78/sales-order-aggregator/pkg/utils"
)

// errInvalidInputs is returned when at least one input file fails a check.
var errInvalidInputs = errors.New("some input files are not valid")

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and pending input files",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		rt, err := setup(true)
		if err != nil {
			return err
		}
		defer rt.close()
		cfg := rt.cfg
		opts := rt.parser.Options()

		fmt.Fprintf(out, "Configuration:   %s (ok)\n", cfgFile)
		fmt.Fprintf(out, "Cutoff:          %s\n", orders.FormatISO(opts.Cutoff))
		fmt.Fprintf(out, "Base URL:        %s\n", opts.BaseURL)
		fmt.Fprintf(out, "Merge policy:    %s\n", opts.MergePolicy)

		if !utils.FileExists(cfg.InputDir) {
			fmt.Fprintf(out, "Input directory: %s (missing)\n", cfg.InputDir)
			return nil
		}

		files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
		inputs, err := files.DiscoverInputFiles(cfg.InputPatterns...)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Input files:     %d\n", len(inputs))

		failed := 0
		for _, input := range inputs {
			if problem := checkInput(input, rt); problem != "" {
				failed++
				fmt.Fprintf(out, "  ✗ %s: %s\n", filepath.Base(input), problem)
				continue
			}
			fmt.Fprintf(out, "  ✓ %s\n", filepath.Base(input))
		}

		if failed > 0 {
			return fmt.Errorf("%w: %d of %d", errInvalidInputs, failed, len(inputs))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// checkInput returns a description of what is wrong with the file, or "".
func checkInput(path string, rt *session) string {
	if sheet := rt.cfg.XLSX.Sheet; sheet != "" && strings.EqualFold(filepath.Ext(path), ".xlsx") {
		sheets, err := xlsxparser.SheetNames(path)
		if err != nil {
			return err.Error()
		}
		if !slices.Contains(sheets, sheet) {
			return fmt.Sprintf("sheet %q not found (sheets: %s)", sheet, strings.Join(sheets, ", "))
		}
	}

	table, err := converter.ReadTable(path, rt.cfg.XLSXOptions())
	if err != nil {
		return err.Error()
	}
	if !table.HasHeader() {
		return orders.ErrNoHeader.Error()
	}

	var missing []string
	for _, column := range orders.RequiredColumns {
		if !table.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return "header is missing " + strings.Join(missing, ", ")
	}
	return ""
}
