// =============================================================================
// Sales Order Aggregator - Parse Command
// =============================================================================
//
// COMMAND USAGE:
//   orders parse [file|-] [flags]
//
// Parses one input and writes the aggregate to stdout. "-" or no argument
// reads tab-separated text from stdin; a path ending in .xlsx is read as a
// workbook.
//
// FLAGS:
//   --envelope      : Wrap the output as {"status": ..., "value": ...}
//   --pretty        : Indent the output
//   --cutoff        : Override the cutoff date
//   --merge-policy  : Override the merge policy (first-order, search-all)
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-order-aggregator/internal/converter"
	"github.com/ginjaninja78/sales-order-aggregator/internal/jsonwriter"
	"github.com/ginjaninja78/sales-order-aggregator/internal/orders"
	"github.com/ginjaninja78/sales-order-aggregator/internal/tsvparser"
)

var (
	parseEnvelope    bool
	parsePretty      bool
	parseCutoff      string
	parseMergePolicy string
)

var parseCmd = &cobra.Command{
	Use:   "parse [file|-]",
	Short: "Parse one input and print the aggregate as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := "-"
		if len(args) == 1 {
			source = args[0]
		}
		return runParse(cmd.InOrStdin(), cmd.OutOrStdout(), source)
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().BoolVar(&parseEnvelope, "envelope", false, "Wrap the output in a status envelope")
	parseCmd.Flags().BoolVar(&parsePretty, "pretty", false, "Indent the output (defaults to pretty_json)")
	parseCmd.Flags().StringVar(&parseCutoff, "cutoff", "", "Only keep orders dated strictly after this date")
	parseCmd.Flags().StringVar(&parseMergePolicy, "merge-policy", "", "Merge policy: first-order or search-all")
}

func runParse(in io.Reader, out io.Writer, source string) error {
	rt, err := setup(false)
	if err != nil {
		return err
	}
	defer rt.close()

	parser, err := parserWithOverrides(rt)
	if err != nil {
		return err
	}

	var table *tsvparser.Table
	if source == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		table = tsvparser.Parse(string(data))
	} else {
		table, err = converter.ReadTable(source, rt.cfg.XLSXOptions())
		if err != nil {
			return err
		}
	}

	agg, err := parser.ParseTable(table)
	if err != nil && !errors.Is(err, orders.ErrNoHeader) {
		return err
	}

	rt.logger.Debug("parse finished",
		zap.String("source", source),
		zap.String("status", string(jsonwriter.Classify(agg))),
	)

	return jsonwriter.Write(out, agg, jsonwriter.Options{
		Pretty:   parsePretty || rt.cfg.PrettyJSON,
		Envelope: parseEnvelope,
	})
}

// parserWithOverrides applies --cutoff and --merge-policy.
func parserWithOverrides(rt *session) (*orders.Parser, error) {
	if parseCutoff == "" && parseMergePolicy == "" {
		return rt.parser, nil
	}

	opts := rt.parser.Options()
	if parseCutoff != "" {
		var err error
		if opts, err = opts.WithCutoff(parseCutoff); err != nil {
			return nil, err
		}
	}
	if parseMergePolicy != "" {
		policy, err := orders.ParseMergePolicy(parseMergePolicy)
		if err != nil {
			return nil, err
		}
		opts.MergePolicy = policy
	}
	return orders.NewParser(opts, rt.logger)
}
