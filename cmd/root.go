// =============================================================================
// Sales Order Aggregator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (orders)
//   ├── parseCmd    (orders parse [file|-])
//   ├── processCmd  (orders process)
//   ├── serveCmd    (orders serve)
//   ├── validateCmd (orders validate)
//   └── versionCmd  (orders version)
//
// The root command owns the global flags (--config, --verbose) and the
// shared setup: loading the configuration and building the logger.
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-order-aggregator/internal/config"
	"github.com/ginjaninja78/sales-order-aggregator/internal/logging"
	"github.com/ginjaninja78/sales-order-aggregator/internal/orders"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile is the path to the main configuration file (--config).
var cfgFile string

// verbose forces debug logging (--verbose).
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "orders",
	Short: "Sales Order Aggregator - Group tab-separated sales orders by customer",
	Long: `Sales Order Aggregator turns flat, tab-separated sales-order exports into a
nested JSON document: one record per customer, holding that customer's orders
and their line items. Rows with missing fields are reported under "error".

Key Features:
  - Date filtering against a configurable cutoff
  - Product URLs derived from category, sub-category and product ID
  - Batch processing of an input directory with archival and error logs
  - An HTTP endpoint compatible with the POST /handle contract
  - .xlsx workbooks accepted wherever tab-separated text is

Example Usage:
  orders parse orders.tsv              # Print the aggregate for one file
  cat orders.tsv | orders parse -      # Read from stdin
  orders process                       # Process all files in the input directory
  orders serve                         # Start the HTTP server`,

	SilenceUsage:  true,
	SilenceErrors: true,

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// session is what every command needs after setup.
type session struct {
	cfg    *config.MainConfig
	logger *zap.Logger
	parser *orders.Parser
}

// setup loads the configuration and builds the logger and parser.
//
// PARAMETERS:
//   - requireConfig: fail when the config file is missing instead of using
//     the defaults.
func setup(requireConfig bool) (*session, error) {
	var (
		cfg *config.MainConfig
		err error
	)
	if requireConfig {
		cfg, err = config.LoadMainConfig(cfgFile)
	} else {
		cfg, err = config.LoadOrDefault(cfgFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.LogFile)
	if err != nil {
		return nil, err
	}

	opts, err := cfg.OrderOptions()
	if err != nil {
		return nil, err
	}
	parser, err := orders.NewParser(opts, logger)
	if err != nil {
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, parser: parser}, nil
}

// close flushes the logger. Sync errors on stderr are expected and ignored.
func (rt *session) close() {
	_ = rt.logger.Sync()
}
