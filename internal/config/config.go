// =============================================================================
// Sales Order Aggregator - Configuration Module
// =============================================================================
//
// This module loads the application configuration.
//
// SOURCES (later sources win):
//   1. Built-in defaults
//   2. The YAML config file (config.yaml by default)
//   3. A .env file in the working directory, if present
//   4. ORDERS_* environment variables (and PORT, for the HTTP server)
//
// The order parsing settings (cutoff date, base URL, merge policy, ...) are
// converted into orders.Options by OrderOptions.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sales-order-aggregator/internal/orders"
	"github.com/ginjaninja78/sales-order-aggregator/internal/xlsxparser"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is scanned by the process command.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir receives the generated JSON files and error logs.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir receives a copy of every generated JSON file.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// ArchiveOnSuccess moves inputs and copies outputs to the archive
	// directories after a file converts.
	// Default: true
	ArchiveOnSuccess *bool `yaml:"archive_on_success"`

	// ArchiveTimestampSubdirs files archived copies under YYYY/MM/DD.
	ArchiveTimestampSubdirs bool `yaml:"archive_timestamp_subdirs"`

	// InputPatterns are glob patterns matched against input file names.
	// Default: ["*.tsv", "*.txt", "*.xlsx"]
	InputPatterns []string `yaml:"input_patterns"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an extra log destination. Empty logs to stderr only.
	LogFile string `yaml:"log_file"`

	// LogLevel is one of "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputNameFormat names generated files. Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {original}  - Input file name without extension
	// Default: "{original}_{uuid}.json"
	OutputNameFormat string `yaml:"output_name_format"`

	// PrettyJSON indents generated JSON.
	PrettyJSON bool `yaml:"pretty_json"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the number of files processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps processing other files when one fails.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// =========================================================================
	// SERVER SETTINGS
	// =========================================================================

	// ListenAddr is the HTTP listen address for the serve command.
	// Default: ":8080"
	ListenAddr string `yaml:"listen_addr"`

	// MaxBodyBytes limits the size of a request body.
	// Default: 32 MiB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// =========================================================================
	// PARSING SETTINGS
	// =========================================================================

	Orders OrdersConfig `yaml:"orders"`
	XLSX   XLSXConfig   `yaml:"xlsx"`
}

// OrdersConfig holds the order parsing settings.
type OrdersConfig struct {
	// CutoffDate: rows must have an order date strictly after it.
	// Default: "7/31/2016"
	CutoffDate string `yaml:"cutoff_date"`

	// BaseURL prefixes product URLs.
	// Default: "https://www.foo.com"
	BaseURL string `yaml:"base_url"`

	// Timezone is an IANA zone name applied to dates without an offset.
	// Default: "UTC"
	Timezone string `yaml:"timezone"`

	// DateLayouts are Go time layouts tried in order. Empty uses the
	// built-in list. The workbook date layout "2006-01-02T15:04:05" is
	// always appended.
	DateLayouts []string `yaml:"date_layouts"`

	// MergePolicy is "first-order" or "search-all".
	// Default: "first-order"
	MergePolicy string `yaml:"merge_policy"`

	// ErrorKey is the output key holding row errors.
	// Default: "error"
	ErrorKey string `yaml:"error_key"`
}

// XLSXConfig holds the workbook reading settings.
type XLSXConfig struct {
	// Sheet to read. Empty reads the first sheet.
	Sheet string `yaml:"sheet"`

	// DateColumns hold Excel date serials.
	// Default: ["Order Date"]
	DateColumns []string `yaml:"date_columns"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the configuration from a YAML file, then applies the
// .env file and environment overrides.
//
// RETURNS:
//   - The configuration.
//   - An error if the file cannot be read or parsed, or the result is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return finish(&cfg)
}

// LoadOrDefault behaves like LoadMainConfig but falls back to the defaults
// when the file does not exist.
func LoadOrDefault(configPath string) (*MainConfig, error) {
	cfg, err := LoadMainConfig(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return finish(&MainConfig{})
	}
	return cfg, err
}

// finish applies overrides and defaults, then validates.
func finish(cfg *MainConfig) (*MainConfig, error) {
	// A missing .env file is normal.
	_ = godotenv.Load()

	cfg.applyEnvOverrides()
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *MainConfig) {
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.InputArchiveDir == "" {
		cfg.InputArchiveDir = "./input_archive"
	}
	if cfg.OutputArchiveDir == "" {
		cfg.OutputArchiveDir = "./output_archive"
	}
	if cfg.ArchiveOnSuccess == nil {
		v := true
		cfg.ArchiveOnSuccess = &v
	}
	if len(cfg.InputPatterns) == 0 {
		cfg.InputPatterns = []string{"*.tsv", "*.txt", "*.xlsx"}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.OutputNameFormat == "" {
		cfg.OutputNameFormat = "{original}_{uuid}.json"
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.ContinueOnError == nil {
		v := true
		cfg.ContinueOnError = &v
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 32 << 20
	}

	if cfg.Orders.CutoffDate == "" {
		cfg.Orders.CutoffDate = orders.DefaultCutoff
	}
	if cfg.Orders.BaseURL == "" {
		cfg.Orders.BaseURL = orders.DefaultBaseURL
	}
	if cfg.Orders.Timezone == "" {
		cfg.Orders.Timezone = "UTC"
	}
	if cfg.Orders.MergePolicy == "" {
		cfg.Orders.MergePolicy = string(orders.MergeFirstOrder)
	}
	if cfg.Orders.ErrorKey == "" {
		cfg.Orders.ErrorKey = orders.DefaultErrorKey
	}

	if len(cfg.XLSX.DateColumns) == 0 {
		cfg.XLSX.DateColumns = xlsxparser.DefaultOptions().DateColumns
	}
}

// applyEnvOverrides copies ORDERS_* variables over file values.
func (cfg *MainConfig) applyEnvOverrides() {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}

	setString("ORDERS_INPUT_DIR", &cfg.InputDir)
	setString("ORDERS_OUTPUT_DIR", &cfg.OutputDir)
	setString("ORDERS_LOG_LEVEL", &cfg.LogLevel)
	setString("ORDERS_LOG_FILE", &cfg.LogFile)
	setString("ORDERS_CUTOFF_DATE", &cfg.Orders.CutoffDate)
	setString("ORDERS_BASE_URL", &cfg.Orders.BaseURL)
	setString("ORDERS_TIMEZONE", &cfg.Orders.Timezone)
	setString("ORDERS_MERGE_POLICY", &cfg.Orders.MergePolicy)
	setString("ORDERS_LISTEN_ADDR", &cfg.ListenAddr)

	// PORT is what hosting platforms set; an explicit listen address wins.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" && os.Getenv("ORDERS_LISTEN_ADDR") == "" {
		cfg.ListenAddr = ":" + port
	}

	if v := strings.TrimSpace(os.Getenv("ORDERS_MAX_CONCURRENCY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConcurrency = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ORDERS_PRETTY_JSON")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.PrettyJSON = b
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the settings that can be wrong independently of the file
// system.
func (cfg *MainConfig) Validate() error {
	var errs []error

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", cfg.LogLevel))
	}

	if _, err := cfg.OrderOptions(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ContinuesOnError reports the effective continue_on_error value.
func (cfg *MainConfig) ContinuesOnError() bool {
	return cfg.ContinueOnError == nil || *cfg.ContinueOnError
}

// ArchivesOnSuccess reports the effective archive_on_success value.
func (cfg *MainConfig) ArchivesOnSuccess() bool {
	return cfg.ArchiveOnSuccess == nil || *cfg.ArchiveOnSuccess
}

// OrderOptions converts the orders section into parser options.
func (cfg *MainConfig) OrderOptions() (orders.Options, error) {
	opts := orders.DefaultOptions()

	loc, err := time.LoadLocation(cfg.Orders.Timezone)
	if err != nil {
		return opts, fmt.Errorf("invalid timezone %q: %w", cfg.Orders.Timezone, err)
	}
	opts.Location = loc

	if len(cfg.Orders.DateLayouts) > 0 {
		// Workbook date cells are rewritten to DateCellLayout.
		opts.DateLayouts = slices.Clone(cfg.Orders.DateLayouts)
		if !slices.Contains(opts.DateLayouts, xlsxparser.DateCellLayout) {
			opts.DateLayouts = append(opts.DateLayouts, xlsxparser.DateCellLayout)
		}
	}
	opts.BaseURL = cfg.Orders.BaseURL
	opts.ErrorKey = cfg.Orders.ErrorKey

	policy, err := orders.ParseMergePolicy(cfg.Orders.MergePolicy)
	if err != nil {
		return opts, err
	}
	opts.MergePolicy = policy

	opts, err = opts.WithCutoff(cfg.Orders.CutoffDate)
	if err != nil {
		return opts, err
	}

	return opts, opts.Validate()
}

// XLSXOptions converts the xlsx section into reader options.
func (cfg *MainConfig) XLSXOptions() xlsxparser.Options {
	return xlsxparser.Options{
		Sheet:       cfg.XLSX.Sheet,
		DateColumns: cfg.XLSX.DateColumns,
	}
}
