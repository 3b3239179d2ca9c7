package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const ordersTSV = "Customer Name\tOrder ID\tOrder Date\tCategory\tSub-Category\tProduct ID\tSales\n" +
	"Alice\tO1\t8/1/2016\tShoes\tRunning\tP1\t19.99\n" +
	"Bob\tO2\t8/2/2016\t\tRunning\tP2\t1\n" +
	"Carol\tO3\t7/1/2016\tShoes\tRunning\tP3\t1\n"

// execute runs the root command with fresh flag values and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	for _, key := range []string{"ORDERS_CUTOFF_DATE", "ORDERS_BASE_URL", "ORDERS_MERGE_POLICY", "ORDERS_LOG_FILE", "ORDERS_INPUT_DIR", "ORDERS_OUTPUT_DIR"} {
		t.Setenv(key, "")
	}
	t.Setenv("ORDERS_LOG_LEVEL", "error")

	parseEnvelope, parsePretty, parseCutoff, parseMergePolicy = false, false, "", ""
	cfgFile, dryRun, filePath, verbose = "config.yaml", false, "", false

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestParseStdin(t *testing.T) {
	dir := workspace(t)

	out, err := execute(t, ordersTSV, "parse", "--config", filepath.Join(dir, "missing.yaml"), "-")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "Alice")
	assert.Contains(t, got, "error")
	assert.NotContains(t, got, "Carol")
	assert.NotContains(t, got, "Bob")
}

func TestParseFileEnvelope(t *testing.T) {
	dir := workspace(t)
	path := filepath.Join(dir, "orders.tsv")
	require.NoError(t, os.WriteFile(path, []byte(ordersTSV), 0o644))

	out, err := execute(t, "", "parse", "--envelope", "--cutoff", "6/30/2016", path)
	require.NoError(t, err)

	var env struct {
		Status string         `json:"status"`
		Value  map[string]any `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, "206", env.Status)
	assert.Contains(t, env.Value, "Carol")
}

func TestParseRejectsBadFlags(t *testing.T) {
	workspace(t)

	_, err := execute(t, ordersTSV, "parse", "--merge-policy", "sometimes")
	assert.Error(t, err)

	_, err = execute(t, ordersTSV, "parse", "--cutoff", "soon")
	assert.Error(t, err)
}

func TestProcess(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "input"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input", "orders.tsv"), []byte(ordersTSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input", "empty.tsv"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("output_name_format: \"{original}\"\n"), 0o644))

	out, err := execute(t, "", "process")
	require.NoError(t, err)
	assert.Contains(t, out, "Successful:      1")
	assert.Contains(t, out, "Errors:          1")

	data, err := os.ReadFile(filepath.Join(dir, "output", "orders.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Alice"`)

	_, err = os.Stat(filepath.Join(dir, "input_archive", "orders.tsv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "input", "empty.tsv"))
	assert.NoError(t, err)

	logs, err := filepath.Glob(filepath.Join(dir, "output", "error_log_*.txt"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	errorLog, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(errorLog), "line 2: Missed fields in the input: Category")
	assert.Contains(t, string(errorLog), "input has no header row")
}

func TestProcessDryRun(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "input"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input", "orders.tsv"), []byte(ordersTSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{}\n"), 0o644))

	out, err := execute(t, "", "process", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "orders.tsv: status 206, 1 customer(s), 1 row error(s)")

	_, err = os.Stat(filepath.Join(dir, "output"))
	assert.True(t, os.IsNotExist(err))
}

func TestProcessDryRunVerbose(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "input"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input", "orders.tsv"), []byte(ordersTSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{}\n"), 0o644))

	out, err := execute(t, "", "process", "--dry-run", "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "      Validation completed with 1 error(s):")
	assert.Contains(t, out, "      1. line 2: Missed fields in the input: Category")

	out, err = execute(t, "", "process", "--dry-run")
	require.NoError(t, err)
	assert.NotContains(t, out, "Missed fields")
}

func TestProcessKeepsInputsWhenArchivingIsOff(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "input"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input", "orders.tsv"), []byte(ordersTSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("output_name_format: \"{original}\"\narchive_on_success: false\n"), 0o644))

	_, err := execute(t, "", "process")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "output", "orders.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "input", "orders.tsv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "input_archive", "orders.tsv"))
	assert.True(t, os.IsNotExist(err))
}

func TestProcessArchivesUnderDateSubdirs(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "input"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input", "orders.tsv"), []byte(ordersTSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("output_name_format: \"{original}\"\narchive_timestamp_subdirs: true\n"), 0o644))

	_, err := execute(t, "", "process")
	require.NoError(t, err)

	archived, err := filepath.Glob(filepath.Join(dir, "input_archive", "*", "*", "*", "orders.tsv"))
	require.NoError(t, err)
	assert.Len(t, archived, 1)
	_, err = os.Stat(filepath.Join(dir, "input_archive", "orders.tsv"))
	assert.True(t, os.IsNotExist(err))
}

func TestValidate(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "input"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input", "good.tsv"), []byte(ordersTSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "input", "bad.tsv"), []byte("Customer Name\tOrder ID\nA\tB\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{}\n"), 0o644))

	out, err := execute(t, "", "validate")
	assert.ErrorIs(t, err, errInvalidInputs)
	assert.Contains(t, out, "✓ good.tsv")
	assert.Contains(t, out, "✗ bad.tsv: header is missing Order Date")

	_, err = execute(t, "", "validate", "--config", filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateSheet(t *testing.T) {
	dir := workspace(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "input"), 0o755))

	f := excelize.NewFile()
	_, err := f.NewSheet("Orders")
	require.NoError(t, err)
	header := []any{"Customer Name", "Order ID", "Order Date", "Category", "Sub-Category", "Product ID", "Sales"}
	require.NoError(t, f.SetSheetRow("Orders", "A1", &header))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "input", "orders.xlsx")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("xlsx:\n  sheet: Orders\n"), 0o644))
	out, err := execute(t, "", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ orders.xlsx")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("xlsx:\n  sheet: Sales\n"), 0o644))
	out, err = execute(t, "", "validate")
	assert.ErrorIs(t, err, errInvalidInputs)
	assert.Contains(t, out, `✗ orders.xlsx: sheet "Sales" not found (sheets: Sheet1, Orders)`)
}

func TestVersion(t *testing.T) {
	workspace(t)

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("Version:    %s", Version))
}
