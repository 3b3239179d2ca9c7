package converter

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-order-aggregator/internal/config"
	"github.com/ginjaninja78/sales-order-aggregator/internal/jsonwriter"
	"github.com/ginjaninja78/sales-order-aggregator/internal/orders"
	"github.com/ginjaninja78/sales-order-aggregator/pkg/utils"
)

const validTSV = "Customer Name\tOrder ID\tOrder Date\tCategory\tSub-Category\tProduct ID\tSales\n" +
	"Alice\tO1\t8/1/2016\tShoes\tRunning\tP1\t19.99\n" +
	"Alice\tO1\t8/1/2016\tShoes\tTrail\tP2\t5\n"

const partialTSV = "Customer Name\tOrder ID\tOrder Date\tCategory\tSub-Category\tProduct ID\tSales\n" +
	"Alice\tO1\t8/1/2016\tShoes\tRunning\tP1\t19.99\n" +
	"Bob\tO2\t8/2/2016\t\tRunning\tP2\t1\n"

type fixture struct {
	cfg    *config.MainConfig
	files  *utils.FileManager
	parser *orders.Parser
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.InputDir = filepath.Join(root, "input")
	cfg.OutputDir = filepath.Join(root, "output")
	cfg.InputArchiveDir = filepath.Join(root, "input_archive")
	cfg.OutputArchiveDir = filepath.Join(root, "output_archive")
	cfg.OutputNameFormat = "{original}"

	files := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir, cfg.OutputArchiveDir)
	require.NoError(t, files.EnsureDirectories())

	opts, err := cfg.OrderOptions()
	require.NoError(t, err)
	parser, err := orders.NewParser(opts, zap.NewNop())
	require.NoError(t, err)

	return &fixture{cfg: cfg, files: files, parser: parser}
}

func (f *fixture) input(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(f.cfg.InputDir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func readJSON(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestRunTSV(t *testing.T) {
	f := newFixture(t)
	in := f.input(t, "orders.tsv", validTSV)

	result := New(in, f.cfg, f.parser, f.files, nil).Run(context.Background())
	require.NoError(t, result.Error)
	assert.True(t, result.Success)
	assert.Equal(t, jsonwriter.StatusOK, result.Status)
	assert.Equal(t, filepath.Join(f.cfg.OutputDir, "orders.json"), result.OutputFile)
	assert.Equal(t, 2, result.Stats.RowsAdmitted)
	assert.Equal(t, 1, result.Stats.Customers)

	out := readJSON(t, result.OutputFile)
	assert.Contains(t, out, "Alice")

	assert.False(t, utils.FileExists(in))
	assert.True(t, utils.FileExists(filepath.Join(f.cfg.InputArchiveDir, "orders.tsv")))
	assert.True(t, utils.FileExists(filepath.Join(f.cfg.OutputArchiveDir, "orders.json")))
}

func TestRunRowErrors(t *testing.T) {
	t.Run("continue on error writes output", func(t *testing.T) {
		f := newFixture(t)
		in := f.input(t, "partial.tsv", partialTSV)

		result := New(in, f.cfg, f.parser, f.files, nil).Run(context.Background())
		require.NoError(t, result.Error)
		assert.Equal(t, jsonwriter.StatusPartial, result.Status)
		assert.Equal(t, []string{"line 2: Missed fields in the input: Category"}, result.RowErrors)

		out := readJSON(t, result.OutputFile)
		assert.Contains(t, out, "error")
	})

	t.Run("stop on error keeps the input", func(t *testing.T) {
		f := newFixture(t)
		off := false
		f.cfg.ContinueOnError = &off
		in := f.input(t, "partial.tsv", partialTSV)

		result := New(in, f.cfg, f.parser, f.files, nil).Run(context.Background())
		assert.ErrorIs(t, result.Error, ErrRowErrors)
		assert.False(t, result.Success)
		assert.Empty(t, result.OutputFile)
		assert.Len(t, result.RowErrors, 1)
		assert.True(t, utils.FileExists(in))
	})
}

func TestRunNoHeader(t *testing.T) {
	f := newFixture(t)
	in := f.input(t, "empty.tsv", "")

	result := New(in, f.cfg, f.parser, f.files, nil).Run(context.Background())
	assert.ErrorIs(t, result.Error, orders.ErrNoHeader)
	assert.True(t, utils.FileExists(in))
}

func TestRunXLSX(t *testing.T) {
	f := newFixture(t)

	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]any{
		"Customer Name", "Order ID", "Order Date", "Category", "Sub-Category", "Product ID", "Sales",
	}))
	require.NoError(t, wb.SetSheetRow(sheet, "A2", &[]any{
		"Carol", "O9", "8/15/2016", "Books", "Fiction", "B1", 12.5,
	}))
	in := filepath.Join(f.cfg.InputDir, "orders.xlsx")
	require.NoError(t, wb.SaveAs(in))
	require.NoError(t, wb.Close())

	result := New(in, f.cfg, f.parser, f.files, nil).Run(context.Background())
	require.NoError(t, result.Error)

	out := readJSON(t, result.OutputFile)
	carol := out["Carol"].(map[string]any)
	order := carol["orders"].([]any)[0].(map[string]any)
	assert.Equal(t, "2016-08-15T00:00:00.000Z", order["order_date"])
	item := order["line_items"].([]any)[0].(map[string]any)
	assert.Equal(t, "https://www.foo.com/Books/Fiction/B1", item["product_url"])
	assert.Equal(t, 12.5, item["revenue"])
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t)
	in := f.input(t, "orders.tsv", validTSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := New(in, f.cfg, f.parser, f.files, nil).Run(ctx)
	assert.ErrorIs(t, result.Error, context.Canceled)
}

func TestProcessAll(t *testing.T) {
	t.Run("continue on error", func(t *testing.T) {
		f := newFixture(t)
		paths := []string{
			f.input(t, "a.tsv", validTSV),
			f.input(t, "b.tsv", ""),
			f.input(t, "c.tsv", partialTSV),
		}

		results, err := ProcessAll(context.Background(), paths, f.cfg, f.parser, f.files, zap.NewNop())
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.True(t, results[0].Success)
		assert.False(t, results[1].Success)
		assert.True(t, results[2].Success)
		assert.Equal(t, paths[1], results[1].FilePath)
	})

	t.Run("stop on error", func(t *testing.T) {
		f := newFixture(t)
		off := false
		f.cfg.ContinueOnError = &off
		f.cfg.MaxConcurrency = 1
		paths := []string{
			f.input(t, "a.tsv", ""),
			f.input(t, "b.tsv", validTSV),
		}

		results, err := ProcessAll(context.Background(), paths, f.cfg, f.parser, f.files, zap.NewNop())
		assert.ErrorIs(t, err, orders.ErrNoHeader)
		require.Len(t, results, 2)
		assert.False(t, results[0].Success)
	})
}
