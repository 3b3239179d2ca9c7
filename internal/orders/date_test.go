package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-order-aggregator/internal/tsvparser"
)

func dateTable(value string) (*tsvparser.Table, tsvparser.Row) {
	table := tsvparser.Parse("Order Date\n" + value)
	return table, table.Rows[0]
}

func TestParseOrderDate(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"8/1/2016", time.Date(2016, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"08/01/2016", time.Date(2016, 8, 1, 0, 0, 0, 0, time.UTC)},
		{" 12/31/2016 ", time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"2016-08-01", time.Date(2016, 8, 1, 0, 0, 0, 0, time.UTC)},
		{"2016-08-01T10:30:00Z", time.Date(2016, 8, 1, 10, 30, 0, 0, time.UTC)},
		{"Aug 1, 2016", time.Date(2016, 8, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrderDate(tt.in, opts)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseOrderDate("", opts)
	assert.ErrorIs(t, err, ErrEmptyDate)

	_, err = ParseOrderDate("13/45/2016", opts)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestParseOrderDateLocation(t *testing.T) {
	opts := DefaultOptions()
	opts.Location = time.FixedZone("UTC-5", -5*60*60)

	got, err := ParseOrderDate("8/1/2016", opts)
	require.NoError(t, err)
	assert.Equal(t, "2016-08-01T05:00:00.000Z", FormatISO(got))
}

func TestFilterDate(t *testing.T) {
	opts := DefaultOptions()

	t.Run("after cutoff", func(t *testing.T) {
		table, row := dateTable("8/1/2016")
		iso, err := FilterDate(table, row, opts)
		require.NoError(t, err)
		assert.Equal(t, "2016-08-01T00:00:00.000Z", iso)
	})

	t.Run("equal to cutoff is excluded", func(t *testing.T) {
		table, row := dateTable("7/31/2016")
		_, err := FilterDate(table, row, opts)
		assert.ErrorIs(t, err, ErrDateNotAfterCutoff)
	})

	t.Run("one microsecond after cutoff is admitted", func(t *testing.T) {
		table, row := dateTable("2016-07-31T00:00:00.000001Z")
		iso, err := FilterDate(table, row, opts)
		require.NoError(t, err)
		assert.Equal(t, "2016-07-31T00:00:00.000Z", iso)
	})

	t.Run("before cutoff", func(t *testing.T) {
		table, row := dateTable("7/1/2016")
		_, err := FilterDate(table, row, opts)
		assert.ErrorIs(t, err, ErrDateNotAfterCutoff)
	})

	t.Run("malformed date is excluded", func(t *testing.T) {
		table, row := dateTable("soon")
		_, err := FilterDate(table, row, opts)
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("missing column", func(t *testing.T) {
		table := tsvparser.Parse("Customer Name\nAlice")
		_, err := FilterDate(table, table.Rows[0], opts)
		assert.ErrorIs(t, err, ErrEmptyDate)
	})
}

func TestWithCutoff(t *testing.T) {
	opts, err := DefaultOptions().WithCutoff("1/1/2020")
	require.NoError(t, err)
	assert.Equal(t, 2020, opts.Cutoff.Year())

	_, err = DefaultOptions().WithCutoff("whenever")
	assert.Error(t, err)
}
