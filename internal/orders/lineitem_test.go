package orders

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sales-order-aggregator/internal/tsvparser"
)

func TestBuildProductURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		segments []string
		want     string
	}{
		{"plain", "https://www.foo.com", []string{"Shoes", "Running", "P1"}, "https://www.foo.com/Shoes/Running/P1"},
		{"spaces encoded", "https://www.foo.com", []string{"Office Supplies", "Art", "OFF-AR-1"}, "https://www.foo.com/Office%20Supplies/Art/OFF-AR-1"},
		{"trailing slash on base", "https://www.foo.com/", []string{"a", "b", "c"}, "https://www.foo.com/a/b/c"},
		{"empty segments kept", "https://www.foo.com", []string{"", "", ""}, "https://www.foo.com///"},
		{"percent encoded", "https://www.foo.com", []string{"100%", "x", "y"}, "https://www.foo.com/100%25/x/y"},
		{"reserved marks kept", "https://www.foo.com", []string{"Kid's", "Toys (New)!", "A*1?#"}, "https://www.foo.com/Kid's/Toys%20(New)!/A*1?#"},
		{"unicode escaped per byte", "https://www.foo.com", []string{"Café", "Ä", "P1"}, "https://www.foo.com/Caf%C3%A9/%C3%84/P1"},
		{"brackets and quotes escaped", "https://www.foo.com", []string{"[a]", `"b"`, "c|d"}, "https://www.foo.com/%5Ba%5D/%22b%22/c%7Cd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildProductURL(tt.base, tt.segments...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeURI(t *testing.T) {
	assert.Equal(t, "https://www.foo.com/a%20b?x=1&y=2#top", encodeURI("https://www.foo.com/a b?x=1&y=2#top"))
	assert.Equal(t, ";,/?:@&=+$-_.!~*'()#", encodeURI(";,/?:@&=+$-_.!~*'()#"))
	assert.Equal(t, "%25%3C%3E%5C%5E%60%7B%7D", encodeURI(`%<>\^`+"`"+`{}`))
}

func TestBuildProductURLFailures(t *testing.T) {
	_, err := BuildProductURL("://bad", "a")
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = BuildProductURL("/relative", "a")
	assert.ErrorIs(t, err, ErrInvalidURL)

	_, err = BuildProductURL("https://www.foo.com", string([]byte{0xff, 0xfe}))
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestParseRevenue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"19.99", 19.99},
		{" 5 ", 5},
		{"-3.5", -3.5},
		{".5", 0.5},
		{"1e3", 1000},
		{"19.99 USD", 19.99},
	}
	for _, tt := range tests {
		got, err := ParseRevenue(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, float64(got), 1e-9, tt.in)
	}

	for _, in := range []string{"", "n/a", "$10"} {
		got, err := ParseRevenue(in)
		assert.ErrorIs(t, err, ErrInvalidRevenue, in)
		assert.True(t, math.IsNaN(float64(got)), in)
	}
}

func TestRevenueJSON(t *testing.T) {
	data, err := Revenue(math.NaN()).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	data, err = Revenue(19.99).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "19.99", string(data))
}

func TestBuildLineItem(t *testing.T) {
	table := tsvparser.Parse("Category\tSub-Category\tProduct ID\tSales\nShoes\tRunning\tP1\tabc")

	item, err := BuildLineItem(table, table.Rows[0], DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidRevenue)
	assert.Equal(t, "https://www.foo.com/Shoes/Running/P1", item.ProductURL)
	assert.False(t, item.Revenue.IsValid())

	opts := DefaultOptions()
	opts.BaseURL = "nope"
	item, err = BuildLineItem(table, table.Rows[0], opts)
	assert.ErrorIs(t, err, ErrInvalidURL)
	assert.Equal(t, "", item.ProductURL)
}
