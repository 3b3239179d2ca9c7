package orders

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/sales-order-aggregator/internal/tsvparser"
)

var (
	// ErrInvalidURL is returned when a product URL cannot be derived.
	ErrInvalidURL = errors.New("product url cannot be built")

	// ErrInvalidRevenue is returned when "Sales" holds no number.
	ErrInvalidRevenue = errors.New("sales value is not a number")
)

// leadingNumber matches the numeric prefix of a sales value, so "19.99 USD"
// still yields 19.99.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// BuildProductURL joins the base URL with the path segments and
// percent-encodes the result with encodeURI. Segments are not cleaned, so
// empty segments produce consecutive slashes.
func BuildProductURL(base string, segments ...string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: base %q is not absolute", ErrInvalidURL, base)
	}
	for _, segment := range segments {
		if !utf8.ValidString(segment) {
			return "", fmt.Errorf("%w: segment %q is not valid UTF-8", ErrInvalidURL, segment)
		}
	}

	return encodeURI(strings.TrimSuffix(base, "/") + "/" + strings.Join(segments, "/")), nil
}

// uriMarks are the characters besides letters and digits that encodeURI
// leaves as they are.
const uriMarks = ";,/?:@&=+$-_.!~*'()#"

// encodeURI escapes every byte of s except ASCII letters, digits and
// uriMarks as %XX, so multi-byte UTF-8 runes become one escape per byte.
func encodeURI(s string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
			b.WriteByte(c)
		case strings.IndexByte(uriMarks, c) >= 0:
			b.WriteByte(c)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	}
	return b.String()
}

// ParseRevenue reads the leading number of a sales value. On failure the
// returned revenue is NaN.
func ParseRevenue(value string) (Revenue, error) {
	match := leadingNumber.FindString(strings.TrimSpace(value))
	if match == "" {
		return Revenue(math.NaN()), fmt.Errorf("%w: %q", ErrInvalidRevenue, value)
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		// Out of range values come back as ±Inf together with the error.
		return Revenue(math.NaN()), fmt.Errorf("%w: %v", ErrInvalidRevenue, err)
	}
	return Revenue(f), nil
}

// BuildLineItem derives the line item for a row. Derivation failures are
// replaced by defaults (empty URL, NaN revenue) and returned joined in err so
// the caller can decide whether to log or reject them.
func BuildLineItem(table *tsvparser.Table, row tsvparser.Row, opts Options) (LineItem, error) {
	var errs []error

	productURL, err := BuildProductURL(
		opts.BaseURL,
		table.Field(row, ColumnCategory),
		table.Field(row, ColumnSubCategory),
		table.Field(row, ColumnProductID),
	)
	if err != nil {
		productURL = ""
		errs = append(errs, err)
	}

	revenue, err := ParseRevenue(table.Field(row, ColumnSales))
	if err != nil {
		errs = append(errs, err)
	}

	return LineItem{ProductURL: productURL, Revenue: revenue}, errors.Join(errs...)
}
