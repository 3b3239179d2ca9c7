package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ginjaninja78/sales-order-aggregator/internal/tsvparser"
)

// ISOLayout is the timestamp format written to "order_date": UTC with
// millisecond precision.
const ISOLayout = "2006-01-02T15:04:05.000Z"

var (
	// ErrEmptyDate is returned when the row has no "Order Date" value.
	ErrEmptyDate = errors.New("order date is empty")

	// ErrInvalidDate is returned when "Order Date" matches no layout.
	ErrInvalidDate = errors.New("order date is not a valid date")

	// ErrDateNotAfterCutoff is returned when the order date is on or before
	// the cutoff.
	ErrDateNotAfterCutoff = errors.New("order date is not after the cutoff")
)

// ParseOrderDate parses a date using the layouts and location in opts.
func ParseOrderDate(value string, opts Options) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrEmptyDate
	}

	for _, layout := range opts.layouts() {
		if t, err := time.ParseInLocation(layout, value, opts.location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// FormatISO renders t in ISOLayout.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// FilterDate reads "Order Date" from the row and admits it only when it is
// strictly after opts.Cutoff.
//
// RETURNS:
//   - The ISO timestamp of the order date when the row is admitted.
//   - ErrEmptyDate, ErrInvalidDate or ErrDateNotAfterCutoff otherwise. All
//     three mean the row is excluded; none of them is a row error.
func FilterDate(table *tsvparser.Table, row tsvparser.Row, opts Options) (string, error) {
	orderDate, err := ParseOrderDate(table.Field(row, ColumnOrderDate), opts)
	if err != nil {
		return "", err
	}
	if !orderDate.After(opts.Cutoff) {
		return "", fmt.Errorf("%w: %s", ErrDateNotAfterCutoff, FormatISO(orderDate))
	}
	return FormatISO(orderDate), nil
}
