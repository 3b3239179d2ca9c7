package orders

import (
	"fmt"

	"github.com/ginjaninja78/sales-order-aggregator/internal/tsvparser"
	"github.com/ginjaninja78/sales-order-aggregator/internal/validation"
)

// Column names read from the header. They double as the display names used
// in missing-field messages.
const (
	ColumnCustomerName = "Customer Name"
	ColumnOrderID      = "Order ID"
	ColumnOrderDate    = "Order Date"
	ColumnCategory     = "Category"
	ColumnSubCategory  = "Sub-Category"
	ColumnProductID    = "Product ID"
	ColumnSales        = "Sales"
)

// RequiredColumns lists the required fields in check order.
var RequiredColumns = []string{
	ColumnCustomerName,
	ColumnOrderID,
	ColumnOrderDate,
	ColumnCategory,
	ColumnSubCategory,
	ColumnProductID,
}

// BuildEntry converts one row into an entry.
//
// RETURNS:
//   - The entry and true when the row passed the date filter.
//   - A zero entry and false when the row is dropped.
func BuildEntry(table *tsvparser.Table, row tsvparser.Row, line int, opts Options) (Entry, bool) {
	orderDate, err := FilterDate(table, row, opts)
	if err != nil {
		return Entry{}, false
	}
	return buildEntry(table, row, line, orderDate, opts), true
}

// buildEntry builds the entry for a row already admitted with orderDate.
func buildEntry(table *tsvparser.Table, row tsvparser.Row, line int, orderDate string, opts Options) Entry {
	customer := table.Field(row, ColumnCustomerName)
	orderID := table.Field(row, ColumnOrderID)

	lineItem, derivErr := BuildLineItem(table, row, opts)

	rowErr := validation.CheckRow(line, []validation.Field{
		{Name: ColumnCustomerName, Value: customer},
		{Name: ColumnOrderID, Value: orderID},
		{Name: ColumnOrderDate, Value: orderDate},
		{Name: ColumnCategory, Value: table.Field(row, ColumnCategory)},
		{Name: ColumnSubCategory, Value: table.Field(row, ColumnSubCategory)},
		{Name: ColumnProductID, Value: table.Field(row, ColumnProductID)},
	})
	if rowErr == nil && customer == opts.errorKey() {
		rowErr = &validation.RowError{
			Line:   line,
			Reason: fmt.Sprintf("%s collides with reserved key %q", ColumnCustomerName, customer),
		}
	}
	if rowErr != nil {
		return Entry{Kind: ErrorEntry, Message: rowErr.Error(), Line: line}
	}

	entry := Entry{
		Kind:     CustomerEntry,
		Customer: customer,
		Line:     line,
		Order: Order{
			OrderID:   orderID,
			OrderDate: orderDate,
			LineItems: []LineItem{lineItem},
		},
	}
	if derivErr != nil {
		entry.Warnings = unwrapJoined(derivErr)
	}
	return entry
}

// errorKey returns the configured error key, defaulting to DefaultErrorKey.
func (o Options) errorKey() string {
	if o.ErrorKey == "" {
		return DefaultErrorKey
	}
	return o.ErrorKey
}

// unwrapJoined splits an errors.Join result back into its parts.
func unwrapJoined(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// Key returns the aggregate key the entry is merged under.
func (e Entry) Key(errorKey string) string {
	if e.Kind == ErrorEntry {
		return errorKey
	}
	return e.Customer
}

// IsError reports whether the entry is a row error.
func (e Entry) IsError() bool {
	return e.Kind == ErrorEntry
}
