// =============================================================================
// Sales Order Aggregator - Order Types
// =============================================================================
//
// This file contains the data model produced by the parser:
//
//   Aggregate
//   ├── "<Customer Name>" -> CustomerRecord
//   │     └── orders: []Order
//   │           └── line_items: []LineItem
//   └── "error"           -> ErrorRecord
//         └── errors: []string
//
// Customer records and the error record are held apart (a tagged variant)
// and only share a key space when the aggregate is written as JSON.
//
// =============================================================================

package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// =============================================================================
// LINE ITEMS AND ORDERS
// =============================================================================

// Revenue is the numeric value of the "Sales" column. NaN marks a value that
// could not be parsed and is written as JSON null.
type Revenue float64

// IsValid reports whether the revenue is a finite number.
func (r Revenue) IsValid() bool {
	f := float64(r)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// MarshalJSON implements json.Marshaler.
func (r Revenue) MarshalJSON() ([]byte, error) {
	if !r.IsValid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

// LineItem is one product line of an order.
type LineItem struct {
	// ProductURL is built from Category, Sub-Category and Product ID.
	// Empty when the URL could not be derived.
	ProductURL string `json:"product_url"`

	// Revenue is the parsed "Sales" value.
	Revenue Revenue `json:"revenue"`
}

// Order groups the line items sharing an order ID.
type Order struct {
	OrderID   string     `json:"order_id"`
	OrderDate string     `json:"order_date"`
	LineItems []LineItem `json:"line_items"`
}

// CustomerRecord holds a customer's orders in encounter order.
type CustomerRecord struct {
	Orders []Order `json:"orders"`
}

// ErrorRecord holds one message per invalid row, in encounter order.
type ErrorRecord struct {
	Errors []string `json:"errors"`
}

// =============================================================================
// ENTRIES
// =============================================================================

// EntryKind discriminates the two shapes an entry can take.
type EntryKind int

const (
	// CustomerEntry carries one order with one line item.
	CustomerEntry EntryKind = iota

	// ErrorEntry carries one diagnostic message.
	ErrorEntry
)

// String returns the kind name.
func (k EntryKind) String() string {
	switch k {
	case CustomerEntry:
		return "customer"
	case ErrorEntry:
		return "error"
	default:
		return fmt.Sprintf("EntryKind(%d)", int(k))
	}
}

// Entry is the single-key record built from one admitted row.
type Entry struct {
	Kind EntryKind

	// Customer is the customer name (CustomerEntry only).
	Customer string

	// Order contains exactly one line item (CustomerEntry only).
	Order Order

	// Message is the row diagnostic (ErrorEntry only).
	Message string

	// Line is the 1-based position of the row among admitted rows.
	Line int

	// Warnings collects field-derivation failures that were replaced by
	// defaults (empty URL, NaN revenue). They are not part of the output.
	Warnings []error
}

// =============================================================================
// AGGREGATE
// =============================================================================

// Stats summarizes one parse.
type Stats struct {
	// RowsRead is the number of rows after the header.
	RowsRead int

	// RowsExcluded is the number of rows dropped by the date filter.
	RowsExcluded int

	// RowsAdmitted is the number of rows that passed the date filter.
	RowsAdmitted int

	// RowErrors is the number of admitted rows that failed validation.
	RowErrors int

	// Warnings is the number of field-derivation failures.
	Warnings int
}

// Aggregate maps customer names to their records, plus an optional error
// record under ErrorKey. Keys keep first-occurrence order.
type Aggregate struct {
	// ErrorKey is the key the error record is written under.
	ErrorKey string

	// Stats is filled by the parser. It is not part of the JSON output.
	Stats Stats

	keys      []string
	customers map[string]*CustomerRecord
	errors    *ErrorRecord
}

// NewAggregate creates an empty aggregate.
func NewAggregate(errorKey string) *Aggregate {
	if errorKey == "" {
		errorKey = DefaultErrorKey
	}
	return &Aggregate{
		ErrorKey:  errorKey,
		customers: make(map[string]*CustomerRecord),
	}
}

// Keys returns the output keys in first-occurrence order.
func (a *Aggregate) Keys() []string {
	return append([]string(nil), a.keys...)
}

// Len returns the number of keys.
func (a *Aggregate) Len() int {
	return len(a.keys)
}

// IsEmpty reports whether nothing was recorded.
func (a *Aggregate) IsEmpty() bool {
	return a.Len() == 0
}

// HasErrors reports whether at least one row error was recorded.
func (a *Aggregate) HasErrors() bool {
	return a.errors != nil
}

// Errors returns the recorded row errors.
func (a *Aggregate) Errors() []string {
	if a.errors == nil {
		return nil
	}
	return a.errors.Errors
}

// Customer returns the record for a customer name.
func (a *Aggregate) Customer(name string) (*CustomerRecord, bool) {
	rec, ok := a.customers[name]
	return rec, ok
}

// Customers returns the customer names in first-occurrence order.
func (a *Aggregate) Customers() []string {
	names := make([]string, 0, len(a.customers))
	for _, key := range a.keys {
		if _, ok := a.customers[key]; ok {
			names = append(names, key)
		}
	}
	return names
}

// MarshalJSON writes the aggregate as a single JSON object whose keys follow
// first-occurrence order.
func (a *Aggregate) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range a.keys {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')

		var value any
		if rec, ok := a.customers[key]; ok {
			value = rec
		} else if key == a.ErrorKey && a.errors != nil {
			value = a.errors
		} else {
			return nil, fmt.Errorf("aggregate key %q has no record", key)
		}

		body, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", key, err)
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
