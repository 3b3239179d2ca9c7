// =============================================================================
// Sales Order Aggregator - JSON Writer Module
// =============================================================================
//
// This module renders an aggregate as JSON, either bare or wrapped in a
// status envelope:
//
//   {
//     "status": "206",
//     "value": {
//       "Alice": {
//         "orders": [
//           {
//             "order_id": "O1",
//             "order_date": "2016-08-01T00:00:00.000Z",
//             "line_items": [
//               {"product_url": "https://www.foo.com/Shoes/Running/P1", "revenue": 19.99}
//             ]
//           }
//         ]
//       },
//       "error": {"errors": ["line 2: Missed fields in the input: Category"]}
//     }
//   }
//
// STATUS CODES:
//   "204" - the aggregate is empty; the envelope has no value
//   "206" - the aggregate contains row errors
//   "200" - every admitted row was valid
//
// =============================================================================

package jsonwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/sales-order-aggregator/internal/orders"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the outcome code reported alongside an aggregate.
type Status string

const (
	StatusOK        Status = "200"
	StatusNoContent Status = "204"
	StatusPartial   Status = "206"
)

// Classify maps an aggregate to its status.
func Classify(agg *orders.Aggregate) Status {
	switch {
	case agg == nil || agg.IsEmpty():
		return StatusNoContent
	case agg.HasErrors():
		return StatusPartial
	default:
		return StatusOK
	}
}

// Envelope wraps an aggregate with its status.
type Envelope struct {
	Status Status            `json:"status"`
	Value  *orders.Aggregate `json:"value,omitempty"`
}

// NewEnvelope classifies the aggregate and drops the value when empty.
func NewEnvelope(agg *orders.Aggregate) Envelope {
	status := Classify(agg)
	if status == StatusNoContent {
		return Envelope{Status: status}
	}
	return Envelope{Status: status, Value: agg}
}

// =============================================================================
// ENCODING
// =============================================================================

// Options controls encoding.
type Options struct {
	// Pretty indents the output with Indent.
	Pretty bool

	// Indent is used when Pretty is set.
	// Default: "  " (two spaces)
	Indent string

	// Envelope wraps the aggregate in {"status": ..., "value": ...}.
	Envelope bool
}

// Encode renders the aggregate.
func Encode(agg *orders.Aggregate, opts Options) ([]byte, error) {
	var v any = agg
	if opts.Envelope {
		v = NewEnvelope(agg)
	}

	if !opts.Pretty {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode aggregate: %w", err)
		}
		return data, nil
	}

	indent := opts.Indent
	if indent == "" {
		indent = "  "
	}
	data, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode aggregate: %w", err)
	}
	return data, nil
}

// Write encodes the aggregate to w followed by a newline.
func Write(w io.Writer, agg *orders.Aggregate, opts Options) error {
	data, err := Encode(agg, opts)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// WriteFile encodes the aggregate to filePath, creating parent directories.
func WriteFile(filePath string, agg *orders.Aggregate, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := Write(f, agg, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
