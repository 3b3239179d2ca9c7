// =============================================================================
// Sales Order Aggregator - Aggregation
// =============================================================================
//
// Entries are folded one at a time into an Aggregate:
//
//   error entry,    error record exists   -> append the message
//   customer entry, customer exists       -> merge the order (see MergePolicy)
//   otherwise                             -> insert the entry's record
//
// The fold is strictly sequential. An Aggregate is owned by a single parse
// and is never shared.
//
// =============================================================================

package orders

import "slices"

// Merge folds one entry into the aggregate.
func Merge(agg *Aggregate, entry Entry, policy MergePolicy) {
	if entry.IsError() {
		if agg.errors == nil {
			agg.errors = &ErrorRecord{}
			agg.keys = append(agg.keys, agg.ErrorKey)
		}
		agg.errors.Errors = append(agg.errors.Errors, entry.Message)
		return
	}

	incoming := cloneOrder(entry.Order)

	record, exists := agg.customers[entry.Customer]
	if !exists {
		agg.customers[entry.Customer] = &CustomerRecord{Orders: []Order{incoming}}
		agg.keys = append(agg.keys, entry.Customer)
		return
	}

	switch policy {
	case MergeSearchAll:
		mergeSearchAll(record, incoming)
	default:
		mergeFirstOrder(record, incoming)
	}
}

// mergeFirstOrder walks the orders from the start. Every leading order with
// the incoming ID receives the incoming line items; the first order with a
// different ID stops the walk and the incoming order is appended.
func mergeFirstOrder(record *CustomerRecord, incoming Order) {
	for i := 0; i < len(record.Orders); i++ {
		if record.Orders[i].OrderID != incoming.OrderID {
			record.Orders = append(record.Orders, incoming)
			return
		}
		record.Orders[i].LineItems = append(record.Orders[i].LineItems, incoming.LineItems...)
	}
}

// mergeSearchAll merges into the first order with the incoming ID, or
// appends the incoming order when there is none.
func mergeSearchAll(record *CustomerRecord, incoming Order) {
	for i := range record.Orders {
		if record.Orders[i].OrderID == incoming.OrderID {
			record.Orders[i].LineItems = append(record.Orders[i].LineItems, incoming.LineItems...)
			return
		}
	}
	record.Orders = append(record.Orders, incoming)
}

// cloneOrder copies the line item slice so merges never write through to the
// caller's entry.
func cloneOrder(order Order) Order {
	order.LineItems = slices.Clone(order.LineItems)
	return order
}

// Fold merges entries in order into a new aggregate.
func Fold(entries []Entry, policy MergePolicy, errorKey string) *Aggregate {
	agg := NewAggregate(errorKey)
	for _, entry := range entries {
		Merge(agg, entry, policy)
	}
	return agg
}
