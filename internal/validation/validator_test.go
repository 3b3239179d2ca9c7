package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMissingFields(t *testing.T) {
	fields := []Field{
		{Name: "Customer Name", Value: ""},
		{Name: "Order ID", Value: "O1"},
		{Name: "Order Date", Value: ""},
		{Name: "Category", Value: "Shoes"},
	}

	assert.Equal(t, []string{"Customer Name", "Order Date"}, MissingFields(fields))
	assert.Empty(t, MissingFields([]Field{{Name: "A", Value: "x"}}))
	assert.Empty(t, MissingFields(nil))
}

func TestMissingFieldsMessage(t *testing.T) {
	assert.Equal(t,
		"line 1: Missed fields in the input: Customer Name",
		MissingFieldsMessage(1, []string{"Customer Name"}))
	assert.Equal(t,
		"line 4: Missed fields in the input: Category,Sub-Category",
		MissingFieldsMessage(4, []string{"Category", "Sub-Category"}))
}

func TestCheckRow(t *testing.T) {
	assert.Nil(t, CheckRow(1, []Field{{Name: "A", Value: "a"}}))

	err := CheckRow(2, []Field{{Name: "A", Value: ""}, {Name: "B", Value: ""}})
	require.NotNil(t, err)
	assert.Equal(t, 2, err.Line)
	assert.Equal(t, "line 2: Missed fields in the input: A,B", err.Error())
}

func TestRowErrorReason(t *testing.T) {
	err := &RowError{Line: 7, Reason: "something else"}
	assert.Equal(t, "line 7: something else", err.Error())
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation errors.", FormatErrors(nil))
	assert.Contains(t, FormatErrors([]string{"line 1: x"}), "1. line 1: x")
}
