package sheetsql

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		values   []string
		expected columnType
	}{
		{name: "all integers", values: []string{"123", "456", "789"}, expected: columnTypeInteger},
		{name: "mixed integers and floats", values: []string{"123", "45.6", "789"}, expected: columnTypeReal},
		{name: "all floats", values: []string{"12.3", "45.6", "78.9"}, expected: columnTypeReal},
		{name: "mixed numbers and text", values: []string{"123", "hello", "789"}, expected: columnTypeText},
		{name: "all text", values: []string{"hello", "world", "test"}, expected: columnTypeText},
		{name: "empty values", values: []string{"", "", ""}, expected: columnTypeText},
		{name: "no values", values: nil, expected: columnTypeText},
		{name: "integers with empty values", values: []string{"123", "", "789"}, expected: columnTypeInteger},
		{name: "negative integers", values: []string{"-123", "456", "-789"}, expected: columnTypeInteger},
		{name: "negative floats", values: []string{"-12.3", "45.6", "-78.9"}, expected: columnTypeReal},
		{name: "scientific notation", values: []string{"1e10", "2.5e-3", "3.14e2"}, expected: columnTypeReal},
		{name: "zero values", values: []string{"0", "0.0", "000"}, expected: columnTypeReal},
		{name: "ISO8601 dates", values: []string{"2023-01-15", "2023-02-20"}, expected: columnTypeDatetime},
		{name: "ISO8601 datetime", values: []string{"2023-01-15T10:30:00", "2023-02-20T14:45:30"}, expected: columnTypeDatetime},
		{name: "US date format", values: []string{"1/15/2023", "2/20/2023"}, expected: columnTypeDatetime},
		{name: "date cells read from the workbook", values: []string{"2023-01-15 00:00:00", "2023-02-20 13:45:00"}, expected: columnTypeDatetime},
		{name: "rendered short dates are text", values: []string{"1-15-23", "12-31-99"}, expected: columnTypeText},
		{name: "European date format", values: []string{"15.1.2023", "20.2.2023"}, expected: columnTypeDatetime},
		{name: "time only", values: []string{"10:30:00", "14:45:30"}, expected: columnTypeDatetime},
		{name: "mixed datetime and text", values: []string{"2023-01-15", "not a date"}, expected: columnTypeText},
		{name: "mixed datetime and numbers", values: []string{"2023-01-15", "42"}, expected: columnTypeText},
		{name: "datetime with timezone", values: []string{"2023-01-15T10:30:00Z", "2023-02-20T14:45:30+09:00"}, expected: columnTypeDatetime},
		{name: "padded numbers", values: []string{" 12 ", "13"}, expected: columnTypeInteger},
		{name: "NaN is text", values: []string{"NaN"}, expected: columnTypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, inferColumnType(tt.values), "values %v", tt.values)
		})
	}
}

func TestInferColumnType_SamplesTallColumns(t *testing.T) {
	t.Parallel()

	values := make([]string, 0, 5001)
	for i := range 5000 {
		values = append(values, strconv.Itoa(i))
	}
	assert.Equal(t, columnTypeInteger, inferColumnType(values))

	// the last value is always sampled
	values = append(values, "Total")
	assert.Equal(t, columnTypeText, inferColumnType(values))
}

func TestInferColumnsInfo(t *testing.T) {
	t.Parallel()

	t.Run("mixed column types", func(t *testing.T) {
		t.Parallel()

		h := header{"id", "name", "salary", "hire_date"}
		records := []Record{
			{"1", "Alice", "95000.5", "2023-01-15"},
			{"2", "Bob", "78000", "2023-02-20"},
		}

		assert.Equal(t, []columnInfo{
			{Name: "id", Type: columnTypeInteger},
			{Name: "name", Type: columnTypeText},
			{Name: "salary", Type: columnTypeReal},
			{Name: "hire_date", Type: columnTypeDatetime},
		}, inferColumnsInfo(h, records))
	})

	t.Run("empty records", func(t *testing.T) {
		t.Parallel()

		result := inferColumnsInfo(header{"col1", "col2"}, nil)
		require.Len(t, result, 2)
		for _, col := range result {
			assert.Equal(t, columnTypeText, col.Type)
		}
	})

	t.Run("empty header", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, inferColumnsInfo(nil, []Record{{"1"}}))
	})
}

func TestIsDatetime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		expected bool
	}{
		{"ISO date", "2023-01-15", true},
		{"ISO datetime", "2023-01-15T10:30:00", true},
		{"ISO datetime with timezone Z", "2023-01-15T10:30:00Z", true},
		{"ISO datetime with timezone offset", "2023-01-15T10:30:00+09:00", true},
		{"ISO datetime with milliseconds", "2023-01-15T10:30:00.123", true},
		{"ISO datetime with space", "2023-01-15 10:30:00", true},
		{"US date", "1/15/2023", true},
		{"US date padded", "01/15/2023", true},
		{"rendered short date", "3-7-24", false},
		{"European date", "15.1.2023", true},
		{"time", "10:30", true},
		{"invalid month", "2023-13-01", false},
		{"invalid day", "2023-02-30", false},
		{"plain number", "20230115", false},
		{"decimal", "1.5", false},
		{"text", "hello", false},
		{"too short", "1:2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, isDatetime(tt.value), "value %q", tt.value)
		})
	}
}
