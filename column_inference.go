package sheetsql

import (
	"strconv"
	"strings"
	"time"
)

// Type inference constants
const (
	// maxSampleSize limits how many values are inspected per column
	maxSampleSize = 1000
	// minDatetimeLength is the minimum reasonable length for datetime values
	minDatetimeLength = 4
	// maxDatetimeLength is the maximum reasonable length for datetime values
	maxDatetimeLength = 35
)

// datetimeLayouts are the date and time renderings recognised in cells.
// Fractional seconds are accepted after any seconds field.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	// month first
	"1/2/2006",
	// day first
	"2.1.2006",
	"15:04:05",
	"15:04",
}

// isDatetime reports whether value parses with one of the datetime layouts
func isDatetime(value string) bool {
	if len(value) < minDatetimeLength || len(value) > maxDatetimeLength {
		return false
	}
	if value[0] < '0' || value[0] > '9' || !strings.ContainsAny(value, "-/.:") {
		return false
	}

	for _, layout := range datetimeLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

// isInteger checks if a value parses as a 64-bit integer
func isInteger(value string) bool {
	first := value[0]
	if first != '+' && first != '-' && (first < '0' || first > '9') {
		return false
	}
	_, err := strconv.ParseInt(value, 10, 64)
	return err == nil
}

// isFloat checks if a value parses as a finite float
func isFloat(value string) bool {
	if !strings.ContainsAny(value, "0123456789") {
		return false
	}
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}

// classifyValue determines the type of a single non-empty value
func classifyValue(value string) columnType {
	switch {
	case isDatetime(value):
		return columnTypeDatetime
	case isInteger(value):
		return columnTypeInteger
	case isFloat(value):
		return columnTypeReal
	default:
		return columnTypeText
	}
}

// sampleValues returns an evenly spaced sample so very tall sheets stay cheap to infer
func sampleValues(values []string) []string {
	if len(values) <= maxSampleSize {
		return values
	}
	step := len(values) / maxSampleSize
	samples := make([]string, 0, maxSampleSize+1)
	for i := 0; i < len(values); i += step {
		samples = append(samples, values[i])
	}
	// the last row often differs (totals), always look at it
	if last := values[len(values)-1]; samples[len(samples)-1] != last {
		samples = append(samples, last)
	}
	return samples
}

// inferColumnType infers the column type from the stored cell values.
//
// Any text value makes the column TEXT. A mix of datetimes and numbers is TEXT too.
// Integers mixed with reals widen to REAL. A column without values is TEXT.
func inferColumnType(values []string) columnType {
	var hasDatetime, hasReal, hasInteger bool

	for _, value := range sampleValues(values) {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		switch classifyValue(value) {
		case columnTypeText:
			return columnTypeText
		case columnTypeDatetime:
			hasDatetime = true
		case columnTypeReal:
			hasReal = true
		case columnTypeInteger:
			hasInteger = true
		}
	}

	switch {
	case hasDatetime && (hasReal || hasInteger):
		return columnTypeText
	case hasDatetime:
		return columnTypeDatetime
	case hasReal:
		return columnTypeReal
	case hasInteger:
		return columnTypeInteger
	default:
		return columnTypeText
	}
}

// inferColumnsInfo pairs every header cell with the type inferred from its column
func inferColumnsInfo(h header, records []Record) []columnInfo {
	if len(h) == 0 {
		return nil
	}

	infos := make([]columnInfo, 0, len(h))
	column := make([]string, 0, len(records))
	for i, name := range h {
		column = column[:0]
		for _, record := range records {
			if i < len(record) {
				column = append(column, record[i])
			}
		}
		infos = append(infos, columnInfo{Name: name, Type: inferColumnType(column)})
	}
	return infos
}
