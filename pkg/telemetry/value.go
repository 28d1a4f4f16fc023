package telemetry

import (
	"encoding/json"
	"strconv"
)

// DecodeValue extracts the logical value from a sparse row.
//
// Precedence is fixed: bool > double > long > string > JSON. The JSON column
// is parsed; if parsing fails the raw string is kept, never an error. A row
// with no populated column decodes to nil.
//
// When spreadsheet is true the value is massaged for untyped spreadsheet
// cells: objects and arrays are stringified, booleans are stringified, and
// numeric-looking strings are coerced back to numbers so numeric columns
// stay numeric.
func DecodeValue(row Row, spreadsheet bool) any {
	var value any

	switch {
	case row.BoolV != nil:
		value = *row.BoolV
	case row.DblV != nil:
		value = *row.DblV
	case row.LongV != nil:
		value = *row.LongV
	case row.StrV != nil:
		value = *row.StrV
	case row.JSONV != nil:
		var parsed any
		if err := json.Unmarshal([]byte(*row.JSONV), &parsed); err != nil {
			value = *row.JSONV
		} else {
			value = parsed
		}
	}

	if spreadsheet {
		value = coerceForSpreadsheet(value)
	}
	return value
}

func coerceForSpreadsheet(value any) any {
	switch v := value.(type) {
	case map[string]any, []any:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return v
	case bool:
		return strconv.FormatBool(v)
	case string:
		if n, err := strconv.ParseFloat(v, 64); err == nil && v != "" {
			return n
		}
		return v
	default:
		return value
	}
}
