package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool      { return &b }
func f64Ptr(f float64) *float64 { return &f }
func i64Ptr(i int64) *int64     { return &i }
func strPtr(s string) *string   { return &s }

func TestDecodeValuePrecedence(t *testing.T) {
	// Bool wins over everything else even if more than one column is set.
	row := Row{
		BoolV: boolPtr(true),
		DblV:  f64Ptr(1.5),
		LongV: i64Ptr(7),
		StrV:  strPtr("x"),
		JSONV: strPtr(`{"a":1}`),
	}
	require.Equal(t, true, DecodeValue(row, false))

	row.BoolV = nil
	require.Equal(t, 1.5, DecodeValue(row, false))

	row.DblV = nil
	require.Equal(t, int64(7), DecodeValue(row, false))

	row.LongV = nil
	require.Equal(t, "x", DecodeValue(row, false))

	row.StrV = nil
	require.Equal(t, map[string]any{"a": float64(1)}, DecodeValue(row, false))
}

func TestDecodeValueEmptyRow(t *testing.T) {
	require.Nil(t, DecodeValue(Row{}, false))
	require.True(t, Row{}.Empty())
}

func TestDecodeValueMalformedJSON(t *testing.T) {
	// A broken JSON column degrades to the raw string, never an error.
	row := Row{JSONV: strPtr(`{"a":`)}
	require.Equal(t, `{"a":`, DecodeValue(row, false))
}

func TestDecodeValueSpreadsheetCoercion(t *testing.T) {
	// Objects are stringified for spreadsheet cells.
	obj := Row{JSONV: strPtr(`{"a":1}`)}
	require.Equal(t, `{"a":1}`, DecodeValue(obj, true))

	arr := Row{JSONV: strPtr(`[1,2]`)}
	require.Equal(t, `[1,2]`, DecodeValue(arr, true))

	// Booleans become strings.
	require.Equal(t, "true", DecodeValue(Row{BoolV: boolPtr(true)}, true))

	// Numeric-looking strings become numbers.
	require.Equal(t, 21.5, DecodeValue(Row{StrV: strPtr("21.5")}, true))

	// Non-numeric strings pass through.
	require.Equal(t, "warm", DecodeValue(Row{StrV: strPtr("warm")}, true))

	// Real numbers are untouched.
	require.Equal(t, 21.5, DecodeValue(Row{DblV: f64Ptr(21.5)}, true))
}
