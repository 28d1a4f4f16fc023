// Package telemetry defines the sparse row model shared by the time-series
// store and the export pipeline, plus the policies that turn raw rows into
// presentable values: typed value decoding, null substitution, and timestamp
// formatting.
package telemetry

// Row is one sparse record from the wide-column store. At most one of the
// five value columns is expected to be populated, but nothing here assumes
// it; DecodeValue applies a fixed precedence either way.
type Row struct {
	Key       string   `json:"key"`
	Partition int64    `json:"partition"`
	TS        int64    `json:"ts"`
	BoolV     *bool    `json:"bool_v,omitempty"`
	DblV      *float64 `json:"dbl_v,omitempty"`
	LongV     *int64   `json:"long_v,omitempty"`
	StrV      *string  `json:"str_v,omitempty"`
	JSONV     *string  `json:"json_v,omitempty"`
}

// Empty reports whether no value column is populated.
func (r Row) Empty() bool {
	return r.BoolV == nil && r.DblV == nil && r.LongV == nil && r.StrV == nil && r.JSONV == nil
}
