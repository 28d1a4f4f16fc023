// Package export implements the device telemetry export pipeline: fetch rows
// from the time-series store, reshape them under the requested organization,
// and stream the encoded file to the HTTP response.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/telemetryhq/fleethub/pkg/telemetry"
)

// ErrInvalidRequest wraps all request validation failures.
var ErrInvalidRequest = errors.New("invalid export request")

// FileFormat selects the output encoding.
type FileFormat string

const (
	FormatJSON FileFormat = "json"
	FormatCSV  FileFormat = "csv"
	FormatXLSX FileFormat = "xlsx"
)

// ContentType returns the MIME type for HTTP responses.
func (f FileFormat) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Ext returns the file extension including the dot.
func (f FileFormat) Ext() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatXLSX:
		return ".xlsx"
	default:
		return ".json"
	}
}

// DataOrganization selects the output projection. Flat and key behave
// identically; both enum values are kept for request compatibility.
type DataOrganization string

const (
	OrgFlat      DataOrganization = "flat"
	OrgKey       DataOrganization = "key"
	OrgPartition DataOrganization = "partition"
)

// Delimiter is the CSV field separator.
type Delimiter string

const (
	DelimComma     Delimiter = ","
	DelimSemicolon Delimiter = ";"
	DelimTab       Delimiter = "\t"
	DelimPipe      Delimiter = "|"
)

// Compression is declared in the request schema but applied nowhere; "zip"
// is accepted and ignored.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZip  Compression = "zip"
)

// PartitionList accepts JSON arrays of numbers or numeric strings and
// normalizes them to integers.
type PartitionList []int64

// UnmarshalJSON implements the lenient partition decoding.
func (p *PartitionList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		switch t := v.(type) {
		case float64:
			if t != math.Trunc(t) {
				return fmt.Errorf("partition %v is not an integer", t)
			}
			out = append(out, int64(t))
		case string:
			n, err := strconv.ParseInt(t, 10, 64)
			if err != nil {
				return fmt.Errorf("partition %q is not an integer", t)
			}
			out = append(out, n)
		default:
			return fmt.Errorf("partition element must be a number or numeric string")
		}
	}
	*p = out
	return nil
}

// KeySelector names one telemetry key and the partitions to export for it.
type KeySelector struct {
	Key        string        `json:"key"`
	Partitions PartitionList `json:"partitions"`
}

// Request is a validated device export request.
type Request struct {
	FileFormat       FileFormat           `json:"fileFormat"`
	DataOrganization DataOrganization     `json:"dataOrganization"`
	TimeFormat       telemetry.TimeFormat `json:"timeFormat"`
	NullValue        telemetry.NullMode   `json:"nullValue"`
	NullCustomValue  string               `json:"nullCustomValue,omitempty"`
	CSVDelimiter     Delimiter            `json:"csvDelimiter,omitempty"`
	Compression      Compression          `json:"compression,omitempty"`
	SelectedData     []KeySelector        `json:"selectedData"`
}

// Validate checks every field and normalizes defaults (missing compression
// becomes none). All failures wrap ErrInvalidRequest.
func (r *Request) Validate() error {
	switch r.FileFormat {
	case FormatJSON, FormatCSV, FormatXLSX:
	default:
		return fmt.Errorf("%w: unknown fileFormat %q", ErrInvalidRequest, r.FileFormat)
	}

	switch r.DataOrganization {
	case OrgFlat, OrgKey, OrgPartition:
	default:
		return fmt.Errorf("%w: unknown dataOrganization %q", ErrInvalidRequest, r.DataOrganization)
	}

	if !r.TimeFormat.Valid() {
		return fmt.Errorf("%w: unknown timeFormat %q", ErrInvalidRequest, r.TimeFormat)
	}

	if !r.NullValue.Valid() {
		return fmt.Errorf("%w: unknown nullValue %q", ErrInvalidRequest, r.NullValue)
	}
	if r.NullValue == telemetry.NullCustom && r.NullCustomValue == "" {
		return fmt.Errorf("%w: nullCustomValue is required when nullValue is custom", ErrInvalidRequest)
	}

	if r.FileFormat == FormatCSV {
		switch r.CSVDelimiter {
		case DelimComma, DelimSemicolon, DelimTab, DelimPipe:
		default:
			return fmt.Errorf("%w: csvDelimiter is required for csv exports", ErrInvalidRequest)
		}
	}

	switch r.Compression {
	case CompressionNone, CompressionZip:
	case "":
		r.Compression = CompressionNone
	default:
		return fmt.Errorf("%w: unknown compression %q", ErrInvalidRequest, r.Compression)
	}

	if len(r.SelectedData) == 0 {
		return fmt.Errorf("%w: selectedData must not be empty", ErrInvalidRequest)
	}
	for i, sel := range r.SelectedData {
		if sel.Key == "" {
			return fmt.Errorf("%w: selectedData[%d] has an empty key", ErrInvalidRequest, i)
		}
		if len(sel.Partitions) == 0 {
			return fmt.Errorf("%w: selectedData[%d] has no partitions", ErrInvalidRequest, i)
		}
		for _, p := range sel.Partitions {
			if p < 0 {
				return fmt.Errorf("%w: selectedData[%d] has a negative partition", ErrInvalidRequest, i)
			}
		}
	}
	return nil
}

// spreadsheet reports whether values must be coerced for spreadsheet cells.
func (r *Request) spreadsheet() bool {
	return r.FileFormat == FormatXLSX
}
