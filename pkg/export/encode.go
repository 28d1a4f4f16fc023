package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Data"

// Encode writes the dataset to w in the requested file format.
func Encode(w io.Writer, ds *Dataset, req *Request) error {
	switch req.FileFormat {
	case FormatCSV:
		return encodeCSV(w, ds, req)
	case FormatXLSX:
		return encodeXLSX(w, ds)
	default:
		return encodeJSON(w, ds)
	}
}

func encodeJSON(w io.Writer, ds *Dataset) error {
	var payload any
	if ds.Organization == OrgPartition {
		rows := ds.Rows
		if rows == nil {
			rows = []PivotRow{}
		}
		payload = rows
	} else {
		records := ds.Records
		if records == nil {
			records = []Record{}
		}
		payload = records
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func encodeCSV(w io.Writer, ds *Dataset, req *Request) error {
	cw := csv.NewWriter(w)
	cw.Comma = []rune(string(req.CSVDelimiter))[0]

	if err := cw.Write(ds.Columns); err != nil {
		return err
	}

	if ds.Organization == OrgPartition {
		for _, row := range ds.Rows {
			cells := make([]string, 0, len(ds.Columns))
			cells = append(cells, row.Partition, cellString(row.Timestamp))
			for _, key := range ds.Columns[2:] {
				v, ok := row.Values[key]
				if !ok {
					cells = append(cells, "")
					continue
				}
				cells = append(cells, cellString(v))
			}
			if err := cw.Write(cells); err != nil {
				return err
			}
		}
	} else {
		for _, rec := range ds.Records {
			cells := []string{cellString(rec.Timestamp), rec.Key, cellString(rec.Value), rec.Partition}
			if err := cw.Write(cells); err != nil {
				return err
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// cellString renders a value for a CSV cell. Structured values fall back to
// their compact JSON form.
func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case map[string]any, []any:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

func encodeXLSX(w io.Writer, ds *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	for i, col := range ds.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, col); err != nil {
			return err
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, columnWidth(col)); err != nil {
			return err
		}
	}

	setCell := func(rowIdx, colIdx int, v any) error {
		cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheetName, cell, v)
	}

	if ds.Organization == OrgPartition {
		for r, row := range ds.Rows {
			if err := setCell(r, 0, row.Partition); err != nil {
				return err
			}
			if err := setCell(r, 1, row.Timestamp); err != nil {
				return err
			}
			for c, key := range ds.Columns[2:] {
				v, ok := row.Values[key]
				if !ok {
					continue
				}
				if err := setCell(r, c+2, v); err != nil {
					return err
				}
			}
		}
	} else {
		for r, rec := range ds.Records {
			if err := setCell(r, 0, rec.Timestamp); err != nil {
				return err
			}
			if err := setCell(r, 1, rec.Key); err != nil {
				return err
			}
			if err := setCell(r, 2, rec.Value); err != nil {
				return err
			}
			if err := setCell(r, 3, rec.Partition); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}

// columnWidth picks a readable default width per column role; every dynamic
// key column uses the value width.
func columnWidth(col string) float64 {
	switch col {
	case "timestamp":
		return 25
	case "key", "partition":
		return 15
	default:
		return 30
	}
}
