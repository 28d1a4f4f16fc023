package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/telemetryhq/fleethub/pkg/telemetry"
)

// Dataset is the organized, encoder-ready shape of an export. Flat and key
// organizations fill Records; partition fills Rows. Columns carries the
// tabular field order for the CSV and XLSX encoders.
type Dataset struct {
	Organization DataOrganization
	Columns      []string
	Records      []Record
	Rows         []PivotRow
}

// PivotRow is one row of a partition-organized export: a timestamp, the
// partition it came from, and one cell per telemetry key. A key missing from
// Values is an absent cell (skip mode) and is omitted from the encoded output.
type PivotRow struct {
	Partition string
	Timestamp any
	Values    map[string]any
}

// MarshalJSON emits partition and timestamp first, then the key cells in
// sorted order, so the JSON output has a stable field layout.
func (r PivotRow) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	writeField := func(name string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		nb, err := json.Marshal(name)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(nb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}
	if err := writeField("partition", r.Partition); err != nil {
		return nil, err
	}
	if err := writeField("timestamp", r.Timestamp); err != nil {
		return nil, err
	}
	for _, k := range keys {
		if err := writeField(k, r.Values[k]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Organize sorts records by formatted timestamp then key and, for partition
// organization, pivots them into one row per timestamp with a column per key.
func Organize(records []Record, req *Request) *Dataset {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := fmt.Sprint(records[i].Timestamp), fmt.Sprint(records[j].Timestamp)
		if ti != tj {
			return ti < tj
		}
		return records[i].Key < records[j].Key
	})

	if req.DataOrganization != OrgPartition {
		return &Dataset{
			Organization: req.DataOrganization,
			Columns:      []string{"timestamp", "key", "value", "partition"},
			Records:      records,
		}
	}
	return pivot(records, req)
}

// pivot groups records by their formatted timestamp. Each group becomes one
// row; keys without a reading at that timestamp are filled via the null
// policy, or left absent when the policy says skip. Groups whose every cell
// is absent are dropped.
func pivot(records []Record, req *Request) *Dataset {
	keySet := map[string]struct{}{}
	for _, rec := range records {
		keySet[rec.Key] = struct{}{}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows []PivotRow
	index := map[string]int{}
	for _, rec := range records {
		ts := fmt.Sprint(rec.Timestamp)
		i, ok := index[ts]
		if !ok {
			i = len(rows)
			index[ts] = i
			rows = append(rows, PivotRow{
				Partition: rec.Partition,
				Timestamp: rec.Timestamp,
				Values:    map[string]any{},
			})
		}
		rows[i].Values[rec.Key] = rec.Value
	}

	out := rows[:0]
	for _, row := range rows {
		for _, k := range keys {
			if _, ok := row.Values[k]; ok {
				continue
			}
			if filled, keep := telemetry.ResolveNull(nil, req.NullValue, req.NullCustomValue); keep {
				row.Values[k] = filled
			}
		}
		if len(row.Values) == 0 {
			continue
		}
		out = append(out, row)
	}

	columns := append([]string{"partition", "timestamp"}, keys...)
	return &Dataset{
		Organization: OrgPartition,
		Columns:      columns,
		Rows:         out,
	}
}
