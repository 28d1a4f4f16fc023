package export

import (
	"context"
	"strconv"

	"github.com/telemetryhq/fleethub/pkg/telemetry"
	"github.com/telemetryhq/fleethub/pkg/tsstore"
)

// Record is one exported telemetry point. Timestamp holds either a formatted
// string or the raw epoch depending on the requested time format, and Value
// holds the decoded (and null-resolved) reading.
type Record struct {
	Timestamp any    `json:"timestamp"`
	Key       string `json:"key"`
	Value     any    `json:"value"`
	Partition string `json:"partition"`
}

// Fetcher reads the selected series out of the time-series store and turns
// rows into export records.
type Fetcher struct {
	store tsstore.Store
}

// NewFetcher returns a Fetcher backed by store.
func NewFetcher(store tsstore.Store) *Fetcher {
	return &Fetcher{store: store}
}

// Fetch runs one range query per (key, partition) pair and flattens the
// results. Rows whose resolved value is absent (skip mode) are dropped here
// so no later stage sees them.
func (f *Fetcher) Fetch(ctx context.Context, deviceID string, req *Request) ([]Record, error) {
	var out []Record
	for _, sel := range req.SelectedData {
		for _, part := range sel.Partitions {
			rows, err := f.store.Range(ctx, tsstore.RangeQuery{
				EntityType: tsstore.EntityDevice,
				EntityID:   deviceID,
				Key:        sel.Key,
				Partition:  part,
			})
			if err != nil {
				return nil, err
			}

			partition := strconv.FormatInt(part, 10)
			for _, row := range rows {
				value := telemetry.DecodeValue(row, req.spreadsheet())
				resolved, keep := telemetry.ResolveNull(value, req.NullValue, req.NullCustomValue)
				if !keep {
					continue
				}
				out = append(out, Record{
					Timestamp: telemetry.FormatTimestamp(row.TS, req.TimeFormat),
					Key:       sel.Key,
					Value:     resolved,
					Partition: partition,
				})
			}
		}
	}
	return out, nil
}
