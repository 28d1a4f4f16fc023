package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/telemetryhq/fleethub/pkg/metadata"
)

// ErrDeviceNotFound means the device does not exist or belongs to another
// tenant. Both cases are indistinguishable to the caller.
var ErrDeviceNotFound = errors.New("device not found")

// Result is a started export. Content streams the encoded file; the caller
// must drain and close it.
type Result struct {
	Content     io.ReadCloser
	ContentType string
	Filename    string
}

// Exporter validates export requests, enforces device ownership, and runs the
// fetch-organize-encode pipeline into a pipe so the output streams.
type Exporter struct {
	devices metadata.DeviceRepository
	fetcher *Fetcher
	now     func() time.Time
}

// NewExporter wires an Exporter from the device repository and fetcher.
func NewExporter(devices metadata.DeviceRepository, fetcher *Fetcher) *Exporter {
	return &Exporter{devices: devices, fetcher: fetcher, now: time.Now}
}

// Export checks the request and device ownership before any store read, then
// starts the producing goroutine. Pipeline errors after this returns surface
// through the returned reader.
func (e *Exporter) Export(ctx context.Context, tenantID, deviceID string, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	device, err := e.devices.FindByIDAndTenant(ctx, deviceID, tenantID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, ErrDeviceNotFound
	}

	pr, pw := io.Pipe()
	go func() {
		records, err := e.fetcher.Fetch(ctx, deviceID, req)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		ds := Organize(records, req)
		if err := Encode(pw, ds, req); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.Close()
	}()

	filename := fmt.Sprintf("device-%s-export-%d%s", deviceID, e.now().UnixMilli(), req.FileFormat.Ext())
	return &Result{
		Content:     pr,
		ContentType: req.FileFormat.ContentType(),
		Filename:    filename,
	}, nil
}
