// Package driver issues the bulk-download sequence: one request per
// yearly block, in order, then a listing of the files the API reports.
package driver

import (
	"context"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/guajirawind/windops/internal/climate"
	"github.com/guajirawind/windops/internal/dateblock"
)

// API is the slice of the climate client the driver needs.
type API interface {
	BulkDownload(ctx context.Context, req climate.BulkRequest) (climate.BulkResponse, error)
	ListFiles(ctx context.Context) (climate.FilesResponse, error)
}

// Options configures the request window shared by every block.
type Options struct {
	StartHour int
	EndHour   int
	WindOnly  bool

	// Cities to download; empty means all municipalities (decided by
	// the API).
	Cities []string

	// BlockPause is the politeness pause between consecutive block
	// requests.
	BlockPause time.Duration

	Logger *zap.Logger
}

// Driver runs download sequences and keeps counters across daemon
// iterations.
type Driver struct {
	api  API
	opts Options
	log  *zap.Logger

	runs     atomic.Int64
	failures atomic.Int64
}

// New builds a Driver.
func New(api API, opts Options) *Driver {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{api: api, opts: opts, log: log}
}

// Runs returns the number of completed sequences.
func (d *Driver) Runs() int64 { return d.runs.Load() }

// Failures returns the number of failed block requests across all
// sequences.
func (d *Driver) Failures() int64 { return d.failures.Load() }

// BlockOutcome records one block request.
type BlockOutcome struct {
	Block   dateblock.Block
	Result  climate.BulkResponse
	Err     error
	Elapsed time.Duration
}

// Report summarizes one full sequence.
type Report struct {
	Blocks   []BlockOutcome
	Files    []string
	FilesErr error
	Aborted  error
	Started  time.Time
	Elapsed  time.Duration
}

// Err aggregates everything that went wrong during the sequence.
func (r Report) Err() error {
	errs := make([]error, 0, len(r.Blocks)+2)
	for _, b := range r.Blocks {
		errs = append(errs, b.Err)
	}
	errs = append(errs, r.FilesErr, r.Aborted)
	return multierr.Combine(errs...)
}

// Rows sums the persisted rows reported across blocks.
func (r Report) Rows() int {
	var n int
	for _, b := range r.Blocks {
		n += b.Result.TotalRows()
	}
	return n
}

// Run posts every block sequentially, pausing between requests, and
// lists files afterwards. A failed block does not abort the sequence;
// only context cancellation does.
func (d *Driver) Run(ctx context.Context, blocks []dateblock.Block) Report {
	report := Report{Started: time.Now()}

	for i, block := range blocks {
		if err := ctx.Err(); err != nil {
			report.Aborted = err
			break
		}

		req := climate.BulkRequest{
			StartDate: block.StartDate(),
			EndDate:   block.EndDate(),
			StartHour: d.opts.StartHour,
			EndHour:   d.opts.EndHour,
			WindOnly:  d.opts.WindOnly,
			Cities:    d.opts.Cities,
		}

		start := time.Now()
		resp, err := d.api.BulkDownload(ctx, req)
		outcome := BlockOutcome{
			Block:   block,
			Result:  resp,
			Err:     err,
			Elapsed: time.Since(start),
		}
		report.Blocks = append(report.Blocks, outcome)

		if err != nil {
			d.failures.Inc()
			d.log.Warn("block download failed",
				zap.String("block", block.String()),
				zap.Error(err))
		} else {
			d.log.Info("block downloaded",
				zap.String("block", block.String()),
				zap.Int("days", block.Days()),
				zap.Int("rows", resp.TotalRows()),
				zap.Int("city_errors", len(resp.Failures())),
				zap.Duration("took", outcome.Elapsed))
		}

		if i < len(blocks)-1 && d.opts.BlockPause > 0 {
			select {
			case <-ctx.Done():
				report.Aborted = ctx.Err()
			case <-time.After(d.opts.BlockPause):
			}
			if report.Aborted != nil {
				break
			}
		}
	}

	if report.Aborted == nil {
		files, err := d.api.ListFiles(ctx)
		if err != nil {
			report.FilesErr = err
			d.log.Warn("file listing failed", zap.Error(err))
		} else {
			report.Files = files.Files
		}
	}

	report.Elapsed = time.Since(report.Started)
	d.runs.Inc()
	d.log.Info("sequence finished",
		zap.Int("blocks", len(report.Blocks)),
		zap.Int("rows", report.Rows()),
		zap.Int("files", len(report.Files)),
		zap.Duration("took", report.Elapsed),
		zap.Bool("clean", report.Err() == nil))
	return report
}
