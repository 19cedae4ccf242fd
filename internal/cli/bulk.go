package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guajirawind/windops/internal/dateblock"
	"github.com/guajirawind/windops/internal/driver"
	"github.com/guajirawind/windops/internal/guajira"
	"github.com/guajirawind/windops/internal/lockdir"
	"github.com/guajirawind/windops/internal/scheduler"
)

var bulkOpts struct {
	years     int
	startDate string
	endDate   string
	window    windowFlags
	cities    []string
	daemon    bool
	clean     bool
	cronExpr  string
	lockDir   string
	pause     time.Duration
}

var bulkCmd = &cobra.Command{
	Use:   "bulk",
	Short: "Download the historical window, one request per year",
	Long: `Bulk partitions the download window (ten years ending yesterday
unless overridden) into yearly blocks and posts one bulk-download
request per block, in order, pausing between requests. The files the
API reports afterwards are listed.

With --daemon-min1 the sequence runs immediately and then again at
minute 1 of every hour, guarded by a lock directory so that at most one
instance drives the API.`,
	Example: `  windops bulk
  windops bulk --years 3 --cities riohacha,uribia --wind-only
  windops bulk --start-date 2015-03-14 --end-date 2018-02-28
  windops bulk --daemon-min1 --clean`,
	Run: func(cmd *cobra.Command, args []string) {
		bulkOpts.window.apply(cmd.Flags())
		if cmd.Flags().Changed("years") {
			cfg.Years = bulkOpts.years
		}
		if cmd.Flags().Changed("lock-dir") {
			cfg.LockDir = bulkOpts.lockDir
		}
		if cmd.Flags().Changed("cron") {
			cfg.CronExpr = bulkOpts.cronExpr
		}
		if cmd.Flags().Changed("pause") {
			cfg.BlockPause = bulkOpts.pause
		}

		loc, err := cfg.Location()
		if err != nil {
			wrapFatalln("resolve timezone", err)
			return
		}

		cities := make([]string, 0, len(bulkOpts.cities))
		for _, c := range bulkOpts.cities {
			cities = append(cities, guajira.Normalize(c))
		}

		// Explicit dates pin the window; otherwise every run recomputes
		// it so a long-lived daemon follows the calendar.
		makeBlocks := func(now time.Time) ([]dateblock.Block, error) {
			start, end := dateblock.SpanEndingYesterday(now, loc, cfg.Years)
			if bulkOpts.endDate != "" {
				parsed, err := dateblock.ParseDate(bulkOpts.endDate)
				if err != nil {
					return nil, fmt.Errorf("parse --end-date: %w", err)
				}
				end = parsed
				start = end.AddDate(-cfg.Years, 0, 0)
			}
			if bulkOpts.startDate != "" {
				parsed, err := dateblock.ParseDate(bulkOpts.startDate)
				if err != nil {
					return nil, fmt.Errorf("parse --start-date: %w", err)
				}
				start = parsed
			}
			return dateblock.Partition(start, end)
		}

		client := newClient()
		d := driver.New(client, driver.Options{
			StartHour:  cfg.StartHour,
			EndHour:    cfg.EndHour,
			WindOnly:   cfg.WindOnly,
			Cities:     cities,
			BlockPause: cfg.BlockPause,
			Logger:     logger,
		})

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if !bulkOpts.daemon {
			blocks, err := makeBlocks(time.Now().In(loc))
			if err != nil {
				wrapFatalln("compute download window", err)
				return
			}
			report := d.Run(ctx, blocks)
			renderReport(report)
			if report.FilesErr == nil {
				renderFiles(report.Files)
			}
			if err := report.Err(); err != nil {
				wrapFatalln("bulk download", err)
			}
			return
		}

		runBulkDaemon(ctx, d, client.RunID(), makeBlocks, loc)
	},
}

// runBulkDaemon guards the sequence with the lock directory and repeats
// it on the configured cron schedule until interrupted.
func runBulkDaemon(ctx context.Context, d *driver.Driver, runID string, makeBlocks func(time.Time) ([]dateblock.Block, error), loc *time.Location) {
	lock := lockdir.New(afero.NewOsFs(), cfg.LockDir)
	if bulkOpts.clean {
		if err := lock.Clean(); err != nil {
			wrapFatalln("clean lock directory", err)
			return
		}
		logger.Info("removed leftover lock directory", zap.String("path", lock.Path()))
	}
	if err := lock.Acquire(runID); err != nil {
		wrapFatalln("acquire lock", err)
		return
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release lock", zap.Error(err))
		}
	}()
	logger.Info("lock acquired", zap.String("path", lock.Path()))

	sched, err := scheduler.New(cfg.CronExpr, loc, logger)
	if err != nil {
		wrapFatalln("build schedule", err)
		return
	}

	job := func() {
		blocks, err := makeBlocks(time.Now().In(loc))
		if err != nil {
			logger.Error("compute download window", zap.Error(err))
			return
		}
		report := d.Run(ctx, blocks)
		if err := report.Err(); err != nil {
			logger.Warn("sequence had failures", zap.Error(err))
		}
	}

	if err := sched.Start(job, true); err != nil {
		wrapFatalln("start schedule", err)
		return
	}

	<-ctx.Done()
	sched.Stop()
	logger.Info("daemon stopped",
		zap.Int64("runs", d.Runs()),
		zap.Int64("failed_blocks", d.Failures()))
}

func init() {
	bulkCmd.Flags().IntVar(&bulkOpts.years, "years", 0, "length of the download window in years")
	bulkCmd.Flags().StringVar(&bulkOpts.startDate, "start-date", "", "window start, YYYY-MM-DD (overrides --years)")
	bulkCmd.Flags().StringVar(&bulkOpts.endDate, "end-date", "", "window end, YYYY-MM-DD (default: yesterday)")
	addWindowFlags(bulkCmd, &bulkOpts.window)
	bulkCmd.Flags().StringSliceVar(&bulkOpts.cities, "cities", nil, "municipalities to download (default: all)")
	bulkCmd.Flags().BoolVar(&bulkOpts.daemon, "daemon-min1", false,
		"run now, then at minute 1 of every hour, holding the lock directory")
	bulkCmd.Flags().BoolVar(&bulkOpts.clean, "clean", false, "remove a leftover lock directory before acquiring")
	bulkCmd.Flags().StringVar(&bulkOpts.cronExpr, "cron", "", "daemon schedule as a five-field cron expression")
	bulkCmd.Flags().StringVar(&bulkOpts.lockDir, "lock-dir", "", "lock directory path for daemon mode")
	bulkCmd.Flags().DurationVar(&bulkOpts.pause, "pause", 0, "pause between block requests")
	rootCmd.AddCommand(bulkCmd)
}
