package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guajirawind/windops/internal/launcher"
)

var launchOpts struct {
	port     int
	host     string
	kill     bool
	noReload bool
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Start and supervise the climate API server",
	Long: `Launch runs the configured server command bound to --host/--port,
waits until its health endpoint answers, and keeps it running until
interrupted. With --kill, whatever already listens on the port is
terminated first. Auto-reload restarts the server when watched source
files change; --no-reload turns that off.`,
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("port") {
			cfg.Port = launchOpts.port
		}
		if cmd.Flags().Changed("host") {
			cfg.Host = launchOpts.host
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if launchOpts.kill {
			killer := launcher.NewPortKiller(cfg.KillWait, logger)
			if left, err := killer.KillListeners(ctx, cfg.Port); err != nil {
				logger.Warn("port not cleared", zap.Ints("pids", left))
				wrapFatalln("clear port", err)
				return
			}
		}

		l := launcher.New(launcher.Options{
			Command:   cfg.ServerCommand,
			Host:      cfg.Host,
			Port:      cfg.Port,
			StopGrace: cfg.StopGrace,
			Logger:    logger,
		})
		if err := l.Start(ctx); err != nil {
			wrapFatalln("launch server", err)
			return
		}

		client := newClient()
		probe := func(ctx context.Context) error {
			_, err := client.Health(ctx)
			return err
		}
		if err := launcher.WaitReady(ctx, probe, cfg.ReadyTimeout, cfg.ReadyInterval); err != nil {
			_ = l.Stop()
			wrapFatalln("server readiness", err)
			return
		}
		logger.Info("server ready", zap.String("url", cfg.ServerURL()))

		// A nil channel never fires, so the select below simply skips
		// reloads when they are disabled or unavailable.
		var reloads <-chan string
		if !launchOpts.noReload {
			w, err := launcher.NewWatcher(cfg.WatchDirs, cfg.WatchExts, cfg.ReloadDebounce, logger)
			if err != nil {
				logger.Warn("auto-reload disabled", zap.Error(err))
			} else {
				defer w.Close()
				reloads = w.Reloads()
				logger.Info("auto-reload enabled",
					zap.Strings("dirs", cfg.WatchDirs),
					zap.Strings("exts", cfg.WatchExts))
			}
		}

		for {
			select {
			case <-ctx.Done():
				logger.Info("shutting down")
				if err := l.Stop(); err != nil {
					wrapFatalln("stop server", err)
				}
				return

			case path := <-reloads:
				logger.Info("source changed, restarting server", zap.String("path", path))
				if err := l.Restart(ctx); err != nil {
					wrapFatalln("restart server", err)
					return
				}

			case err := <-l.Done():
				// The child exited on its own; nothing left to supervise.
				_ = l.Stop()
				if err != nil {
					wrapFatalln("server exited", err)
					return
				}
				logger.Info("server exited")
				return
			}
		}
	},
}

func init() {
	launchCmd.Flags().IntVar(&launchOpts.port, "port", 0, "port the server binds to")
	launchCmd.Flags().StringVar(&launchOpts.host, "host", "", "host the server binds to")
	launchCmd.Flags().BoolVar(&launchOpts.kill, "kill", false,
		"terminate whatever already listens on the port before starting")
	launchCmd.Flags().BoolVar(&launchOpts.noReload, "no-reload", false,
		"disable restarting the server on source changes")
	rootCmd.AddCommand(launchCmd)
}
