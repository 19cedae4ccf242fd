package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// windowFlags are the hour-window options shared by the download
// commands.
type windowFlags struct {
	startHour int
	endHour   int
	windOnly  bool
}

// addWindowFlags registers the shared hour-window flags on cmd.
func addWindowFlags(cmd *cobra.Command, w *windowFlags) {
	cmd.Flags().IntVar(&w.startHour, "start-hour", 0, "first hour of day to keep, 0-23")
	cmd.Flags().IntVar(&w.endHour, "end-hour", 0, "last hour of day to keep, 0-23")
	cmd.Flags().BoolVar(&w.windOnly, "wind-only", false, "request wind variables only")
}

// apply copies changed window flags onto the effective configuration.
func (w *windowFlags) apply(fs *pflag.FlagSet) {
	if fs.Changed("start-hour") {
		cfg.StartHour = w.startHour
	}
	if fs.Changed("end-hour") {
		cfg.EndHour = w.endHour
	}
	if fs.Changed("wind-only") {
		cfg.WindOnly = w.windOnly
	}
}
