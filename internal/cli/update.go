package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guajirawind/windops/internal/climate"
	"github.com/guajirawind/windops/internal/guajira"
)

var updateOpts struct {
	city   string
	window windowFlags
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Pull rows since the last stored timestamp",
	Long: `Update asks the API to append everything newer than each city's
last stored record, up to the last closed hour. Without --city all
municipalities are updated.`,
	Run: func(cmd *cobra.Command, args []string) {
		updateOpts.window.apply(cmd.Flags())

		req := climate.UpdateRequest{
			StartHour: cfg.StartHour,
			EndHour:   cfg.EndHour,
			WindOnly:  cfg.WindOnly,
		}
		if updateOpts.city != "" {
			req.City = guajira.Normalize(updateOpts.city)
		}

		client := newClient()
		resp, err := client.UpdateHourly(context.Background(), req)
		if err != nil {
			wrapFatalln("hourly update", err)
			return
		}

		renderUpdates(resp.Updated)
		var failed int
		for _, r := range resp.Updated {
			if !r.Success {
				failed++
			}
		}
		if failed > 0 {
			wrapFatalln("hourly update", fmt.Errorf("%d of %d cities failed", failed, len(resp.Updated)))
		}
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateOpts.city, "city", "", "update a single municipality")
	addWindowFlags(updateCmd, &updateOpts.window)
	rootCmd.AddCommand(updateCmd)
}
