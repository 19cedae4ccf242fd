package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/guajirawind/windops/internal/guajira"
)

var statsCmd = &cobra.Command{
	Use:     "stats <city>",
	Short:   "Show a city's dataset statistics",
	Example: "  windops stats riohacha",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := newClient().Stats(context.Background(), guajira.Normalize(args[0]))
		if err != nil {
			wrapFatalln("fetch stats", err)
			return
		}
		renderStats(resp)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
