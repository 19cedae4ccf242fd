package cli

import (
	"github.com/spf13/cobra"

	"github.com/guajirawind/windops/internal/guajira"
)

var citiesCmd = &cobra.Command{
	Use:   "cities",
	Short: "Print the built-in municipality registry",
	Run: func(cmd *cobra.Command, args []string) {
		renderCities(guajira.All())
	},
}

func init() {
	rootCmd.AddCommand(citiesCmd)
}
