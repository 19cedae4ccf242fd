package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the data files the API reports",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := newClient().ListFiles(context.Background())
		if err != nil {
			wrapFatalln("list files", err)
			return
		}
		renderFiles(resp.Files)
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
}
