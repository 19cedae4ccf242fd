package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/guajirawind/windops/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage the windops config file",
	Long: `Commands to inspect and persist windops configuration, the set of
values that rarely change between runs (server placement, download
window, daemon schedule).`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			wrapFatalln("serialize config", err)
			return
		}
		fmt.Print(string(out))
	},
}

var configSetCmd = &cobra.Command{
	Aliases: []string{"create"},
	Use:     "set",
	Short:   "Write the effective configuration to a config file",
	Long: `Writes the effective configuration (defaults, config file,
environment and flags merged) to ` + "`$HOME/." + config.ConfigName + "/" + config.ConfigName + ".yaml`" + `,
or to the file named by --config.`,
	Run: func(cmd *cobra.Command, args []string) {
		file := cfgFile
		if file == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				wrapFatalln("locate home directory", err)
				return
			}
			file = filepath.Join(home, "."+config.ConfigName, config.ConfigName+".yaml")
		}

		out, err := yaml.Marshal(cfg)
		if err != nil {
			wrapFatalln("serialize config", err)
			return
		}
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			wrapFatalln("create config directory", err)
			return
		}
		if err := os.WriteFile(file, out, 0o600); err != nil {
			wrapFatalln("write config file", err)
			return
		}
		fmt.Printf("config file created in %s\n", file)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
