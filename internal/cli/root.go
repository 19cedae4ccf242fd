// Package cli implements the windops command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guajirawind/windops/internal/climate"
	"github.com/guajirawind/windops/internal/config"
	"github.com/guajirawind/windops/internal/wlog"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "windops",
	Short: "Operations CLI for the Guajira wind data pipeline",
	Long: `windops drives the Guajira climate data API: it launches the server
process, triggers bulk historical downloads in yearly blocks, runs the
hourly-aligned download daemon and inspects the collected datasets.`,
}

var (
	cfgFile  string
	logLevel string
	baseURL  string

	cfg    *config.Config
	logger *zap.Logger
)

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		osExit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default searches ., $HOME/.windops, /etc/windops)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info or none")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "",
		"climate API base URL (default derived from host/port)")
}

// initConfig reads the config file and environment, then applies the
// persistent flag overrides.
func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		logFatalln(err)
		return
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger, err = wlog.New(cfg.LogLevel)
	if err != nil {
		logFatalln(err)
	}
}

// newClient builds the API client from the effective configuration.
func newClient() *climate.Client {
	return climate.New(climate.Options{
		BaseURL:      cfg.ServerURL(),
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryInitial: cfg.RetryInitial,
		RetryMax:     cfg.RetryMax,
		Logger:       logger,
	})
}
