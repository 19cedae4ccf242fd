// Package config resolves windops settings from defaults, an optional
// YAML config file, a .env file and environment variables, in that
// order of increasing precedence. Flags are bound on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix namespaces the environment variables read by viper,
	// e.g. WINDOPS_BASE_URL.
	EnvPrefix = "WINDOPS"

	// ConfigName is the base name of the config file searched for in
	// ., $HOME/.windops and /etc/windops.
	ConfigName = "windops"
)

// Config replaces the shell environment globals of the original
// orchestration scripts with one explicit, validated struct.
type Config struct {
	// Server process placement.
	Host string `mapstructure:"host" yaml:"host" validate:"required"`
	Port int    `mapstructure:"port" yaml:"port" validate:"gte=1,lte=65535"`

	// BaseURL overrides the URL derived from Host/Port when the API
	// runs somewhere else than where windops launches it.
	BaseURL string `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`

	// Download window.
	Timezone  string `mapstructure:"timezone" yaml:"timezone" validate:"required"`
	StartHour int    `mapstructure:"start_hour" yaml:"start_hour" validate:"gte=0,lte=23"`
	EndHour   int    `mapstructure:"end_hour" yaml:"end_hour" validate:"gte=0,lte=23,gtefield=StartHour"`
	WindOnly  bool   `mapstructure:"wind_only" yaml:"wind_only"`
	Years     int    `mapstructure:"years" yaml:"years" validate:"gte=1"`

	// Pause between consecutive block requests.
	BlockPause time.Duration `mapstructure:"block_pause" yaml:"block_pause"`

	// HTTP client.
	HTTPTimeout  time.Duration `mapstructure:"http_timeout" yaml:"http_timeout" validate:"gt=0"`
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=0"`
	RetryInitial time.Duration `mapstructure:"retry_initial" yaml:"retry_initial" validate:"gt=0"`
	RetryMax     time.Duration `mapstructure:"retry_max" yaml:"retry_max"`

	// Daemon mode.
	LockDir  string `mapstructure:"lock_dir" yaml:"lock_dir" validate:"required"`
	CronExpr string `mapstructure:"cron_expr" yaml:"cron_expr" validate:"required"`

	// Launcher.
	ServerCommand  string        `mapstructure:"server_command" yaml:"server_command" validate:"required"`
	WatchDirs      []string      `mapstructure:"watch_dirs" yaml:"watch_dirs"`
	WatchExts      []string      `mapstructure:"watch_exts" yaml:"watch_exts"`
	ReloadDebounce time.Duration `mapstructure:"reload_debounce" yaml:"reload_debounce"`
	KillWait       time.Duration `mapstructure:"kill_wait" yaml:"kill_wait" validate:"gt=0"`
	StopGrace      time.Duration `mapstructure:"stop_grace" yaml:"stop_grace" validate:"gt=0"`
	ReadyTimeout   time.Duration `mapstructure:"ready_timeout" yaml:"ready_timeout" validate:"gt=0"`
	ReadyInterval  time.Duration `mapstructure:"ready_interval" yaml:"ready_interval" validate:"gt=0"`

	GeocoderAPIKey string `mapstructure:"geocoder_api_key" yaml:"geocoder_api_key,omitempty"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info none"`
}

// Default returns the built-in settings, matching the original shell
// defaults where those existed.
func Default() Config {
	return Config{
		Host:           "127.0.0.1",
		Port:           8000,
		Timezone:       "America/Bogota",
		StartHour:      6,
		EndHour:        18,
		Years:          10,
		BlockPause:     2 * time.Second,
		HTTPTimeout:    120 * time.Second,
		MaxRetries:     3,
		RetryInitial:   500 * time.Millisecond,
		RetryMax:       5 * time.Second,
		LockDir:        "/tmp/windops-bulk.lock",
		CronExpr:       "1 * * * *",
		ServerCommand:  "uvicorn src.api.dataAPI:app --host {host} --port {port}",
		WatchDirs:      []string{"src"},
		WatchExts:      []string{".py"},
		ReloadDebounce: 500 * time.Millisecond,
		KillWait:       2 * time.Second,
		StopGrace:      5 * time.Second,
		ReadyTimeout:   30 * time.Second,
		ReadyInterval:  500 * time.Millisecond,
		LogLevel:       "info",
	}
}

// Load resolves the configuration. cfgFile, when non-empty, names an
// explicit config file; otherwise the usual paths are searched.
func Load(cfgFile string) (*Config, error) {
	// Optional .env next to the working directory, same as the shell
	// scripts sourced before running.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/." + ConfigName)
		v.AddConfigPath("/etc/" + ConfigName)
		v.SetConfigName(ConfigName)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault("host", def.Host)
	v.SetDefault("port", def.Port)
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("timezone", def.Timezone)
	v.SetDefault("start_hour", def.StartHour)
	v.SetDefault("end_hour", def.EndHour)
	v.SetDefault("wind_only", def.WindOnly)
	v.SetDefault("years", def.Years)
	v.SetDefault("block_pause", def.BlockPause)
	v.SetDefault("http_timeout", def.HTTPTimeout)
	v.SetDefault("max_retries", def.MaxRetries)
	v.SetDefault("retry_initial", def.RetryInitial)
	v.SetDefault("retry_max", def.RetryMax)
	v.SetDefault("lock_dir", def.LockDir)
	v.SetDefault("cron_expr", def.CronExpr)
	v.SetDefault("server_command", def.ServerCommand)
	v.SetDefault("watch_dirs", def.WatchDirs)
	v.SetDefault("watch_exts", def.WatchExts)
	v.SetDefault("reload_debounce", def.ReloadDebounce)
	v.SetDefault("kill_wait", def.KillWait)
	v.SetDefault("stop_grace", def.StopGrace)
	v.SetDefault("ready_timeout", def.ReadyTimeout)
	v.SetDefault("ready_interval", def.ReadyInterval)
	v.SetDefault("geocoder_api_key", def.GeocoderAPIKey)
	v.SetDefault("log_level", def.LogLevel)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// ServerURL returns the API base URL: BaseURL when set, otherwise
// derived from Host/Port.
func (c *Config) ServerURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
