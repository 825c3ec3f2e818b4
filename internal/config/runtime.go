package config

import (
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, so the log level
// comes from GRIMPACK_LOG_LEVEL and so on.
const EnvPrefix = "GRIMPACK"

// Runtime holds per-invocation settings sourced from the environment
// rather than the committed project file.
type Runtime struct {
	// LogLevel is debug, info, warn, or error.
	LogLevel string

	// LogFormat is text or json.
	LogFormat string

	// LogFile routes daemon logs to a rotating file when set.
	LogFile string

	// NoColor disables styled terminal output.
	NoColor bool

	// Debounce overrides the watch settle window.
	Debounce time.Duration

	// ServeAddr overrides the reload server listen address.
	ServeAddr string
}

// LoadRuntime reads GRIMPACK_* environment overrides on top of the
// project config's values.
func LoadRuntime(cfg *Config) *Runtime {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("no_color", false)
	v.SetDefault("debounce", cfg.Watch.Debounce.Duration)
	v.SetDefault("serve_addr", cfg.Serve.Addr)

	return &Runtime{
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogFile:   v.GetString("log_file"),
		NoColor:   v.GetBool("no_color"),
		Debounce:  v.GetDuration("debounce"),
		ServeAddr: v.GetString("serve_addr"),
	}
}
