// Package config loads runtime settings from command-line flags and
// COUNTER_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lixenwraith/tui-counter/session"
)

// EnvPrefix prefixes every environment override, e.g. COUNTER_BACKEND
const EnvPrefix = "COUNTER"

// Setting keys, shared by flags and environment
const (
	KeyBackend      = "backend"
	KeyEnhancedKeys = "enhanced_keys"
	KeyLogFile      = "log_file"
	KeyLogLevel     = "log_level"
)

type Config struct {
	Backend      string `mapstructure:"backend"`
	EnhancedKeys bool   `mapstructure:"enhanced_keys"`
	LogFile      string `mapstructure:"log_file"`
	LogLevel     string `mapstructure:"log_level"`
}

// New returns a viper instance with defaults and environment binding
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBackend, session.BackendNative)
	v.SetDefault(KeyEnhancedKeys, true)
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogLevel, zerolog.LevelInfoValue)
	return v
}

// RegisterFlags adds the setting flags to fs and binds them to v.
// Flags set on the command line take precedence over the environment.
func RegisterFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("backend", session.BackendNative,
		fmt.Sprintf("terminal backend (%s)", strings.Join(session.Backends(), ", ")))
	fs.Bool("enhanced-keys", true, "request kitty keyboard protocol for key release reporting")
	fs.String("log-file", "", "write debug log to this file (disabled when empty)")
	fs.String("log-level", zerolog.LevelInfoValue, "log level (trace, debug, info, warn, error)")

	bindings := map[string]string{
		KeyBackend:      "backend",
		KeyEnhancedKeys: "enhanced-keys",
		KeyLogFile:      "log-file",
		KeyLogLevel:     "log-level",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// Load unmarshals and validates the merged settings
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown backends and log levels
func (c *Config) Validate() error {
	if !session.ValidBackend(c.Backend) {
		return fmt.Errorf("invalid backend %q (want one of %s)", c.Backend, strings.Join(session.Backends(), ", "))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return nil
}

// Level returns the parsed log level, info when unset
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
