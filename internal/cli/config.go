package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"cradle-gate/internal/confirm"
)

// Config is the cradlectl configuration.
type Config struct {
	GateURL       string        `mapstructure:"gate_url"`
	SessionCookie string        `mapstructure:"session_cookie"`
	RoutesFile    string        `mapstructure:"routes_file"` // same YAML as the gate's ROUTES_FILE
	Poll          PollConfig    `mapstructure:"poll"`
	Output        OutputConfig  `mapstructure:"output"`
	Logging       LoggingConfig `mapstructure:"logging"`
}

// PollConfig tunes the role confirmation loop.
type PollConfig struct {
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	Interval     time.Duration `mapstructure:"interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// Policy converts the settings for the poller.
func (p PollConfig) Policy() confirm.RetryPolicy {
	return confirm.RetryPolicy{
		InitialDelay: p.InitialDelay,
		Interval:     p.Interval,
		MaxAttempts:  p.MaxAttempts,
	}
}

type OutputConfig struct {
	Colors bool `mapstructure:"colors"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads .cradlectl.yaml (or cfgFile) and CRADLECTL_* variables.
// A missing config file is not an error.
func LoadConfig(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".cradlectl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/cradlectl")
	}

	v.SetEnvPrefix("CRADLECTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := confirm.DefaultRetryPolicy()

	v.SetDefault("gate_url", "http://localhost:8888")
	v.SetDefault("session_cookie", "")
	v.SetDefault("routes_file", "")
	v.SetDefault("poll.initial_delay", def.InitialDelay)
	v.SetDefault("poll.interval", def.Interval)
	v.SetDefault("poll.max_attempts", def.MaxAttempts)
	v.SetDefault("output.colors", true)
	v.SetDefault("logging.level", "info")
}

func (c *Config) validate() error {
	if err := c.Poll.Policy().Validate(); err != nil {
		return err
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	return nil
}
