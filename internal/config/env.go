package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// envOverrides mirrors the APPAGENT_* variables. Pointers stay nil when a
// variable is unset so defaults survive.
type envOverrides struct {
	DBPath         string         `envconfig:"DB_PATH"`
	PIDFile        string         `envconfig:"PID_FILE"`
	WebHost        string         `envconfig:"WEB_HOST"`
	WebPort        *int           `envconfig:"WEB_PORT"`
	LogLevel       string         `envconfig:"LOG_LEVEL"`
	LogDev         *bool          `envconfig:"LOG_DEV"`
	ConfigFile     string         `envconfig:"CONFIG_FILE"`
	DisplayBackend string         `envconfig:"DISPLAY_BACKEND"`
	Headless       *bool          `envconfig:"HEADLESS"`
	PollInterval   *time.Duration `envconfig:"POLL_INTERVAL"`
	PredictorCmd   string         `envconfig:"PREDICTOR_CMD"`
	TimeZone       string         `envconfig:"TIMEZONE"`
}

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "APPAGENT"

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values
func LoadFromEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return errors.Wrap(err, "invalid environment configuration")
	}

	if env.DBPath != "" {
		cfg.Database.Path = env.DBPath
	}
	if env.PIDFile != "" {
		cfg.Daemon.PIDFile = env.PIDFile
	}
	if env.WebHost != "" {
		cfg.Web.Host = env.WebHost
	}
	if env.WebPort != nil {
		if err := cfg.SetWebPort(*env.WebPort); err != nil {
			return err
		}
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogDev != nil {
		cfg.Log.Development = *env.LogDev
	}
	if env.ConfigFile != "" {
		cfg.Agents.File = env.ConfigFile
	}
	if env.DisplayBackend != "" {
		cfg.Tracker.Backend = env.DisplayBackend
	}
	if env.Headless != nil {
		cfg.Tracker.Headless = *env.Headless
	}
	if env.PollInterval != nil {
		if err := cfg.SetPollInterval(*env.PollInterval); err != nil {
			return err
		}
	}
	if env.PredictorCmd != "" {
		cfg.Predictor.Command = strings.Fields(env.PredictorCmd)
	}
	if env.TimeZone != "" {
		cfg.Report.TimeZone = env.TimeZone
	}
	return nil
}

// New creates a Config with default values, the agent file if one is
// configured, and environment overrides on top.
func New() (*Config, error) {
	cfg := Default()
	if err := LoadFromEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.Agents.File != "" {
		if err := LoadFile(cfg, cfg.Agents.File); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
