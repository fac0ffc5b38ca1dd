package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Focus tracking configuration
	Tracker TrackerConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Report configuration
	Report ReportConfig

	// Web server configuration
	Web WebConfig

	Log LogConfig

	// Agent behavior, usually loaded from the TOML file
	Agents AgentsConfig

	Predictor PredictorConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string // Path to SQLite database file
}

// TrackerConfig holds focus polling configuration
type TrackerConfig struct {
	PollInterval    time.Duration // How often the foreground window is sampled
	MinPollInterval time.Duration
	MaxPollInterval time.Duration
	Backend         string // "auto", "x11" or "gnome"
	Headless        bool   // record synthesized keys instead of injecting them
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
}

// ReportConfig holds report generation configuration
type ReportConfig struct {
	TimeZone string
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string // Host to bind web server to
	Port int    // Port for web server
}

type LogConfig struct {
	Level       string
	Development bool
}

// AgentsConfig holds per-agent settings and the text-control tables
type AgentsConfig struct {
	File string // optional TOML file, watched for changes

	// AutoSwitchScanners is the default for agents without an override
	AutoSwitchScanners bool
	AutoSwitch         map[string]bool // agent name -> auto-switch scanners

	Abbreviations map[string]string
	Spellings     map[string]string
}

// PredictorConfig configures the external word predictor
type PredictorConfig struct {
	Command   []string // empty disables prediction
	WordCount int
	Timeout   time.Duration
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: "", // Empty means use default ~/.config/appagent/appagent.db
		},
		Tracker: TrackerConfig{
			PollInterval:    250 * time.Millisecond,
			MinPollInterval: 50 * time.Millisecond,
			MaxPollInterval: 5 * time.Second,
			Backend:         "auto",
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/appagent-%d.pid", os.Getuid()),
		},
		Report: ReportConfig{
			TimeZone: "Local",
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 10000 + os.Getuid(), // Default port based on user ID
		},
		Log: LogConfig{
			Level: "info",
		},
		Agents: AgentsConfig{
			AutoSwitchScanners: true,
			AutoSwitch:         map[string]bool{},
			Abbreviations:      map[string]string{},
			Spellings:          map[string]string{},
		},
		Predictor: PredictorConfig{
			WordCount: 5,
			Timeout:   time.Second,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Tracker.PollInterval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be less than minimum (%v)",
			c.Tracker.PollInterval, c.Tracker.MinPollInterval)
	}

	if c.Tracker.PollInterval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval (%v) cannot be greater than maximum (%v)",
			c.Tracker.PollInterval, c.Tracker.MaxPollInterval)
	}

	switch c.Tracker.Backend {
	case "", "auto", "x11", "gnome":
	default:
		return fmt.Errorf("unknown display backend %q", c.Tracker.Backend)
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	if c.Predictor.WordCount < 1 {
		return fmt.Errorf("predictor word count must be positive, got %d", c.Predictor.WordCount)
	}

	return nil
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < c.Tracker.MinPollInterval {
		return fmt.Errorf("poll interval cannot be less than %v", c.Tracker.MinPollInterval)
	}
	if interval > c.Tracker.MaxPollInterval {
		return fmt.Errorf("poll interval cannot be greater than %v", c.Tracker.MaxPollInterval)
	}
	c.Tracker.PollInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// AutoSwitchFor reports whether the named agent shows its preferred panel on focus.
func (c *Config) AutoSwitchFor(agent string) bool {
	if v, ok := c.Agents.AutoSwitch[agent]; ok {
		return v
	}
	return c.Agents.AutoSwitchScanners
}

// String returns a string representation of the config
func (c *Config) String() string {
	overrides := make([]string, 0, len(c.Agents.AutoSwitch))
	for name, v := range c.Agents.AutoSwitch {
		overrides = append(overrides, fmt.Sprintf("%s=%v", name, v))
	}
	sort.Strings(overrides)

	return fmt.Sprintf(`Configuration:
  Database:
    Path: %s
  Tracker:
    Poll Interval: %v
    Min Interval: %v
    Max Interval: %v
    Backend: %s
    Headless: %v
  Daemon:
    PID File: %s
  Web:
    Host: %s
    Port: %d
  Log:
    Level: %s
  Agents:
    File: %s
    Auto Switch Scanners: %v
    Overrides: %s
    Abbreviations: %d
    Spellings: %d
  Predictor:
    Command: %s
    Word Count: %d`,
		c.Database.Path,
		c.Tracker.PollInterval,
		c.Tracker.MinPollInterval,
		c.Tracker.MaxPollInterval,
		c.Tracker.Backend,
		c.Tracker.Headless,
		c.Daemon.PIDFile,
		c.Web.Host,
		c.Web.Port,
		c.Log.Level,
		c.Agents.File,
		c.Agents.AutoSwitchScanners,
		strings.Join(overrides, ", "),
		len(c.Agents.Abbreviations),
		len(c.Agents.Spellings),
		strings.Join(c.Predictor.Command, " "),
		c.Predictor.WordCount,
	)
}
