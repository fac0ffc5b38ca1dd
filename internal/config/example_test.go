package config_test

import (
	"fmt"
	"time"

	"appagent/internal/config"
)

// Example of creating a default configuration
func ExampleDefault() {
	cfg := config.Default()
	fmt.Println("Poll Interval:", cfg.Tracker.PollInterval)
	fmt.Println("Backend:", cfg.Tracker.Backend)
	// Output:
	// Poll Interval: 250ms
	// Backend: auto
}

// Example of setting poll interval with validation
func ExampleConfig_SetPollInterval() {
	cfg := config.Default()

	// Valid interval
	if err := cfg.SetPollInterval(500 * time.Millisecond); err != nil {
		fmt.Println("Error:", err)
	} else {
		fmt.Println("Poll interval set to:", cfg.Tracker.PollInterval)
	}

	// Invalid interval (too low)
	if err := cfg.SetPollInterval(10 * time.Millisecond); err != nil {
		fmt.Println("Error:", err)
	}

	// Output:
	// Poll interval set to: 500ms
	// Error: poll interval cannot be less than 50ms
}

// Example of validating configuration
func ExampleConfig_Validate() {
	cfg := config.Default()

	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
	} else {
		fmt.Println("Configuration is valid")
	}

	// Output:
	// Configuration is valid
}

// Example of per-agent scanner auto-switching from the TOML file
func ExampleConfig_AutoSwitchFor() {
	cfg := config.Default()
	fc, err := config.ParseFile(`
[agents.chrome]
auto_switch_scanners = false
`)
	if err != nil {
		panic(err)
	}
	fc.Apply(cfg)

	fmt.Println("chrome:", cfg.AutoSwitchFor("chrome"))
	fmt.Println("firefox:", cfg.AutoSwitchFor("firefox"))
	// Output:
	// chrome: false
	// firefox: true
}
