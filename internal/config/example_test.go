package config_test

import (
	"fmt"
	"time"

	"github.com/adspot/adspot/internal/config"
)

// Example of creating a default configuration
func ExampleDefault() {
	cfg := config.Default()
	fmt.Println("Target:", cfg.Monitor.TargetExecutable)
	fmt.Println("Trigger:", cfg.Monitor.TriggerTitle)
	fmt.Println("Poll Interval:", cfg.Monitor.PollInterval)
	// Output:
	// Target: spotify.exe
	// Trigger: Advertisement
	// Poll Interval: 1s
}

// Example of setting poll interval with validation
func ExampleConfig_SetPollInterval() {
	cfg := config.Default()

	// Valid interval
	if err := cfg.SetPollInterval(500 * time.Millisecond); err != nil {
		fmt.Println("Error:", err)
	} else {
		fmt.Println("Poll interval set to:", cfg.Monitor.PollInterval)
	}

	// Invalid interval (too low)
	if err := cfg.SetPollInterval(100 * time.Millisecond); err != nil {
		fmt.Println("Error:", err)
	}

	// Output:
	// Poll interval set to: 500ms
	// Error: poll interval cannot be less than 250ms
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

// Example of building the trigger condition handed to the monitor
func ExampleConfig_TriggerConfig() {
	cfg := config.Default()
	tc := cfg.TriggerConfig()
	fmt.Printf("%s / %q\n", tc.TargetExecutable, tc.TriggerTitle)
	// Output:
	// spotify.exe / "Advertisement"
}
