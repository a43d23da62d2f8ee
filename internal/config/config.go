package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/adspot/adspot/pkg/trigger"
)

const appDirName = "adspot"

// Config holds all application configuration
type Config struct {
	// Monitor configuration
	Monitor MonitorConfig `toml:"monitor" split_words:"true"`

	// Database configuration
	Database DatabaseConfig `toml:"database" split_words:"true"`

	// Settings file configuration
	Settings SettingsConfig `toml:"settings" split_words:"true"`

	// Daemon configuration
	Daemon DaemonConfig `toml:"daemon" split_words:"true"`

	// Web server configuration
	Web WebConfig `toml:"web" split_words:"true"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging" split_words:"true"`

	// Error persistence configuration
	Errors ErrorsConfig `toml:"errors" split_words:"true"`
}

// MonitorConfig holds the trigger and polling behavior
type MonitorConfig struct {
	TargetExecutable string        `toml:"target_executable" split_words:"true"` // Executable base name owning the trigger window
	TriggerTitle     string        `toml:"trigger_title" split_words:"true"`     // Exact window title that means an interruption is playing
	PollInterval     time.Duration `toml:"poll_interval" split_words:"true"`     // How often to scan windows
	MinPollInterval  time.Duration `toml:"-" ignored:"true"`
	MaxPollInterval  time.Duration `toml:"-" ignored:"true"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Path string `toml:"path"` // Path to SQLite database file
}

// SettingsConfig holds the location of the user settings file
type SettingsConfig struct {
	Path string `toml:"path"` // Path to settings.json
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string `toml:"pid_file" split_words:"true"`
	LogFile string `toml:"log_file" split_words:"true"`
}

// WebConfig holds web server configuration
type WebConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// ErrorsConfig throttles how many tick errors end up in the database
type ErrorsConfig struct {
	LogInterval time.Duration `toml:"log_interval" split_words:"true"` // Minimum spacing between persisted errors
	LogBurst    int           `toml:"log_burst" split_words:"true"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	tmp := os.TempDir()
	return &Config{
		Monitor: MonitorConfig{
			TargetExecutable: "spotify.exe",
			TriggerTitle:     "Advertisement",
			PollInterval:     time.Second,
			MinPollInterval:  250 * time.Millisecond,
			MaxPollInterval:  time.Minute,
		},
		Database: DatabaseConfig{
			Path: "", // Empty means <user config dir>/adspot/adspot.db
		},
		Settings: SettingsConfig{
			Path: "", // Empty means <user config dir>/adspot/settings.json
		},
		Daemon: DaemonConfig{
			PIDFile: filepath.Join(tmp, "adspot"+userSuffix()+".pid"),
			LogFile: filepath.Join(tmp, "adspot"+userSuffix()+".log"),
		},
		Web: WebConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    8731,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Errors: ErrorsConfig{
			LogInterval: time.Minute,
			LogBurst:    5,
		},
	}
}

// userSuffix keeps per-user files apart in a shared temp dir. Windows has
// per-user temp dirs and no uid.
func userSuffix() string {
	if uid := os.Getuid(); uid >= 0 {
		return "-" + strconv.Itoa(uid)
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Monitor.TargetExecutable == "" {
		return errors.New("target executable cannot be empty")
	}

	if c.Monitor.TriggerTitle == "" {
		return errors.New("trigger title cannot be empty")
	}

	if c.Monitor.PollInterval < c.Monitor.MinPollInterval {
		return errors.Errorf("poll interval (%v) cannot be less than minimum (%v)",
			c.Monitor.PollInterval, c.Monitor.MinPollInterval)
	}

	if c.Monitor.PollInterval > c.Monitor.MaxPollInterval {
		return errors.Errorf("poll interval (%v) cannot be greater than maximum (%v)",
			c.Monitor.PollInterval, c.Monitor.MaxPollInterval)
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return errors.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return errors.New("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return errors.New("PID file path cannot be empty")
	}

	if c.Errors.LogInterval < 0 {
		return errors.New("error log interval cannot be negative")
	}

	if c.Errors.LogBurst < 1 {
		return errors.Errorf("error log burst must be at least 1, got %d", c.Errors.LogBurst)
	}

	return nil
}

// SetPollInterval sets the poll interval with validation
func (c *Config) SetPollInterval(interval time.Duration) error {
	if interval < c.Monitor.MinPollInterval {
		return errors.Errorf("poll interval cannot be less than %v", c.Monitor.MinPollInterval)
	}
	if interval > c.Monitor.MaxPollInterval {
		return errors.Errorf("poll interval cannot be greater than %v", c.Monitor.MaxPollInterval)
	}
	c.Monitor.PollInterval = interval
	return nil
}

// SetWebPort sets the web server port with validation
func (c *Config) SetWebPort(port int) error {
	if port < 1 || port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", port)
	}
	c.Web.Port = port
	return nil
}

// TriggerConfig returns the immutable trigger condition for the monitor
func (c *Config) TriggerConfig() trigger.Config {
	return trigger.Config{
		TargetExecutable: c.Monitor.TargetExecutable,
		TriggerTitle:     c.Monitor.TriggerTitle,
	}
}

// DatabasePath resolves the database location, defaulting into the app dir
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "adspot.db"), nil
}

// SettingsPath resolves the settings file location, defaulting into the app dir
func (c *Config) SettingsPath() (string, error) {
	if c.Settings.Path != "" {
		return c.Settings.Path, nil
	}
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.json"), nil
}

// LockFile is the single-instance lock kept next to the PID file
func (c *Config) LockFile() string {
	return c.Daemon.PIDFile + ".lock"
}

// AppDir returns <user config dir>/adspot without creating it
func AppDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate user config directory")
	}
	return filepath.Join(base, appDirName), nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Monitor:
    Target Executable: %s
    Trigger Title: %s
    Poll Interval: %v
    Min Interval: %v
    Max Interval: %v
  Database:
    Path: %s
  Settings:
    Path: %s
  Daemon:
    PID File: %s
    Log File: %s
  Web:
    Enabled: %v
    Host: %s
    Port: %d
  Logging:
    Level: %s
    Development: %v
  Errors:
    Log Interval: %v
    Log Burst: %d`,
		c.Monitor.TargetExecutable,
		c.Monitor.TriggerTitle,
		c.Monitor.PollInterval,
		c.Monitor.MinPollInterval,
		c.Monitor.MaxPollInterval,
		c.Database.Path,
		c.Settings.Path,
		c.Daemon.PIDFile,
		c.Daemon.LogFile,
		c.Web.Enabled,
		c.Web.Host,
		c.Web.Port,
		c.Logging.Level,
		c.Logging.Development,
		c.Errors.LogInterval,
		c.Errors.LogBurst,
	)
}
