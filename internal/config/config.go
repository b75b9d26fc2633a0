package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/ircterm/internal/core"
)

// Config holds client configuration values.
type Config struct {
	Server      string        `mapstructure:"server" yaml:"server"`
	Nick        string        `mapstructure:"nick" yaml:"nick"`
	User        string        `mapstructure:"user" yaml:"user"`
	Real        string        `mapstructure:"real" yaml:"real"`
	KeepLogs    bool          `mapstructure:"keep_logs" yaml:"keep_logs"`
	LogDir      string        `mapstructure:"log_dir" yaml:"log_dir"`
	LogLevel    string        `mapstructure:"log_level" yaml:"log_level"`
	DebugLog    string        `mapstructure:"debug_log" yaml:"debug_log"`
	ArchivePath string        `mapstructure:"archive_path" yaml:"archive_path"`
	DialTimeout time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	FloodDelay  time.Duration `mapstructure:"flood_delay" yaml:"flood_delay"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Server:      "irc.libera.chat:6667",
		Nick:        "ircterm",
		User:        "ircterm",
		Real:        "ircterm",
		LogDir:      ".",
		LogLevel:    "info",
		DialTimeout: 10 * time.Second,
		FloodDelay:  core.DefaultFloodDelay,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// KeepLogs can only be switched on this way.
func (c *Config) UpdateFrom(other Config) {
	if other.Server != "" {
		c.Server = other.Server
	}
	if other.Nick != "" {
		c.Nick = other.Nick
	}
	if other.User != "" {
		c.User = other.User
	}
	if other.Real != "" {
		c.Real = other.Real
	}
	if other.KeepLogs {
		c.KeepLogs = true
	}
	if other.LogDir != "" {
		c.LogDir = other.LogDir
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DebugLog != "" {
		c.DebugLog = other.DebugLog
	}
	if other.ArchivePath != "" {
		c.ArchivePath = other.ArchivePath
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.FloodDelay != 0 {
		c.FloodDelay = other.FloodDelay
	}
}

// Validate checks the values needed before connecting.
func (c Config) Validate() error {
	var errs []error
	if c.Server == "" {
		errs = append(errs, fmt.Errorf("%w: server is required", core.ErrBadRequest))
	}
	for _, f := range []struct{ label, value string }{
		{"Nickname", c.Nick},
		{"Username", c.User},
		{"Real name", c.Real},
	} {
		if f.value == "" {
			errs = append(errs, fmt.Errorf("%w: %s is required", core.ErrBadRequest, f.label))
		}
	}
	if _, err := core.NewSession(c.Server, c.Nick, c.User, c.Real); err != nil {
		errs = append(errs, err)
	}
	if c.FloodDelay < 0 || c.DialTimeout < 0 {
		errs = append(errs, fmt.Errorf("%w: durations must not be negative", core.ErrBadRequest))
	}
	return errors.Join(errs...)
}
