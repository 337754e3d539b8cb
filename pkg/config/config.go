// Package config loads the client configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk client configuration. Zero values take the
// documented defaults, so an empty or missing file is valid.
type Config struct {
	// ConnectTimeout bounds one connection attempt.
	ConnectTimeout Duration `yaml:"connect_timeout"`

	// KnownHostsPath is the persistent trust store location.
	KnownHostsPath string `yaml:"known_hosts_path"`

	// TermType is the TERM value requested for remote PTYs.
	TermType string `yaml:"term_type"`

	// Cols and Rows are the initial terminal geometry.
	Cols int `yaml:"cols"`
	Rows int `yaml:"rows"`

	// KeepAliveInterval is the gap between liveness probes.
	KeepAliveInterval Duration `yaml:"keepalive_interval"`

	// KeepAliveMaxMissed is how many consecutive probe failures count
	// as a lost connection.
	KeepAliveMaxMissed int `yaml:"keepalive_max_missed"`

	// EventLogPath is the CBOR event log location. Empty disables it.
	EventLogPath string `yaml:"event_log_path"`
}

// Configuration defaults.
const (
	DefaultConnectTimeout     = Duration(15 * time.Second)
	DefaultTermType           = "xterm-256color"
	DefaultCols               = 80
	DefaultRows               = 24
	DefaultKeepAliveInterval  = Duration(30 * time.Second)
	DefaultKeepAliveMaxMissed = 3
)

// Default returns the configuration with every field at its default.
func Default() Config {
	var c Config
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.KnownHostsPath == "" {
		c.KnownHostsPath = defaultKnownHostsPath()
	}
	if c.TermType == "" {
		c.TermType = DefaultTermType
	}
	if c.Cols == 0 {
		c.Cols = DefaultCols
	}
	if c.Rows == 0 {
		c.Rows = DefaultRows
	}
	if c.KeepAliveInterval == 0 {
		c.KeepAliveInterval = DefaultKeepAliveInterval
	}
	if c.KeepAliveMaxMissed == 0 {
		c.KeepAliveMaxMissed = DefaultKeepAliveMaxMissed
	}
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("config: negative connect_timeout %v", c.ConnectTimeout)
	}
	if c.Cols < 0 || c.Rows < 0 {
		return fmt.Errorf("config: negative terminal geometry %dx%d", c.Cols, c.Rows)
	}
	if c.KeepAliveInterval < 0 {
		return fmt.Errorf("config: negative keepalive_interval %v", c.KeepAliveInterval)
	}
	return nil
}

// Load reads a YAML configuration file and fills defaults. A missing
// file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration data and fills defaults.
func Parse(data []byte) (Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse error: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func defaultKnownHostsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "hawser_known_hosts.json"
	}
	return filepath.Join(home, ".hawser", "known_hosts.json")
}
