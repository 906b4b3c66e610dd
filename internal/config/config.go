// Package config loads redtimer settings from a YAML file and the
// environment. Environment variables win over the file, the file wins
// over defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RedmineConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	MaxRetries int    `yaml:"max_retries"`
}

type TrackingConfig struct {
	// StartTimerAfterLoad starts tracking as soon as an issue is opened.
	StartTimerAfterLoad bool `yaml:"start_timer_after_load"`
	// SaveCurrentFirst saves the running issue's time before opening another.
	SaveCurrentFirst bool `yaml:"save_current_first"`
	// RestoreLastIssue reopens the last issue on startup.
	RestoreLastIssue bool `yaml:"restore_last_issue"`
}

type UIConfig struct {
	MessageTimeoutMs int `yaml:"message_timeout_ms"`
}

type StorageConfig struct {
	DBPath string `yaml:"db_path"`
}

type LogConfig struct {
	Calls bool   `yaml:"calls"`
	File  string `yaml:"file"`
}

type Config struct {
	Redmine  RedmineConfig  `yaml:"redmine"`
	Tracking TrackingConfig `yaml:"tracking"`
	UI       UIConfig       `yaml:"ui"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ErrMissingURL is returned by Validate when no Redmine URL is configured.
var ErrMissingURL = errors.New("redmine url is not configured (set redmine.url or REDTIMER_URL)")

// Dir returns the per-user state directory, ~/.redtimer.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".redtimer"), nil
}

// DefaultConfig returns the configuration used when no file exists.
// Paths are rooted at baseDir.
func DefaultConfig(baseDir string) *Config {
	return &Config{
		Redmine: RedmineConfig{
			TimeoutMs:  10000,
			MaxRetries: 1,
		},
		Tracking: TrackingConfig{
			StartTimerAfterLoad: true,
			SaveCurrentFirst:    true,
			RestoreLastIssue:    true,
		},
		UI:      UIConfig{MessageTimeoutMs: 5000},
		Storage: StorageConfig{DBPath: filepath.Join(baseDir, "redtimer.db")},
		Log:     LogConfig{File: filepath.Join(baseDir, "redtimer.log")},
	}
}

// Path returns the config file location: $REDTIMER_CONFIG or baseDir/config.yaml.
func Path(baseDir string) string {
	if p := os.Getenv("REDTIMER_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(baseDir, "config.yaml")
}

// Load reads Path(baseDir), tolerating a missing file, then applies
// environment overrides.
func Load(baseDir string) (*Config, error) {
	cfg := DefaultConfig(baseDir)
	if err := cfg.readFile(Path(baseDir)); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("REDTIMER_URL"); v != "" {
		c.Redmine.URL = v
	}
	if v := os.Getenv("REDTIMER_API_KEY"); v != "" {
		c.Redmine.APIKey = v
	}
	if v := os.Getenv("REDTIMER_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Redmine.TimeoutMs = n
		}
	}
	if v := os.Getenv("REDTIMER_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Redmine.MaxRetries = n
		}
	}
	if v := os.Getenv("REDTIMER_DB"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("REDTIMER_LOG_CALLS"); v != "" {
		c.Log.Calls, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("REDTIMER_MESSAGE_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.UI.MessageTimeoutMs = n
		}
	}
}

// Validate checks the settings needed to talk to Redmine.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Redmine.URL) == "" {
		return ErrMissingURL
	}
	if !strings.HasPrefix(c.Redmine.URL, "http://") && !strings.HasPrefix(c.Redmine.URL, "https://") {
		return fmt.Errorf("redmine url %q must start with http:// or https://", c.Redmine.URL)
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Redmine.TimeoutMs) * time.Millisecond
}

func (c *Config) MessageTimeout() time.Duration {
	return time.Duration(c.UI.MessageTimeoutMs) * time.Millisecond
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Redmine.APIKey != "" {
		out.Redmine.APIKey = "********"
	}
	return &out
}

// Save writes the config as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config %s: %w", path, err)
	}
	return nil
}
