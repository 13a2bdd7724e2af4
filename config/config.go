// ABOUTME: Client configuration stored at XDG paths with .env and environment overrides
// ABOUTME: Holds the API base URL, request timeout, page size, session backend, and log level
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
)

const (
	AppName = "salesdesk"

	DefaultAPIURL         = "http://localhost:5000/api"
	DefaultTimeoutSeconds = 30
	DefaultPageSize       = 10

	BackendFile   = "file"
	BackendBadger = "badger"
)

type Config struct {
	APIURL         string `json:"api_url"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	PageSize       int    `json:"page_size"`
	SessionBackend string `json:"session_backend"`
	LogLevel       string `json:"log_level"`
}

func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
		PageSize:       DefaultPageSize,
		SessionBackend: BackendFile,
		LogLevel:       "info",
	}
}

// ConfigDir is where config.json lives.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DataDir holds the persisted session and the request journal.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

func JournalPath() string {
	return filepath.Join(DataDir(), "journal.db")
}

func LogPath() string {
	return filepath.Join(xdg.StateHome, AppName, AppName+".log")
}

// Load reads config.json, then a .env file in the working directory, then
// SALESDESK_* environment variables. Later sources win.
func Load() (*Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return nil, err
	}

	// A missing .env is normal.
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads config.json over the defaults without any overrides.
func LoadFile() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath())
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("SALESDESK_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("SALESDESK_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SALESDESK_TIMEOUT_SECONDS %q: %w", v, err)
		}
		cfg.TimeoutSeconds = n
	}
	if v := os.Getenv("SALESDESK_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SALESDESK_PAGE_SIZE %q: %w", v, err)
		}
		cfg.PageSize = n
	}
	if v := os.Getenv("SALESDESK_SESSION_BACKEND"); v != "" {
		cfg.SessionBackend = v
	}
	if v := os.Getenv("SALESDESK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_url %q", c.APIURL)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", c.TimeoutSeconds)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.SessionBackend != BackendFile && c.SessionBackend != BackendBadger {
		return fmt.Errorf("unknown session_backend %q (want %s or %s)", c.SessionBackend, BackendFile, BackendBadger)
	}
	return nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Set updates a single field by its JSON key, as used by `config set`.
func (c *Config) Set(key, value string) error {
	switch key {
	case "api_url":
		c.APIURL = value
	case "timeout_seconds", "page_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		if key == "page_size" {
			c.PageSize = n
		} else {
			c.TimeoutSeconds = n
		}
	case "session_backend":
		c.SessionBackend = value
	case "log_level":
		c.LogLevel = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}

// Save writes the config with user-only permissions.
func Save(cfg *Config) error {
	if err := os.MkdirAll(ConfigDir(), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
