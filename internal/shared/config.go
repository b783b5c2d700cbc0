package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Chat     ChatConfig     `toml:"chat"`
	Database DatabaseConfig `toml:"database"`
	Media    MediaConfig    `toml:"media"`
}

// APIConfig contains the Chorus backend endpoints and credential storage path.
type APIConfig struct {
	BaseURL   string `toml:"base_url"`
	WSBaseURL string `toml:"ws_base_url"`
	TokenPath string `toml:"token_path"`
}

// ChatConfig contains tuning knobs for the realtime chat core.
type ChatConfig struct {
	ReconnectDelaySeconds int     `toml:"reconnect_delay_seconds"`
	SearchDebounceMS      int     `toml:"search_debounce_ms"`
	SendRateLimit         float64 `toml:"send_rate_limit"`
	SendBurst             int     `toml:"send_burst"`
}

// ReconnectDelay returns the fixed delay between reconnect attempts.
func (c ChatConfig) ReconnectDelay() time.Duration {
	if c.ReconnectDelaySeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ReconnectDelaySeconds) * time.Second
}

// SearchDebounce returns the debounce window for directory searches.
func (c ChatConfig) SearchDebounce() time.Duration {
	if c.SearchDebounceMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.SearchDebounceMS) * time.Millisecond
}

// DatabaseConfig contains local cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// MediaConfig contains media capture settings.
type MediaConfig struct {
	RecordLimitSeconds int `toml:"record_limit_seconds"`
}

// RecordLimit returns the maximum voice note duration.
func (c MediaConfig) RecordLimit() time.Duration {
	if c.RecordLimitSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RecordLimitSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// A .env file in the working directory (if present) and process environment
// variables override the file values, so deployments can point the client at
// another backend without editing config.toml.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(&config)
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	applyEnvOverrides(&config)
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvOverrides layers .env and environment values on top of the parsed config.
func applyEnvOverrides(config *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("CHORUS_API_URL"); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv("CHORUS_WS_URL"); v != "" {
		config.API.WSBaseURL = v
	}
	if v := os.Getenv("CHORUS_TOKEN_PATH"); v != "" {
		config.API.TokenPath = v
	}
	if v := os.Getenv("CHORUS_DB_PATH"); v != "" {
		config.Database.Path = v
	}
	if v := os.Getenv("CHORUS_RECONNECT_DELAY"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			config.Chat.ReconnectDelaySeconds = secs
		}
	}
}
