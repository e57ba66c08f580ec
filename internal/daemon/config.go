// Package daemon assembles and runs the Spire server: configuration,
// the persistence gateway, and the HTTP API.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, loaded from ~/.spire/config.toml.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Sync    SyncConfig    `toml:"sync"`
	Planner PlannerConfig `toml:"planner"`
	Auth    AuthConfig    `toml:"auth"`
	Metrics MetricsConfig `toml:"metrics"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig controls the SQLite gateway.
type StorageConfig struct {
	DataDir string `toml:"data_dir"`
}

// SyncConfig controls gateway call budgets.
type SyncConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// PlannerConfig controls the goal decomposition endpoint. With an empty
// base_url every goal falls back to the manual-override plan.
type PlannerConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

// AuthConfig controls sessions and password hashing.
type AuthConfig struct {
	SessionTTLHours int `toml:"session_ttl_hours"`
	BcryptCost      int `toml:"bcrypt_cost"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `toml:"enabled"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 7480,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Sync: SyncConfig{
			TimeoutSeconds: 10,
		},
		Planner: PlannerConfig{
			Model: "gpt-4o-mini",
		},
		Auth: AuthConfig{
			SessionTTLHours: 30 * 24,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// DefaultConfigPath returns ~/.spire/config.toml.
func DefaultConfigPath() string {
	return filepath.Join(spireHome(), "config.toml")
}

// Load reads the config file at path, falling back to the default path
// when empty. A missing file is not an error: defaults apply.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills zero values a partial config file left unset.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.API.Host == "" {
		c.API.Host = def.API.Host
	}
	if c.API.Port == 0 {
		c.API.Port = def.API.Port
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = def.Storage.DataDir
	}
	if c.Sync.TimeoutSeconds <= 0 {
		c.Sync.TimeoutSeconds = def.Sync.TimeoutSeconds
	}
	if c.Planner.Model == "" {
		c.Planner.Model = def.Planner.Model
	}
	if c.Auth.SessionTTLHours <= 0 {
		c.Auth.SessionTTLHours = def.Auth.SessionTTLHours
	}
}

// SyncTimeout returns the gateway call budget as a duration.
func (c Config) SyncTimeout() time.Duration {
	return time.Duration(c.Sync.TimeoutSeconds) * time.Second
}

// SessionTTL returns the bearer token lifetime as a duration.
func (c Config) SessionTTL() time.Duration {
	return time.Duration(c.Auth.SessionTTLHours) * time.Hour
}

// ListenAddr returns the host:port pair for the HTTP listener.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

func spireHome() string {
	if home := os.Getenv("SPIRE_HOME"); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".spire"
	}
	return filepath.Join(home, ".spire")
}

func defaultDataDir() string {
	return filepath.Join(spireHome(), "data")
}
