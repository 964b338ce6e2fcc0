package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults applied by Load when the config file omits a field.
const (
	DefaultResolverTTL    = time.Hour
	DefaultProjectorTTL   = 8 * time.Hour
	DefaultProjectorLease = 30 * time.Second
	DefaultProjectorWait  = 30 * time.Second
	DefaultErrorLockLease = 10 * time.Second
	DefaultErrorLockWait  = 30 * time.Second
	DefaultTimezone       = "UTC"
)

// MissingDefaultError reports a required default value absent from the
// configuration. Surfaced at call time by the operation that needed it.
type MissingDefaultError struct {
	Field string
}

func (e *MissingDefaultError) Error() string {
	return fmt.Sprintf("configuration is missing required default %q", e.Field)
}

// Config is the flat sync-layer configuration.
type Config struct {
	Version string `json:"version"`

	// Fallback values used when projecting a remote client that lacks them.
	DefaultTimezone    string `json:"default_timezone,omitempty"`
	DefaultTeam        string `json:"default_team,omitempty"`
	DefaultClientEmail string `json:"default_client_email,omitempty"`

	// Cache lifetimes, in seconds.
	ResolverTTLSeconds  int `json:"resolver_ttl_seconds,omitempty"`
	ProjectorTTLSeconds int `json:"projector_ttl_seconds,omitempty"`

	// Lock windows, in seconds.
	ProjectorLockLeaseSeconds   int `json:"projector_lock_lease_seconds,omitempty"`
	ProjectorLockAcquireSeconds int `json:"projector_lock_acquire_seconds,omitempty"`
	ErrorLockLeaseSeconds       int `json:"error_lock_lease_seconds,omitempty"`
	ErrorLockAcquireSeconds     int `json:"error_lock_acquire_seconds,omitempty"`
}

// ResolverTTL returns the resolver cache lifetime.
func (c *Config) ResolverTTL() time.Duration {
	return secondsOr(c.ResolverTTLSeconds, DefaultResolverTTL)
}

// ProjectorTTL returns the projector id-hint cache lifetime.
func (c *Config) ProjectorTTL() time.Duration {
	return secondsOr(c.ProjectorTTLSeconds, DefaultProjectorTTL)
}

// ProjectorLockLease returns the projector lock lease window.
func (c *Config) ProjectorLockLease() time.Duration {
	return secondsOr(c.ProjectorLockLeaseSeconds, DefaultProjectorLease)
}

// ProjectorLockAcquire returns the projector lock acquire timeout.
func (c *Config) ProjectorLockAcquire() time.Duration {
	return secondsOr(c.ProjectorLockAcquireSeconds, DefaultProjectorWait)
}

// ErrorLockLease returns the error tracker lock lease window.
func (c *Config) ErrorLockLease() time.Duration {
	return secondsOr(c.ErrorLockLeaseSeconds, DefaultErrorLockLease)
}

// ErrorLockAcquire returns the error tracker lock acquire timeout.
func (c *Config) ErrorLockAcquire() time.Duration {
	return secondsOr(c.ErrorLockAcquireSeconds, DefaultErrorLockWait)
}

func secondsOr(s int, fallback time.Duration) time.Duration {
	if s <= 0 {
		return fallback
	}
	return time.Duration(s) * time.Second
}

// Default returns a config with all defaults applied.
func Default() *Config {
	return &Config{
		Version:         "1",
		DefaultTimezone: DefaultTimezone,
	}
}

// Load reads .crmsync/config.json from the specified directory, applying
// defaults for omitted fields. A missing file yields the default config.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ".crmsync", "config.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = DefaultTimezone
	}
	return cfg, nil
}

// Save writes config.json under dir/.crmsync.
func Save(dir string, cfg *Config) error {
	cfgDir := filepath.Join(dir, ".crmsync")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("failed to create .crmsync dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(cfgDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
