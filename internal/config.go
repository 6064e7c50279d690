package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Host    HostConfig        `yaml:"host"`
	Cache   CacheConfig       `yaml:"cache"`
	Catalog CatalogConfig     `yaml:"catalog"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Host.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	if err := c.Catalog.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// HostConfig holds the path to the exported host document snapshot.
type HostConfig struct {
	Snapshot string `yaml:"snapshot"`
}

// Validate validates the host configuration.
func (c *HostConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Snapshot, validation.Required),
	)
}

// CacheConfig holds the identifier cache configuration. Dir is the per-user
// directory holding one JSON file per design-file version; MemoryEntries
// bounds the in-process level.
type CacheConfig struct {
	Dir           string `yaml:"dir"`
	MemoryEntries int    `yaml:"memory_entries"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.MemoryEntries, validation.Min(1)),
	)
}

// CatalogConfig holds the SQLite catalog configuration.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the catalog configuration.
func (c *CatalogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// defaultCacheDir resolves the per-user cache directory, falling back to a
// relative path when the platform has no user cache dir.
func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".", "forgelink-cache")
	}
	return filepath.Join(base, "forgelink", "idcache")
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	cacheDir := defaultCacheDir()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Host: HostConfig{
			Snapshot: "./snapshot.json",
		},
		Cache: CacheConfig{
			Dir:           cacheDir,
			MemoryEntries: 256,
		},
		Catalog: CatalogConfig{
			Path: filepath.Join(cacheDir, "catalog.db"),
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
