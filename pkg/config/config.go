// Package config loads server configuration from JSON or YAML files.
// The format is auto-detected from the file extension. A zero config is
// usable; Default fills in everything needed to run locally.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
)

// Config is the top-level server configuration.
type Config struct {
	// Listen is the host:port the HTTP server binds to.
	Listen string `json:"listen" yaml:"listen"`

	// ShutdownTimeout bounds graceful shutdown. A Go duration string,
	// with "d" accepted for days.
	ShutdownTimeout string `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log       LogConfig       `json:"log" yaml:"log"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	CORS      CORSConfig      `json:"cors" yaml:"cors"`
	Files     FilesConfig     `json:"files" yaml:"files"`

	// SeedTodos are loaded into the todo store at startup.
	SeedTodos []SeedTodo `json:"seed_todos" yaml:"seed_todos"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `json:"level" yaml:"level"`
	// Format is text or json.
	Format string `json:"format" yaml:"format"`
}

// AuthConfig controls token issuance.
type AuthConfig struct {
	// Secret signs access tokens. Required when auth is used.
	Secret string `json:"secret" yaml:"secret"`
	// TokenTTL is the access token lifetime as a duration string.
	TokenTTL string `json:"token_ttl" yaml:"token_ttl"`
	// Users are bootstrap accounts created at startup.
	Users []BootstrapUser `json:"users" yaml:"users"`
}

// TokenTTLDuration parses TokenTTL, falling back to one hour.
func (a AuthConfig) TokenTTLDuration() time.Duration {
	d, err := ParseDuration(a.TokenTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// BootstrapUser is an account created at startup from plaintext
// credentials in the config file.
type BootstrapUser struct {
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`
	Role     string `json:"role" yaml:"role"`
}

// RateLimitConfig controls the per-client request limiter.
type RateLimitConfig struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	// Rate is tokens added per second per client.
	Rate float64 `json:"rate" yaml:"rate"`
	// Burst is the bucket capacity.
	Burst float64 `json:"burst" yaml:"burst"`
}

// CORSConfig controls cross-origin response headers.
type CORSConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Origins lists allowed origins. "*" allows any.
	Origins []string `json:"origins" yaml:"origins"`
}

// FilesConfig controls upload and static file serving.
type FilesConfig struct {
	// UploadDir receives multipart uploads. Empty disables uploads.
	UploadDir string `json:"upload_dir" yaml:"upload_dir"`
	// StaticDir is served under /static/. Empty disables it.
	StaticDir string `json:"static_dir" yaml:"static_dir"`
	// MaxUploadBytes caps a single upload.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// SeedTodo is a todo loaded at startup. IDs are assigned by the store.
type SeedTodo struct {
	Title     string `json:"title" yaml:"title"`
	Completed bool   `json:"completed" yaml:"completed"`
}

// Default returns a configuration suitable for local development.
func Default() *Config {
	return &Config{
		Listen:          "127.0.0.1:8080",
		ShutdownTimeout: "10s",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Auth: AuthConfig{
			TokenTTL: "1h",
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			Rate:    50,
			Burst:   100,
		},
		CORS: CORSConfig{
			Enabled: true,
			Origins: []string{"*"},
		},
		Files: FilesConfig{
			MaxUploadBytes: 10 << 20,
		},
	}
}

// Load reads a configuration file and overlays it onto the defaults.
// The format is auto-detected from the extension (.yaml/.yml for YAML,
// otherwise JSON). Returns wrapped errors for common failure cases.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		return ParseYAML(data)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w in file: %s", ErrInvalidJSON, path)
	}
	return ParseJSON(data)
}

// ParseJSON parses JSON bytes over the defaults and validates.
func ParseJSON(data []byte) (*Config, error) {
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// ParseYAML parses YAML bytes over the defaults and validates.
func ParseYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks invariants the loaders cannot express.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address must not be empty")
	}
	if c.ShutdownTimeout != "" {
		if d, err := ParseDuration(c.ShutdownTimeout); err != nil || d < 0 {
			return fmt.Errorf("invalid shutdown_timeout %q", c.ShutdownTimeout)
		}
	}
	if c.Auth.TokenTTL != "" {
		if d, err := ParseDuration(c.Auth.TokenTTL); err != nil || d < 0 {
			return fmt.Errorf("invalid auth.token_ttl %q", c.Auth.TokenTTL)
		}
	}
	for i, u := range c.Auth.Users {
		if u.Email == "" {
			return fmt.Errorf("auth.users[%d]: email must not be empty", i)
		}
		if u.Password == "" {
			return fmt.Errorf("auth.users[%d]: password must not be empty", i)
		}
	}
	if len(c.Auth.Users) > 0 && c.Auth.Secret == "" {
		return errors.New("auth.secret is required when bootstrap users are configured")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Rate <= 0 {
			return errors.New("rate_limit.rate must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			return errors.New("rate_limit.burst must be positive")
		}
	}
	if c.Files.MaxUploadBytes < 0 {
		return errors.New("files.max_upload_bytes must not be negative")
	}
	return nil
}

// ShutdownTimeoutDuration parses ShutdownTimeout, falling back to ten
// seconds.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, err := ParseDuration(c.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// ParseDuration parses a Go duration string, additionally accepting a
// day suffix (e.g. "7d").
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, errors.New("empty duration string")
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day format: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
