// Package config provides configuration types and defaults for clientflow.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/clientflow/clientflow/internal/log"
)

// Config holds all configuration options for clientflow.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Lookup  LookupConfig  `mapstructure:"lookup"`
	Session SessionConfig `mapstructure:"session"`
	UI      UIConfig      `mapstructure:"ui"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// APIConfig points at the remote client collection.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"` // origin; "/clients" is appended
	Timeout time.Duration `mapstructure:"timeout"`
}

// LookupConfig configures the postal code lookup.
type LookupConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Debounce time.Duration `mapstructure:"debounce"` // quiet period before a lookup is issued
	Timeout  time.Duration `mapstructure:"timeout"`
	Cache    CacheConfig   `mapstructure:"cache"`
}

// CacheConfig selects where successful lookups are remembered.
type CacheConfig struct {
	// Backend is "memory" (default), "redis" or "none".
	Backend   string        `mapstructure:"backend"`
	TTL       time.Duration `mapstructure:"ttl"`
	RedisAddr string        `mapstructure:"redis_addr"`
	RedisDB   int           `mapstructure:"redis_db"`
}

// SessionConfig locates the durable local storage holding the token.
type SessionConfig struct {
	Path        string `mapstructure:"path"`
	TokenSecret string `mapstructure:"token_secret"`
	// Watch returns to the login screen when another process signs out.
	Watch bool `mapstructure:"watch"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowHeader    bool   `mapstructure:"show_header"`
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// TracingConfig holds tracing configuration for remote calls.
type TracingConfig struct {
	// Enabled controls whether tracing is active.
	// Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "file", "stdout", "otlp"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	FilePath string `mapstructure:"file_path"`

	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0).
	SampleRate float64 `mapstructure:"sample_rate"`
}

// Default values.
const (
	DefaultAPIBaseURL    = "http://localhost:4000"
	DefaultLookupBaseURL = "https://brasilapi.com.br/api/cep/v1"
	DefaultDebounce      = 800 * time.Millisecond
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// DefaultDir returns ~/.config/clientflow, or "" if the home dir is unavailable.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "clientflow")
}

// DefaultStoragePath returns the default local storage database path.
func DefaultStoragePath() string {
	dir := DefaultDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "storage.db")
}

// DefaultTracesFilePath returns the default path for trace file export.
func DefaultTracesFilePath() string {
	dir := DefaultDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		API: APIConfig{
			BaseURL: DefaultAPIBaseURL,
			Timeout: 10 * time.Second,
		},
		Lookup: LookupConfig{
			BaseURL:  DefaultLookupBaseURL,
			Debounce: DefaultDebounce,
			Timeout:  5 * time.Second,
			Cache: CacheConfig{
				Backend:   CacheMemory,
				TTL:       24 * time.Hour,
				RedisAddr: "localhost:6379",
			},
		},
		Session: SessionConfig{
			Path:  DefaultStoragePath(),
			Watch: true,
		},
		UI: UIConfig{
			ShowHeader:    true,
			MarkdownStyle: "dark",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "file",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := ValidateAPI(c.API); err != nil {
		return err
	}
	if err := ValidateLookup(c.Lookup); err != nil {
		return err
	}
	if err := ValidateUI(c.UI); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateAPI requires an absolute http(s) origin and a positive timeout.
func ValidateAPI(api APIConfig) error {
	if err := validateHTTPURL("api.base_url", api.BaseURL); err != nil {
		return err
	}
	if api.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", api.Timeout)
	}
	return nil
}

// ValidateLookup checks the lookup endpoint, durations and cache backend.
func ValidateLookup(lookup LookupConfig) error {
	if err := validateHTTPURL("lookup.base_url", lookup.BaseURL); err != nil {
		return err
	}
	if lookup.Debounce <= 0 {
		return fmt.Errorf("lookup.debounce must be positive, got %s", lookup.Debounce)
	}
	if lookup.Timeout <= 0 {
		return fmt.Errorf("lookup.timeout must be positive, got %s", lookup.Timeout)
	}

	switch lookup.Cache.Backend {
	case "", CacheMemory, CacheNone:
	case CacheRedis:
		if lookup.Cache.RedisAddr == "" {
			return fmt.Errorf("lookup.cache.redis_addr is required when backend is \"redis\"")
		}
	default:
		return fmt.Errorf("lookup.cache.backend must be \"memory\", \"redis\", or \"none\", got %q", lookup.Cache.Backend)
	}
	if lookup.Cache.TTL < 0 {
		return fmt.Errorf("lookup.cache.ttl must not be negative, got %s", lookup.Cache.TTL)
	}
	return nil
}

func ValidateUI(ui UIConfig) error {
	switch ui.MarkdownStyle {
	case "", "dark", "light":
		return nil
	default:
		return fmt.Errorf("ui.markdown_style must be \"dark\" or \"light\", got %q", ui.MarkdownStyle)
	}
}

// ValidateTracing checks tracing configuration for errors.
// Empty values use defaults.
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled {
		if tracing.Exporter == "file" && tracing.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

func validateHTTPURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# ClientFlow CRM configuration

# Remote client collection (json-server style). "/clients" is appended.
api:
  base_url: http://localhost:4000
  timeout: 10s

# Postal code (CEP) lookup used to fill address fields
lookup:
  base_url: https://brasilapi.com.br/api/cep/v1
  debounce: 800ms     # quiet period after the last keystroke
  timeout: 5s
  cache:
    backend: memory   # memory, redis, or none
    ttl: 24h
    # redis_addr: localhost:6379
    # redis_db: 0

# Durable local storage for the session token
session:
  # path: ~/.config/clientflow/storage.db
  # token_secret: change-me
  watch: true         # return to login when another terminal runs "clientflow logout"

ui:
  show_header: true
  # markdown_style: dark  # help overlay style: "dark" (default) or "light"

# tracing:
#   enabled: false                 # default: false
#   exporter: file                 # none, file, stdout, otlp (default: file)
#   file_path: ~/.config/clientflow/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
