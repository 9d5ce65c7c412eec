package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"heroscope/internal/eventbus"
)

// Environment variables that override the file
const (
	EnvAPIURL     = "MARVEL_API_URL"
	EnvPublicKey  = "MARVEL_PUBLIC_KEY"
	EnvPrivateKey = "MARVEL_PRIVATE_KEY"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Config represents the application configuration
type Config struct {
	Version    int         `toml:"version"`
	API        APIConfig   `toml:"api"`
	Query      QueryConfig `toml:"query"`
	UISettings UISettings  `toml:"ui"`
}

// APIConfig describes how to reach the character API
type APIConfig struct {
	BaseURL        string `toml:"base_url" validate:"required,url"`
	PublicKey      string `toml:"public_key"`
	PrivateKey     string `toml:"private_key"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gte=0"`
}

// QueryConfig holds the pagination and debounce settings
type QueryConfig struct {
	PageSizes       []int `toml:"page_sizes" validate:"required,min=1,dive,gt=0"`
	DefaultPageSize int   `toml:"default_page_size" validate:"gte=0"`
	DebounceMillis  int   `toml:"debounce_ms" validate:"gt=0"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowDescriptions bool `toml:"show_descriptions"`
	DemoLatencyMs    int  `toml:"demo_latency_ms" validate:"gte=0"`
}

// Debounce returns the quiet period as a duration
func (q QueryConfig) Debounce() time.Duration {
	return time.Duration(q.DebounceMillis) * time.Millisecond
}

// Timeout returns the request timeout as a duration
func (a APIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// HasCredentials reports whether a public key is available
func (a APIConfig) HasCredentials() bool {
	return a.PublicKey != ""
}

// Validate checks the struct tags and the cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Query.DefaultPageSize != 0 {
		found := false
		for _, size := range c.Query.PageSizes {
			if size == c.Query.DefaultPageSize {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: default_page_size %d is not one of page_sizes %v",
				ErrInvalidConfig, c.Query.DefaultPageSize, c.Query.PageSizes)
		}
	}
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a config service for the user config directory
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return NewConfigServiceForPath(filepath.Join(configDir, "heroscope", "config.toml"))
}

// NewConfigServiceForPath creates a config service bound to a specific file
func NewConfigServiceForPath(path string) ConfigService {
	return &configService{filePath: path}
}

// WithBus attaches an event bus so loads and saves are announced
func WithBus(cs ConfigService, bus eventbus.EventBus) ConfigService {
	if impl, ok := cs.(*configService); ok {
		impl.bus = bus
	}
	return cs
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load reads the configuration file, falling back to defaults when it does
// not exist, then applies .env and environment overrides and validates.
func (cs *configService) Load() (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(cs.filePath); err == nil {
		loaded, err := cs.LoadFromPath(cs.filePath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	// A missing .env file is fine
	_ = godotenv.Load()
	ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: cs.filePath})
	}
	return cfg, nil
}

// Save saves the configuration to file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path without env overrides
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start from defaults so missing keys keep sensible values
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Keys may be stored here, keep it private
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides API settings from the environment
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv(EnvPublicKey); v != "" {
		cfg.API.PublicKey = v
	}
	if v := os.Getenv(EnvPrivateKey); v != "" {
		cfg.API.PrivateKey = v
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		API: APIConfig{
			BaseURL:        "https://gateway.marvel.com",
			TimeoutSeconds: 10,
		},
		Query: QueryConfig{
			PageSizes:       []int{10, 25, 100},
			DefaultPageSize: 10,
			DebounceMillis:  500,
		},
		UISettings: UISettings{
			ShowDescriptions: true,
			DemoLatencyMs:    300,
		},
	}
}
