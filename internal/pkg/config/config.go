// Package config loads the console configuration from the environment. A .env
// file is read first when present; variables use the POS_ prefix, e.g.
// POS_API_BASE_URL.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/goliatone/go-pos-console/cache"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "POS"

// Config holds all console configuration
type Config struct {
	App      AppConfig
	API      APIConfig
	Cache    cache.Config
	List     ListConfig
	Session  SessionConfig
	Order    OrderConfig
	Mutation MutationConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	LogLevel    string
	LogFormat   string // json, text
}

// APIConfig points at the remote REST API.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// ListConfig tunes the list cache.
type ListConfig struct {
	// FetchTimeout bounds one list fetch. Zero disables the bound.
	FetchTimeout time.Duration
}

// SessionConfig selects the session store. An empty DSN keeps the session in
// memory only.
type SessionConfig struct {
	DSN string
}

// OrderConfig holds the order screen settings.
type OrderConfig struct {
	// ClearPolicy is "always" or "on_success".
	ClearPolicy string
	// TablePageSize is how many tables the order screen loads.
	TablePageSize int
}

// MutationConfig holds the mutation settings.
type MutationConfig struct {
	KeepOpenOnFailure bool
}

// Clear policies accepted in OrderConfig.
const (
	ClearAlways    = "always"
	ClearOnSuccess = "on_success"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "pos-console",
			Environment: "development",
			LogLevel:    "info",
			LogFormat:   "text",
		},
		API: APIConfig{
			BaseURL:   "http://localhost:8080/api",
			Timeout:   30 * time.Second,
			UserAgent: "go-pos-console",
		},
		Cache:   cache.DefaultConfig(),
		List:    ListConfig{FetchTimeout: 15 * time.Second},
		Session: SessionConfig{DSN: "file:pos-session.db"},
		Order: OrderConfig{
			ClearPolicy:   ClearAlways,
			TablePageSize: 50,
		},
	}
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	envFiles []string
	v        *viper.Viper
}

// WithEnvFiles replaces the default ".env" file list.
func WithEnvFiles(files ...string) Option {
	return func(l *loader) { l.envFiles = files }
}

// WithViper reads from v instead of a fresh instance.
func WithViper(v *viper.Viper) Option {
	return func(l *loader) {
		if v != nil {
			l.v = v
		}
	}
}

// Load reads the configuration from the environment on top of Default.
func Load(logger *slog.Logger, opts ...Option) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &loader{envFiles: []string{".env"}, v: viper.New()}
	for _, opt := range opts {
		opt(l)
	}

	if len(l.envFiles) > 0 {
		if err := godotenv.Load(l.envFiles...); err != nil {
			logger.Debug("no .env file loaded, using environment variables", slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded", slog.Any("files", l.envFiles))
		}
	}

	v := l.v
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Environment: v.GetString("app.env"),
			LogLevel:    v.GetString("log.level"),
			LogFormat:   v.GetString("log.format"),
		},
		API: APIConfig{
			BaseURL:   v.GetString("api.base_url"),
			Timeout:   v.GetDuration("api.timeout"),
			UserAgent: v.GetString("api.user_agent"),
		},
		Cache: cache.Config{
			Capacity:           v.GetInt("cache.capacity"),
			NumShards:          v.GetInt("cache.shards"),
			TTL:                v.GetDuration("cache.ttl"),
			EvictionPercentage: v.GetInt("cache.eviction_percentage"),
			EvictionInterval:   v.GetDuration("cache.eviction_interval"),
		},
		List:    ListConfig{FetchTimeout: v.GetDuration("list.fetch_timeout")},
		Session: SessionConfig{DSN: v.GetString("session.dsn")},
		Order: OrderConfig{
			ClearPolicy:   strings.ToLower(v.GetString("order.clear_policy")),
			TablePageSize: v.GetInt("order.table_page_size"),
		},
		Mutation: MutationConfig{KeepOpenOnFailure: v.GetBool("mutation.keep_open_on_failure")},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: api base url %q must be absolute", ErrInvalid, c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("%w: api timeout must not be negative", ErrInvalid)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("%w: cache: %v", ErrInvalid, err)
	}
	if c.List.FetchTimeout < 0 {
		return fmt.Errorf("%w: list fetch timeout must not be negative", ErrInvalid)
	}
	switch c.Order.ClearPolicy {
	case ClearAlways, ClearOnSuccess:
	default:
		return fmt.Errorf("%w: order clear policy %q", ErrInvalid, c.Order.ClearPolicy)
	}
	if c.Order.TablePageSize < 1 {
		return fmt.Errorf("%w: order table page size must be positive", ErrInvalid)
	}
	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("app.env", d.App.Environment)
	v.SetDefault("log.level", d.App.LogLevel)
	v.SetDefault("log.format", d.App.LogFormat)

	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.user_agent", d.API.UserAgent)

	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.shards", d.Cache.NumShards)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.eviction_percentage", d.Cache.EvictionPercentage)
	v.SetDefault("cache.eviction_interval", d.Cache.EvictionInterval)

	v.SetDefault("list.fetch_timeout", d.List.FetchTimeout)
	v.SetDefault("session.dsn", d.Session.DSN)
	v.SetDefault("order.clear_policy", d.Order.ClearPolicy)
	v.SetDefault("order.table_page_size", d.Order.TablePageSize)
	v.SetDefault("mutation.keep_open_on_failure", d.Mutation.KeepOpenOnFailure)
}
