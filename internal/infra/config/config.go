// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig            `yaml:"server"`
	Log      LogConfig               `yaml:"log"`
	Station  StationConfig           `yaml:"station"`
	Admin    AdminConfig             `yaml:"admin"`
	Storage  StorageConfig           `yaml:"storage"`
	Cache    CacheConfig             `yaml:"cache"`
	Metrics  MetricsConfig           `yaml:"metrics"`
	Schedule ScheduleConfig          `yaml:"schedule"`
	Filters  map[string]FilterConfig `yaml:"filters"`
	Messages MessagesConfig          `yaml:"messages"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr            string        `yaml:"addr" default:":8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s" validate:"gt=0"`
	Hooks           HooksConfig   `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// LogConfig represents log file rotation. Output and level come from flags.
type LogConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" default:"100" validate:"gte=1"`
	MaxBackups int  `yaml:"max_backups" default:"5" validate:"gte=0"`
	MaxAgeDays int  `yaml:"max_age_days" default:"28" validate:"gte=0"`
	Compress   bool `yaml:"compress"`
}

// StationConfig identifies the station served by this process.
type StationConfig struct {
	ID   string `yaml:"id" default:"main" validate:"required,max=64"`
	Name string `yaml:"name" default:"19radio"`
}

// AdminConfig represents admin-related configuration.
type AdminConfig struct {
	// Password is either a plain password or a bcrypt hash.
	Password      string        `yaml:"password" validate:"required"`
	SigningSecret string        `yaml:"signing_secret" validate:"required,min=16"`
	TokenTTL      time.Duration `yaml:"token_ttl" default:"1h" validate:"gt=0"`
	LoginAttempts int           `yaml:"login_attempts" default:"5" validate:"gte=1"`
	LoginWindow   time.Duration `yaml:"login_window" default:"15m" validate:"gt=0"`
}

// StorageConfig selects the catalog and epoch store.
type StorageConfig struct {
	Driver string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite postgres mysql memory"`
	DSN    string `yaml:"dsn" default:"19radio.db"`
	// CatalogFile, when set, serves the catalog from a YAML file that is
	// reloaded on change. Catalog writes are then rejected.
	CatalogFile string         `yaml:"catalog_file"`
	Settings    map[string]any `yaml:"settings"`
}

// CacheConfig represents the redis catalog cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Addr      string        `yaml:"addr" default:"localhost:6379"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db" validate:"gte=0"`
	TTL       time.Duration `yaml:"ttl" default:"30s" validate:"gt=0"`
	KeyPrefix string        `yaml:"key_prefix" default:"19radio:"`
}

// MetricsConfig represents the prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" default:"/metrics" validate:"startswith=/"`
}

// ScheduleConfig tunes schedule projection.
type ScheduleConfig struct {
	PreviewSize int `yaml:"preview_size" default:"5" validate:"gte=1,lte=50"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig represents user-facing messages for catalog rejections.
type MessagesConfig struct {
	DefaultError          string `yaml:"default_error" default:"Request rejected"`
	DuplicateSource       string `yaml:"duplicate_source" default:"The track is already in the catalog"`
	DurationLimitExceeded string `yaml:"duration_limit_exceeded" default:"The track length is outside the allowed range"`
	SourceSchemeRejected  string `yaml:"source_scheme_rejected" default:"The source location is not allowed"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		c.Admin.Password = v
	}
	if v := os.Getenv("ADMIN_SIGNING_SECRET"); v != "" {
		c.Admin.SigningSecret = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Addr = v
		c.Cache.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Cache.DB = db
		}
	}
}

// GetMessage returns the message for the given rejection code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "duplicate_source":
		return c.Messages.DuplicateSource
	case "duration_limit_exceeded":
		return c.Messages.DurationLimitExceeded
	case "source_scheme_rejected":
		return c.Messages.SourceSchemeRejected
	default:
		return c.Messages.DefaultError
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Storage.Driver != "memory" && c.Storage.DSN == "" {
		return errors.Newf("storage.dsn is required for driver %s", c.Storage.Driver)
	}

	return nil
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// DecodeSettings decodes a free-form settings map into out, applies its
// default tags and validates it.
func DecodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
