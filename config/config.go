package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spektr-org/salaryscope/engine"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// DefaultDataURL is the published salary dataset.
const DefaultDataURL = "https://raw.githubusercontent.com/vqrca/dashboard_salarios_dados/refs/heads/main/dados-imersao-final.csv"

// Source kinds.
const (
	SourceURL      = "url"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config is the complete runtime configuration.
type Config struct {
	Source SourceConfig `yaml:"source"`
	View   ViewConfig   `yaml:"view"`
	Server ServerConfig `yaml:"server"`
	Cache  CacheConfig  `yaml:"cache"`
	Log    LogConfig    `yaml:"log"`
}

// SourceConfig selects where the raw records come from.
type SourceConfig struct {
	Kind        string        `yaml:"kind"`         // url, file or postgres
	URL         string        `yaml:"url"`          // kind=url
	Path        string        `yaml:"path"`         // kind=file
	DatabaseURL string        `yaml:"database_url"` // kind=postgres
	Table       string        `yaml:"table"`        // kind=postgres
	Timeout     time.Duration `yaml:"timeout"`      // fetch/query timeout
	Strict      bool          `yaml:"strict"`       // reject unknown CSV columns
	MaxFailures uint32        `yaml:"max_failures"` // consecutive fetch failures before the breaker opens
}

// ViewConfig holds the aggregate parameters.
type ViewConfig struct {
	TopN                  int    `yaml:"top_n"`
	Bins                  int    `yaml:"bins"`
	FocusRole             string `yaml:"focus_role"`
	DistributionDimension string `yaml:"distribution_dimension"`
	Workers               int    `yaml:"workers"` // >1 enables parallel evaluation
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	RateLimit    float64       `yaml:"rate_limit"` // requests per second, 0 disables
	Burst        int           `yaml:"burst"`
}

// CacheConfig configures the Redis view cache.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
	Prefix   string        `yaml:"prefix"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Source: SourceConfig{
			Kind:        SourceURL,
			URL:         DefaultDataURL,
			Table:       "salaries",
			Timeout:     30 * time.Second,
			MaxFailures: 3,
		},
		View: ViewConfig{
			TopN:                  engine.DefaultTopN,
			Bins:                  engine.DefaultBins,
			FocusRole:             engine.DefaultFocusRole,
			DistributionDimension: string(engine.DefaultDistributionDimension),
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
			RateLimit:    20,
			Burst:        40,
		},
		Cache: CacheConfig{
			Addr:   "localhost:6379",
			TTL:    10 * time.Minute,
			Prefix: "salaryscope:view:",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML file over the defaults, applies environment overrides
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables. Setting a data URL,
// file or database URL also switches the source kind.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("SALARYSCOPE_DATA_URL"); ok && v != "" {
		c.Source.Kind, c.Source.URL = SourceURL, v
	}
	if v, ok := lookup("SALARYSCOPE_DATA_FILE"); ok && v != "" {
		c.Source.Kind, c.Source.Path = SourceFile, v
	}
	if v, ok := lookup("SALARYSCOPE_DATABASE_URL"); ok && v != "" {
		c.Source.Kind, c.Source.DatabaseURL = SourcePostgres, v
	}
	if v, ok := lookup("SALARYSCOPE_REDIS_ADDR"); ok && v != "" {
		c.Cache.Enabled, c.Cache.Addr = true, v
	}
	if v, ok := lookup("SALARYSCOPE_LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup("SALARYSCOPE_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup("SALARYSCOPE_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SALARYSCOPE_WORKERS: %v", ErrInvalid, err)
		}
		c.View.Workers = n
	}
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceURL:
		if c.Source.URL == "" {
			return fmt.Errorf("%w: source.url is required for kind %q", ErrInvalid, SourceURL)
		}
	case SourceFile:
		if c.Source.Path == "" {
			return fmt.Errorf("%w: source.path is required for kind %q", ErrInvalid, SourceFile)
		}
	case SourcePostgres:
		if c.Source.DatabaseURL == "" {
			return fmt.Errorf("%w: source.database_url is required for kind %q", ErrInvalid, SourcePostgres)
		}
	default:
		return fmt.Errorf("%w: unknown source.kind %q", ErrInvalid, c.Source.Kind)
	}

	if c.View.TopN <= 0 {
		return fmt.Errorf("%w: view.top_n must be positive", ErrInvalid)
	}
	if c.View.Bins <= 0 {
		return fmt.Errorf("%w: view.bins must be positive", ErrInvalid)
	}
	if _, err := engine.ParseDimension(c.View.DistributionDimension); err != nil {
		return fmt.Errorf("%w: view.distribution_dimension: %v", ErrInvalid, err)
	}
	if c.View.Workers < 0 {
		return fmt.Errorf("%w: view.workers must not be negative", ErrInvalid)
	}

	if c.Server.RateLimit < 0 || c.Server.Burst < 0 {
		return fmt.Errorf("%w: server rate limit and burst must not be negative", ErrInvalid)
	}
	if c.Server.RateLimit > 0 && c.Server.Burst == 0 {
		return fmt.Errorf("%w: server.burst must be positive when rate_limit is set", ErrInvalid)
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("%w: cache.addr is required when the cache is enabled", ErrInvalid)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalid)
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: unknown log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// ViewOptions converts the view section into engine options.
func (c *Config) ViewOptions() []engine.Option {
	opts := []engine.Option{
		engine.WithTopN(c.View.TopN),
		engine.WithBins(c.View.Bins),
		engine.WithFocusRole(c.View.FocusRole),
	}
	if d, err := engine.ParseDimension(c.View.DistributionDimension); err == nil {
		opts = append(opts, engine.WithDistributionDimension(d))
	}
	if c.View.Workers > 1 {
		opts = append(opts, engine.WithParallel(c.View.Workers))
	}
	return opts
}
