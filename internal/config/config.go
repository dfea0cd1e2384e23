// Package config loads the wikidb configuration file.
//
// YAML is the default format; a ".toml" extension selects TOML. Fields
// missing from the file keep their defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration.
type Config struct {
	DB             DBConfig   `yaml:"db" toml:"db"`
	Queue          string     `yaml:"queue" toml:"queue"`
	HTTP           HTTPConfig `yaml:"http" toml:"http"`
	RequestTimeout Duration   `yaml:"request_timeout" toml:"request_timeout"`
}

// DBConfig configures the store's connection pool.
type DBConfig struct {
	Driver      string `yaml:"driver" toml:"driver"`
	URL         string `yaml:"url" toml:"url"`
	MaxPoolSize int    `yaml:"max_pool_size" toml:"max_pool_size"`
	QueriesFile string `yaml:"queries_file" toml:"queries_file"`
}

// HTTPConfig configures the gateway listener.
type HTTPConfig struct {
	Addr string `yaml:"addr" toml:"addr"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for both YAML and TOML.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DB: DBConfig{
			Driver:      "sqlite3",
			URL:         "db/wiki.db?_busy_timeout=5000&_journal_mode=WAL",
			MaxPoolSize: 30,
		},
		Queue:          "wikidb.queue",
		HTTP:           HTTPConfig{Addr: ":8080"},
		RequestTimeout: Duration(30 * time.Second),
	}
}

// Load reads path over the defaults and validates the result. An empty path
// returns Default.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DB.Driver) == "" {
		errs = append(errs, errors.New("db.driver is required"))
	}
	if strings.TrimSpace(c.DB.URL) == "" {
		errs = append(errs, errors.New("db.url is required"))
	}
	if c.DB.MaxPoolSize <= 0 {
		errs = append(errs, fmt.Errorf("db.max_pool_size must be positive, got %d", c.DB.MaxPoolSize))
	}
	if strings.TrimSpace(c.Queue) == "" {
		errs = append(errs, errors.New("queue is required"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, errors.New("request_timeout must not be negative"))
	}
	return errors.Join(errs...)
}
