// Package config loads loupebox settings from .loupebox/config.yaml and the
// environment. Environment variables win over the file, and the file wins
// over the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// Dir is the per-library directory created by `loupebox init`.
	Dir = ".loupebox"

	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var (
	DefaultPath   = filepath.Join(Dir, "config.yaml")
	defaultDBPath = filepath.Join(Dir, "loupebox.db")
)

type Config struct {
	Database Database `yaml:"database"`
	Scan     Scan     `yaml:"scan"`
	Archive  Archive  `yaml:"archive"`
	Log      Log      `yaml:"log"`
}

type Database struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path,omitempty"`
	URL    string `yaml:"url,omitempty"`
}

type Scan struct {
	Extensions []string `yaml:"extensions"`
}

// Archive points at an S3-compatible bucket.
type Archive struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Region    string `yaml:"region,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type Log struct {
	Level string `yaml:"level"`
}

// Default returns the settings used when no file or environment overrides
// are present.
func Default() *Config {
	return &Config{
		Database: Database{
			Driver: DriverSQLite,
			Path:   defaultDBPath,
		},
		Scan: Scan{
			Extensions: []string{".jpg", ".jpeg", ".png"},
		},
		Archive: Archive{
			Bucket: "loupebox",
			UseSSL: true,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("config: database.path is required for sqlite3")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("config: database.url or DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown database driver %q", c.Database.Driver)
	}
	if len(c.Scan.Extensions) == 0 {
		return errors.New("config: scan.extensions must not be empty")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps names like "debug" or "WARN" to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: bad log level %q", s)
	}
	return level, nil
}

func (c *Config) applyEnv() {
	c.Database.Driver = readEnv("LOUPEBOX_DB_DRIVER", c.Database.Driver)
	c.Database.Path = readEnv("LOUPEBOX_DB_PATH", c.Database.Path)
	// DATABASE_URL is what the postgres tooling already exports
	c.Database.URL = readEnv("DATABASE_URL", c.Database.URL)
	c.Scan.Extensions = parseList("LOUPEBOX_EXTENSIONS", c.Scan.Extensions)
	c.Log.Level = readEnv("LOUPEBOX_LOG_LEVEL", c.Log.Level)

	c.Archive.Endpoint = readEnv("LOUPEBOX_S3_ENDPOINT", c.Archive.Endpoint)
	c.Archive.Bucket = readEnv("LOUPEBOX_S3_BUCKET", c.Archive.Bucket)
	c.Archive.Region = readEnv("LOUPEBOX_S3_REGION", c.Archive.Region)
	c.Archive.AccessKey = readEnv("LOUPEBOX_S3_ACCESS_KEY", c.Archive.AccessKey)
	c.Archive.SecretKey = readEnv("LOUPEBOX_S3_SECRET_KEY", c.Archive.SecretKey)
	c.Archive.UseSSL = parseBool("LOUPEBOX_S3_USE_SSL", c.Archive.UseSSL)
}

func readEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func parseList(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
