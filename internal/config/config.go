// Package config loads the application configuration from an optional YAML
// file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Artwork  ArtworkConfig  `yaml:"artwork"`
	Roon     RoonConfig     `yaml:"roon"`
	Import   ImportConfig   `yaml:"import"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host       string `yaml:"host" env:"DISCOBASE_HOST" default:"0.0.0.0"`
	Port       int    `yaml:"port" env:"DISCOBASE_PORT" default:"8080"`
	EnableCORS bool   `yaml:"enable_cors" env:"DISCOBASE_ENABLE_CORS" default:"true"`
}

// DatabaseConfig selects and parameterises the backing store
type DatabaseConfig struct {
	Type         string `yaml:"type" env:"DATABASE_TYPE" default:"sqlite"`
	DataDir      string `yaml:"data_dir" env:"DISCOBASE_DATA_DIR" default:"./data"`
	DatabasePath string `yaml:"database_path" env:"DISCOBASE_DATABASE_PATH"`
	Host         string `yaml:"host" env:"POSTGRES_HOST" default:"localhost"`
	Port         int    `yaml:"port" env:"POSTGRES_PORT" default:"5432"`
	Username     string `yaml:"username" env:"POSTGRES_USER" default:"discobase"`
	Password     string `yaml:"password" env:"POSTGRES_PASSWORD"`
	Database     string `yaml:"database" env:"POSTGRES_DB" default:"discobase"`
	LogQueries   bool   `yaml:"log_queries" env:"DB_LOG_QUERIES" default:"false"`
}

// AuthConfig holds token signing settings
type AuthConfig struct {
	Secret   string        `yaml:"secret" env:"DISCOBASE_SECRET" default:"change-me-in-production"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"DISCOBASE_TOKEN_TTL" default:"168h"`
}

// ArtworkConfig holds cover art storage settings
type ArtworkConfig struct {
	Dir           string `yaml:"dir" env:"DISCOBASE_ART_DIR"`
	MaxUploadSize int64  `yaml:"max_upload_size" env:"DISCOBASE_MAX_ART_SIZE" default:"10485760"`
}

// RoonConfig holds the audio-core connection defaults
type RoonConfig struct {
	Host      string `yaml:"host" env:"ROON_HOST"`
	Port      int    `yaml:"port" env:"ROON_PORT" default:"9330"`
	TokenPath string `yaml:"token_path" env:"ROON_TOKEN_PATH"`
}

// ImportConfig holds bulk import settings
type ImportConfig struct {
	WatchChanges bool `yaml:"watch_changes" env:"DISCOBASE_WATCH_CHANGES" default:"true"`
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variable overrides, in that order of precedence.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := applyDefaults(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	cfg.applyDerived()
	return cfg, nil
}

// applyDerived fills paths that default relative to the data directory.
func (c *Config) applyDerived() {
	if c.Database.DatabasePath == "" {
		c.Database.DatabasePath = filepath.Join(c.Database.DataDir, "discobase.db")
	}
	if c.Artwork.Dir == "" {
		c.Artwork.Dir = filepath.Join(c.Database.DataDir, "album_art")
	}
	if c.Roon.TokenPath == "" {
		c.Roon.TokenPath = filepath.Join(c.Database.DataDir, "roon_token.json")
	}
}

func isDuration(t reflect.Type) bool {
	return t == reflect.TypeOf(time.Duration(0))
}

func applyDefaults(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && !isDuration(field.Type()) {
			if err := applyDefaults(field); err != nil {
				return err
			}
			continue
		}
		def, ok := t.Field(i).Tag.Lookup("default")
		if !ok {
			continue
		}
		if err := setField(field, def); err != nil {
			return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
	}
	return nil
}

func applyEnv(v reflect.Value) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if field.Kind() == reflect.Struct && !isDuration(field.Type()) {
			if err := applyEnv(field); err != nil {
				return err
			}
			continue
		}
		name, ok := t.Field(i).Tag.Lookup("env")
		if !ok {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			continue
		}
		if err := setField(field, raw); err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
	}
	return nil
}

func setField(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int64:
		if isDuration(field.Type()) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	default:
		return fmt.Errorf("unsupported config field kind %s", field.Kind())
	}
	return nil
}
