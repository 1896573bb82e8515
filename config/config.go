// Package config loads the service configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "config.yaml"

type Config struct {
	Http  HTTPConfig  `yaml:"http"`
	Model ModelConfig `yaml:"model"`
	Log   LogConfig   `yaml:"log"`
}

type HTTPConfig struct {
	Port         int           `yaml:"port"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

type ModelConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func Default() *Config {
	return &Config{
		Http: HTTPConfig{
			Port:         8000,
			Timeout:      30 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Model: ModelConfig{
			Type: "random_forest",
			Path: filepath.Join("models", "diabetes_prediction_rfc.json"),
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads the YAML file at path on top of Default, then applies .env and
// environment overrides. A missing file is not an error; the defaults and
// environment are used instead.
func Load(path string) (*Config, error) {
	config := Default()

	path = resolvePath(path)
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(config); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		// Relative model paths are anchored next to the config file.
		if !filepath.IsAbs(config.Model.Path) {
			config.Model.Path = filepath.Join(filepath.Dir(path), config.Model.Path)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// .env is optional
	_ = godotenv.Load()
	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// resolvePath looks for the config in the parent directory when the binary is
// run from a subdirectory such as cmd/.
func resolvePath(path string) string {
	if path == "" {
		path = DefaultPath
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && !filepath.IsAbs(path) {
		parent := filepath.Join("..", path)
		if _, err := os.Stat(parent); err == nil {
			return parent
		}
	}
	return path
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		c.Http.Port = p
	}
	if path := os.Getenv("MODEL_PATH"); path != "" {
		c.Model.Path = path
	}
	if modelType := os.Getenv("MODEL_TYPE"); modelType != "" {
		c.Model.Type = modelType
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("http.port %d out of range", c.Http.Port))
	}
	if c.Http.Timeout <= 0 {
		err = multierr.Append(err, errors.New("http.timeout must be positive"))
	}
	if c.Http.MaxBodyBytes <= 0 {
		err = multierr.Append(err, errors.New("http.max_body_bytes must be positive"))
	}
	if c.Model.Type == "" {
		err = multierr.Append(err, errors.New("model.type is required"))
	}
	if c.Model.Path == "" {
		err = multierr.Append(err, errors.New("model.path is required"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		err = multierr.Append(err, fmt.Errorf("log.format %q must be json or console", c.Log.Format))
	}
	return err
}
