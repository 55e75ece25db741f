// Package config resolves mininab settings from defaults, an optional YAML
// file and the environment. Command-line flags are applied on top by the cli
// package.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile is read when no config file is given explicitly and it exists.
const DefaultFile = "mininab.yaml"

// Backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config holds the resolved settings.
type Config struct {
	Ledger  string    `yaml:"ledger" validate:"required"`
	Backend string    `yaml:"backend" validate:"oneof=json sqlite"`
	Log     LogConfig `yaml:"log"`
	Web     WebConfig `yaml:"web"`
}

// LogConfig configures the log file.
type LogConfig struct {
	File  string `yaml:"file" validate:"required"`
	Level string `yaml:"level" validate:"oneof=trace debug info warn error"`
}

// WebConfig configures the web server.
type WebConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	Watch    bool   `yaml:"watch"`
	ReadOnly bool   `yaml:"read_only"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Ledger:  "mininab.json",
		Backend: BackendJSON,
		Log: LogConfig{
			File:  "mininab.log",
			Level: "info",
		},
		Web: WebConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}

var validate = validator.New()

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Load resolves the configuration. path names a YAML file; when empty,
// DefaultFile is used if present. A ".env" file in the working directory is
// loaded into the environment before MININAB_* variables are read.
func Load(path string) (*Config, error) {
	cfg := Default()

	file := path
	if file == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			file = DefaultFile
		}
	}
	if file != "" {
		if err := loadFile(file, cfg); err != nil {
			return nil, err
		}
	}

	// A missing .env file is fine.
	_ = godotenv.Load()

	if err := loadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) error {
	if v := os.Getenv("MININAB_LEDGER"); v != "" {
		cfg.Ledger = v
	}
	if v := os.Getenv("MININAB_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("MININAB_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := os.Getenv("MININAB_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MININAB_WEB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MININAB_WEB_PORT %q: %w", v, err)
		}
		cfg.Web.Port = port
	}
	return nil
}
