package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/communitydesk/communitydesk/pkg/telemetry"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "desk.yaml"

// Config holds all configuration for desk.
// Configuration comes from an optional YAML file (desk.yaml) and environment
// variables. Environment variables always override YAML values. Secrets
// must only come from environment variables.
type Config struct {
	// Database configuration
	Database DatabaseConfig `yaml:"database"`

	// Sync configuration
	Sync SyncConfig `yaml:"sync"`

	// School details used in generated messages, letters and reports
	School SchoolConfig `yaml:"school"`

	// AdminPasswordHash is the bcrypt hash of the admin password.
	// Empty means every session is a visitor.
	AdminPasswordHash string `yaml:"-" env:"DESK_ADMIN_PASSWORD_HASH"` // Secret - not in YAML

	// Telemetry configuration
	Telemetry telemetry.Config `yaml:"telemetry"`

	Version string `yaml:"-"` // Set at load time, not from config
}

// DatabaseConfig holds the local SQLite file settings.
type DatabaseConfig struct {
	Path        string        `yaml:"path" env:"PERSISTENT_DB_PATH" env-default:"community_relations.db" validate:"required"`
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"DB_BUSY_TIMEOUT" env-default:"20s" validate:"gte=0"`
}

// SyncConfig holds the remote spreadsheet settings.
type SyncConfig struct {
	// ScriptURL is the spreadsheet web app endpoint. Empty disables sync.
	ScriptURL string `yaml:"script_url" env:"SCRIPT_URL" env-default:"" validate:"omitempty,url"`

	// Timeout bounds a single remote call.
	Timeout time.Duration `yaml:"timeout" env:"SYNC_TIMEOUT" env-default:"15s" validate:"gt=0"`

	// WorkbookPath, when set, mirrors sync to a local .xlsx workbook
	// instead of the web app.
	WorkbookPath string `yaml:"workbook_path" env:"SYNC_WORKBOOK_PATH" env-default:""`
}

// SchoolConfig holds the names printed on generated content.
type SchoolConfig struct {
	Name        string `yaml:"name" env:"SCHOOL_NAME" env-default:"المدرسة"`
	Coordinator string `yaml:"coordinator" env:"SCHOOL_COORDINATOR" env-default:"رائد النشاط"`
	Principal   string `yaml:"principal" env:"SCHOOL_PRINCIPAL" env-default:"مدير المدرسة"`
}

// SyncEnabled reports whether any remote is configured.
func (c *Config) SyncEnabled() bool {
	return c.Sync.ScriptURL != "" || c.Sync.WorkbookPath != ""
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error: defaults and the environment are used.
// The version parameter is injected at build time and set on the returned Config.
func Load(path, version string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	cfg.Version = version
	cfg.Telemetry.ServiceVersion = version

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks struct constraints and the telemetry block.
func (c *Config) Validate() error {
	if err := ValidateStruct(c); err != nil {
		return err
	}
	return c.Telemetry.Validate()
}

// Default returns the configuration Load produces with no file and an
// empty environment.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "community_relations.db",
			BusyTimeout: 20 * time.Second,
		},
		Sync: SyncConfig{
			Timeout: 15 * time.Second,
		},
		School: SchoolConfig{
			Name:        "المدرسة",
			Coordinator: "رائد النشاط",
			Principal:   "مدير المدرسة",
		},
		Telemetry: *telemetry.DefaultConfig(),
	}
}

// WriteDefault writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
