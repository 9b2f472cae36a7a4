// Package config loads the CLI configuration.
//
// Configuration comes from an optional YAML file (with ${VAR} expansion)
// followed by environment overrides. Nothing here affects ledger rules; it
// only chooses how diagnostics are logged and where the snapshot goes.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Log    LogConfig    `yaml:"log"`
	Report ReportConfig `yaml:"report"`
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ReportConfig selects and configures the snapshot sink.
type ReportConfig struct {
	Sink        string        `yaml:"sink"`
	SQLitePath  string        `yaml:"sqlite_path"`
	DatabaseURL string        `yaml:"database_url"`
	Table       string        `yaml:"table"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Sink names.
const (
	SinkCSV      = "csv"
	SinkSQLite   = "sqlite"
	SinkPostgres = "postgres"
)

// Default values for optional configuration fields.
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultSink          = SinkCSV
	DefaultTable         = "account_snapshots"
	DefaultReportTimeout = 5 * time.Second
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// Load reads the YAML file at path, expanding environment variables. An
// empty path yields an empty Config.
func Load(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	return &cfg, nil
}

// LoadAndValidate loads config, applies environment overrides and
// defaults, and validates the result.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv(os.Getenv)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.Log.Level, "LOG_LEVEL")
	set(&c.Log.Format, "LOG_FORMAT")
	set(&c.Report.Sink, "REPORT_SINK")
	set(&c.Report.SQLitePath, "SQLITE_PATH")
	set(&c.Report.DatabaseURL, "DATABASE_URL")
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Report.Sink == "" {
		c.Report.Sink = DefaultSink
	}
	if c.Report.Table == "" {
		c.Report.Table = DefaultTable
	}
	if c.Report.Timeout == 0 {
		c.Report.Timeout = DefaultReportTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}

	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json; got %q", c.Log.Format)
	}

	switch c.Report.Sink {
	case SinkCSV:
	case SinkSQLite:
		if c.Report.SQLitePath == "" {
			return errors.New("report.sqlite_path is required for the sqlite sink (or set SQLITE_PATH)")
		}
	case SinkPostgres:
		if c.Report.DatabaseURL == "" {
			return errors.New("report.database_url is required for the postgres sink (or set DATABASE_URL)")
		}
	default:
		return fmt.Errorf("report.sink must be csv, sqlite or postgres; got %q", c.Report.Sink)
	}

	if !tableName.MatchString(c.Report.Table) {
		return fmt.Errorf("report.table %q is not a valid table name", c.Report.Table)
	}
	if c.Report.Timeout < 0 {
		return errors.New("report.timeout must be positive")
	}

	return nil
}
