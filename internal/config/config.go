// Package config provides YAML-based configuration with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. INGEST_PORT.
const EnvPrefix = "INGEST"

// Storage and archive drivers.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "postgres"

	ArchiveNone  = "none"
	ArchiveLocal = "local"
	ArchiveMinio = "minio"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Archive ArchiveConfig `yaml:"archive"`
	Ingest  IngestConfig  `yaml:"ingest"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port                int      `yaml:"port" validate:"min=1,max=65535"`
	BindAddress         string   `yaml:"bind_address"`
	EnableCORS          bool     `yaml:"enable_cors"`
	AllowOrigins        []string `yaml:"allow_origins"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds" validate:"min=0"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds" validate:"min=0"`
	BodyLimit           string   `yaml:"body_limit" validate:"required"`
}

// StorageConfig selects the record store and where spooled uploads live
type StorageConfig struct {
	Driver         string `yaml:"driver" validate:"oneof=duckdb postgres"`
	DataDirectory  string `yaml:"data_directory" validate:"required"`
	SpoolDirectory string `yaml:"spool_directory" validate:"required"`
	DuckDBPath     string `yaml:"duckdb_path" validate:"required_if=Driver duckdb"`
	PostgresURL    string `yaml:"postgres_url" validate:"required_if=Driver postgres"`
}

// ArchiveConfig selects where original payloads of unrecoverable files go
type ArchiveConfig struct {
	Driver         string `yaml:"driver" validate:"oneof=none local minio"`
	Directory      string `yaml:"directory" validate:"required_if=Driver local"`
	MinioEndpoint  string `yaml:"minio_endpoint" validate:"required_if=Driver minio"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket" validate:"required_if=Driver minio"`
	MinioPrefix    string `yaml:"minio_prefix"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`
}

// IngestConfig tunes record derivation and error reporting
type IngestConfig struct {
	DefaultCategory  string `yaml:"default_category" validate:"required"`
	ContextLimit     int    `yaml:"context_limit" validate:"min=1,max=1048576"`
	DescriptionLimit int    `yaml:"description_limit" validate:"min=1,max=1048576"`
	MaxFilesPerBatch int    `yaml:"max_files_per_batch" validate:"min=1"`
}

// JobsConfig controls async job retention
type JobsConfig struct {
	RetentionMinutes       int `yaml:"retention_minutes" validate:"min=1"`
	CleanupIntervalMinutes int `yaml:"cleanup_interval_minutes" validate:"min=1"`
}

// LogConfig controls the process logger
type LogConfig struct {
	Level          string `yaml:"level" validate:"oneof=debug info warn error"`
	Format         string `yaml:"format" validate:"oneof=console json"`
	RequestLogging bool   `yaml:"request_logging"`
}

// envOverrides lists the settings that can be set from the environment.
// Each key is read as INGEST_<KEY>, falling back to the bare key.
type envOverrides struct {
	Port           int    `envconfig:"PORT"`
	BindAddress    string `envconfig:"BIND_ADDRESS"`
	DataDir        string `envconfig:"DATA_DIR"`
	StorageDriver  string `envconfig:"STORAGE_DRIVER"`
	DuckDBPath     string `envconfig:"DUCKDB_PATH"`
	PostgresURL    string `envconfig:"POSTGRES_URL"`
	ArchiveDriver  string `envconfig:"ARCHIVE_DRIVER"`
	MinioEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinioAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket    string `envconfig:"MINIO_BUCKET"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	LogFormat      string `envconfig:"LOG_FORMAT"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:                8089,
			BindAddress:         "0.0.0.0",
			EnableCORS:          true,
			AllowOrigins:        []string{"*"},
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 30,
			BodyLimit:           "512M",
		},
		Storage: StorageConfig{
			Driver:         DriverDuckDB,
			DataDirectory:  "./data",
			SpoolDirectory: "./data/spool",
			DuckDBPath:     "./data/ingest.duckdb",
		},
		Archive: ArchiveConfig{
			Driver:      ArchiveLocal,
			Directory:   "./data/archive",
			MinioBucket: "ingest-originals",
		},
		Ingest: IngestConfig{
			DefaultCategory:  "imported",
			ContextLimit:     500,
			DescriptionLimit: 500,
			MaxFilesPerBatch: 5000,
		},
		Jobs: JobsConfig{
			RetentionMinutes:       60,
			CleanupIntervalMinutes: 5,
		},
		Log: LogConfig{
			Level:          "info",
			Format:         "console",
			RequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file is
// created with the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := config.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# Ingestion service configuration\n# This file is auto-generated on first run\n\n")
	content := append(header, output...)

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration against its struct tags.
func (c *AppConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	if env.Port != 0 {
		c.Server.Port = env.Port
	}
	setIf(&c.Server.BindAddress, env.BindAddress)
	setIf(&c.Storage.DataDirectory, env.DataDir)
	setIf(&c.Storage.Driver, env.StorageDriver)
	setIf(&c.Storage.DuckDBPath, env.DuckDBPath)
	setIf(&c.Storage.PostgresURL, env.PostgresURL)
	setIf(&c.Archive.Driver, env.ArchiveDriver)
	setIf(&c.Archive.MinioEndpoint, env.MinioEndpoint)
	setIf(&c.Archive.MinioAccessKey, env.MinioAccessKey)
	setIf(&c.Archive.MinioSecretKey, env.MinioSecretKey)
	setIf(&c.Archive.MinioBucket, env.MinioBucket)
	setIf(&c.Log.Level, env.LogLevel)
	setIf(&c.Log.Format, env.LogFormat)
	return nil
}

func setIf(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.SpoolDirectory,
		&c.Storage.DuckDBPath,
		&c.Archive.Directory,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// JobRetention returns how long finished jobs are kept.
func (c *AppConfig) JobRetention() time.Duration {
	return time.Duration(c.Jobs.RetentionMinutes) * time.Minute
}

// CleanupInterval returns how often finished jobs are swept.
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Jobs.CleanupIntervalMinutes) * time.Minute
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.SpoolDirectory,
	}
	if c.Storage.Driver == DriverDuckDB {
		dirs = append(dirs, filepath.Dir(c.Storage.DuckDBPath))
	}
	if c.Archive.Driver == ArchiveLocal {
		dirs = append(dirs, c.Archive.Directory)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
