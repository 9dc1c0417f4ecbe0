package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server          ServerConfig          `yaml:"server"`
	Database        DatabaseConfig        `yaml:"database"`
	Coach           CoachConfig           `yaml:"coach"`
	Auth            AuthConfig            `yaml:"auth"`
	Worker          WorkerConfig          `yaml:"worker"`
	Sync            SyncConfig            `yaml:"sync"`
	Log             LogConfig             `yaml:"log"`
	SnapshotStorage SnapshotStorageConfig `yaml:"snapshot_storage"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// CoachConfig contains chat completion settings for the coach endpoint.
// An empty APIKey disables the coach.
type CoachConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
	Model  string `yaml:"model"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// WorkerConfig contains background worker settings.
type WorkerConfig struct {
	ExportInterval    Duration `yaml:"export_interval"`
	ExportConcurrency int      `yaml:"export_concurrency"`
	ExportDir         string   `yaml:"export_dir"`
}

// SyncConfig contains client synchronization settings used by the CLI.
type SyncConfig struct {
	ServerURL      string   `yaml:"server_url"`
	Debounce       Duration `yaml:"debounce"`
	RequestTimeout Duration `yaml:"request_timeout"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SnapshotStorageConfig contains S3-compatible storage settings for state
// exports. An empty Bucket keeps exports local.
type SnapshotStorageConfig struct {
	Bucket    string   `yaml:"bucket"`
	Endpoint  string   `yaml:"endpoint"`
	Region    string   `yaml:"region"`
	UseSSL    *bool    `yaml:"use_ssl"`
	AccessKey string   `yaml:"-"` // env-only, never in YAML
	SecretKey string   `yaml:"-"` // env-only, never in YAML
	URLExpiry Duration `yaml:"url_expiry"`
}

// CoachEnabled reports whether a coach model key is configured.
func (c *Config) CoachEnabled() bool {
	return c.Coach.APIKey != ""
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// DefaultPath is read when HASAD_CONFIG_PATH is unset.
const DefaultPath = "config/hasad.yaml"

// Load builds the server configuration from defaults, the optional YAML
// file at HASAD_CONFIG_PATH and environment overrides, then validates it.
func Load() (*Config, error) {
	return load(getEnv("HASAD_CONFIG_PATH", DefaultPath), false, true)
}

// LoadFromFile is Load for an explicit path that must exist.
func LoadFromFile(path string) (*Config, error) {
	return load(path, true, true)
}

// LoadLocal is Load without validation, for CLI commands that only open the
// database or talk to a running server and so need no credentials.
func LoadLocal() (*Config, error) {
	return load(getEnv("HASAD_CONFIG_PATH", DefaultPath), false, false)
}

func load(path string, mustExist, validate bool) (*Config, error) {
	cfg := newDefaults()
	if err := loadYAMLFile(cfg, path, mustExist); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	if !validate {
		return cfg, nil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	useSSL := true
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/hasad.db",
		},
		Coach: CoachConfig{
			Model: "gpt-4o-mini",
		},
		Worker: WorkerConfig{
			ExportInterval:    Duration(24 * time.Hour),
			ExportConcurrency: 4,
			ExportDir:         "data/exports",
		},
		Sync: SyncConfig{
			ServerURL:      "http://localhost:8080",
			Debounce:       Duration(1500 * time.Millisecond),
			RequestTimeout: Duration(30 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		SnapshotStorage: SnapshotStorageConfig{
			Region:    "us-east-1",
			UseSSL:    &useSSL,
			URLExpiry: Duration(15 * time.Minute),
		},
	}
}

// loadYAMLFile merges the YAML at path into cfg. A missing file is skipped
// unless mustExist is set.
func loadYAMLFile(cfg *Config, path string, mustExist bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !mustExist {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	envInt("HASAD_PORT", &cfg.Server.Port)
	envDuration("HASAD_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("HASAD_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("HASAD_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Database
	envString("HASAD_DB_PATH", &cfg.Database.Path)

	// Coach (OPENAI_API_KEY is industry convention)
	envString("OPENAI_API_KEY", &cfg.Coach.APIKey)
	envString("HASAD_COACH_MODEL", &cfg.Coach.Model)

	// Auth
	envString("HASAD_API_KEY", &cfg.Auth.APIKey)

	// Worker
	envDuration("HASAD_EXPORT_INTERVAL", &cfg.Worker.ExportInterval)
	envInt("HASAD_EXPORT_CONCURRENCY", &cfg.Worker.ExportConcurrency)
	envString("HASAD_EXPORT_DIR", &cfg.Worker.ExportDir)

	// Sync client
	envString("HASAD_SERVER_URL", &cfg.Sync.ServerURL)
	envDuration("HASAD_SYNC_DEBOUNCE", &cfg.Sync.Debounce)
	envDuration("HASAD_SYNC_TIMEOUT", &cfg.Sync.RequestTimeout)

	// Log
	envString("HASAD_LOG_LEVEL", &cfg.Log.Level)
	envString("HASAD_LOG_FORMAT", &cfg.Log.Format)

	// Snapshot storage
	envString("HASAD_SNAPSHOT_BUCKET", &cfg.SnapshotStorage.Bucket)
	envString("HASAD_S3_ENDPOINT", &cfg.SnapshotStorage.Endpoint)
	envString("HASAD_S3_REGION", &cfg.SnapshotStorage.Region)
	envString("HASAD_S3_ACCESS_KEY", &cfg.SnapshotStorage.AccessKey)
	envString("HASAD_S3_SECRET_KEY", &cfg.SnapshotStorage.SecretKey)
	if v := os.Getenv("HASAD_S3_USE_SSL"); v != "" {
		useSSL := v == "true" || v == "1"
		cfg.SnapshotStorage.UseSSL = &useSSL
	}
	envDuration("HASAD_S3_URL_EXPIRY", &cfg.SnapshotStorage.URLExpiry)
}

// DevMode reports whether HASAD_DEV_MODE=true.
func DevMode() bool {
	return os.Getenv("HASAD_DEV_MODE") == "true"
}

// validate checks that configuration values are usable.
// In dev mode (HASAD_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Worker.ExportConcurrency < 1 {
		return errors.New("worker export_concurrency must be at least 1")
	}
	if c.Sync.Debounce <= 0 {
		return errors.New("sync debounce must be positive")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format %q must be json or text", c.Log.Format)
	}
	if c.SnapshotStorage.Bucket != "" && c.SnapshotStorage.Endpoint == "" {
		return errors.New("HASAD_S3_ENDPOINT is required when a snapshot bucket is set")
	}

	if DevMode() {
		return nil
	}
	if c.Auth.APIKey == "" {
		return errors.New("HASAD_API_KEY is required")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
