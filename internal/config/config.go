package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wilfordwoodruff/recommend-streamlit/internal/domain/facet"
)

// Config holds the scorer and viewer-api configuration.
type Config struct {
	Corpus   CorpusConfig   `yaml:"corpus"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Publish  PublishConfig  `yaml:"publish"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CorpusConfig points at the input table.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// PipelineConfig holds similarity ranking settings.
type PipelineConfig struct {
	Quantile       float64  `yaml:"quantile"`
	Facets         []string `yaml:"facets"`
	DudBackup      string   `yaml:"dud_backup"` // transcript (default) | facet
	ExtraBlacklist []string `yaml:"extra_blacklist"`
}

// SnapshotConfig holds parquet output settings.
type SnapshotConfig struct {
	Dir string `yaml:"dir"`
}

// PublishConfig holds the optional record mirror.
type PublishConfig struct {
	Driver           string   `yaml:"driver"` // "" (off), valkey, sqlite
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	SQLitePath       string   `yaml:"sqlite_path"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"` // scorer only
}

// HTTPConfig holds viewer-api server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`

	APIKeys []string `yaml:"api_keys"` // empty disables bearer auth
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Dud backup sources.
const (
	DudBackupTranscript = "transcript"
	DudBackupFacet      = "facet"
)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Pipeline.Quantile == 0 {
		c.Pipeline.Quantile = 0.75
	}
	if len(c.Pipeline.Facets) == 0 {
		for _, f := range facet.Default {
			c.Pipeline.Facets = append(c.Pipeline.Facets, f.String())
		}
	}
	if c.Pipeline.DudBackup == "" {
		c.Pipeline.DudBackup = DudBackupTranscript
	}
	if c.Snapshot.Dir == "" {
		c.Snapshot.Dir = "data"
	}
	if c.Publish.KeyPrefix == "" {
		c.Publish.KeyPrefix = "recommend:"
	}
	if c.Publish.ReadinessTimeout <= 0 {
		c.Publish.ReadinessTimeout = 10
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.Corpus.Path == "" {
		return fmt.Errorf("corpus.path is required")
	}
	if c.Pipeline.Quantile < 0 || c.Pipeline.Quantile > 1 {
		return fmt.Errorf("pipeline.quantile must be between 0 and 1, got %v", c.Pipeline.Quantile)
	}
	for _, name := range c.Pipeline.Facets {
		if _, err := facet.Parse(name); err != nil {
			return fmt.Errorf("pipeline.facets: %w", err)
		}
	}
	switch c.Pipeline.DudBackup {
	case DudBackupTranscript, DudBackupFacet:
	default:
		return fmt.Errorf("pipeline.dud_backup must be %q or %q, got %q",
			DudBackupTranscript, DudBackupFacet, c.Pipeline.DudBackup)
	}
	switch c.Publish.Driver {
	case "":
	case "valkey":
		if len(c.Publish.Addrs) == 0 {
			return fmt.Errorf("publish.addrs is required for the valkey driver")
		}
	case "sqlite":
		if c.Publish.SQLitePath == "" {
			return fmt.Errorf("publish.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("publish.driver must be empty, \"valkey\" or \"sqlite\", got %q", c.Publish.Driver)
	}
	return nil
}

// ValidateHTTP checks settings only the viewer-api needs.
func (c *Config) ValidateHTTP() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	return nil
}

// FacetList returns the configured facets in order.
func (c *Config) FacetList() []facet.Facet {
	out := make([]facet.Facet, 0, len(c.Pipeline.Facets))
	for _, name := range c.Pipeline.Facets {
		out = append(out, facet.Facet(name))
	}
	return out
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
