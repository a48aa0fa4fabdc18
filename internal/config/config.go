package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/quill/internal/errors"
	"github.com/vango-dev/quill/pkg/reactive"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "quill.json"

	// DefaultMaxPasses bounds the scheduler passes of one flush.
	DefaultMaxPasses = 32

	// DefaultDevtoolsAddr is the default devtools listen address.
	DefaultDevtoolsAddr = "localhost:7420"

	// DefaultMetricsNamespace prefixes every exported metric.
	DefaultMetricsNamespace = "quill"

	// DefaultTracerName is the OpenTelemetry instrumentation name.
	DefaultTracerName = "github.com/vango-dev/quill"

	// DefaultJournalBatchSize is the number of ticks per journal segment.
	DefaultJournalBatchSize = 64
)

// Batching modes accepted in runtime.batching.
const (
	BatchingTick   = "tick"
	BatchingManual = "manual"
)

// Config represents the complete quill.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Runtime tunes the reactive runtime.
	Runtime RuntimeConfig `json:"runtime,omitempty"`

	// Log configures the slog handler used by the CLI.
	Log LogConfig `json:"log,omitempty"`

	// Metrics configures the Prometheus hook.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Tracing configures the OpenTelemetry hook.
	Tracing TracingConfig `json:"tracing,omitempty"`

	// Devtools configures the inspector server.
	Devtools DevtoolsConfig `json:"devtools,omitempty"`

	// Journal configures tick recording.
	Journal JournalConfig `json:"journal,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// RuntimeConfig contains reactive runtime settings.
type RuntimeConfig struct {
	// MaxPasses bounds the number of scheduler passes per flush.
	MaxPasses int `json:"maxPasses,omitempty"`

	// Batching is "tick" (settle writes once per flush) or "manual"
	// (settle on every write outside an explicit batch).
	Batching string `json:"batching,omitempty"`

	// MaxEvaluationsPerFlush limits evaluations per flush. 0 disables the limit.
	MaxEvaluationsPerFlush int `json:"maxEvaluationsPerFlush,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty"`
	Subsystem string `json:"subsystem,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	TracerName string `json:"tracerName,omitempty"`
}

// DevtoolsConfig contains inspector server settings.
type DevtoolsConfig struct {
	// Addr is the listen address of the devtools server.
	Addr string `json:"addr,omitempty"`
}

// JournalConfig contains tick journal settings.
type JournalConfig struct {
	// Path is a local JSON-lines file. Empty disables the file sink.
	Path string `json:"path,omitempty"`

	// S3 uploads journal segments to a bucket. Empty bucket disables it.
	S3 S3Config `json:"s3,omitempty"`

	// BatchSize is the number of ticks per S3 segment.
	BatchSize int `json:"batchSize,omitempty"`
}

// S3Config names the bucket that receives journal segments.
type S3Config struct {
	Bucket string `json:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Region string `json:"region,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for quill.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("Q101").
				WithDetail("No quill.json found in " + filepath.Dir(path)).
				WithSuggestion("Create quill.json or run without --config to use defaults")
		}
		return nil, errors.New("Q100").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("Q100").
			WithDetail("Failed to parse quill.json: " + err.Error()).
			WithSuggestion("Check that quill.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("Q100").Wrap(err)
	}

	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("Q100").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Runtime.MaxPasses == 0 {
		c.Runtime.MaxPasses = DefaultMaxPasses
	}
	if c.Runtime.Batching == "" {
		c.Runtime.Batching = BatchingTick
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = DefaultDevtoolsAddr
	}
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultJournalBatchSize
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Runtime.MaxPasses < 1 {
		return errors.New("Q100").
			WithDetail("runtime.maxPasses must be at least 1")
	}
	if c.Runtime.MaxEvaluationsPerFlush < 0 {
		return errors.New("Q100").
			WithDetail("runtime.maxEvaluationsPerFlush must not be negative")
	}
	switch c.Runtime.Batching {
	case BatchingTick, BatchingManual:
	default:
		return errors.New("Q100").
			WithDetailf("runtime.batching must be %q or %q, got %q", BatchingTick, BatchingManual, c.Runtime.Batching)
	}

	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("Q100").
			WithDetailf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("Q100").
			WithDetailf("log.format must be text or json, got %q", c.Log.Format)
	}

	if c.Journal.BatchSize < 1 {
		return errors.New("Q100").
			WithDetail("journal.batchSize must be at least 1")
	}
	if c.Journal.S3.Bucket != "" && c.Journal.S3.Region == "" {
		return errors.New("Q100").
			WithDetail("journal.s3.region is required when a bucket is set")
	}
	return nil
}

// ReactiveConfig converts the runtime section into a reactive.Config.
func (c *Config) ReactiveConfig(logger *slog.Logger) reactive.Config {
	batching := reactive.BatchPerTick
	if c.Runtime.Batching == BatchingManual {
		batching = reactive.BatchManual
	}
	return reactive.Config{
		MaxPasses:              c.Runtime.MaxPasses,
		Batching:               batching,
		MaxEvaluationsPerFlush: c.Runtime.MaxEvaluationsPerFlush,
		Logger:                 logger,
	}
}

// Logger builds a slog.Logger writing to stderr per the log section.
func (c *Config) Logger() *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing quill.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("Q101").
				WithDetail("No quill.json found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
