// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates chatter configuration from YAML files
// with CHATTER_* environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig indicates a configuration value out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Default values.
const (
	DefaultScale           uint32 = 1000
	DefaultStoragePath            = "chatter.db"
	DefaultFallbackMessage        = "I don't know the answer yet!"
	DefaultServerAddr             = ":8080"
	DefaultMetricsAddr            = ":9090"
	DefaultOpenRetries            = 3
	DefaultRetryDelay             = 100 * time.Millisecond
	DefaultReportInterval         = 100
)

// Config is the top-level application configuration.
type Config struct {
	Training TrainingConfig `yaml:"training"`
	Storage  StorageConfig  `yaml:"storage"`
	Matcher  MatcherConfig  `yaml:"matcher"`
	Logging  LoggingConfig  `yaml:"logging"`
	Server   ServerConfig   `yaml:"server"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Batch    BatchConfig    `yaml:"batch"`
}

// TrainingConfig holds trainer inputs.
type TrainingConfig struct {
	Scale         uint32 `yaml:"scale"`
	CorpusPath    string `yaml:"corpusPath"`
	OverridesPath string `yaml:"overridesPath"`
}

// StorageConfig holds snapshot store settings.
type StorageConfig struct {
	Path        string        `yaml:"path"`
	InMemory    bool          `yaml:"inMemory"`
	OpenRetries int           `yaml:"openRetries"`
	RetryDelay  time.Duration `yaml:"retryDelay"`
}

// MatcherConfig controls query matching.
type MatcherConfig struct {
	// TimeBudget bounds scoring of a single query. Zero means unlimited.
	TimeBudget      time.Duration `yaml:"timeBudget"`
	FallbackMessage string        `yaml:"fallbackMessage"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// BatchConfig controls concurrent batch answering.
type BatchConfig struct {
	// Workers is the pool size. Zero means one worker per CPU.
	Workers        int `yaml:"workers"`
	ReportInterval int `yaml:"reportInterval"`
}

// Option configures a Config.
type Option func(*Config) error

// WithStoragePath sets the snapshot store directory.
func WithStoragePath(path string) Option {
	return func(c *Config) error {
		c.Storage.Path = path
		return nil
	}
}

// WithInMemoryStorage keeps the snapshot store in memory only.
func WithInMemoryStorage() Option {
	return func(c *Config) error {
		c.Storage.InMemory = true
		return nil
	}
}

// WithScale sets the training weight scale.
func WithScale(scale uint32) Option {
	return func(c *Config) error {
		c.Training.Scale = scale
		return nil
	}
}

// WithTimeBudget sets the per-query scoring budget.
func WithTimeBudget(budget time.Duration) Option {
	return func(c *Config) error {
		c.Matcher.TimeBudget = budget
		return nil
	}
}

// WithFallbackMessage sets the reply used when nothing matches.
func WithFallbackMessage(msg string) Option {
	return func(c *Config) error {
		c.Matcher.FallbackMessage = msg
		return nil
	}
}

// NewConfig returns the default configuration with opts applied.
func NewConfig(opts ...Option) (*Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a YAML config file (if path is not empty), applies environment
// overrides and validates the result. Missing values keep their defaults.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Training.Scale == 0 {
		errs = append(errs, errors.New("training.scale must be at least 1"))
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required unless storage.inMemory is set"))
	}
	if c.Storage.OpenRetries < 1 {
		errs = append(errs, errors.New("storage.openRetries must be at least 1"))
	}
	if c.Storage.RetryDelay < 0 {
		errs = append(errs, errors.New("storage.retryDelay must not be negative"))
	}
	if c.Matcher.TimeBudget < 0 {
		errs = append(errs, errors.New("matcher.timeBudget must not be negative"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, errors.New("batch.workers must not be negative"))
	}
	if c.Batch.ReportInterval < 1 {
		errs = append(errs, errors.New("batch.reportInterval must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Training: TrainingConfig{
			Scale: DefaultScale,
		},
		Storage: StorageConfig{
			Path:        DefaultStoragePath,
			OpenRetries: DefaultOpenRetries,
			RetryDelay:  DefaultRetryDelay,
		},
		Matcher: MatcherConfig{
			FallbackMessage: DefaultFallbackMessage,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultServerAddr,
		},
		Metrics: MetricsConfig{
			Addr: DefaultMetricsAddr,
		},
		Batch: BatchConfig{
			ReportInterval: DefaultReportInterval,
		},
	}
}

// applyEnvOverrides reads CHATTER_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("CHATTER_TRAINING_SCALE"); v != "" {
		scale, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return envError("CHATTER_TRAINING_SCALE", err)
		}
		cfg.Training.Scale = uint32(scale)
	}
	if v := os.Getenv("CHATTER_TRAINING_CORPUS"); v != "" {
		cfg.Training.CorpusPath = v
	}
	if v := os.Getenv("CHATTER_TRAINING_OVERRIDES"); v != "" {
		cfg.Training.OverridesPath = v
	}
	if v := os.Getenv("CHATTER_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("CHATTER_STORAGE_IN_MEMORY"); v != "" {
		inMemory, err := strconv.ParseBool(v)
		if err != nil {
			return envError("CHATTER_STORAGE_IN_MEMORY", err)
		}
		cfg.Storage.InMemory = inMemory
	}
	if v := os.Getenv("CHATTER_MATCHER_TIME_BUDGET"); v != "" {
		budget, err := time.ParseDuration(v)
		if err != nil {
			return envError("CHATTER_MATCHER_TIME_BUDGET", err)
		}
		cfg.Matcher.TimeBudget = budget
	}
	if v := os.Getenv("CHATTER_MATCHER_FALLBACK"); v != "" {
		cfg.Matcher.FallbackMessage = v
	}
	if v := os.Getenv("CHATTER_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CHATTER_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("CHATTER_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CHATTER_METRICS_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return envError("CHATTER_METRICS_ENABLED", err)
		}
		cfg.Metrics.Enabled = enabled
	}
	if v := os.Getenv("CHATTER_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("CHATTER_BATCH_WORKERS"); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return envError("CHATTER_BATCH_WORKERS", err)
		}
		cfg.Batch.Workers = workers
	}
	return nil
}

func envError(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
}
