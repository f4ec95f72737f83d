// Package config defines the ingestion job configuration and how it is loaded.
//
// Conventions:
// - New(ctx) returns a Config populated with defaults.
// - Load(ctx, flags) layers defaults, an optional YAML file, env vars and flags.
// - Errors are wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/fsingest/internal/domain/record"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Region, Profile and Endpoint configure the AWS session. Empty values
	// fall back to the SDK's default chain.
	Region   string `koanf:"region"`
	Profile  string `koanf:"profile"`
	Endpoint string `koanf:"endpoint"`

	// Table is the dataset location: a local CSV path or s3://bucket/key.
	Table string `koanf:"table"`

	// FeatureGroup names the destination feature group.
	FeatureGroup string `koanf:"feature_group"`

	// VerifyFeatureGroup checks that the feature group exists and is Created
	// before any row is attempted.
	VerifyFeatureGroup bool `koanf:"verify_feature_group"`

	// OutputPath is the prefix for processed_features.csv; empty disables the export.
	OutputPath string `koanf:"output_path"`

	// TimeAxisColumn is excluded from features and orders the dataset.
	TimeAxisColumn string `koanf:"time_axis_column"`

	// EventTimeFormat is "unix" or "iso8601".
	EventTimeFormat string `koanf:"event_time_format"`

	// NullCaseFold makes missing-value matching ignore case.
	NullCaseFold bool `koanf:"null_case_fold"`

	// WorkerCount sets the number of concurrent ingestion workers; 1 keeps
	// the strictly sequential flow.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the row queue feeding the workers.
	QueueSize int `koanf:"queue_size"`

	// FailFast stops the batch at the first rejection.
	FailFast bool `koanf:"fail_fast"`

	// MaxConsecutiveRejections stops the batch after N rejections in a row; 0 disables.
	MaxConsecutiveRejections int `koanf:"max_consecutive_rejections"`

	// RequestTimeoutMS bounds one put call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// EmptyAsNil makes empty CSV cells missing values; false keeps them as
	// empty strings, which are sent as features.
	EmptyAsNil bool `koanf:"empty_as_nil"`

	// RequireOrdered makes the reader reject rows whose time-axis value decreases.
	RequireOrdered bool `koanf:"require_ordered"`

	// DropColumns are removed from every row before records are built.
	DropColumns []string `koanf:"drop_columns"`

	// Replacements substitutes disguised missing values: column -> value -> substitute.
	Replacements map[string]map[string]string `koanf:"replacements"`

	// StatusAddr is the listen address of the status server; empty disables it.
	StatusAddr string `koanf:"status_addr"`

	// MetricsPushURL is a Pushgateway URL; empty disables pushing.
	MetricsPushURL string `koanf:"metrics_push_url"`

	// MetricsJob is the Pushgateway job name.
	MetricsJob string `koanf:"metrics_job"`
}

// New creates a Config with defaults. Context is accepted first to satisfy the
// project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		TimeAxisColumn:   record.DefaultTimeAxisColumn,
		EventTimeFormat:  "unix",
		EmptyAsNil:       true,
		WorkerCount:      1,
		QueueSize:        1024,
		RequestTimeoutMS: 30_000,
		MetricsJob:       "fsingest",
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// TimeFormat returns the parsed EventTimeFormat.
func (c *Config) TimeFormat() (record.TimeFormat, error) {
	return record.ParseTimeFormat(c.EventTimeFormat)
}

// Validate checks the settings required before any row is processed.
func (c *Config) Validate() error {
	if c.Table == "" {
		return fmt.Errorf("%w: table must not be empty", ErrInvalidConfig)
	}
	if c.FeatureGroup == "" {
		return fmt.Errorf("%w: feature_group must not be empty", ErrInvalidConfig)
	}
	if c.TimeAxisColumn == "" {
		return fmt.Errorf("%w: time_axis_column must not be empty", ErrInvalidConfig)
	}
	if _, err := c.TimeFormat(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.RequestTimeoutMS < 0 {
		return fmt.Errorf("%w: request_timeout_ms must not be negative", ErrInvalidConfig)
	}
	return nil
}
