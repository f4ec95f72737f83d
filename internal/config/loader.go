package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FSINGEST_"

// EnvConfigFile names the variable holding an optional YAML file path.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Flags returns the command-line flag set understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("fsingest", pflag.ContinueOnError)
	fs.String("config", "", "YAML config file (overrides "+EnvConfigFile+")")
	fs.String("region", "", "AWS region")
	fs.String("profile", "", "AWS shared credentials profile")
	fs.String("endpoint", "", "feature store runtime endpoint override")
	fs.String("table", "", "dataset location: CSV path or s3://bucket/key")
	fs.String("feature-group", "", "name of the feature group")
	fs.Bool("verify-feature-group", false, "check the feature group status before ingesting")
	fs.String("output-path", "", "prefix for storing the processed dataset")
	fs.String("time-axis-column", "", "column ordering the dataset, excluded from features")
	fs.String("event-time-format", "", "EventTime format: unix or iso8601")
	fs.Bool("empty-as-nil", true, "treat empty CSV cells as missing values")
	fs.Int("worker-count", 0, "concurrent ingestion workers")
	fs.Bool("fail-fast", false, "stop at the first rejected record")
	fs.Int("max-consecutive-rejections", 0, "stop after N rejections in a row (0 disables)")
	fs.String("status-addr", "", "listen address for /healthz and /metrics while the batch runs")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-format", "", "log format: text or json")
	return fs
}

// Load builds a Config by layering defaults, optional file, env vars and flags.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) from --config or FSINGEST_CONFIG
//  3. env (prefix FSINGEST_)
//  4. flags that were explicitly set
//
// flags may be nil. The result is validated.
func Load(ctx context.Context, flags *pflag.FlagSet) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	path := os.Getenv(EnvConfigFile)
	if flags != nil {
		if p, err := flags.GetString("config"); err == nil && p != "" {
			path = p
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// FSINGEST_FEATURE_GROUP -> feature_group (flat keys, underscores kept)
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	if flags != nil {
		flagProvider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		})
		if err := k.Load(flagProvider, nil); err != nil {
			return nil, fmt.Errorf("%w: flags: %w", ErrLoadConfig, err)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
