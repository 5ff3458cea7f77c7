package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the run configuration. It is built once from flags, the
// environment and an optional YAML file, and then threaded unchanged
// through every component; nothing mutates it after startup.
type Config struct {
	// ExecdMode reads trigger lines from stdin and runs one sampling pass
	// per line instead of a single one-shot pass.
	ExecdMode bool

	// NoHistograms suppresses latency, size and queue-depth emission.
	NoHistograms bool

	// SumHistogramBuckets switches histogram emission to cumulative mode,
	// where each bucket carries the running sum of itself and all lower
	// buckets.
	SumHistogramBuckets bool

	// Uint64Support emits counters unmasked with the line-protocol `u`
	// suffix. When false (the default) every counter is masked to 63 bits
	// and emitted with the `i` suffix for consumers without unsigned
	// support; extremely large counters are silently truncated by the
	// mask, which is the documented trade-off of that mode.
	Uint64Support bool

	// PoolName restricts sampling to one pool. Empty means all imported
	// pools.
	PoolName string

	LogLevel string

	// ZpoolConfigCmd is the command that dumps the pool configuration
	// trees as JSON, keyed by pool name. Tests point it at canned files.
	ZpoolConfigCmd []string
}

// NewConfig creates a configuration with defaults from the environment.
func NewConfig() *Config {
	return &Config{
		Uint64Support:  getEnvAsBool("ZPOOL_INFLUXDB_UINT64", false),
		ZpoolConfigCmd: getEnvAsStringSlice("ZPOOL_INFLUXDB_CONFIG_CMD", []string{"zpool-config-json"}),
		LogLevel:       "info",
	}
}

// IsDebug reports whether debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// fileConfig is the YAML shape of the optional config file. Pointer fields
// distinguish "absent" from "explicitly false" so the file never clobbers
// a flag the user did not set in it.
type fileConfig struct {
	ConfigCmd           []string `yaml:"config_cmd"`
	Uint64              *bool    `yaml:"uint64"`
	NoHistograms        *bool    `yaml:"no_histograms"`
	SumHistogramBuckets *bool    `yaml:"sum_histogram_buckets"`
}

// LoadFile applies the YAML config file at path on top of the current
// configuration.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("config: parse yaml: %w", err)
	}

	if len(fc.ConfigCmd) > 0 {
		c.ZpoolConfigCmd = fc.ConfigCmd
	}
	if fc.Uint64 != nil {
		c.Uint64Support = *fc.Uint64
	}
	if fc.NoHistograms != nil {
		c.NoHistograms = *fc.NoHistograms
	}
	if fc.SumHistogramBuckets != nil {
		c.SumHistogramBuckets = *fc.SumHistogramBuckets
	}

	return c.validate()
}

func (c *Config) validate() error {
	if len(c.ZpoolConfigCmd) == 0 {
		return fmt.Errorf("config: config_cmd must not be empty")
	}
	return nil
}

// getEnvAsBool reads an environment variable as a boolean, or returns the
// default value if not set or unrecognized
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	switch strings.ToLower(valueStr) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// getEnvAsStringSlice reads an environment variable as a comma-separated list,
// or returns the default value if not set
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(valueStr, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
