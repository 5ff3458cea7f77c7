package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()

	if cfg.Uint64Support {
		t.Error("Uint64Support should default to false (masked output)")
	}
	if cfg.ExecdMode || cfg.NoHistograms || cfg.SumHistogramBuckets {
		t.Error("mode flags should default to false")
	}
	if len(cfg.ZpoolConfigCmd) == 0 {
		t.Error("ZpoolConfigCmd should have a default command")
	}
	if cfg.IsDebug() {
		t.Error("IsDebug() should be false at the default log level")
	}
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("ZPOOL_INFLUXDB_UINT64", "true")
	t.Setenv("ZPOOL_INFLUXDB_CONFIG_CMD", "cat, testdata/pools.json")

	cfg := NewConfig()

	if !cfg.Uint64Support {
		t.Error("ZPOOL_INFLUXDB_UINT64=true should enable Uint64Support")
	}
	want := []string{"cat", "testdata/pools.json"}
	if !reflect.DeepEqual(cfg.ZpoolConfigCmd, want) {
		t.Errorf("ZpoolConfigCmd = %v, want %v", cfg.ZpoolConfigCmd, want)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"YES", true},
		{"on", true},
		{"0", false},
		{"false", false},
		{"off", false},
		{"garbage", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("ZPOOL_INFLUXDB_TEST_BOOL", tt.value)
			if got := getEnvAsBool("ZPOOL_INFLUXDB_TEST_BOOL", false); got != tt.want {
				t.Errorf("getEnvAsBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `config_cmd: ["cat", "fixture.json"]
uint64: true
sum_histogram_buckets: true
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewConfig()
	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if !reflect.DeepEqual(cfg.ZpoolConfigCmd, []string{"cat", "fixture.json"}) {
		t.Errorf("ZpoolConfigCmd = %v", cfg.ZpoolConfigCmd)
	}
	if !cfg.Uint64Support {
		t.Error("uint64: true should enable Uint64Support")
	}
	if !cfg.SumHistogramBuckets {
		t.Error("sum_histogram_buckets: true should enable cumulative mode")
	}
	if cfg.NoHistograms {
		t.Error("absent no_histograms key should not change the default")
	}
}

func TestLoadFileAbsentKeysKeepFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("uint64: false\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewConfig()
	cfg.NoHistograms = true
	cfg.Uint64Support = true

	if err := cfg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Uint64Support {
		t.Error("explicit uint64: false in the file should win")
	}
	if !cfg.NoHistograms {
		t.Error("NoHistograms set by flag should survive a file without the key")
	}
}

func TestLoadFileErrors(t *testing.T) {
	cfg := NewConfig()

	if err := cfg.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFile() expected error for missing file, got nil")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("config_cmd: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := cfg.LoadFile(path); err == nil {
		t.Error("LoadFile() expected error for malformed YAML, got nil")
	}
}
