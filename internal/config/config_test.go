package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saviobatista/sensor-sim/internal/types"
)

var envKeys = []string{
	"NATS_URL", "REDIS_ADDR", "HTTP_ADDR", "FEED_ADDR", "METRICS_ADDR", "SERIAL_DEVICE", "SERIAL_BAUD",
	"LOG_LEVEL", "LOG_FORMAT", "SEED", "DATA_TYPES", "CONFIG_FILE",
	"ADSB_INTERVAL", "AIS_INTERVAL", "GPS_INTERVAL", "LORAWAN_INTERVAL",
}

// clearEnv blanks every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if config.NATSURL != "" || config.RedisAddr != "" {
		t.Errorf("Expected NATS and Redis disabled, got %q / %q", config.NATSURL, config.RedisAddr)
	}
	if config.HTTPAddr != ":8080" {
		t.Errorf("Expected HTTPAddr = :8080, got %s", config.HTTPAddr)
	}
	if config.FeedAddr != ":10110" {
		t.Errorf("Expected FeedAddr = :10110, got %s", config.FeedAddr)
	}
	if config.MetricsAddr != ":9090" {
		t.Errorf("Expected MetricsAddr = :9090, got %s", config.MetricsAddr)
	}
	if config.SerialBaud != 4800 {
		t.Errorf("Expected SerialBaud = 4800, got %d", config.SerialBaud)
	}
	if config.LogLevel != "info" || config.LogFormat != "json" {
		t.Errorf("Expected info/json logging, got %s/%s", config.LogLevel, config.LogFormat)
	}
	if config.Seed != 0 {
		t.Errorf("Expected Seed = 0, got %d", config.Seed)
	}
	if len(config.DataTypes) != len(types.DataTypes) {
		t.Errorf("Expected all %d data types, got %v", len(types.DataTypes), config.DataTypes)
	}

	for dt, want := range DefaultIntervals {
		if got := config.Interval(dt); got != want {
			t.Errorf("Interval(%s) = %s, want %s", dt, got, want)
		}
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SERIAL_DEVICE", "/dev/ttyUSB0")
	t.Setenv("SERIAL_BAUD", "9600")
	t.Setenv("SEED", "42")
	t.Setenv("DATA_TYPES", "gps, ais")
	t.Setenv("GPS_INTERVAL", "250ms")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if config.NATSURL != "nats://localhost:4222" {
		t.Errorf("Expected NATSURL from env, got %s", config.NATSURL)
	}
	if config.RedisAddr != "localhost:6379" {
		t.Errorf("Expected RedisAddr from env, got %s", config.RedisAddr)
	}
	if config.SerialDevice != "/dev/ttyUSB0" || config.SerialBaud != 9600 {
		t.Errorf("Expected serial /dev/ttyUSB0@9600, got %s@%d", config.SerialDevice, config.SerialBaud)
	}
	if config.Seed != 42 {
		t.Errorf("Expected Seed = 42, got %d", config.Seed)
	}

	expected := []types.DataType{types.DataTypeGPS, types.DataTypeAIS}
	if len(config.DataTypes) != len(expected) {
		t.Fatalf("Expected %d data types, got %v", len(expected), config.DataTypes)
	}
	for i, dt := range expected {
		if config.DataTypes[i] != dt {
			t.Errorf("Expected DataTypes[%d] = %s, got %s", i, dt, config.DataTypes[i])
		}
	}

	if got := config.Interval(types.DataTypeGPS); got != 250*time.Millisecond {
		t.Errorf("Expected GPS interval 250ms, got %s", got)
	}
	if got := config.Interval(types.DataTypeAIS); got != 2*time.Second {
		t.Errorf("Expected default AIS interval, got %s", got)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "sensor-sim.yaml")
	content := "intervals:\n  lorawan: 30s\n  ADSB: 500ms\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ADSB_INTERVAL", "3s")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if got := config.Interval(types.DataTypeLoRaWAN); got != 30*time.Second {
		t.Errorf("Expected LORAWAN interval from file, got %s", got)
	}
	// Environment wins over the file.
	if got := config.Interval(types.DataTypeADSB); got != 3*time.Second {
		t.Errorf("Expected ADSB interval from env, got %s", got)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad duration", env: map[string]string{"AIS_INTERVAL": "fast"}},
		{name: "negative duration", env: map[string]string{"GPS_INTERVAL": "-1s"}},
		{name: "zero duration", env: map[string]string{"GPS_INTERVAL": "0s"}},
		{name: "bad baud", env: map[string]string{"SERIAL_BAUD": "abc"}},
		{name: "bad seed", env: map[string]string{"SEED": "x1"}},
		{name: "unknown data type", env: map[string]string{"DATA_TYPES": "gps,radar"}},
		{name: "empty data type list", env: map[string]string{"DATA_TYPES": " , "}},
		{name: "missing config file", env: map[string]string{"CONFIG_FILE": "/nonexistent/sensor-sim.yaml"}},
		{name: "bad file interval", file: "intervals:\n  gps: soon\n"},
		{name: "unknown file data type", file: "intervals:\n  radar: 1s\n"},
		{name: "malformed yaml", file: "intervals: [1, 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "c.yaml")
				if err := os.WriteFile(path, []byte(tt.file), 0o600); err != nil {
					t.Fatalf("failed to write config file: %v", err)
				}
				t.Setenv("CONFIG_FILE", path)
			}

			config, err := Load()
			if err == nil {
				t.Fatal("Load() should have failed")
			}
			if config != nil {
				t.Fatal("Load() should have returned nil config")
			}
		})
	}
}

func TestInterval_FallsBackToDefault(t *testing.T) {
	c := &Config{}
	if got := c.Interval(types.DataTypeGPS); got != time.Second {
		t.Errorf("Expected default GPS interval, got %s", got)
	}
}

func TestLoad_FeedDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("FEED_ADDR", "off")
	t.Setenv("METRICS_ADDR", "OFF")

	config, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if config.FeedAddr != "" {
		t.Errorf("Expected FeedAddr to be empty, got %q", config.FeedAddr)
	}
	if config.MetricsAddr != "" {
		t.Errorf("Expected MetricsAddr to be empty, got %q", config.MetricsAddr)
	}
}
