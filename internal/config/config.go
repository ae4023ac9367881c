package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/saviobatista/sensor-sim/internal/types"
)

// DefaultIntervals are the per-domain emission periods.
var DefaultIntervals = map[types.DataType]time.Duration{
	types.DataTypeADSB:    2 * time.Second,
	types.DataTypeAIS:     2 * time.Second,
	types.DataTypeGPS:     time.Second,
	types.DataTypeLoRaWAN: 5 * time.Second,
}

// Config holds the application configuration
type Config struct {
	NATSURL      string
	RedisAddr    string
	HTTPAddr     string
	FeedAddr     string
	MetricsAddr  string
	SerialDevice string
	SerialBaud   int
	LogLevel     string
	LogFormat    string
	Seed         int64
	DataTypes    []types.DataType
	Intervals    map[types.DataType]time.Duration
}

// fileConfig is the optional YAML overlay named by CONFIG_FILE.
type fileConfig struct {
	Intervals map[string]string `yaml:"intervals"`
}

// Load loads the configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		NATSURL:      os.Getenv("NATS_URL"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		FeedAddr:     getEnv("FEED_ADDR", ":10110"),
		MetricsAddr:  getEnv("METRICS_ADDR", ":9090"),
		SerialDevice: os.Getenv("SERIAL_DEVICE"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),
		DataTypes:    types.DataTypes,
		Intervals:    make(map[types.DataType]time.Duration, len(DefaultIntervals)),
	}
	for dt, d := range DefaultIntervals {
		cfg.Intervals[dt] = d
	}
	if strings.EqualFold(cfg.FeedAddr, "off") {
		cfg.FeedAddr = ""
	}
	if strings.EqualFold(cfg.MetricsAddr, "off") {
		cfg.MetricsAddr = ""
	}

	baud, err := strconv.Atoi(getEnv("SERIAL_BAUD", "4800"))
	if err != nil || baud <= 0 {
		return nil, fmt.Errorf("invalid SERIAL_BAUD %q", os.Getenv("SERIAL_BAUD"))
	}
	cfg.SerialBaud = baud

	if seed := os.Getenv("SEED"); seed != "" {
		cfg.Seed, err = strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SEED %q: %w", seed, err)
		}
	}

	if list := os.Getenv("DATA_TYPES"); list != "" {
		cfg.DataTypes, err = parseDataTypes(list)
		if err != nil {
			return nil, err
		}
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	for _, dt := range types.DataTypes {
		key := string(dt) + "_INTERVAL"
		if v := os.Getenv(key); v != "" {
			d, err := parseInterval(v)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", key, err)
			}
			cfg.Intervals[dt] = d
		}
	}

	return cfg, nil
}

// Interval returns the emission period for dt, falling back to the defaults.
func (c *Config) Interval(dt types.DataType) time.Duration {
	if d, ok := c.Intervals[dt]; ok {
		return d
	}
	return DefaultIntervals[dt]
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	for name, v := range fc.Intervals {
		dt, err := lookupDataType(name)
		if err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("config file interval %s: %w", name, err)
		}
		c.Intervals[dt] = d
	}
	return nil
}

func parseDataTypes(list string) ([]types.DataType, error) {
	var out []types.DataType
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		dt, err := lookupDataType(name)
		if err != nil {
			return nil, fmt.Errorf("invalid DATA_TYPES: %w", err)
		}
		out = append(out, dt)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("DATA_TYPES must name at least one data type")
	}
	return out, nil
}

func lookupDataType(name string) (types.DataType, error) {
	for _, dt := range types.DataTypes {
		if strings.EqualFold(name, string(dt)) {
			return dt, nil
		}
	}
	return "", fmt.Errorf("unknown data type %q", name)
}

func parseInterval(v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", v)
	}
	return d, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
