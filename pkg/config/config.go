// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for the build
// pipeline, the search surface and the optional Redis/Kafka integrations.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Build   BuildConfig   `yaml:"build"`
	Search  SearchConfig  `yaml:"search"`
	Server  ServerConfig  `yaml:"server"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// BuildConfig controls document discovery and index construction.
type BuildConfig struct {
	TextsDir      string   `yaml:"textsDir"`
	OutputDir     string   `yaml:"outputDir"`
	MinFileSizeKB int64    `yaml:"minFileSizeKB"`
	MinFileCount  int      `yaml:"minFileCount"`
	Parallelism   int      `yaml:"parallelism"`
	SingleThread  bool     `yaml:"singleThreaded"`
	CSVTextColumn int      `yaml:"csvTextColumn"`
	Formats       []string `yaml:"formats"`
}

// EffectiveParallelism resolves the worker count handed to the builder.
// Forced single-threaded mode wins over an explicit parallelism value; zero
// means "one worker per CPU" and is resolved by the builder itself.
func (b BuildConfig) EffectiveParallelism() int {
	if b.SingleThread {
		return 1
	}
	return b.Parallelism
}

// SearchConfig controls query execution defaults.
type SearchConfig struct {
	DefaultIndex string `yaml:"defaultIndex"`
	MaxResults   int    `yaml:"maxResults"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// RateLimit is the per-client request budget per minute; 0 disables it.
	RateLimit   int      `yaml:"rateLimit"`
	CORSOrigins []string `yaml:"corsOrigins"`
}

// RedisConfig holds Redis connection and result-caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds broker and topic settings for build notifications.
type KafkaConfig struct {
	Enabled bool        `yaml:"enabled"`
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	IndexComplete string `yaml:"indexComplete"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
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
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Build.TextsDir) == "" {
		return fmt.Errorf("build.textsDir is not configured")
	}
	if strings.TrimSpace(c.Build.OutputDir) == "" {
		return fmt.Errorf("build.outputDir is not configured")
	}
	if c.Build.Parallelism < 0 {
		return fmt.Errorf("build.parallelism must not be negative, got %d", c.Build.Parallelism)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rateLimit must not be negative, got %d", c.Server.RateLimit)
	}
	if c.Build.CSVTextColumn < 0 {
		return fmt.Errorf("build.csvTextColumn must not be negative, got %d", c.Build.CSVTextColumn)
	}
	switch c.Search.DefaultIndex {
	case "inverted", "matrix":
	default:
		return fmt.Errorf("search.defaultIndex must be inverted or matrix, got %q", c.Search.DefaultIndex)
	}
	return nil
}

// defaultConfig returns a Config with defaults suitable for local runs.
func defaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			TextsDir:      "texts",
			OutputDir:     "output",
			MinFileSizeKB: 150,
			MinFileCount:  10,
			CSVTextColumn: 1,
			Formats:       []string{"text", "json"},
		},
		Search: SearchConfig{
			DefaultIndex: "inverted",
			MaxResults:   1000,
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				IndexComplete: "index.complete",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads BSE_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BSE_TEXTS_DIR"); v != "" {
		cfg.Build.TextsDir = v
	}
	if v := os.Getenv("BSE_OUTPUT_DIR"); v != "" {
		cfg.Build.OutputDir = v
	}
	if v := os.Getenv("BSE_MIN_FILE_SIZE_KB"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Build.MinFileSizeKB = n
		}
	}
	if v := os.Getenv("BSE_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Build.Parallelism = n
		}
	}
	if v := os.Getenv("BSE_SINGLE_THREADED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Build.SingleThread = b
		}
	}
	if v := os.Getenv("BSE_FORMATS"); v != "" {
		cfg.Build.Formats = strings.Split(v, ",")
	}
	if v := os.Getenv("BSE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("BSE_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("BSE_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("BSE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("BSE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("BSE_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("BSE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("BSE_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BSE_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
