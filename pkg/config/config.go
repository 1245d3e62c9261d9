// Package config loads and validates query-engine configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Search, Index, Cache, Redis, Kafka, Postgres, etc.).
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
	Search   SearchConfig   `yaml:"search"`
	Index    IndexConfig    `yaml:"index"`
	Cache    CacheConfig    `yaml:"cache"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Postgres PostgresConfig `yaml:"postgres"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// SearchConfig controls query compilation and execution.
type SearchConfig struct {
	DefaultLimit       int      `yaml:"defaultLimit"`
	MaxResults         int      `yaml:"maxResults"`
	SegmentParallelism int      `yaml:"segmentParallelism"`
	ScoringEnabled     bool     `yaml:"scoringEnabled"`
	ExplainOffsets     bool     `yaml:"explainOffsets"`
	EmptyQueryMatchAll bool     `yaml:"emptyQueryMatchAll"`
	DefaultFields      []string `yaml:"defaultFields"`
}

// IndexConfig controls how the in-memory segments are built from a corpus.
// Fields are tokenized; RawFields are indexed as one normalized term.
type IndexConfig struct {
	SegmentMaxDocs int      `yaml:"segmentMaxDocs"`
	Fields         []string `yaml:"fields"`
	RawFields      []string `yaml:"rawFields"`
}

// CacheConfig controls the in-process result cache tier.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	LRUSize int  `yaml:"lruSize"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	SearchEvents    string `yaml:"searchEvents"`
	CacheInvalidate string `yaml:"cacheInvalidate"`
}

// PostgresConfig holds PostgreSQL connection parameters for the boost rule
// store.
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
	BoostTable      string        `yaml:"boostTable"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the executor cannot run with.
func (c *Config) Validate() error {
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.defaultLimit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		return fmt.Errorf("search.maxResults (%d) must be >= search.defaultLimit (%d)",
			c.Search.MaxResults, c.Search.DefaultLimit)
	}
	if c.Search.SegmentParallelism <= 0 {
		return fmt.Errorf("search.segmentParallelism must be positive, got %d", c.Search.SegmentParallelism)
	}
	if len(c.Index.Fields)+len(c.Index.RawFields) == 0 {
		return fmt.Errorf("index.fields and index.rawFields are both empty")
	}
	if c.Index.SegmentMaxDocs <= 0 {
		return fmt.Errorf("index.segmentMaxDocs must be positive, got %d", c.Index.SegmentMaxDocs)
	}
	return nil
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			DefaultLimit:       10,
			MaxResults:         100,
			SegmentParallelism: 4,
			ScoringEnabled:     true,
			DefaultFields:      []string{"title", "body"},
		},
		Index: IndexConfig{
			SegmentMaxDocs: 10000,
			Fields:         []string{"title", "body"},
		},
		Cache: CacheConfig{
			Enabled: true,
			LRUSize: 1000,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "querycore-group",
			Topics: KafkaTopics{
				SearchEvents:    "search-events",
				CacheInvalidate: "cache-invalidate",
			},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "searchplatform",
			User:            "searchplatform",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			BoostTable:      "boost_rules",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Port: 9090,
		},
	}
}

// applyEnvOverrides reads QC_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QC_SEARCH_DEFAULT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.DefaultLimit = n
		}
	}
	if v := os.Getenv("QC_SEARCH_MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.MaxResults = n
		}
	}
	if v := os.Getenv("QC_SEARCH_SEGMENT_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.SegmentParallelism = n
		}
	}
	if v := os.Getenv("QC_SEARCH_SCORING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Search.ScoringEnabled = b
		}
	}
	if v := os.Getenv("QC_SEARCH_EXPLAIN_OFFSETS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Search.ExplainOffsets = b
		}
	}
	if v := os.Getenv("QC_SEARCH_DEFAULT_FIELDS"); v != "" {
		cfg.Search.DefaultFields = strings.Split(v, ",")
	}
	if v := os.Getenv("QC_INDEX_FIELDS"); v != "" {
		cfg.Index.Fields = strings.Split(v, ",")
	}
	if v := os.Getenv("QC_INDEX_RAW_FIELDS"); v != "" {
		cfg.Index.RawFields = strings.Split(v, ",")
	}
	if v := os.Getenv("QC_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("QC_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("QC_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("QC_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
		cfg.Postgres.Enabled = true
	}
	if v := os.Getenv("QC_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("QC_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("QC_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("QC_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("QC_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("QC_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
