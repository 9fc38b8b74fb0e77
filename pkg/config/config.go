// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (data locations, indexer, search, synthesis, reporting sinks,
// Postgres, Kafka, Redis, logging and metrics).
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Indexer   IndexerConfig   `yaml:"indexer"`
	Search    SearchConfig    `yaml:"search"`
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Reporting ReportingConfig `yaml:"reporting"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// DataConfig locates the on-disk inputs and outputs.
type DataConfig struct {
	PatentsDir     string `yaml:"patentsDir"`
	IndexDir       string `yaml:"indexDir"`
	DocumentsFile  string `yaml:"documentsFile"`
	NeighborsFile  string `yaml:"neighborsFile"`
	SubmissionFile string `yaml:"submissionFile"`
}

// IndexerConfig controls the parallel inverted-index build.
type IndexerConfig struct {
	Workers           int `yaml:"workers"`
	BlocksPerWorker   int `yaml:"blocksPerWorker"`
	ClaimsGroups      int `yaml:"claimsGroups"`
	DescriptionGroups int `yaml:"descriptionGroups"`
}

// SearchConfig controls query evaluation limits.
type SearchConfig struct {
	MatchCeiling int `yaml:"matchCeiling"`
	ResultLimit  int `yaml:"resultLimit"`
}

// SynthesisConfig controls the query synthesis run.
type SynthesisConfig struct {
	Workers          int           `yaml:"workers"`
	TaskTimeout      time.Duration `yaml:"taskTimeout"`
	OptimizerTimeout time.Duration `yaml:"optimizerTimeout"`
	TokenBudget      int           `yaml:"tokenBudget"`
	MaxXorGroups     int           `yaml:"maxXorGroups"`
	FallbackQuery    string        `yaml:"fallbackQuery"`
	MaxTasks         int           `yaml:"maxTasks"`
}

// ReportingConfig selects the progress sink and its failure isolation.
type ReportingConfig struct {
	Sink             string        `yaml:"sink"`
	InitDatabase     bool          `yaml:"initDatabase"`
	FailureThreshold int           `yaml:"failureThreshold"`
	ResetTimeout     time.Duration `yaml:"resetTimeout"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers []string    `yaml:"brokers"`
	Topics  KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	GeneratorScores string `yaml:"generatorScores"`
	TaskResults     string `yaml:"taskResults"`
}

// RedisConfig holds Redis connection parameters and the result hash key.
type RedisConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	PoolSize   int    `yaml:"poolSize"`
	ResultsKey string `yaml:"resultsKey"`
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
	cfg := Default()
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

// Default returns a Config with the limits the synthesis engine was tuned for.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			PatentsDir:     "output/patents",
			IndexDir:       "output/full-index",
			SubmissionFile: "output/submission.csv",
		},
		Indexer: IndexerConfig{
			Workers:           runtime.NumCPU(),
			BlocksPerWorker:   3,
			ClaimsGroups:      2,
			DescriptionGroups: 8,
		},
		Search: SearchConfig{
			MatchCeiling: 5000,
			ResultLimit:  50,
		},
		Synthesis: SynthesisConfig{
			Workers:          runtime.NumCPU(),
			TaskTimeout:      40 * time.Second,
			OptimizerTimeout: 20 * time.Second,
			TokenBudget:      50,
			MaxXorGroups:     5,
			FallbackQuery:    "ti:device",
		},
		Reporting: ReportingConfig{
			Sink:             "none",
			FailureThreshold: 5,
			ResetTimeout:     30 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "postgres",
			User:            "postgres",
			Password:        "postgres",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topics: KafkaTopics{
				GeneratorScores: "priorart.generator-scores",
				TaskResults:     "priorart.task-results",
			},
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   10,
			ResultsKey: "priorart:best-queries",
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

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Indexer.Workers < 1 {
		return fmt.Errorf("indexer.workers must be positive, got %d", c.Indexer.Workers)
	}
	if c.Indexer.ClaimsGroups < 1 || c.Indexer.DescriptionGroups < 1 {
		return fmt.Errorf("indexer partition group counts must be positive")
	}
	if c.Search.ResultLimit < 1 || c.Search.MatchCeiling < c.Search.ResultLimit {
		return fmt.Errorf("search.matchCeiling (%d) must be >= search.resultLimit (%d) >= 1",
			c.Search.MatchCeiling, c.Search.ResultLimit)
	}
	if c.Synthesis.Workers < 1 {
		return fmt.Errorf("synthesis.workers must be positive, got %d", c.Synthesis.Workers)
	}
	if c.Synthesis.TokenBudget < 1 {
		return fmt.Errorf("synthesis.tokenBudget must be positive, got %d", c.Synthesis.TokenBudget)
	}
	switch c.Reporting.Sink {
	case "none", "postgres", "kafka":
	default:
		return fmt.Errorf("reporting.sink must be one of none, postgres, kafka; got %q", c.Reporting.Sink)
	}
	return nil
}

// applyEnvOverrides reads PA_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PA_PATENTS_DIR"); v != "" {
		cfg.Data.PatentsDir = v
	}
	if v := os.Getenv("PA_INDEX_DIR"); v != "" {
		cfg.Data.IndexDir = v
	}
	if v := os.Getenv("PA_DOCUMENTS_FILE"); v != "" {
		cfg.Data.DocumentsFile = v
	}
	if v := os.Getenv("PA_NEIGHBORS_FILE"); v != "" {
		cfg.Data.NeighborsFile = v
	}
	if v := os.Getenv("PA_SUBMISSION_FILE"); v != "" {
		cfg.Data.SubmissionFile = v
	}
	if v := os.Getenv("PA_INDEXER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Workers = n
		}
	}
	if v := os.Getenv("PA_SYNTHESIS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Synthesis.Workers = n
		}
	}
	if v := os.Getenv("PA_TASK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Synthesis.TaskTimeout = d
		}
	}
	if v := os.Getenv("PA_MAX_TASKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Synthesis.MaxTasks = n
		}
	}
	if v := os.Getenv("PA_REPORTING_SINK"); v != "" {
		cfg.Reporting.Sink = v
	}
	if v := os.Getenv("PA_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("PA_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("PA_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("PA_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("PA_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("PA_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("PA_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PA_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
