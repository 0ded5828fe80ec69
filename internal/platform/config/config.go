package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	platformstrings "sportsuid/pkg/platform/strings"
)

// Backend selects where partition counters live.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendPostgres Backend = "postgres"
	BackendRedis    Backend = "redis"
	BackendFile     Backend = "file"
)

// Strategy selects how sequences are allocated.
type Strategy string

const (
	// StrategyCounter increments a per-partition counter atomically.
	StrategyCounter Strategy = "counter"
	// StrategyOptimistic reads the ledger maximum and claims max+1 under a
	// uniqueness constraint, retrying on conflict.
	StrategyOptimistic Strategy = "optimistic"
)

const EnvProduction = "production"

// Config is the full service configuration.
type Config struct {
	Addr     string   `yaml:"addr"`
	Env      string   `yaml:"env"`
	Backend  Backend  `yaml:"backend"`
	Strategy Strategy `yaml:"strategy"`
	// Ledger records counter allocations in the ledger as well, turning a
	// counter that went backwards into skipped values instead of duplicates.
	Ledger bool `yaml:"ledger"`

	HTTP      HTTPConfig      `yaml:"http"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	File      FileConfig      `yaml:"file"`
	Allocator AllocatorConfig `yaml:"allocator"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Log       LogConfig       `yaml:"log"`
}

// HTTPConfig holds listener timeouts. ShutdownGrace bounds how long in-flight
// requests get to finish after a termination signal.
type HTTPConfig struct {
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownGrace     time.Duration `yaml:"shutdown_grace"`
}

type PostgresConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	// Migrate applies the embedded schema at startup.
	Migrate bool `yaml:"migrate"`
}

type RedisConfig struct {
	URL          string        `yaml:"url"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type FileConfig struct {
	Path          string        `yaml:"path"`
	LockRetryWait time.Duration `yaml:"lock_retry_wait"`
}

// AllocatorConfig bounds retries. The defaults reproduce the historical
// behaviour of five attempts with a 100ms-per-attempt linear backoff.
type AllocatorConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	// ConflictAttempts bounds lost races per allocation under the optimistic
	// strategy. Timeout usually ends the loop first.
	ConflictAttempts int           `yaml:"conflict_attempts"`
	BaseBackoff      time.Duration `yaml:"base_backoff"`
	MaxBackoff       time.Duration `yaml:"max_backoff"`
	// Timeout caps one allocation including retries.
	Timeout time.Duration `yaml:"timeout"`
	// BatchConcurrency bounds concurrent allocations in a batch request.
	BatchConcurrency int `yaml:"batch_concurrency"`
	MaxBatchSize     int `yaml:"max_batch_size"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Addr:     ":8080",
		Env:      "development",
		Backend:  BackendMemory,
		Strategy: StrategyCounter,
		HTTP: HTTPConfig{
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownGrace:     10 * time.Second,
		},
		Postgres: PostgresConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			Migrate:         true,
		},
		Redis: RedisConfig{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		File: FileConfig{
			Path:          "sportsuid-counters.json",
			LockRetryWait: 10 * time.Millisecond,
		},
		Allocator: AllocatorConfig{
			MaxAttempts:      5,
			ConflictAttempts: 1000,
			BaseBackoff:      100 * time.Millisecond,
			MaxBackoff:       time.Second,
			Timeout:          3 * time.Second,
			BatchConcurrency: 8,
			MaxBatchSize:     500,
		},
		Kafka: KafkaConfig{Topic: "uid.allocated"},
		Log:   LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, the YAML file named by
// UID_CONFIG_FILE (if any), and environment variables, in increasing order of
// precedence.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("UID_CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Addr, "UID_ADDR")
	setString(&c.Env, "UID_ENV")
	if v := os.Getenv("UID_BACKEND"); v != "" {
		c.Backend = Backend(strings.ToLower(v))
	}
	if v := os.Getenv("UID_STRATEGY"); v != "" {
		c.Strategy = Strategy(strings.ToLower(v))
	}
	setString(&c.Postgres.URL, "DATABASE_URL")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.File.Path, "UID_COUNTER_FILE")
	setString(&c.Kafka.Topic, "UID_EVENTS_TOPIC")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
	}

	var errs []error
	errs = append(errs,
		setBool(&c.Ledger, "UID_LEDGER"),
		setBool(&c.Postgres.Migrate, "UID_MIGRATE"),
		setInt(&c.Redis.PoolSize, "REDIS_POOL_SIZE"),
		setInt(&c.Allocator.MaxAttempts, "UID_MAX_ATTEMPTS"),
		setInt(&c.Allocator.ConflictAttempts, "UID_CONFLICT_ATTEMPTS"),
		setInt(&c.Allocator.BatchConcurrency, "UID_BATCH_CONCURRENCY"),
		setDuration(&c.Allocator.BaseBackoff, "UID_BACKOFF_BASE"),
		setDuration(&c.Allocator.MaxBackoff, "UID_BACKOFF_MAX"),
		setDuration(&c.Allocator.Timeout, "UID_ALLOCATION_TIMEOUT"),
		setDuration(&c.HTTP.WriteTimeout, "UID_HTTP_WRITE_TIMEOUT"),
		setDuration(&c.HTTP.ShutdownGrace, "UID_SHUTDOWN_GRACE"),
	)
	return errors.Join(errs...)
}

// Validate rejects combinations the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendMemory:
		if c.Env == EnvProduction {
			errs = append(errs, errors.New("memory backend is not shared between instances and cannot run in production"))
		}
	case BackendPostgres:
		if c.Postgres.URL == "" {
			errs = append(errs, errors.New("postgres backend requires DATABASE_URL"))
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis backend requires REDIS_URL"))
		}
	case BackendFile:
		if c.File.Path == "" {
			errs = append(errs, errors.New("file backend requires UID_COUNTER_FILE"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}

	switch c.Strategy {
	case StrategyCounter:
	case StrategyOptimistic:
		if c.Backend != BackendPostgres && c.Backend != BackendMemory {
			errs = append(errs, fmt.Errorf("optimistic strategy needs a ledger, which backend %q does not provide", c.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown strategy %q", c.Strategy))
	}
	if c.Ledger && c.Backend != BackendPostgres && c.Backend != BackendMemory {
		errs = append(errs, fmt.Errorf("ledger is not available on backend %q", c.Backend))
	}

	if c.Allocator.MaxAttempts < 1 {
		errs = append(errs, errors.New("allocator max_attempts must be at least 1"))
	}
	if c.Strategy == StrategyOptimistic && c.Allocator.ConflictAttempts < 1 {
		errs = append(errs, errors.New("allocator conflict_attempts must be at least 1"))
	}
	if c.Allocator.BaseBackoff < 0 || c.Allocator.MaxBackoff < 0 {
		errs = append(errs, errors.New("allocator backoff must not be negative"))
	}
	if c.HTTP.WriteTimeout > 0 && c.Allocator.Timeout >= c.HTTP.WriteTimeout {
		errs = append(errs, errors.New("allocator timeout must be shorter than the HTTP write timeout"))
	}
	if c.Allocator.BatchConcurrency < 1 {
		errs = append(errs, errors.New("allocator batch_concurrency must be at least 1"))
	}
	return errors.Join(errs...)
}

// UsesLedger reports whether the configuration needs a ledger store.
func (c Config) UsesLedger() bool {
	return c.Ledger || c.Strategy == StrategyOptimistic
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(v string) []string {
	return platformstrings.DedupeAndTrim(strings.Split(v, ","))
}
