package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/kitties-ledger-go/kitties/core"
)

const (
	// BackendMemory keeps state in process memory.
	BackendMemory = "memory"

	// BackendPostgres keeps state in PostgreSQL.
	BackendPostgres = "postgres"

	// EventSinkNone disables publishing events.
	EventSinkNone = "none"

	// EventSinkMemory publishes events to an in-memory event store.
	EventSinkMemory = "memory"

	// EventSinkPostgres publishes events to the PostgreSQL event store.
	EventSinkPostgres = "postgres"

	// AdapterPGX connects through a pgxpool.Pool.
	AdapterPGX = "pgx"

	// AdapterSQL connects through database/sql with the lib/pq driver.
	AdapterSQL = "sql"

	// AdapterSQLX connects through sqlx with the lib/pq driver.
	AdapterSQLX = "sqlx"

	// ConfigFileEnv names the environment variable that points at the YAML config file.
	ConfigFileEnv = "KITTIES_CONFIG"
)

var (
	// ErrInvalidBackend is returned for unknown state backends.
	ErrInvalidBackend = errors.New("invalid backend")

	// ErrInvalidEventSink is returned for unknown event sinks.
	ErrInvalidEventSink = errors.New("invalid event sink")

	// ErrInvalidPostgresAdapter is returned for unknown PostgreSQL adapters.
	ErrInvalidPostgresAdapter = errors.New("invalid postgres adapter")

	// ErrMissingPostgresDSN is returned if PostgreSQL is used without a DSN.
	ErrMissingPostgresDSN = errors.New("postgres dsn is required")

	// ErrInvalidPoolSize is returned if the connection pool bounds are inconsistent.
	ErrInvalidPoolSize = errors.New("invalid connection pool size")

	// ErrInvalidRetry is returned for retry settings the command handlers would reject.
	ErrInvalidRetry = errors.New("invalid retry settings")

	// ErrInvalidGenesisKitty is returned for genesis kitties with a malformed DNA.
	ErrInvalidGenesisKitty = errors.New("invalid genesis kitty")
)

// Config is the complete kittiesd configuration.
type Config struct {
	Backend   string         `yaml:"backend" env:"BACKEND"`
	EventSink string         `yaml:"event_sink" env:"EVENT_SINK"`
	Postgres  PostgresConfig `yaml:"postgres" envPrefix:"POSTGRES_"`
	Log       LogConfig      `yaml:"log" envPrefix:"LOG_"`
	Metrics   MetricsConfig  `yaml:"metrics" envPrefix:"METRICS_"`
	Tracing   TracingConfig  `yaml:"tracing" envPrefix:"TRACING_"`
	Retry     RetryConfig    `yaml:"retry" envPrefix:"RETRY_"`

	// EntropySeed is mixed into every genome. Keep it secret to make genomes unpredictable.
	EntropySeed string `yaml:"entropy_seed" env:"ENTROPY_SEED"`

	// Genesis is only read from the config file.
	Genesis []GenesisKittyConfig `yaml:"genesis"`
}

// PostgresConfig configures the PostgreSQL connection and tables.
type PostgresConfig struct {
	DSN               string        `yaml:"dsn" env:"DSN"`
	Adapter           string        `yaml:"adapter" env:"ADAPTER"`
	StateTable        string        `yaml:"state_table" env:"STATE_TABLE"`
	EventTable        string        `yaml:"event_table" env:"EVENT_TABLE"`
	MaxConns          int32         `yaml:"max_conns" env:"MAX_CONNS"`
	MinConns          int32         `yaml:"min_conns" env:"MIN_CONNS"`
	MaxConnLifetime   time.Duration `yaml:"max_conn_lifetime" env:"MAX_CONN_LIFETIME"`
	MaxConnIdleTime   time.Duration `yaml:"max_conn_idle_time" env:"MAX_CONN_IDLE_TIME"`
	HealthCheckPeriod time.Duration `yaml:"health_check_period" env:"HEALTH_CHECK_PERIOD"`
	ConnectTimeout    time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig configures the Prometheus endpoint. An empty address disables it.
type MetricsConfig struct {
	Addr      string `yaml:"addr" env:"ADDR"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// TracingConfig configures OTLP/HTTP span export. An empty endpoint disables tracing.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint" env:"ENDPOINT"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// RetryConfig configures the concurrency conflict retry.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	BaseDelay    time.Duration `yaml:"base_delay" env:"BASE_DELAY"`
	JitterFactor float64       `yaml:"jitter_factor" env:"JITTER_FACTOR"`
}

// GenesisKittyConfig is a genesis kitty with its DNA as 32 hex characters.
type GenesisKittyConfig struct {
	Owner core.AccountID `yaml:"owner"`
	DNA   string         `yaml:"dna"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Backend:   BackendMemory,
		EventSink: EventSinkMemory,
		Postgres: PostgresConfig{
			Adapter:           AdapterPGX,
			StateTable:        "kitties_state",
			EventTable:        "kitties_events",
			MaxConns:          8,
			MinConns:          2,
			MaxConnLifetime:   time.Hour,
			MaxConnIdleTime:   5 * time.Minute,
			HealthCheckPeriod: time.Minute,
			ConnectTimeout:    5 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Addr:      ":9090",
			Namespace: "kitties",
		},
		Tracing: TracingConfig{
			ServiceName: "kittiesd",
		},
		Retry: RetryConfig{
			MaxAttempts:  6,
			BaseDelay:    10 * time.Millisecond,
			JitterFactor: 0.3,
		},
	}
}

// Load layers defaults, the YAML file at path and the environment, then validates the result.
// An empty path falls back to the file named by KITTIES_CONFIG; without one no file is read.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}

	if path != "" {
		if err := loadYAMLFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "KITTIES_"}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for consistency. All violations are reported at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Backend {
	case BackendMemory, BackendPostgres:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidBackend, c.Backend))
	}

	switch c.EventSink {
	case EventSinkNone, EventSinkMemory, EventSinkPostgres:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidEventSink, c.EventSink))
	}

	if c.UsesPostgres() {
		errs = append(errs, c.Postgres.validate()...)
	}

	if c.Retry.MaxAttempts <= 0 || c.Retry.BaseDelay < 0 || c.Retry.JitterFactor < 0 || c.Retry.JitterFactor > 1 {
		errs = append(errs, fmt.Errorf("%w: %+v", ErrInvalidRetry, c.Retry))
	}

	for i, kitty := range c.Genesis {
		if _, err := kitty.Genome(); err != nil {
			errs = append(errs, fmt.Errorf("genesis[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// UsesPostgres reports whether the state backend or the event sink needs a PostgreSQL connection.
func (c Config) UsesPostgres() bool {
	return c.Backend == BackendPostgres || c.EventSink == EventSinkPostgres
}

// Genome decodes the hex DNA of the genesis kitty.
func (k GenesisKittyConfig) Genome() (core.Genome, error) {
	var genome core.Genome

	decoded, err := hex.DecodeString(k.DNA)
	if err != nil {
		return genome, fmt.Errorf("%w: %w", ErrInvalidGenesisKitty, err)
	}

	if len(decoded) != core.GenomeLength {
		return genome, fmt.Errorf("%w: dna must be %d bytes, got %d", ErrInvalidGenesisKitty, core.GenomeLength, len(decoded))
	}

	copy(genome[:], decoded)

	return genome, nil
}

func (p PostgresConfig) validate() []error {
	var errs []error

	if p.DSN == "" {
		errs = append(errs, ErrMissingPostgresDSN)
	}

	switch p.Adapter {
	case AdapterPGX, AdapterSQL, AdapterSQLX:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidPostgresAdapter, p.Adapter))
	}

	if p.MaxConns <= 0 || p.MinConns < 0 || p.MinConns > p.MaxConns {
		errs = append(errs, fmt.Errorf("%w: min %d, max %d", ErrInvalidPoolSize, p.MinConns, p.MaxConns))
	}

	if p.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: connect timeout must be positive", ErrInvalidPoolSize))
	}

	return errs
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}
