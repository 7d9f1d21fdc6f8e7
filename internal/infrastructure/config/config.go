package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// EnvPrefix namespaces environment overrides: RETAIL_DATABASE_PASSWORD sets
// database.password.
const EnvPrefix = "RETAIL"

// Config is the engine's runtime configuration, one struct per TOML table.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Event     EventConfig     `mapstructure:"event"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	// OpsAddr is where the health and outbox admin server listens. "off"
	// disables it.
	OpsAddr string `mapstructure:"ops_addr"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// DBName is the file path when Driver is sqlite.
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
	MigrateOnStart  bool   `mapstructure:"migrate_on_start"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

type InventoryConfig struct {
	// AutoReserveTransfers reserves source stock as soon as a transfer is
	// submitted instead of waiting for an explicit reserve call.
	AutoReserveTransfers bool `mapstructure:"auto_reserve_transfers"`
	// FulfillmentStrategy names the registered warehouse comparator.
	FulfillmentStrategy  string `mapstructure:"fulfillment_strategy"`
	DefaultMinStockLevel int64  `mapstructure:"default_min_stock_level"`
}

// EventConfig drives the outbox relay and consumer deduplication.
type EventConfig struct {
	ProcessorEnabled bool          `mapstructure:"processor_enabled"`
	BatchSize        int           `mapstructure:"batch_size"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	// StaleClaimAfter is how long an entry may sit in PROCESSING before the
	// relay assumes its claimant died and hands it out again.
	StaleClaimAfter  time.Duration `mapstructure:"stale_claim_after"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RetryBaseDelay   time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay    time.Duration `mapstructure:"retry_max_delay"`
	CleanupEnabled   bool          `mapstructure:"cleanup_enabled"`
	CleanupRetention time.Duration `mapstructure:"cleanup_retention"`
	IdempotencyTTL   time.Duration `mapstructure:"idempotency_ttl"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	ServiceName       string        `mapstructure:"service_name"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"` // OTLP gRPC host:port
	Insecure          bool          `mapstructure:"insecure"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	DBTraceEnabled    bool          `mapstructure:"db_tracing"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`

	// Continuous profiling through a Pyroscope server.
	ProfilingEnabled bool     `mapstructure:"profiling_enabled"`
	ProfilingServer  string   `mapstructure:"profiling_server"`
	ProfileTypes     []string `mapstructure:"profile_types"`
}

// defaults lists every key Load understands. Environment overrides only
// reach keys viper already knows, so keys without a useful default are
// still registered with their zero value.
var defaults = map[string]any{
	"app.name":     "retail-engine",
	"app.env":      "development",
	"app.ops_addr": ":8081",

	"database.driver":             DriverPostgres,
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.name":               "retail",
	"database.ssl_mode":           "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,
	"database.migrate_on_start":   false,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"inventory.auto_reserve_transfers":  false,
	"inventory.fulfillment_strategy":    "priority",
	"inventory.default_min_stock_level": 0,

	"event.processor_enabled": true,
	"event.batch_size":        100,
	"event.poll_interval":     5 * time.Second,
	"event.stale_claim_after": 5 * time.Minute,
	"event.max_retries":       5,
	"event.retry_base_delay":  time.Second,
	"event.retry_max_delay":   10 * time.Minute,
	"event.cleanup_enabled":   false,
	"event.cleanup_retention": 7 * 24 * time.Hour,
	"event.idempotency_ttl":   24 * time.Hour,

	"telemetry.enabled":                 false,
	"telemetry.service_name":            "retail-engine",
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.insecure":                false,
	"telemetry.sampling_ratio":          1.0,
	"telemetry.metrics_interval":        time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.db_tracing":              false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.profiling_enabled":       false,
	"telemetry.profiling_server":        "http://localhost:4040",
	"telemetry.profile_types":           []string{"cpu", "alloc_space", "inuse_space", "goroutines", "mutex_duration"},
}

// Load resolves the configuration. Later sources win:
//
//	built-in defaults < config file < RETAIL_* environment
//
// The file is $RETAIL_CONFIG when set, otherwise config.toml in the working
// directory or /etc/retail. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/retail")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	db := c.Database
	switch db.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("database.driver: want %q or %q, got %q", DriverPostgres, DriverSQLite, db.Driver)
	}
	switch {
	case db.MaxOpenConns <= 0:
		return errors.New("database.max_open_conns must be positive")
	case db.MaxIdleConns < 0:
		return errors.New("database.max_idle_conns cannot be negative")
	case db.MaxIdleConns > db.MaxOpenConns:
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			db.MaxIdleConns, db.MaxOpenConns)
	case c.Inventory.DefaultMinStockLevel < 0:
		return errors.New("inventory.default_min_stock_level cannot be negative")
	case c.Event.MaxRetries < 0:
		return errors.New("event.max_retries cannot be negative")
	case c.Event.BatchSize <= 0:
		return errors.New("event.batch_size must be positive")
	case c.Event.RetryMaxDelay > 0 && c.Event.RetryMaxDelay < c.Event.RetryBaseDelay:
		return fmt.Errorf("event.retry_max_delay (%s) is below event.retry_base_delay (%s)",
			c.Event.RetryMaxDelay, c.Event.RetryBaseDelay)
	case c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1:
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %v", c.Telemetry.SamplingRatio)
	case c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingServer == "":
		return errors.New("telemetry.profiling_server is required when profiling is enabled")
	}

	if c.App.Env != "production" {
		return nil
	}
	switch {
	case db.Driver == DriverSQLite:
		return errors.New("database.driver sqlite is not allowed in production")
	case db.Password == "":
		return errors.New("database.password is required in production")
	case db.SSLMode == "disable":
		return errors.New("database.ssl_mode cannot be 'disable' in production")
	case c.Telemetry.DBLogFullSQL:
		return errors.New("telemetry.db_log_full_sql must be false in production")
	}
	return nil
}

// DSN is the driver connection string: a postgres URL with escaped
// credentials, or the database file path for sqlite.
func (d *DatabaseConfig) DSN() string {
	if d.Driver == DriverSQLite {
		return d.DBName
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
