package config

import (
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is read from the environment, after an optional .env file in the
// working directory. An empty endpoint disables that collaborator.
type Config struct {
	InputPath   string
	InputFormat string
	OutputDir   string
	RulesFile   string

	DefaultCountry  string
	DefaultCurrency string
	Workers         int

	LogDevelopment bool

	ClickHouseAddr         string
	ClickHouseMaxOpenConns int
	ClickHouseMaxIdleConns int
	ClickHouseConnMaxLife  time.Duration
	ClickHouseUsername     string
	ClickHousePassword     string
	ClickHouseDatabase     string

	SQLitePath string

	NATSURL         string
	NATSConnTimeout time.Duration
	NATSSubject     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	CacheCapacity int

	SinkMaxRetries int

	OTELCollectorURL string
	MetricsAddr      string

	RunTimeout time.Duration
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		InputPath:   getEnvString("INPUT_PATH", ""),
		InputFormat: getEnvString("INPUT_FORMAT", ""),
		OutputDir:   getEnvString("OUTPUT_DIR", ""),
		RulesFile:   getEnvString("RULES_FILE", ""),

		DefaultCountry:  getEnvString("DEFAULT_COUNTRY", "USA"),
		DefaultCurrency: getEnvString("DEFAULT_CURRENCY", "USD"),
		Workers:         getEnvInt("WORKERS", runtime.NumCPU()),

		LogDevelopment: getEnvBool("LOG_DEVELOPMENT", false),

		ClickHouseAddr:         getEnvString("CLICKHOUSE_ADDR", ""),
		ClickHouseMaxOpenConns: getEnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10),
		ClickHouseMaxIdleConns: getEnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5),
		ClickHouseConnMaxLife:  getEnvDuration("CLICKHOUSE_CONN_MAX_LIFE", time.Hour),
		ClickHouseUsername:     getEnvString("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword:     getEnvString("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDatabase:     getEnvString("CLICKHOUSE_DATABASE", "shenanigigs"),

		SQLitePath: getEnvString("SQLITE_PATH", ""),

		NATSURL:         getEnvString("NATS_URL", ""),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),
		NATSSubject:     getEnvString("NATS_SUBJECT", "starschema.run.completed"),

		RedisAddr:     getEnvString("REDIS_ADDR", ""),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),
		CacheCapacity: getEnvInt("CACHE_CAPACITY", 100000),

		SinkMaxRetries: getEnvInt("SINK_MAX_RETRIES", 0),

		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
		MetricsAddr:      getEnvString("METRICS_ADDR", ""),

		RunTimeout: getEnvDuration("RUN_TIMEOUT", 30*time.Minute),
	}

	if config.Workers < 1 {
		config.Workers = 1
	}

	return config, nil
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
