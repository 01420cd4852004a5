package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	LogLevel        string

	DBDriver       string
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	SQLitePath     string
	MigrationsPath string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers []string
	MongoURI     string
	MongoDBName  string

	PaymentServiceAddr string
	PaymentGRPCPort    string
	PaymentTimeout     time.Duration

	CommitAttempts    int
	OutboxInterval    time.Duration
	RecoveryInterval  time.Duration
	StuckSessionAfter time.Duration
}

// Load reads the configuration from environment variables.
// Empty REDIS_ADDR, KAFKA_BROKERS or MONGO_URI disable the cache, the outbox publisher and the
// history projection respectively.
func Load() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),

		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getInt("DB_PORT", 5432),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "easycart"),
		SQLitePath:     getEnv("SQLITE_PATH", "easycart.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers: getList("KAFKA_BROKERS"),
		MongoURI:     getEnv("MONGO_URI", ""),
		MongoDBName:  getEnv("MONGO_DB_NAME", "easycart"),

		PaymentServiceAddr: getEnv("PAYMENT_SERVICE_ADDR", "localhost:50055"),
		PaymentGRPCPort:    getEnv("PAYMENT_GRPC_PORT", "50055"),
		PaymentTimeout:     getDuration("PAYMENT_TIMEOUT", 10*time.Second),

		CommitAttempts:    getInt("COMMIT_ATTEMPTS", 3),
		OutboxInterval:    getDuration("OUTBOX_INTERVAL", 2*time.Second),
		RecoveryInterval:  getDuration("RECOVERY_INTERVAL", 30*time.Second),
		StuckSessionAfter: getDuration("STUCK_SESSION_AFTER", time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getDuration accepts Go duration strings ("5s") or a bare number of seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
