package main

import (
	"log/slog"
	"os"

	"github.com/fjod/easycart/internal/config"
	"github.com/fjod/easycart/internal/logger"
	"github.com/fjod/easycart/internal/repository"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dbDriver string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "easycart",
	Short: "easycart - clothing storefront backend",
	Long: `easycart serves the storefront API: catalog, carts and order placement with
inventory consistency.

Configuration is read from environment variables (DB_DRIVER, DB_HOST, REDIS_ADDR,
KAFKA_BROKERS, MONGO_URI, PAYMENT_SERVICE_ADDR, ...); flags override a few of them.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db-driver", "", "Database driver: postgres or sqlite (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
}

// loadConfig reads the environment and applies the global flag overrides.
func loadConfig() *config.Config {
	cfg := config.Load()
	if dbDriver != "" {
		cfg.DBDriver = dbDriver
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	log := logger.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(log)
	return log
}

func credentials(cfg *config.Config) *repository.Credentials {
	return &repository.Credentials{
		Driver:            cfg.DBDriver,
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		SQLitePath:        cfg.SQLitePath,
		MigrationsDirPath: cfg.MigrationsPath,
	}
}
