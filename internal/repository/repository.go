package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

//go:embed migrations
var migrationsFS embed.FS

type Credentials struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	// SQLitePath is a file path or DSN, ":memory:" for tests.
	SQLitePath string
	// MigrationsDirPath overrides the embedded migrations when set.
	MigrationsDirPath string
}

type Repository struct {
	db     *sql.DB
	driver string
	log    *slog.Logger
}

func NewRepository(cred *Credentials, log *slog.Logger) (*Repository, error) {
	driver := cred.Driver
	if driver == "" {
		driver = DriverPostgres
	}

	var dsn string
	switch driver {
	case DriverPostgres:
		dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cred.Host,
			cred.Port,
			cred.User,
			cred.Password,
			cred.DBName)
	case DriverSQLite:
		dsn = cred.SQLitePath
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	// open database
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// check db
	if e2 := db.Ping(); e2 != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	if driver == DriverSQLite {
		// one writer at a time; also keeps a ":memory:" database alive on a single connection
		db.SetMaxOpenConns(1)
		if _, e3 := db.Exec("PRAGMA foreign_keys = ON"); e3 != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", e3)
		}
	} else {
		db.SetMaxOpenConns(100)
		db.SetMaxIdleConns(10)
	}

	log.Info("connected to database", "driver", driver)
	return &Repository{db: db, driver: driver, log: log}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	var (
		driver database.Driver
		err    error
	)
	switch r.driver {
	case DriverSQLite:
		driver, err = sqlite.WithInstance(r.db, &sqlite.Config{})
	default:
		driver, err = postgres.WithInstance(r.db, &postgres.Config{})
	}
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	var m *migrate.Migrate
	if cred.MigrationsDirPath != "" {
		m, err = migrate.NewWithDatabaseInstance(
			fmt.Sprintf("file://%s", cred.MigrationsDirPath),
			r.driver,
			driver,
		)
	} else {
		source, e2 := iofs.New(migrationsFS, "migrations/"+r.driver)
		if e2 != nil {
			return fmt.Errorf("could not open embedded migrations: %w", e2)
		}
		m, err = migrate.NewWithInstance("iofs", source, r.driver, driver)
	}
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping is used by the health endpoint.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn inside a transaction, committing only if fn returns nil.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.log.WarnContext(ctx, "transaction rollback failed", "error", rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
