// Package sqlstore implements the repositories on a relational database.
// PostgreSQL is the production target; SQLite runs the same schema for local use and tests.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"alcyxob/fitness-log/internal/repository"
)

// Supported values of database.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const connectTimeout = 10 * time.Second

//go:embed migrations
var migrationsFS embed.FS

// sqlDriverName maps our driver names onto registered database/sql drivers.
func sqlDriverName(driver string) (string, error) {
	switch driver {
	case DriverPostgres:
		return "pgx", nil
	case DriverSQLite:
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
}

// Open migrates the schema to the latest version and returns a connection pool.
func Open(ctx context.Context, driver, dsn string, log *logrus.Logger) (*sqlx.DB, error) {
	name, err := sqlDriverName(driver)
	if err != nil {
		return nil, err
	}
	if err := Migrate(driver, dsn, log); err != nil {
		return nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	db, err := sqlx.ConnectContext(connectCtx, name, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer; serialising in the pool avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetConnMaxIdleTime(10 * time.Minute)
		db.SetConnMaxLifetime(30 * time.Minute)
	}
	return db, nil
}

// NewStore wires the SQL repositories around db.
func NewStore(db *sqlx.DB) *repository.Store {
	return &repository.Store{
		Members:   NewMemberRepository(db),
		Exercises: NewExerciseRepository(db),
		Workouts:  NewWorkoutRepository(db),
		Close: func(context.Context) error {
			return db.Close()
		},
	}
}

// Migrate applies all pending up-migrations for driver using its own short-lived connection.
func Migrate(driver, dsn string, log *logrus.Logger) error {
	name, err := sqlDriverName(driver)
	if err != nil {
		return err
	}
	conn, err := sql.Open(name, dsn)
	if err != nil {
		return fmt.Errorf("sqlstore: open for migration: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		conn.Close()
		return fmt.Errorf("sqlstore: migration source: %w", err)
	}

	var m *migrate.Migrate
	switch driver {
	case DriverPostgres:
		drv, derr := migratepgx.WithInstance(conn, &migratepgx.Config{})
		if derr != nil {
			conn.Close()
			return fmt.Errorf("sqlstore: migration driver: %w", derr)
		}
		m, err = migrate.NewWithInstance("iofs", src, "pgx5", drv)
	case DriverSQLite:
		drv, derr := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
		if derr != nil {
			conn.Close()
			return fmt.Errorf("sqlstore: migration driver: %w", derr)
		}
		m, err = migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("sqlstore: create migrator: %w", err)
	}
	if log != nil {
		m.Log = &migrateLogger{log: log}
	}
	// Closing the migrator closes conn as well.
	defer func() {
		if srcErr, dbErr := m.Close(); (srcErr != nil || dbErr != nil) && log != nil {
			log.WithFields(logrus.Fields{"source_error": srcErr, "db_error": dbErr}).Warn("closing migrator")
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlstore: migrate up: %w", err)
	}
	return nil
}

type migrateLogger struct {
	log *logrus.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Infof("migrate: "+format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }
