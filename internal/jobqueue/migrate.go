package jobqueue

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"bqm/config"

	"github.com/golang-migrate/migrate/v4"
	mgpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// MigrationConfig drives the schema migrations River's tables (and any
// bqm-owned tables) need before the durable queue starts.
type MigrationConfig struct {
	DatabaseConfig config.DatabaseConfig
	MigrationsDir  string // relative to the process working directory
}

// NewMigrationConfig returns a MigrationConfig with the default
// migrations directory.
func NewMigrationConfig(dbConfig config.DatabaseConfig) *MigrationConfig {
	return &MigrationConfig{
		DatabaseConfig: dbConfig,
		MigrationsDir:  "migrations",
	}
}

func (m *MigrationConfig) buildURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s&search_path=public",
		m.DatabaseConfig.User,
		m.DatabaseConfig.Password,
		m.DatabaseConfig.Host,
		m.DatabaseConfig.Port,
		m.DatabaseConfig.DBName,
		m.DatabaseConfig.SSL,
	)
}

// RunMigrations applies every pending "up" migration from MigrationsDir,
// including the River schema shipped in migrations/0001_river_schema.up.sql.
func (m *MigrationConfig) RunMigrations(ctx context.Context) error {
	migrationsPath, err := filepath.Abs(m.MigrationsDir)
	if err != nil {
		return fmt.Errorf("jobqueue: resolve migrations path: %w", err)
	}
	if err := os.MkdirAll(migrationsPath, 0o755); err != nil {
		return fmt.Errorf("jobqueue: create migrations dir: %w", err)
	}

	sourceURL := fmt.Sprintf("file://%s", migrationsPath)
	dbURL := m.buildURL()

	sqlDB, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("jobqueue: open db: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("jobqueue: ping db: %w", err)
	}

	driver, err := mgpg.WithInstance(sqlDB, &mgpg.Config{})
	if err != nil {
		return fmt.Errorf("jobqueue: postgres driver instance: %w", err)
	}

	migrator, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("jobqueue: init migrator: %w", err)
	}
	defer func() {
		if _, err := migrator.Close(); err != nil && !strings.Contains(err.Error(), "no such file or directory") {
			log.Printf("jobqueue: migration close warning: %v", err)
		}
	}()

	upErr := migrator.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return fmt.Errorf("jobqueue: migrate up: %w", upErr)
	}
	if upErr == migrate.ErrNoChange {
		log.Printf("jobqueue: schema already up to date")
	} else {
		log.Printf("jobqueue: migrations applied")
	}
	return nil
}

// Connect opens a pooled connection to the database described by cfg,
// verifying it with a ping before returning.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSL)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("jobqueue: create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("jobqueue: ping db: %w", err)
	}
	return pool, nil
}
