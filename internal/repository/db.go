package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/gembot/internal/domain"
)

// Store persists encrypted user credentials and the usage event log.
// Users are identified only by the hash of their Telegram id.
type Store interface {
	GetCredential(ctx context.Context, userHash string) (string, error)
	UpsertCredential(ctx context.Context, userHash, encrypted string) error
	RecordUsage(ctx context.Context, userHash, event string, at time.Time) error
	UsageStats(ctx context.Context) (domain.UsageStats, error)
	Close()
}

// Dialect is the SQL flavour behind a database URL.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DialectOf picks the dialect from the URL scheme.
func DialectOf(databaseURL string) (Dialect, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database url scheme: %q", schemeOf(databaseURL))
	}
}

func schemeOf(databaseURL string) string {
	if i := strings.Index(databaseURL, "://"); i > 0 {
		return databaseURL[:i]
	}
	return ""
}

// Open runs the migrations for the URL's dialect and returns a ready Store.
// migrationsFS must contain one directory per dialect.
func Open(ctx context.Context, databaseURL string, migrationsFS fs.FS) (Store, error) {
	dialect, err := DialectOf(databaseURL)
	if err != nil {
		return nil, err
	}

	dialectFS, err := fs.Sub(migrationsFS, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("load %s migrations: %w", dialect, err)
	}
	if err := RunMigrations(databaseURL, dialectFS); err != nil {
		return nil, err
	}

	switch dialect {
	case DialectPostgres:
		pool, err := NewPool(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pool), nil
	default:
		return NewSQLiteStore(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	}
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func RunMigrations(databaseURL string, migrationsFS fs.FS) error {
	d, err := iofs.New(migrationsFS, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("migrations applied", "version", version, "dirty", dirty)
	return nil
}
