package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/set-night/gembot/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps timestamps as unix milliseconds.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pool connections.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetCredential(ctx context.Context, userHash string) (string, error) {
	var encrypted string
	err := s.db.QueryRowContext(ctx,
		`SELECT encrypted_key FROM user_credentials WHERE user_hash = ?`,
		userHash,
	).Scan(&encrypted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrCredentialNotFound
		}
		return "", fmt.Errorf("get credential: %w", err)
	}
	return encrypted, nil
}

func (s *SQLiteStore) UpsertCredential(ctx context.Context, userHash, encrypted string) error {
	now := time.Now().UnixMilli()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_credentials (user_hash, encrypted_key, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_hash) DO UPDATE
		SET encrypted_key = excluded.encrypted_key, updated_at = excluded.updated_at`,
		userHash, encrypted, now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordUsage(ctx context.Context, userHash, event string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_events (user_hash, event, created_at) VALUES (?, ?, ?)`,
		userHash, event, at.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UsageStats(ctx context.Context) (domain.UsageStats, error) {
	var (
		stats  domain.UsageStats
		latest sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT user_hash), MAX(created_at)
		FROM usage_events`,
	).Scan(&stats.TotalEvents, &stats.UniqueUsers, &latest)
	if err != nil {
		return domain.UsageStats{}, fmt.Errorf("usage stats: %w", err)
	}
	if latest.Valid {
		t := time.UnixMilli(latest.Int64)
		stats.LatestAt = &t
	}
	return stats, nil
}

func (s *SQLiteStore) Close() {
	if err := s.db.Close(); err != nil {
		slog.Error("close sqlite", "error", err)
	}
}
