package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/set-night/gembot/internal/domain"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetCredential(ctx context.Context, userHash string) (string, error) {
	var encrypted string
	err := s.db.QueryRow(ctx,
		`SELECT encrypted_key FROM user_credentials WHERE user_hash = $1`,
		userHash,
	).Scan(&encrypted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrCredentialNotFound
		}
		return "", fmt.Errorf("get credential: %w", err)
	}
	return encrypted, nil
}

func (s *PostgresStore) UpsertCredential(ctx context.Context, userHash, encrypted string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_credentials (user_hash, encrypted_key)
		VALUES ($1, $2)
		ON CONFLICT (user_hash) DO UPDATE
		SET encrypted_key = EXCLUDED.encrypted_key, updated_at = NOW()`,
		userHash, encrypted,
	)
	if err != nil {
		return fmt.Errorf("upsert credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecordUsage(ctx context.Context, userHash, event string, at time.Time) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO usage_events (user_hash, event, created_at) VALUES ($1, $2, $3)`,
		userHash, event, at,
	)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	return nil
}

func (s *PostgresStore) UsageStats(ctx context.Context) (domain.UsageStats, error) {
	var (
		stats  domain.UsageStats
		latest pgtype.Timestamptz
	)
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT user_hash), MAX(created_at)
		FROM usage_events`,
	).Scan(&stats.TotalEvents, &stats.UniqueUsers, &latest)
	if err != nil {
		return domain.UsageStats{}, fmt.Errorf("usage stats: %w", err)
	}
	if latest.Valid {
		t := latest.Time
		stats.LatestAt = &t
	}
	return stats, nil
}

func (s *PostgresStore) Close() {
	s.db.Close()
}
