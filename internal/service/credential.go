package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/set-night/gembot/internal/domain"
	"github.com/set-night/gembot/internal/repository"
)

// KeyValidator checks a candidate credential against the generative backend.
// An error means the check itself failed and the result is unknown.
type KeyValidator interface {
	Validate(ctx context.Context, credential string) (bool, error)
}

// CredentialService stores per-user API credentials encrypted at rest and
// validates candidates with a cached backend probe.
type CredentialService struct {
	store     repository.Store
	cipher    *Cipher
	validator KeyValidator
	cache     *ValidationCache
	now       func() time.Time
}

func NewCredentialService(store repository.Store, cipher *Cipher, validator KeyValidator, cache *ValidationCache) *CredentialService {
	return &CredentialService{
		store:     store,
		cipher:    cipher,
		validator: validator,
		cache:     cache,
		now:       time.Now,
	}
}

// Get returns the decrypted credential of a user, or domain.ErrCredentialNotFound.
func (s *CredentialService) Get(ctx context.Context, userID int64) (string, error) {
	encrypted, err := s.store.GetCredential(ctx, HashUserID(userID))
	if err != nil {
		return "", err
	}
	credential, err := s.cipher.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypt credential: %w", err)
	}
	return credential, nil
}

func (s *CredentialService) Has(ctx context.Context, userID int64) (bool, error) {
	_, err := s.store.GetCredential(ctx, HashUserID(userID))
	if errors.Is(err, domain.ErrCredentialNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *CredentialService) Save(ctx context.Context, userID int64, credential string) error {
	encrypted, err := s.cipher.Encrypt(credential)
	if err != nil {
		return fmt.Errorf("encrypt credential: %w", err)
	}
	userHash := HashUserID(userID)
	if err := s.store.UpsertCredential(ctx, userHash, encrypted); err != nil {
		return err
	}
	if err := s.store.RecordUsage(ctx, userHash, domain.EventCredentialSet, s.now()); err != nil {
		slog.Warn("record credential usage", "error", err)
	}
	return nil
}

// Validate asks the backend at most once per TTL for the same candidate.
// Failed checks are returned as errors and not cached.
func (s *CredentialService) Validate(ctx context.Context, candidate string) (bool, error) {
	key := hashString(candidate)
	if valid, ok := s.cache.Get(key); ok {
		return valid, nil
	}

	valid, err := s.validator.Validate(ctx, candidate)
	if err != nil {
		return false, fmt.Errorf("validate credential: %w", err)
	}
	s.cache.Set(key, valid)
	return valid, nil
}

func (s *CredentialService) RecordStart(ctx context.Context, userID int64) error {
	return s.store.RecordUsage(ctx, HashUserID(userID), domain.EventStart, s.now())
}

func (s *CredentialService) Stats(ctx context.Context) (domain.UsageStats, error) {
	return s.store.UsageStats(ctx)
}
