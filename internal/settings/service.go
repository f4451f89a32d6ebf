// Package settings persists user-facing configuration, currently the TMDB
// bearer credential, in the SQLite settings table.
package settings

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/filmlink/filmlink/internal/crypto"
)

// Setting keys
const (
	KeyTMDBToken = "tmdb_token"
	keySalt      = "crypto_salt"
)

var (
	ErrNotFound           = errors.New("setting not found")
	ErrPassphraseRequired = errors.New("stored token is encrypted but no passphrase is configured")
)

type Service struct {
	db         *sql.DB
	passphrase string
	logger     zerolog.Logger

	mu    sync.Mutex
	vault *crypto.Vault
}

// NewService creates a settings service. When passphrase is non-empty the
// token is encrypted at rest.
func NewService(db *sql.DB, passphrase string, logger zerolog.Logger) *Service {
	return &Service{
		db:         db,
		passphrase: passphrase,
		logger:     logger.With().Str("component", "settings").Logger(),
	}
}

// Get returns the raw value stored under key.
func (s *Service) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (s *Service) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Service) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete setting %s: %w", key, err)
	}
	return nil
}

// Token returns the stored TMDB credential, or "" when none is stored.
func (s *Service) Token(ctx context.Context) (string, error) {
	value, err := s.Get(ctx, KeyTMDBToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !crypto.IsEncrypted(value) {
		return value, nil
	}

	vault, err := s.getVault(ctx)
	if err != nil {
		return "", err
	}
	return vault.Open(value)
}

// SetToken stores the TMDB credential. An empty token removes it.
func (s *Service) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.Delete(ctx, KeyTMDBToken)
	}

	value := token
	if s.passphrase != "" {
		vault, err := s.getVault(ctx)
		if err != nil {
			return err
		}
		if value, err = vault.Seal(token); err != nil {
			return fmt.Errorf("failed to encrypt token: %w", err)
		}
	}

	if err := s.Set(ctx, KeyTMDBToken, value); err != nil {
		return err
	}
	s.logger.Info().Bool("encrypted", s.passphrase != "").Msg("TMDB token updated")
	return nil
}

// EffectiveToken returns the stored token when present and fallback
// otherwise. A store error is logged and also yields fallback.
func (s *Service) EffectiveToken(ctx context.Context, fallback string) string {
	token, err := s.Token(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to read stored TMDB token, using configured token")
		return fallback
	}
	if token == "" {
		return fallback
	}
	return token
}

func (s *Service) getVault(ctx context.Context) (*crypto.Vault, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.vault != nil {
		return s.vault, nil
	}
	if s.passphrase == "" {
		return nil, ErrPassphraseRequired
	}

	salt, err := s.loadSalt(ctx)
	if err != nil {
		return nil, err
	}

	vault, err := crypto.NewVault(s.passphrase, salt)
	if err != nil {
		return nil, err
	}
	s.vault = vault
	return vault, nil
}

func (s *Service) loadSalt(ctx context.Context) ([]byte, error) {
	encoded, err := s.Get(ctx, keySalt)
	if err == nil {
		salt, decodeErr := base64.StdEncoding.DecodeString(encoded)
		if decodeErr != nil {
			return nil, fmt.Errorf("stored salt is corrupt: %w", decodeErr)
		}
		return salt, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	if err := s.Set(ctx, keySalt, base64.StdEncoding.EncodeToString(salt)); err != nil {
		return nil, err
	}
	return salt, nil
}
