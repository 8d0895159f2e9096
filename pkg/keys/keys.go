// Package keys issues and validates the API keys that guard dataset writes.
package keys

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/corpus/pkg/mirror"
)

const (
	// KeyPrefix identifies corpus API keys.
	KeyPrefix = "corpus_"
	// KeyLength is the number of random bytes per key (32 bytes = 256 bits).
	KeyLength = 32

	cacheSize = 1024
	cacheTTL  = 30 * time.Second
)

// Registry manages API keys in the shared service database. Validation
// results sit in a small expiring cache so the hot request path usually
// skips the query; DeactivateKey drops the cached entry, which keeps
// revocation immediate within the process. Shared-database deployments see
// a revoked key die out within the cache TTL.
type Registry struct {
	db      *sql.DB
	dialect mirror.Dialect
	cache   *lru.LRU[string, bool]
}

// NewRegistry creates a key registry over an open service database.
func NewRegistry(db *sql.DB, dialect mirror.Dialect) *Registry {
	return &Registry{
		db:      db,
		dialect: dialect,
		cache:   lru.NewLRU[string, bool](cacheSize, nil, cacheTTL),
	}
}

// GenerateKey returns a new random key of the form
// corpus_<base64url(32 random bytes)>.
func GenerateKey() (string, error) {
	randomBytes := make([]byte, KeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(randomBytes), nil
}

// CreateKey issues a new active key. The key material is returned exactly
// once; hand it to the caller and forget it.
func (r *Registry) CreateKey(ctx context.Context, label string, quota *int64) (string, error) {
	key, err := GenerateKey()
	if err != nil {
		return "", err
	}

	query := r.dialect.Rebind(`
		INSERT INTO api_keys (key, label, created_at, active, quota)
		VALUES (?, ?, ?, 1, ?)`)
	createdAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.ExecContext(ctx, query, key, label, createdAt, quota); err != nil {
		return "", fmt.Errorf("failed to store api key: %w", err)
	}
	return key, nil
}

// ValidateKey reports whether key exists and is active. An empty key is
// invalid without a lookup; an unknown key is invalid, not an error.
func (r *Registry) ValidateKey(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	if active, ok := r.cache.Get(key); ok {
		return active, nil
	}

	var active sql.NullInt64
	query := r.dialect.Rebind("SELECT active FROM api_keys WHERE key = ?")
	err := r.db.QueryRowContext(ctx, query, key).Scan(&active)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		r.cache.Add(key, false)
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to look up api key: %w", err)
	}

	valid := active.Valid && active.Int64 == 1
	r.cache.Add(key, valid)
	return valid, nil
}

// DeactivateKey marks key inactive. Deactivating a missing or already
// inactive key is a no-op.
func (r *Registry) DeactivateKey(ctx context.Context, key string) error {
	query := r.dialect.Rebind("UPDATE api_keys SET active = 0 WHERE key = ?")
	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to deactivate api key: %w", err)
	}
	r.cache.Remove(key)
	return nil
}
