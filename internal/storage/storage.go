// ABOUTME: Durable key/value storage interface for client state that survives restarts
// ABOUTME: Provides the token accessor used by the request layer and session store

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/2389/sgu-admin/internal/config"
)

// ErrNotFound is returned when a key has no stored value
var ErrNotFound = errors.New("not found")

// TokenKey is the storage key holding the bearer token.
const TokenKey = "admin_token"

// Store is a small durable key/value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the Store selected by cfg.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return NewFileStore(cfg.Path)
	case config.DriverSQLite:
		path := cfg.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "state.db")
		}
		return NewSQLiteStore(path)
	case config.DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// TokenStore reads and writes the bearer token in a Store.
// An SGU_TOKEN environment variable takes precedence over the stored value.
type TokenStore struct {
	store Store
	env   func(string) string
}

// NewTokenStore wraps store.
func NewTokenStore(store Store) *TokenStore {
	return &TokenStore{store: store, env: os.Getenv}
}

// Token returns the current token, or "" when none is stored.
func (t *TokenStore) Token() (string, error) {
	if token := strings.TrimSpace(t.env("SGU_TOKEN")); token != "" {
		return token, nil
	}
	token, err := t.store.Get(context.Background(), TokenKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return token, nil
}

// FromEnv reports whether SGU_TOKEN is supplying the token. ClearToken
// cannot remove it.
func (t *TokenStore) FromEnv() bool {
	return strings.TrimSpace(t.env("SGU_TOKEN")) != ""
}

// SetToken persists token.
func (t *TokenStore) SetToken(token string) error {
	if err := t.store.Set(context.Background(), TokenKey, token); err != nil {
		return fmt.Errorf("writing token: %w", err)
	}
	return nil
}

// ClearToken removes the persisted token. Clearing an absent token is not an error.
func (t *TokenStore) ClearToken() error {
	err := t.store.Delete(context.Background(), TokenKey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("clearing token: %w", err)
	}
	return nil
}
