// Package preferences persists per-client key/value settings in SQLite.
package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ziadkadry99/skapsec/internal/db"
	"github.com/ziadkadry99/skapsec/internal/theme"
)

// Store provides per-client preference storage.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Get returns the stored value for clientID/key and whether it exists.
func (s *Store) Get(ctx context.Context, clientID, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE client_id = ? AND key = ?`, clientID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading preference %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a value for clientID/key.
func (s *Store) Set(ctx context.Context, clientID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (client_id, key, value) VALUES (?, ?, ?)
		ON CONFLICT(client_id, key) DO UPDATE SET value = excluded.value, updated_at = datetime('now')`,
		clientID, key, value)
	if err != nil {
		return fmt.Errorf("writing preference %s: %w", key, err)
	}
	return nil
}

// ForClient scopes the store to one client so it satisfies theme.Storage.
func (s *Store) ForClient(clientID string) theme.Storage {
	return clientStore{store: s, clientID: clientID}
}

type clientStore struct {
	store    *Store
	clientID string
}

func (c clientStore) Get(ctx context.Context, key string) (string, bool, error) {
	return c.store.Get(ctx, c.clientID, key)
}

func (c clientStore) Set(ctx context.Context, key, value string) error {
	return c.store.Set(ctx, c.clientID, key, value)
}
