// Package history records the outcomes each client received so each one
// can be exported from the page that showed it.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/skapsec/internal/db"
)

// ErrNotFound is returned when a client has no recorded outcome.
var ErrNotFound = errors.New("no recorded result")

// Kind distinguishes single analyses from comparisons.
type Kind string

const (
	KindAnalyze Kind = "analyze"
	KindCompare Kind = "compare"
)

// Entry is one recorded response body.
type Entry struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"client_id"`
	Kind        Kind            `json:"kind"`
	CompanyName string          `json:"company_name"`
	Symbol      string          `json:"symbol"`
	IsError     bool            `json:"is_error"`
	Body        json.RawMessage `json:"body"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Store provides access to recorded results.
type Store struct {
	db    *db.DB
	limit int
}

// NewStore creates a Store keeping at most limit entries per client.
func NewStore(database *db.DB, limit int) *Store {
	if limit < 1 {
		limit = 1
	}
	return &Store{db: database, limit: limit}
}

// Record inserts an entry and prunes the client's oldest entries beyond the
// configured limit. If entry.ID is empty a UUID is generated.
func (s *Store) Record(ctx context.Context, entry Entry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if len(entry.Body) == 0 {
		return "", fmt.Errorf("recording result: empty body")
	}

	isErr := 0
	if entry.IsError {
		isErr = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO results (id, client_id, kind, company_name, symbol, is_error, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ClientID, string(entry.Kind), entry.CompanyName, entry.Symbol, isErr, string(entry.Body))
	if err != nil {
		return "", fmt.Errorf("inserting result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM results WHERE client_id = ? AND id NOT IN (
			SELECT id FROM results WHERE client_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, entry.ClientID, entry.ClientID, s.limit)
	if err != nil {
		return "", fmt.Errorf("pruning results: %w", err)
	}
	return entry.ID, nil
}

// Get returns one entry by ID. Entries recorded for another client are
// reported as ErrNotFound.
func (s *Store) Get(ctx context.Context, clientID, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, kind, company_name, symbol, is_error, body, created_at
		FROM results WHERE id = ? AND client_id = ?`, id, clientID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var (
		e       Entry
		kind    string
		isErr   int
		body    string
		created string
	)
	if err := sc.Scan(&e.ID, &e.ClientID, &kind, &e.CompanyName, &e.Symbol, &isErr, &body, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning result: %w", err)
	}
	e.Kind = Kind(kind)
	e.IsError = isErr != 0
	e.Body = json.RawMessage(body)
	e.CreatedAt = parseTimestamp(created)
	return &e, nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05.000", time.DateTime, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
