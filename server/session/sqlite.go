package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"
)

// SQLiteStore persists conversation state in SQLite so sessions survive
// restarts. State is stored as one JSON blob per user.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed initializes) a SQLite-backed store at
// the given DSN.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS conversation_state (
			user_id    TEXT PRIMARY KEY,
			state_data BLOB NOT NULL,
			updated_ts INTEGER NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load loads the state for userID, or (nil, nil) for a new user.
func (s *SQLiteStore) Load(ctx context.Context, userID string) (*ConversationState, error) {
	const query = `SELECT state_data FROM conversation_state WHERE user_id = ?`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var state ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// Save upserts the state for userID. The caller's struct is not touched; the
// update timestamp is stamped on a clone.
func (s *SQLiteStore) Save(ctx context.Context, userID string, state *ConversationState) error {
	now := time.Now().Unix()
	clone := state.Clone()
	clone.UpdatedAt = now

	data, err := json.Marshal(clone)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	const query = `
		INSERT INTO conversation_state (user_id, state_data, updated_ts)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id)
		DO UPDATE SET
			state_data = excluded.state_data,
			updated_ts = excluded.updated_ts
	`
	if _, err := s.db.ExecContext(ctx, query, userID, data, now); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

// Delete removes the state for userID. Deleting an absent user is not an
// error.
func (s *SQLiteStore) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM conversation_state WHERE user_id = ?`

	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// CleanupExpired removes states untouched for more than retentionDays.
func (s *SQLiteStore) CleanupExpired(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()

	const query = `DELETE FROM conversation_state WHERE updated_ts < ?`

	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired states: %w", err)
	}
	return result.RowsAffected()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
