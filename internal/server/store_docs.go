package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/playperu/beasthike/internal/game"
)

// currentDocID is the single row holding the live game.
const currentDocID = "current"

// DocStore implements game.Store by keeping the whole game state as one
// JSONB document in the game_state table.
type DocStore struct {
	db *sql.DB
}

func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{db: db}
}

func (s *DocStore) Load(ctx context.Context) (game.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM game_state WHERE id = ?`, currentDocID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return game.State{}, game.ErrNoSavedState
	}
	if err != nil {
		return game.State{}, fmt.Errorf("reading game state: %w", err)
	}

	var st game.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return game.State{}, fmt.Errorf("decoding game state: %w", err)
	}
	return st, nil
}

// Save replaces the stored document in a single statement.
func (s *DocStore) Save(ctx context.Context, st game.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding game state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game_state (id, phase, data, updated_at)
		 VALUES (?, ?, jsonb(?), strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		 ON CONFLICT(id) DO UPDATE SET
		   phase = excluded.phase,
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		currentDocID, string(st.Phase), string(data),
	)
	if err != nil {
		return fmt.Errorf("writing game state: %w", err)
	}
	return nil
}

// Ping lets the health endpoint check the database behind the store.
func (s *DocStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
