// Package history persists conversation turns and serves the sliding window
// the orchestrator feeds into prompts. Only the most recent turns are ever
// read back; older turns stay in storage but never re-enter a prompt.
package history

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/lmsbot/internal/db"
	"github.com/ziadkadry99/lmsbot/internal/llm"
)

// Store records and reads conversation turns.
type Store struct {
	db *db.DB
}

// NewStore creates a history store on the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// AddTurn appends one turn to a conversation.
func (s *Store) AddTurn(ctx context.Context, conversationID string, role llm.Role, content string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_messages (conversation_id, role, content) VALUES (?, ?, ?)`,
		conversationID, string(role), content)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}
	return nil
}

// Window returns the most recent limit turns of a conversation in
// chronological order.
func (s *Store) Window(ctx context.Context, conversationID string, limit int) ([]llm.Message, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM conversation_messages
		 WHERE conversation_id = ?
		 ORDER BY id DESC LIMIT ?`,
		conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying window: %w", err)
	}
	defer rows.Close()

	var reversed []llm.Message
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		reversed = append(reversed, llm.Message{Role: llm.Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Rows arrive newest-first; flip to chronological order.
	window := make([]llm.Message, len(reversed))
	for i, msg := range reversed {
		window[len(reversed)-1-i] = msg
	}
	return window, nil
}

// Clear removes every turn of a conversation.
func (s *Store) Clear(ctx context.Context, conversationID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM conversation_messages WHERE conversation_id = ?`, conversationID)
	return err
}
