package h5p

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ziadkadry99/lmsbot/internal/db"
)

// SessionStore holds active content sessions keyed by conversation ID.
// Sessions expire after the TTL, which is how abandoned flows get cleaned
// up. Concurrent writes to the same conversation are last-write-wins; that
// is the accepted policy, not an oversight.
type SessionStore struct {
	cache *gocache.Cache
}

// NewSessionStore creates a session store whose sessions expire after ttl
// of inactivity.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{cache: gocache.New(ttl, 10*time.Minute)}
}

// Get returns a private copy of the active session for a conversation, if
// any. Callers mutate the copy and Save it back; the stored state only
// changes on Save, which is what makes last-write-wins hold.
func (s *SessionStore) Get(conversationID string) (*Session, bool) {
	if v, ok := s.cache.Get(conversationID); ok {
		sess := v.(Session)
		return &sess, true
	}
	return nil, false
}

// Save stores a copy of the session and refreshes its TTL.
func (s *SessionStore) Save(sess *Session) {
	s.cache.Set(sess.ID, *sess, gocache.DefaultExpiration)
}

// Delete destroys the session for a conversation.
func (s *SessionStore) Delete(conversationID string) {
	s.cache.Delete(conversationID)
}

// Len returns the number of active sessions.
func (s *SessionStore) Len() int {
	return s.cache.ItemCount()
}

// ErrContentNotFound is returned when a content ID has no stored row.
var ErrContentNotFound = errors.New("generated content not found")

// ContentStore persists generated content.
type ContentStore struct {
	db *db.DB
}

// NewContentStore creates a content store on the given database.
func NewContentStore(database *db.DB) *ContentStore {
	return &ContentStore{db: database}
}

// Save inserts a generated-content record.
func (s *ContentStore) Save(ctx context.Context, rec ContentRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generated_content (id, conversation_id, course, content_type, topic, name, description, body)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ConversationID, rec.Course, rec.ContentType, rec.Topic, rec.Name, rec.Description, rec.Body)
	if err != nil {
		return fmt.Errorf("inserting generated content: %w", err)
	}
	return nil
}

// Get fetches a generated-content record by ID.
func (s *ContentStore) Get(ctx context.Context, id string) (*ContentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, conversation_id, course, content_type, topic, name, description, body, created_at
		 FROM generated_content WHERE id = ?`, id)

	var rec ContentRecord
	err := row.Scan(&rec.ID, &rec.ConversationID, &rec.Course, &rec.ContentType,
		&rec.Topic, &rec.Name, &rec.Description, &rec.Body, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading generated content: %w", err)
	}
	return &rec, nil
}
