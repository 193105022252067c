package rehearsal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Session ties a saved progress state to a curriculum.
type Session struct {
	ID           string        `json:"id"`
	CurriculumID string        `json:"curriculum_id"`
	State        ProgressState `json:"state"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ProgressStore persists rehearsal session state across restarts.
type ProgressStore interface {
	Save(ctx context.Context, session Session) error
	Load(ctx context.Context, sessionID string) (*Session, error)
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is an in-memory implementation of ProgressStore.
type MemoryStore struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

func (s *MemoryStore) Save(_ context.Context, session Session) error {
	if session.ID == "" {
		return fmt.Errorf("session id is required")
	}
	session.UpdatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := session
	s.sessions[session.ID] = &stored
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	copied := *session
	return &copied, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	delete(s.sessions, sessionID)
	return nil
}
