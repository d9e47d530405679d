package mcp

import (
	"sync"

	"github.com/google/uuid"
)

// SessionManager maps MCP session IDs to the user ID that created them.
// Grounded on the teacher's own mutex-guarded-map idiom (formerly
// internal/cache's generic Cache[K,V]), re-typed to this narrower shape
// rather than kept generic.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]string
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]string)}
}

func (m *SessionManager) Create(userID string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	sessionID := id.String()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = userID
	return sessionID
}

func (m *SessionManager) UserID(sessionID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	userID, ok := m.sessions[sessionID]
	return userID, ok
}

func (m *SessionManager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}
