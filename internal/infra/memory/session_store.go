package memory

import (
	"sync"

	"cogniquiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu     sync.RWMutex
	shells map[string]*app.Shell
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		shells: make(map[string]*app.Shell),
	}
}

func (s *SessionStore) Save(shell *app.Shell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shells[shell.ID()] = shell
}

func (s *SessionStore) Get(id string) (*app.Shell, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	shell, ok := s.shells[id]
	return shell, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.shells, id)
}

func (s *SessionStore) All() []*app.Shell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Shell, 0, len(s.shells))
	for _, shell := range s.shells {
		out = append(out, shell)
	}
	return out
}
