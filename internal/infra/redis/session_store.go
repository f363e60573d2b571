package redis

import (
	"context"
	"sync"
	"time"

	"cogniquiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Shells stay in a local map; Redis only carries a liveness key per session so
// other instances and operators can count live sessions.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	shells map[string]*app.Shell
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    ttl,
		shells: make(map[string]*app.Shell),
	}
}

func (s *SessionStore) Save(shell *app.Shell) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shells[shell.ID()] = shell
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(shell.ID()), string(shell.Phase()), s.ttl).Err()
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
	_ = s.client.Del(context.Background(), s.key(id)).Err()
}

// All returns the local shells and refreshes their liveness keys.
func (s *SessionStore) All() []*app.Shell {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*app.Shell, 0, len(s.shells))
	pipe := s.client.Pipeline()
	for id, shell := range s.shells {
		out = append(out, shell)
		pipe.Set(context.Background(), s.key(id), string(shell.Phase()), s.ttl)
	}
	if len(out) > 0 {
		_, _ = pipe.Exec(context.Background())
	}
	return out
}

func (s *SessionStore) key(id string) string {
	return "cogniquiz:session:" + id
}
