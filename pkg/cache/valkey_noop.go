package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edustack/campus-core/internal/models"
)

// noopValkeyCache is an in-memory stand-in used when no Valkey node is
// configured (local development, unit tests). It keeps sessions and
// counters in process memory and ignores TTLs beyond expiry bookkeeping.
type noopValkeyCache struct {
	mu       sync.RWMutex
	values   map[string][]byte
	counters map[string]int64
	sessions map[string]*models.UserSession
}

func NewNoopValkeyCache() ValkeyCache {
	return &noopValkeyCache{
		values:   make(map[string][]byte),
		counters: make(map[string]int64),
		sessions: make(map[string]*models.UserSession),
	}
}

func (n *noopValkeyCache) Get(ctx context.Context, key string) ([]byte, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if v, ok := n.values[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("key not found: %s", key)
}

func (n *noopValkeyCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	switch x := value.(type) {
	case []byte:
		n.values[key] = x
	case string:
		n.values[key] = []byte(x)
	default:
		// Sessions and structured values go through SetSession; plain
		// Set only handles raw payloads here.
		n.values[key] = []byte(fmt.Sprintf("%v", x))
	}
	return nil
}

func (n *noopValkeyCache) Delete(ctx context.Context, key string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.values, key)
	return nil
}

func (n *noopValkeyCache) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.counters[key]++
	return n.counters[key], nil
}

func (n *noopValkeyCache) GetSession(ctx context.Context, sessionID string) (*models.UserSession, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if s, ok := n.sessions[sessionID]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, fmt.Errorf("session not found: %s", sessionID)
}

func (n *noopValkeyCache) SetSession(ctx context.Context, session *models.UserSession) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	copy := *session
	copy.LastActivity = time.Now()
	n.sessions[session.ID] = &copy
	return nil
}

func (n *noopValkeyCache) HealthCheck(ctx context.Context) error {
	return nil
}
