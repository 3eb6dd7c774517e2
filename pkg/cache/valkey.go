package cache

import (
	"context"
	"time"

	"github.com/edustack/campus-core/internal/models"
)

// ValkeyCache is the shared cache surface used by CAMPUS-CORE: session
// storage for the auth middleware, a read-through cache for the tenant
// directory, and fixed-window counters for rate limiting.
type ValkeyCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// IncrWindow increments a fixed-window counter, setting the window
	// TTL on first increment, and returns the new count.
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)

	GetSession(ctx context.Context, sessionID string) (*models.UserSession, error)
	SetSession(ctx context.Context, session *models.UserSession) error

	HealthCheck(ctx context.Context) error
}
