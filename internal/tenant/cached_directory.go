package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/internal/tracing"
	"github.com/edustack/campus-core/pkg/cache"
)

// CachedDirectory is a read-through cache in front of another Directory.
// Status changes invalidate every lookup key for the tenant so that a
// suspension takes effect on the next resolution, not after TTL expiry.
type CachedDirectory struct {
	inner Directory
	cache cache.ValkeyCache
	ttl   time.Duration
}

func NewCachedDirectory(inner Directory, c cache.ValkeyCache, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{inner: inner, cache: c, ttl: ttl}
}

func (d *CachedDirectory) cacheGet(ctx context.Context, key string) *models.Tenant {
	data, err := d.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var t models.Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		return nil
	}
	return &t
}

func (d *CachedDirectory) cachePut(ctx context.Context, t *models.Tenant) {
	data, err := json.Marshal(t)
	if err != nil {
		return
	}
	for _, key := range d.keysFor(t) {
		// Cache misses are tolerable; cache errors are not worth failing
		// a resolution over.
		_ = d.cache.Set(ctx, key, data, d.ttl)
	}
}

func (d *CachedDirectory) keysFor(t *models.Tenant) []string {
	keys := []string{
		fmt.Sprintf("tenant:id:%s", t.ID),
		fmt.Sprintf("tenant:sub:%s", t.Subdomain),
	}
	for _, domain := range t.Domains {
		keys = append(keys, fmt.Sprintf("tenant:domain:%s", domain))
	}
	return keys
}

func (d *CachedDirectory) lookup(ctx context.Context, key string, miss func() (*models.Tenant, error)) (*models.Tenant, error) {
	tracer := tracing.GetGlobalTracer()
	ctx, span := tracer.StartCacheOperationSpan(ctx, "lookup", key)
	defer span.End()

	start := time.Now()
	if t := d.cacheGet(ctx, key); t != nil {
		tracer.RecordCacheMetrics(span, true, time.Since(start))
		return t, nil
	}
	t, err := miss()
	if err != nil {
		tracer.RecordCacheMetrics(span, false, time.Since(start))
		return nil, err
	}
	d.cachePut(ctx, t)
	tracer.RecordCacheMetrics(span, false, time.Since(start))
	return t, nil
}

func (d *CachedDirectory) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	return d.lookup(ctx, fmt.Sprintf("tenant:id:%s", id), func() (*models.Tenant, error) {
		return d.inner.GetByID(ctx, id)
	})
}

func (d *CachedDirectory) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	return d.lookup(ctx, fmt.Sprintf("tenant:domain:%s", domain), func() (*models.Tenant, error) {
		return d.inner.GetByDomain(ctx, domain)
	})
}

func (d *CachedDirectory) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	return d.lookup(ctx, fmt.Sprintf("tenant:sub:%s", subdomain), func() (*models.Tenant, error) {
		return d.inner.GetBySubdomain(ctx, subdomain)
	})
}

// List always goes to the backing store; the admin listing is rare and
// must not serve stale status.
func (d *CachedDirectory) List(ctx context.Context) ([]*models.Tenant, error) {
	return d.inner.List(ctx)
}

func (d *CachedDirectory) UpdateStatus(ctx context.Context, id string, status models.TenantStatus) error {
	if err := d.inner.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	t, err := d.inner.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTenantNotKnown) {
			return nil
		}
		return err
	}
	for _, key := range d.keysFor(t) {
		_ = d.cache.Delete(ctx, key)
	}
	return nil
}
