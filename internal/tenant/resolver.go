package tenant

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/internal/monitoring"
	"github.com/edustack/campus-core/internal/tracing"
	"github.com/edustack/campus-core/pkg/logger"
)

// Resolution errors. All of them are terminal for the request; none of
// them ever falls back to an allow.
var (
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrTenantSuspended   = errors.New("tenant suspended")
	ErrResolutionTimeout = errors.New("tenant resolution timeout")
	// ErrNoTenantIndicated means the request named no tenant at all
	// (bare base domain, no trusted header). Distinct from a failed
	// lookup: the context builder turns it into MissingTenantContext.
	ErrNoTenantIndicated = errors.New("no tenant indicated")
)

// Resolver maps an inbound request host (custom domain or subdomain) or
// an explicit internal-only header to exactly one tenant. Resolution is a
// pure lookup against the directory; for one directory state the same
// host always yields the same tenant.
type Resolver struct {
	directory  Directory
	baseDomain string
	timeout    time.Duration
	logger     logger.Logger
}

func NewResolver(directory Directory, baseDomain string, timeout time.Duration, log logger.Logger) *Resolver {
	return &Resolver{
		directory:  directory,
		baseDomain: strings.ToLower(baseDomain),
		timeout:    timeout,
		logger:     log,
	}
}

// Resolve resolves the tenant for a request. The explicit header value is
// honored only when internalCaller is true; spoofed headers from the
// public edge are ignored rather than rejected, so the request is scoped
// by its host like any other.
//
// Resolution order: trusted explicit header, custom domain, subdomain.
func (r *Resolver) Resolve(ctx context.Context, host, explicitTenantID string, internalCaller bool) (*models.Tenant, error) {
	tracer := tracing.GetGlobalTracer()
	source := "host"
	if explicitTenantID != "" && internalCaller {
		source = "header"
	}
	ctx, span := tracer.StartResolutionSpan(ctx, host, source)
	defer span.End()

	t, err := r.resolve(ctx, host, explicitTenantID, internalCaller)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	tracer.RecordResolvedTenant(span, t.ID)
	return t, nil
}

func (r *Resolver) resolve(ctx context.Context, host, explicitTenantID string, internalCaller bool) (*models.Tenant, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if explicitTenantID != "" && internalCaller {
		t, err := r.directory.GetByID(ctx, explicitTenantID)
		return r.finish(t, err, "header")
	}

	hostname := normalizeHost(host)
	if hostname == "" {
		monitoring.RecordTenantResolution("none", "not_found")
		return nil, ErrNoTenantIndicated
	}

	t, err := r.directory.GetByDomain(ctx, hostname)
	if err == nil || !errors.Is(err, ErrTenantNotKnown) {
		return r.finish(t, err, "domain")
	}

	sub, ok := r.subdomainOf(hostname)
	if !ok {
		monitoring.RecordTenantResolution("domain", "not_found")
		return nil, ErrTenantNotFound
	}
	if sub == "" || sub == "www" || sub == "api" {
		// The bare platform domain names no tenant. Super admins must
		// still declare a target tenant explicitly.
		monitoring.RecordTenantResolution("subdomain", "not_found")
		return nil, ErrNoTenantIndicated
	}

	t, err = r.directory.GetBySubdomain(ctx, sub)
	return r.finish(t, err, "subdomain")
}

func (r *Resolver) finish(t *models.Tenant, err error, source string) (*models.Tenant, error) {
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			monitoring.RecordTenantResolution(source, "timeout")
			return nil, ErrResolutionTimeout
		case errors.Is(err, ErrTenantNotKnown):
			monitoring.RecordTenantResolution(source, "not_found")
			return nil, ErrTenantNotFound
		default:
			r.logger.Error("Tenant directory lookup failed", "source", source, "error", err)
			monitoring.RecordTenantResolution(source, "error")
			return nil, err
		}
	}

	if !t.Active() {
		monitoring.RecordTenantResolution(source, "suspended")
		return nil, ErrTenantSuspended
	}

	monitoring.RecordTenantResolution(source, "success")
	return t, nil
}

// subdomainOf returns the single label in front of the base domain, or
// ok=false when the host is unrelated to the platform domain.
func (r *Resolver) subdomainOf(hostname string) (string, bool) {
	if hostname == r.baseDomain {
		return "", true
	}
	suffix := "." + r.baseDomain
	if !strings.HasSuffix(hostname, suffix) {
		return "", false
	}
	label := strings.TrimSuffix(hostname, suffix)
	if strings.Contains(label, ".") {
		// Nested labels do not resolve; one level only.
		return "", false
	}
	return label, true
}

func normalizeHost(host string) string {
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}
