package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edustack/campus-core/internal/access"
	"github.com/edustack/campus-core/internal/audit"
	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/internal/monitoring"
	"github.com/edustack/campus-core/internal/tracing"
	"github.com/edustack/campus-core/pkg/logger"
)

var (
	// ErrConflictingTenantFilter means the caller supplied a tenant
	// filter that disagrees with the request context. The query fails
	// closed; the conflicting value is never merged or preferred.
	ErrConflictingTenantFilter = errors.New("conflicting tenant filter")
	// ErrGatewayTimeout means the store call exceeded its deadline.
	ErrGatewayTimeout = errors.New("data gateway timeout")
	// ErrRowNotFound covers both truly absent rows and rows owned by
	// another tenant; callers cannot distinguish the two.
	ErrRowNotFound = errors.New("row not found")
)

// DeniedError carries a policy denial out of the gateway.
type DeniedError struct {
	Decision models.PolicyDecision
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Decision.Reason)
}

// tenantFilterKey is the reserved filter the gateway owns. Callers may
// send it only when it matches their context tenant.
const tenantFilterKey = "tenant_id"

// Config tunes the gateway.
type Config struct {
	MaxPageSize     int
	DefaultPageSize int
	QueryTimeout    time.Duration
}

// Gateway is the sole path to the data store. Every query it dispatches
// carries a tenant filter equal to the request context tenant, injected
// here rather than trusted from the caller. The tenant check runs both
// here and in the policy engine; both layers have to fail before tenant
// data can leak.
type Gateway struct {
	engine *access.Engine
	audit  *audit.Service
	store  Store
	cfg    Config
	logger logger.Logger
}

func New(engine *access.Engine, auditSvc *audit.Service, store Store, cfg Config, log logger.Logger) *Gateway {
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 200
	}
	if cfg.DefaultPageSize <= 0 || cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 5 * time.Second
	}
	return &Gateway{
		engine: engine,
		audit:  auditSvc,
		store:  store,
		cfg:    cfg,
		logger: log,
	}
}

// Query runs a tenant-scoped read. The result set is always bounded:
// a missing limit gets the default page size, an oversized one is
// clamped to the maximum.
func (g *Gateway) Query(ctx context.Context, rc *access.RequestContext, qd models.QueryDescriptor) ([]map[string]interface{}, error) {
	tracer := tracing.GetGlobalTracer()
	ctx, span := tracer.StartGatewaySpan(ctx, "select", string(qd.Kind))
	defer span.End()

	res := g.descriptorFor(rc, qd)

	if err := g.screen(ctx, rc, res, models.ActionRead, qd.Filters); err != nil {
		return nil, err
	}
	if denied := g.authorize(ctx, rc, res, models.ActionRead); denied != nil {
		return nil, denied
	}

	filters := g.scopedFilters(rc, qd.Filters)
	limit := g.boundedLimit(qd.Limit)
	offset := qd.Offset
	if offset < 0 {
		offset = 0
	}

	start := time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, g.cfg.QueryTimeout)
	defer cancel()

	rows, err := g.store.Select(storeCtx, qd.Kind, filters, limit, offset)
	elapsed := time.Since(start)
	monitoring.RecordGatewayOperation("select", string(qd.Kind), elapsed, err == nil)
	tracer.RecordGatewayMetrics(span, elapsed, int64(len(rows)), err == nil)
	if err != nil {
		return nil, g.storeErr(err)
	}
	return rows, nil
}

// Insert writes one row, stamping the context tenant over any caller
// claim. A caller-supplied conflicting tenant id fails closed first.
func (g *Gateway) Insert(ctx context.Context, rc *access.RequestContext, kind models.ResourceKind, row map[string]interface{}) (string, error) {
	tracer := tracing.GetGlobalTracer()
	ctx, span := tracer.StartGatewaySpan(ctx, "insert", string(kind))
	defer span.End()

	res := models.ResourceDescriptor{TenantID: g.claimedTenant(rc, rowTenant(row)), Kind: kind}

	if err := g.screen(ctx, rc, res, models.ActionWrite, identifierValues(row)...); err != nil {
		return "", err
	}
	if denied := g.authorize(ctx, rc, res, models.ActionWrite); denied != nil {
		return "", denied
	}

	scoped := make(map[string]interface{}, len(row)+1)
	for k, v := range row {
		scoped[k] = v
	}
	scoped[tenantFilterKey] = rc.Tenant().ID

	start := time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, g.cfg.QueryTimeout)
	defer cancel()

	id, err := g.store.Insert(storeCtx, kind, scoped)
	elapsed := time.Since(start)
	monitoring.RecordGatewayOperation("insert", string(kind), elapsed, err == nil)
	tracer.RecordGatewayMetrics(span, elapsed, 1, err == nil)
	if err != nil {
		return "", g.storeErr(err)
	}
	return id, nil
}

// Update mutates one row. Tenant ownership is re-validated inside the
// mutation statement itself, not just at authorization time, so a row
// that changed hands between check and use cannot be touched.
func (g *Gateway) Update(ctx context.Context, rc *access.RequestContext, kind models.ResourceKind, id string, changes map[string]interface{}) error {
	tracer := tracing.GetGlobalTracer()
	ctx, span := tracer.StartGatewaySpan(ctx, "update", string(kind))
	defer span.End()

	res := models.ResourceDescriptor{TenantID: g.claimedTenant(rc, rowTenant(changes)), Kind: kind}

	values := append(identifierValues(changes), map[string]string{"id": id})
	if err := g.screen(ctx, rc, res, models.ActionWrite, values...); err != nil {
		return err
	}
	if denied := g.authorize(ctx, rc, res, models.ActionWrite); denied != nil {
		return denied
	}

	// Copy before stripping the tenant column so the caller's map is
	// left untouched.
	scoped := make(map[string]interface{}, len(changes))
	for k, v := range changes {
		if k == tenantFilterKey {
			continue
		}
		scoped[k] = v
	}

	start := time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, g.cfg.QueryTimeout)
	defer cancel()

	affected, err := g.store.Update(storeCtx, kind, id, rc.Tenant().ID, scoped)
	elapsed := time.Since(start)
	monitoring.RecordGatewayOperation("update", string(kind), elapsed, err == nil)
	tracer.RecordGatewayMetrics(span, elapsed, affected, err == nil)
	if err != nil {
		return g.storeErr(err)
	}
	if affected == 0 {
		return ErrRowNotFound
	}
	return nil
}

// Delete removes one row, re-validating tenant ownership in the delete
// statement the same way Update does.
func (g *Gateway) Delete(ctx context.Context, rc *access.RequestContext, kind models.ResourceKind, id string) error {
	tracer := tracing.GetGlobalTracer()
	ctx, span := tracer.StartGatewaySpan(ctx, "delete", string(kind))
	defer span.End()

	res := models.ResourceDescriptor{TenantID: rc.Tenant().ID, Kind: kind}

	if err := g.screen(ctx, rc, res, models.ActionDelete, map[string]string{"id": id}); err != nil {
		return err
	}
	if denied := g.authorize(ctx, rc, res, models.ActionDelete); denied != nil {
		return denied
	}

	start := time.Now()
	storeCtx, cancel := context.WithTimeout(ctx, g.cfg.QueryTimeout)
	defer cancel()

	affected, err := g.store.Delete(storeCtx, kind, id, rc.Tenant().ID)
	elapsed := time.Since(start)
	monitoring.RecordGatewayOperation("delete", string(kind), elapsed, err == nil)
	tracer.RecordGatewayMetrics(span, elapsed, affected, err == nil)
	if err != nil {
		return g.storeErr(err)
	}
	if affected == 0 {
		return ErrRowNotFound
	}
	return nil
}

// screen rejects conflicting tenant filters and suspicious values
// before authorization runs, recording the denial synchronously.
func (g *Gateway) screen(ctx context.Context, rc *access.RequestContext, res models.ResourceDescriptor, action models.Action, filterSets ...map[string]string) error {
	p := rc.Principal()
	tenantID := rc.Tenant().ID

	for _, filters := range filterSets {
		if claimed, ok := filters[tenantFilterKey]; ok && claimed != tenantID {
			g.logger.Warn("Conflicting tenant filter rejected",
				"principal_id", p.ID,
				"context_tenant", tenantID,
				"claimed_tenant", claimed,
				"resource", res.Kind)
			conflicted := res
			conflicted.TenantID = claimed
			g.audit.RecordDenial(ctx, tenantID, p, conflicted, action,
				models.ReasonConflictingFilter, models.AnomalyFilterConflict)
			return ErrConflictingTenantFilter
		}

		if bad := access.InspectFilters(filters); len(bad) > 0 {
			g.logger.Warn("Suspicious query input denied",
				"principal_id", p.ID,
				"resource", res.Kind,
				"offending_count", len(bad))
			g.audit.RecordDenial(ctx, tenantID, p, res, action,
				models.ReasonSuspicious, models.AnomalySuspiciousInput)
			return &DeniedError{Decision: models.Deny(models.ReasonSuspicious)}
		}
	}
	return nil
}

// authorize runs the policy engine and records the outcome: denials
// synchronously and always, allows sampled.
func (g *Gateway) authorize(ctx context.Context, rc *access.RequestContext, res models.ResourceDescriptor, action models.Action) error {
	p := rc.Principal()
	tenantID := rc.Tenant().ID

	tracer := tracing.GetGlobalTracer()
	_, span := tracer.StartAuthorizeSpan(ctx, string(p.Role), string(res.Kind), string(action))
	defer span.End()

	start := time.Now()
	decision := g.engine.Authorize(rc, res, action)
	tracer.RecordDecision(span, decision.Allowed, string(decision.Reason), time.Since(start))

	if !decision.Allowed {
		var flags []string
		switch decision.Reason {
		case models.ReasonCrossTenantAccess:
			flags = append(flags, models.AnomalyCrossTenant)
		case models.ReasonSuspicious:
			flags = append(flags, models.AnomalySuspiciousInput)
		}
		g.audit.RecordDenial(ctx, tenantID, p, res, action, decision.Reason, flags...)
		return &DeniedError{Decision: decision}
	}

	g.audit.RecordAllow(ctx, tenantID, p, res, action)
	return nil
}

func (g *Gateway) descriptorFor(rc *access.RequestContext, qd models.QueryDescriptor) models.ResourceDescriptor {
	return models.ResourceDescriptor{
		TenantID: g.claimedTenant(rc, qd.Filters[tenantFilterKey]),
		Kind:     qd.Kind,
		OwnerID:  qd.Filters["owner_id"],
		ClassID:  qd.Filters["class_id"],
	}
}

// claimedTenant is the tenant the request claims for the resource: the
// context tenant unless the caller explicitly named one.
func (g *Gateway) claimedTenant(rc *access.RequestContext, claimed string) string {
	if claimed != "" {
		return claimed
	}
	return rc.Tenant().ID
}

// scopedFilters copies the caller filters and injects the tenant
// filter. screen has already guaranteed no conflicting value exists.
func (g *Gateway) scopedFilters(rc *access.RequestContext, filters map[string]string) map[string]string {
	scoped := make(map[string]string, len(filters)+1)
	for k, v := range filters {
		scoped[k] = v
	}
	scoped[tenantFilterKey] = rc.Tenant().ID
	return scoped
}

func (g *Gateway) boundedLimit(requested int) int {
	if requested <= 0 {
		return g.cfg.DefaultPageSize
	}
	if requested > g.cfg.MaxPageSize {
		return g.cfg.MaxPageSize
	}
	return requested
}

func (g *Gateway) storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrGatewayTimeout
	}
	return err
}

func rowTenant(row map[string]interface{}) string {
	if v, ok := row[tenantFilterKey]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// identifierValues projects a write payload's identifier-shaped
// columns into filter form so screen can scan them with the same rules
// as read filters. Free-text columns such as message bodies are
// excluded: they legitimately contain apostrophes and SQL-looking
// prose, and they only ever travel as bind parameters.
func identifierValues(row map[string]interface{}) []map[string]string {
	out := make(map[string]string)
	for k, v := range row {
		if !identifierKey(k) {
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = ""
		}
	}
	return []map[string]string{out}
}

func identifierKey(k string) bool {
	return k == "id" || strings.HasSuffix(k, "_id") || strings.HasSuffix(k, "_by")
}
