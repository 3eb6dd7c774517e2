package access

import (
	"errors"
	"time"

	"github.com/edustack/campus-core/internal/models"
)

var (
	// ErrTenantMismatch means the principal's home tenant is not the
	// resolved request tenant and the principal is not a super admin.
	ErrTenantMismatch = errors.New("principal tenant does not match request tenant")
	// ErrMissingTenantContext means no tenant was declared at all. This
	// applies to super admins too: there is no ambient all-tenant scope.
	ErrMissingTenantContext = errors.New("missing tenant context")
	// ErrInvalidPrincipal means the principal is structurally unusable
	// (empty id or unknown role) and the request cannot be attributed.
	ErrInvalidPrincipal = errors.New("invalid principal")
)

// RequestContext binds the resolved tenant and the authenticated
// principal for exactly one request. All fields are unexported value
// copies; there is no setter, so the context cannot change after
// construction. Build a fresh one per request and discard it.
type RequestContext struct {
	tenant    models.Tenant
	principal models.Principal
	builtAt   time.Time
}

// BuildContext constructs the request context, failing closed on any
// disagreement between tenant and principal.
func BuildContext(tenant *models.Tenant, principal models.Principal) (*RequestContext, error) {
	if tenant == nil || tenant.ID == "" {
		return nil, ErrMissingTenantContext
	}
	if principal.ID == "" || !models.ValidRole(principal.Role) {
		return nil, ErrInvalidPrincipal
	}
	if principal.Role != models.RoleSuperAdmin && principal.TenantID != tenant.ID {
		return nil, ErrTenantMismatch
	}

	return &RequestContext{
		tenant:    *tenant,
		principal: principal,
		builtAt:   time.Now(),
	}, nil
}

// Tenant returns a copy of the context tenant.
func (rc *RequestContext) Tenant() models.Tenant { return rc.tenant }

// Principal returns a copy of the context principal.
func (rc *RequestContext) Principal() models.Principal { return rc.principal }

// BuiltAt returns the construction timestamp.
func (rc *RequestContext) BuiltAt() time.Time { return rc.builtAt }
