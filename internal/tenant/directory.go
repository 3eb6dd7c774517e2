package tenant

import (
	"context"
	"errors"

	"github.com/edustack/campus-core/internal/models"
)

// ErrTenantNotKnown is the directory-level miss. The resolver translates
// it into the request-facing ErrTenantNotFound.
var ErrTenantNotKnown = errors.New("tenant not known to directory")

// Directory is the tenant lookup store. It is read-mostly; UpdateStatus
// is the only mutation and exists for the admin suspend/activate flow.
// Every lookup name (domain or subdomain) maps to at most one tenant.
type Directory interface {
	GetByID(ctx context.Context, id string) (*models.Tenant, error)
	GetByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	List(ctx context.Context) ([]*models.Tenant, error)
	UpdateStatus(ctx context.Context, id string, status models.TenantStatus) error
}
