package gateway

import (
	"context"

	"github.com/edustack/campus-core/internal/models"
)

// Store is the persistence layer the gateway scopes. Implementations
// must treat the tenant_id filter and arguments as mandatory and never
// widen a query beyond them.
type Store interface {
	// Select returns rows of the given kind matching the filters,
	// ordered deterministically, at most limit rows starting at offset.
	Select(ctx context.Context, kind models.ResourceKind, filters map[string]string, limit, offset int) ([]map[string]interface{}, error)

	// Insert writes one row and returns its id.
	Insert(ctx context.Context, kind models.ResourceKind, row map[string]interface{}) (string, error)

	// Update applies changes to the row with the given id, but only if
	// the row belongs to tenantID. Returns the number of rows touched.
	Update(ctx context.Context, kind models.ResourceKind, id, tenantID string, changes map[string]interface{}) (int64, error)

	// Delete removes the row with the given id, but only if it belongs
	// to tenantID. Returns the number of rows touched.
	Delete(ctx context.Context, kind models.ResourceKind, id, tenantID string) (int64, error)
}
