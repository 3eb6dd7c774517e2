package models

import "time"

// TenantStatus is the lifecycle state of a tenant. Tenants are never
// physically deleted while referencing data exists; suspension is the
// only disable mechanism.
type TenantStatus string

const (
	TenantStatusActive    TenantStatus = "active"
	TenantStatusPending   TenantStatus = "pending"
	TenantStatusSuspended TenantStatus = "suspended"
)

// Tenant represents one isolated school/organization. A request resolves
// to exactly one tenant; any domain or the subdomain may be used to reach
// it, but the mapping from name to tenant is injective.
type Tenant struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
	Subdomain   string       `json:"subdomain"`
	Domains     []string     `json:"domains"`
	Status      TenantStatus `json:"status"`
	Quotas      TenantQuotas `json:"quotas"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// TenantQuotas represents per-tenant resource limits
type TenantQuotas struct {
	MaxUsers     int `json:"maxUsers"`
	MaxClasses   int `json:"maxClasses"`
	APIRateLimit int `json:"apiRateLimit"` // requests per minute, 0 means server default
}

// Active reports whether the tenant may serve requests.
func (t *Tenant) Active() bool {
	return t != nil && t.Status == TenantStatusActive
}
