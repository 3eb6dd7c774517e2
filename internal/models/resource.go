package models

// ResourceKind is a typed resource identifier. Resources are always
// addressed by structured (tenant, kind) values, never by interpolated
// name strings, so identifier construction cannot be used for injection.
type ResourceKind string

const (
	ResourceAssignment ResourceKind = "assignment"
	ResourceGrade      ResourceKind = "grade"
	ResourceAttendance ResourceKind = "attendance"
	ResourceMessage    ResourceKind = "message"
	ResourceEnrollment ResourceKind = "enrollment"
	ResourceTenant     ResourceKind = "tenant"
	ResourceAudit      ResourceKind = "audit"
)

// ValidResourceKind reports whether k names a known resource kind.
func ValidResourceKind(k ResourceKind) bool {
	switch k {
	case ResourceAssignment, ResourceGrade, ResourceAttendance,
		ResourceMessage, ResourceEnrollment, ResourceTenant, ResourceAudit:
		return true
	}
	return false
}

// Action is the operation requested against a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// ValidAction reports whether a is a known action.
func ValidAction(a Action) bool {
	switch a {
	case ActionRead, ActionWrite, ActionDelete:
		return true
	}
	return false
}

// ResourceDescriptor identifies the resource a request targets, including
// the tenant the payload or query claims to own it. The claimed tenant is
// compared against the request context tenant before any role rule runs.
type ResourceDescriptor struct {
	TenantID string       `json:"tenantId"`
	Kind     ResourceKind `json:"kind"`
	OwnerID  string       `json:"ownerId,omitempty"` // owning user, for own-scope rules
	ClassID  string       `json:"classId,omitempty"` // owning class, for class-scope rules
}

// QueryDescriptor describes one data-store access through the scoped
// gateway. Filters are column/value pairs; the gateway injects the
// tenant filter itself and rejects caller-supplied conflicts.
type QueryDescriptor struct {
	Kind    ResourceKind      `json:"kind"`
	Filters map[string]string `json:"filters,omitempty"`
	Limit   int               `json:"limit,omitempty"`
	Offset  int               `json:"offset,omitempty"`
}
