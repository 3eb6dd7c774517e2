package models

// Role is the coarse authority level of an authenticated principal.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
	RoleParent     Role = "parent"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleTeacher, RoleStudent, RoleParent:
		return true
	}
	return false
}

// Principal is the authenticated user attached to a request by the
// external auth provider. TenantID is the principal's home tenant; for
// every role except super_admin it must match the resolved request
// tenant. ClassIDs scope teacher/student own-class checks.
//
// LinkedStudentIDs is populated for parents and scopes their read access
// to their own children's records.
type Principal struct {
	ID               string   `json:"id"`
	TenantID         string   `json:"tenantId"`
	Role             Role     `json:"role"`
	ClassIDs         []string `json:"classIds,omitempty"`
	LinkedStudentIDs []string `json:"linkedStudentIds,omitempty"`
}
