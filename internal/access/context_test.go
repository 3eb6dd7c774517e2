package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/campus-core/internal/models"
)

func activeTenant(id string) *models.Tenant {
	return &models.Tenant{ID: id, Name: id, Status: models.TenantStatusActive}
}

func TestBuildContextMatchingTenant(t *testing.T) {
	rc, err := BuildContext(activeTenant("school-a"), models.Principal{
		ID: "u1", TenantID: "school-a", Role: models.RoleTeacher,
	})
	require.NoError(t, err)

	assert.Equal(t, "school-a", rc.Tenant().ID)
	assert.Equal(t, "u1", rc.Principal().ID)
	assert.False(t, rc.BuiltAt().IsZero())
}

func TestBuildContextTenantMismatch(t *testing.T) {
	for _, role := range []models.Role{models.RoleAdmin, models.RoleTeacher, models.RoleStudent, models.RoleParent} {
		_, err := BuildContext(activeTenant("school-a"), models.Principal{
			ID: "u1", TenantID: "school-b", Role: role,
		})
		assert.ErrorIs(t, err, ErrTenantMismatch, "role %s", role)
	}
}

func TestBuildContextSuperAdminCrossesTenants(t *testing.T) {
	rc, err := BuildContext(activeTenant("school-a"), models.Principal{
		ID: "root", TenantID: "platform", Role: models.RoleSuperAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "school-a", rc.Tenant().ID)
}

func TestBuildContextNoTenantDeniedForEveryone(t *testing.T) {
	// Super admins included: no ambient all-tenant scope.
	_, err := BuildContext(nil, models.Principal{ID: "root", TenantID: "platform", Role: models.RoleSuperAdmin})
	assert.ErrorIs(t, err, ErrMissingTenantContext)

	_, err = BuildContext(&models.Tenant{}, models.Principal{ID: "u1", TenantID: "school-a", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrMissingTenantContext)
}

func TestBuildContextInvalidPrincipal(t *testing.T) {
	_, err := BuildContext(activeTenant("school-a"), models.Principal{TenantID: "school-a", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrInvalidPrincipal)

	_, err = BuildContext(activeTenant("school-a"), models.Principal{ID: "u1", TenantID: "school-a", Role: "superuser"})
	assert.ErrorIs(t, err, ErrInvalidPrincipal)
}

func TestContextReturnsCopies(t *testing.T) {
	tenant := activeTenant("school-a")
	rc, err := BuildContext(tenant, models.Principal{ID: "u1", TenantID: "school-a", Role: models.RoleAdmin})
	require.NoError(t, err)

	// Mutating what BuildContext was given, or what the getters return,
	// must not affect the stored context.
	tenant.ID = "school-b"
	got := rc.Tenant()
	got.ID = "school-c"

	assert.Equal(t, "school-a", rc.Tenant().ID)

	p := rc.Principal()
	p.Role = models.RoleSuperAdmin
	assert.Equal(t, models.RoleAdmin, rc.Principal().Role)
}
