package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/campus-core/internal/models"
)

func TestPostgresRepositoryInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO audit_records`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresRepository(db)
	err = repo.Insert(context.Background(), &models.AuditRecord{
		ID:               "rec-1",
		TenantID:         "school-a",
		PrincipalID:      "u1",
		PrincipalRole:    models.RoleTeacher,
		ResourceKind:     models.ResourceGrade,
		ResourceTenantID: "school-b",
		Action:           models.ActionRead,
		Allowed:          false,
		Reason:           models.ReasonCrossTenantAccess,
		AnomalyFlags:     []string{models.AnomalyCrossTenant},
		Timestamp:        time.Now(),
		Source:           "access_control_core",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryListScopedAndFiltered(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "tenant_id", "principal_id", "principal_role", "resource_kind",
		"resource_tenant_id", "action", "allowed", "reason", "anomaly_flags", "ts", "source",
	}).AddRow("rec-1", "school-a", "u1", "teacher", "grade", "school-b",
		"read", false, "cross_tenant_access", pq.StringArray{"cross_tenant_attempt"}, now, "access_control_core")

	mock.ExpectQuery(`SELECT .+ FROM audit_records WHERE tenant_id = \$1 AND principal_id = \$2 AND allowed = FALSE`).
		WithArgs("school-a", "u1", 50).
		WillReturnRows(rows)

	repo := NewPostgresRepository(db)
	records, err := repo.List(context.Background(), "school-a", Filters{
		PrincipalID: "u1",
		DeniedOnly:  true,
		Limit:       50,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "school-a", records[0].TenantID)
	assert.Equal(t, models.ReasonCrossTenantAccess, records[0].Reason)
	assert.Equal(t, []string{"cross_tenant_attempt"}, records[0].AnomalyFlags)
	assert.NoError(t, mock.ExpectationsWereMet())
}
