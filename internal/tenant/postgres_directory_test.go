package tenant

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/campus-core/internal/models"
)

func tenantRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "display_name", "subdomain", "status",
		"max_users", "max_classes", "api_rate_limit", "created_at", "updated_at",
	}).AddRow("t-school-a", "school-a", "School A", "school-a", "active", 500, 40, 600, now, now)
}

func TestPostgresDirectoryGetBySubdomain(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM tenants t WHERE t\.subdomain = \$1`).
		WithArgs("school-a").
		WillReturnRows(tenantRows())
	mock.ExpectQuery(`SELECT domain FROM tenant_domains`).
		WithArgs("t-school-a").
		WillReturnRows(sqlmock.NewRows([]string{"domain"}).AddRow("portal.school-a.edu"))

	dir := NewPostgresDirectory(db)
	tenant, err := dir.GetBySubdomain(context.Background(), "school-a")
	require.NoError(t, err)

	assert.Equal(t, "t-school-a", tenant.ID)
	assert.Equal(t, models.TenantStatusActive, tenant.Status)
	assert.Equal(t, []string{"portal.school-a.edu"}, tenant.Domains)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDirectoryGetByDomainMiss(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM tenants t\s+JOIN tenant_domains`).
		WithArgs("unknown.example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	dir := NewPostgresDirectory(db)
	_, err = dir.GetByDomain(context.Background(), "unknown.example.com")
	assert.ErrorIs(t, err, ErrTenantNotKnown)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDirectoryUpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE tenants SET status = \$1`).
		WithArgs("suspended", "t-school-a").
		WillReturnResult(sqlmock.NewResult(0, 1))

	dir := NewPostgresDirectory(db)
	require.NoError(t, dir.UpdateStatus(context.Background(), "t-school-a", models.TenantStatusSuspended))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDirectoryUpdateStatusUnknownTenant(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE tenants SET status = \$1`).
		WithArgs("suspended", "t-nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	dir := NewPostgresDirectory(db)
	err = dir.UpdateStatus(context.Background(), "t-nope", models.TenantStatusSuspended)
	assert.ErrorIs(t, err, ErrTenantNotKnown)
}
