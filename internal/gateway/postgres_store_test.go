package gateway

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/campus-core/internal/models"
)

func TestPostgresStoreSelectBuildsScopedQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	query := regexp.QuoteMeta(
		"SELECT id, tenant_id, class_id, owner_id, assignment_id, score, graded_by, created_at, updated_at " +
			"FROM grades WHERE class_id = $1 AND tenant_id = $2 ORDER BY id LIMIT $3 OFFSET $4")
	rows := sqlmock.NewRows([]string{"id", "tenant_id", "class_id", "owner_id", "assignment_id", "score", "graded_by", "created_at", "updated_at"}).
		AddRow("g-1", "tenant-north", "class-7a", "student-1", "a-1", 87, "teacher-1", nil, nil)
	mock.ExpectQuery(query).
		WithArgs("class-7a", "tenant-north", 50, 0).
		WillReturnRows(rows)

	out, err := store.Select(context.Background(), models.ResourceGrade,
		map[string]string{"tenant_id": "tenant-north", "class_id": "class-7a"}, 50, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "g-1", out[0]["id"])
	assert.Equal(t, "tenant-north", out[0]["tenant_id"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSelectRejectsUnknownFilterColumn(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	_, err = store.Select(context.Background(), models.ResourceGrade,
		map[string]string{"secret_column": "x"}, 50, 0)
	require.ErrorIs(t, err, ErrUnknownColumn)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	query := regexp.QuoteMeta(
		"INSERT INTO assignments (id, class_id, owner_id, tenant_id, title) VALUES ($1, $2, $3, $4, $5)")
	mock.ExpectExec(query).
		WithArgs(sqlmock.AnyArg(), "class-7a", "teacher-1", "tenant-north", "Fractions homework").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := store.Insert(context.Background(), models.ResourceAssignment, map[string]interface{}{
		"tenant_id": "tenant-north",
		"class_id":  "class-7a",
		"owner_id":  "teacher-1",
		"title":     "Fractions homework",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreInsertRejectsUnknownColumn(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	_, err = store.Insert(context.Background(), models.ResourceAssignment, map[string]interface{}{
		"id": "caller-chosen",
	})
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestPostgresStoreUpdateRequiresTenantMatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	query := regexp.QuoteMeta(
		"UPDATE assignments SET title = $1 WHERE id = $2 AND tenant_id = $3")
	mock.ExpectExec(query).
		WithArgs("Revised title", "a-1", "tenant-north").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := store.Update(context.Background(), models.ResourceAssignment, "a-1", "tenant-north",
		map[string]interface{}{"title": "Revised title"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdateRejectsTenantChange(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	_, err = store.Update(context.Background(), models.ResourceAssignment, "a-1", "tenant-north",
		map[string]interface{}{"tenant_id": "tenant-south"})
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestPostgresStoreDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	query := regexp.QuoteMeta("DELETE FROM messages WHERE id = $1 AND tenant_id = $2")
	mock.ExpectExec(query).
		WithArgs("m-1", "tenant-north").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := store.Delete(context.Background(), models.ResourceMessage, "m-1", "tenant-north")
	require.NoError(t, err)
	assert.Zero(t, affected, "foreign rows look absent")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUnknownKind(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgresStore(db)

	_, err = store.Select(context.Background(), models.ResourceKind("payroll"), nil, 10, 0)
	require.Error(t, err)
}
