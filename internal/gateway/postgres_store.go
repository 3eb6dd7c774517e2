package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/edustack/campus-core/internal/models"
)

// ErrUnknownColumn means a filter or change named a column that is not
// part of the kind's schema. Queries are built only from these
// whitelists; caller input never reaches the SQL text.
var ErrUnknownColumn = errors.New("unknown column for resource kind")

type tableSpec struct {
	table      string
	columns    []string
	filterable map[string]bool
	writable   map[string]bool
}

func cols(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var tableSpecs = map[models.ResourceKind]tableSpec{
	models.ResourceAssignment: {
		table:      "assignments",
		columns:    []string{"id", "tenant_id", "class_id", "owner_id", "title", "description", "due_at", "created_at", "updated_at"},
		filterable: cols("id", "tenant_id", "class_id", "owner_id"),
		writable:   cols("tenant_id", "class_id", "owner_id", "title", "description", "due_at"),
	},
	models.ResourceGrade: {
		table:      "grades",
		columns:    []string{"id", "tenant_id", "class_id", "owner_id", "assignment_id", "score", "graded_by", "created_at", "updated_at"},
		filterable: cols("id", "tenant_id", "class_id", "owner_id", "assignment_id"),
		writable:   cols("tenant_id", "class_id", "owner_id", "assignment_id", "score", "graded_by"),
	},
	models.ResourceAttendance: {
		table:      "attendance_records",
		columns:    []string{"id", "tenant_id", "class_id", "owner_id", "status", "recorded_on", "recorded_by", "created_at"},
		filterable: cols("id", "tenant_id", "class_id", "owner_id", "status", "recorded_on"),
		writable:   cols("tenant_id", "class_id", "owner_id", "status", "recorded_on", "recorded_by"),
	},
	models.ResourceMessage: {
		table:      "messages",
		columns:    []string{"id", "tenant_id", "owner_id", "recipient_id", "subject", "body", "created_at"},
		filterable: cols("id", "tenant_id", "owner_id", "recipient_id"),
		writable:   cols("tenant_id", "owner_id", "recipient_id", "subject", "body"),
	},
	models.ResourceEnrollment: {
		table:      "enrollments",
		columns:    []string{"id", "tenant_id", "class_id", "owner_id", "status", "created_at"},
		filterable: cols("id", "tenant_id", "class_id", "owner_id", "status"),
		writable:   cols("tenant_id", "class_id", "owner_id", "status"),
	},
}

// PostgresStore serves school records from Postgres. All SQL text is
// assembled from the static tableSpecs; filter keys and change keys
// select whitelisted identifiers, values travel as bind parameters.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Select(ctx context.Context, kind models.ResourceKind, filters map[string]string, limit, offset int) ([]map[string]interface{}, error) {
	spec, ok := tableSpecs[kind]
	if !ok {
		return nil, fmt.Errorf("select %s: %w", kind, errStoreKind(kind))
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		if !spec.filterable[k] {
			return nil, fmt.Errorf("select %s: column %q: %w", kind, k, ErrUnknownColumn)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	args := make([]interface{}, 0, len(keys)+2)
	fmt.Fprintf(&sb, "SELECT %s FROM %s", strings.Join(spec.columns, ", "), spec.table)
	for i, k := range keys {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		fmt.Fprintf(&sb, "%s = $%d", k, len(args)+1)
		args = append(args, filters[k])
	}
	fmt.Fprintf(&sb, " ORDER BY id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", kind, err)
	}
	defer rows.Close()

	out := make([]map[string]interface{}, 0, limit)
	for rows.Next() {
		slots := make([]interface{}, len(spec.columns))
		ptrs := make([]interface{}, len(spec.columns))
		for i := range slots {
			ptrs[i] = &slots[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		row := make(map[string]interface{}, len(spec.columns))
		for i, c := range spec.columns {
			if b, ok := slots[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = slots[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select %s: %w", kind, err)
	}
	return out, nil
}

func (s *PostgresStore) Insert(ctx context.Context, kind models.ResourceKind, row map[string]interface{}) (string, error) {
	spec, ok := tableSpecs[kind]
	if !ok {
		return "", fmt.Errorf("insert %s: %w", kind, errStoreKind(kind))
	}

	keys := make([]string, 0, len(row))
	for k := range row {
		if !spec.writable[k] {
			return "", fmt.Errorf("insert %s: column %q: %w", kind, k, ErrUnknownColumn)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	id := uuid.NewString()
	names := append([]string{"id"}, keys...)
	args := make([]interface{}, 0, len(names))
	args = append(args, id)
	placeholders := make([]string, len(names))
	for i := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	for _, k := range keys {
		args = append(args, row[k])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		spec.table, strings.Join(names, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert %s: %w", kind, err)
	}
	return id, nil
}

func (s *PostgresStore) Update(ctx context.Context, kind models.ResourceKind, id, tenantID string, changes map[string]interface{}) (int64, error) {
	spec, ok := tableSpecs[kind]
	if !ok {
		return 0, fmt.Errorf("update %s: %w", kind, errStoreKind(kind))
	}

	keys := make([]string, 0, len(changes))
	for k := range changes {
		if k == "tenant_id" || !spec.writable[k] {
			return 0, fmt.Errorf("update %s: column %q: %w", kind, k, ErrUnknownColumn)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return 0, nil
	}

	sets := make([]string, len(keys))
	args := make([]interface{}, 0, len(keys)+2)
	for i, k := range keys {
		sets[i] = fmt.Sprintf("%s = $%d", k, i+1)
		args = append(args, changes[k])
	}
	args = append(args, id, tenantID)

	// Tenant ownership sits in the statement itself so a stale
	// authorization can never reach another tenant's row.
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d AND tenant_id = $%d",
		spec.table, strings.Join(sets, ", "), len(keys)+1, len(keys)+2)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", kind, err)
	}
	return result.RowsAffected()
}

func (s *PostgresStore) Delete(ctx context.Context, kind models.ResourceKind, id, tenantID string) (int64, error) {
	spec, ok := tableSpecs[kind]
	if !ok {
		return 0, fmt.Errorf("delete %s: %w", kind, errStoreKind(kind))
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1 AND tenant_id = $2", spec.table)
	result, err := s.db.ExecContext(ctx, query, id, tenantID)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", kind, err)
	}
	return result.RowsAffected()
}

func errStoreKind(kind models.ResourceKind) error {
	return fmt.Errorf("no table for kind %q", kind)
}
