package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/edustack/campus-core/internal/models"
)

// PostgresRepository appends audit records to the audit_records table.
// The table grants this service INSERT and SELECT only; updates and
// deletes are revoked at the database layer as well.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, record *models.AuditRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_records
			(id, tenant_id, principal_id, principal_role, resource_kind,
			 resource_tenant_id, action, allowed, reason, anomaly_flags, ts, source)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		record.ID, record.TenantID, record.PrincipalID, string(record.PrincipalRole),
		string(record.ResourceKind), record.ResourceTenantID, string(record.Action),
		record.Allowed, string(record.Reason), pq.Array(record.AnomalyFlags),
		record.Timestamp, record.Source)
	if err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, tenantID string, filters Filters) ([]*models.AuditRecord, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT id, tenant_id, principal_id, principal_role, resource_kind,
		resource_tenant_id, action, allowed, reason, anomaly_flags, ts, source
		FROM audit_records WHERE tenant_id = $1`)
	args := []interface{}{tenantID}

	if filters.PrincipalID != "" {
		args = append(args, filters.PrincipalID)
		fmt.Fprintf(&query, " AND principal_id = $%d", len(args))
	}
	if filters.Reason != "" {
		args = append(args, string(filters.Reason))
		fmt.Fprintf(&query, " AND reason = $%d", len(args))
	}
	if filters.DeniedOnly {
		query.WriteString(" AND allowed = FALSE")
	}
	if filters.Since != nil {
		args = append(args, *filters.Since)
		fmt.Fprintf(&query, " AND ts >= $%d", len(args))
	}

	query.WriteString(" ORDER BY ts DESC")

	limit := filters.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	args = append(args, limit)
	fmt.Fprintf(&query, " LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []*models.AuditRecord
	for rows.Next() {
		var rec models.AuditRecord
		var flags pq.StringArray
		if err := rows.Scan(&rec.ID, &rec.TenantID, &rec.PrincipalID, &rec.PrincipalRole,
			&rec.ResourceKind, &rec.ResourceTenantID, &rec.Action, &rec.Allowed,
			&rec.Reason, &flags, &rec.Timestamp, &rec.Source); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		rec.AnomalyFlags = []string(flags)
		records = append(records, &rec)
	}
	return records, rows.Err()
}
