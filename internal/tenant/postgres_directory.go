package tenant

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/internal/monitoring"
)

// PostgresDirectory implements Directory on the tenants and
// tenant_domains tables. tenant_domains.domain is the primary key, which
// keeps the domain-to-tenant mapping injective at the schema level.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const tenantColumns = `t.id, t.name, t.display_name, t.subdomain, t.status,
	t.max_users, t.max_classes, t.api_rate_limit, t.created_at, t.updated_at`

func (d *PostgresDirectory) scanTenant(row *sql.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.DisplayName, &t.Subdomain, &t.Status,
		&t.Quotas.MaxUsers, &t.Quotas.MaxClasses, &t.Quotas.APIRateLimit,
		&t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrTenantNotKnown
	}
	if err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return &t, nil
}

func (d *PostgresDirectory) loadDomains(ctx context.Context, t *models.Tenant) error {
	rows, err := d.db.QueryContext(ctx,
		`SELECT domain FROM tenant_domains WHERE tenant_id = $1 ORDER BY domain`, t.ID)
	if err != nil {
		return fmt.Errorf("load tenant domains: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return fmt.Errorf("scan tenant domain: %w", err)
		}
		t.Domains = append(t.Domains, domain)
	}
	return rows.Err()
}

func (d *PostgresDirectory) getBy(ctx context.Context, query string, arg string) (*models.Tenant, error) {
	start := time.Now()
	t, err := d.scanTenant(d.db.QueryRowContext(ctx, query, arg))
	monitoring.RecordGatewayOperation("directory_lookup", "tenant", time.Since(start), err == nil || err == ErrTenantNotKnown)
	if err != nil {
		return nil, err
	}
	if err := d.loadDomains(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (d *PostgresDirectory) GetByID(ctx context.Context, id string) (*models.Tenant, error) {
	return d.getBy(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.id = $1`, id)
}

func (d *PostgresDirectory) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	return d.getBy(ctx, `SELECT `+tenantColumns+` FROM tenants t
		JOIN tenant_domains td ON td.tenant_id = t.id WHERE td.domain = $1`, domain)
}

func (d *PostgresDirectory) GetBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error) {
	return d.getBy(ctx, `SELECT `+tenantColumns+` FROM tenants t WHERE t.subdomain = $1`, subdomain)
}

func (d *PostgresDirectory) List(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT t.id, t.name, t.display_name, t.subdomain, t.status,
		t.max_users, t.max_classes, t.api_rate_limit, t.created_at, t.updated_at
		FROM tenants t ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.DisplayName, &t.Subdomain, &t.Status,
			&t.Quotas.MaxUsers, &t.Quotas.MaxClasses, &t.Quotas.APIRateLimit,
			&t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan tenant row: %w", err)
		}
		tenants = append(tenants, &t)
	}
	return tenants, rows.Err()
}

func (d *PostgresDirectory) UpdateStatus(ctx context.Context, id string, status models.TenantStatus) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE tenants SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			return fmt.Errorf("update tenant status (%s): %w", pqErr.Code.Name(), err)
		}
		return fmt.Errorf("update tenant status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update tenant status: %w", err)
	}
	if affected == 0 {
		return ErrTenantNotKnown
	}
	return nil
}
