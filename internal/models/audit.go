package models

import "time"

// Anomaly flags attached to audit records.
const (
	AnomalySuspiciousInput = "suspicious_input"
	AnomalyCrossTenant     = "cross_tenant_attempt"
	AnomalyFilterConflict  = "tenant_filter_conflict"
	AnomalyRepeatOffender  = "repeat_offender"
)

// AuditRecord is one append-only record of an access decision. Records
// are immutable once written; the core exposes no update or delete path
// for them.
type AuditRecord struct {
	ID               string         `json:"id"`
	TenantID         string         `json:"tenantId"`
	PrincipalID      string         `json:"principalId"`
	PrincipalRole    Role           `json:"principalRole"`
	ResourceKind     ResourceKind   `json:"resourceKind"`
	ResourceTenantID string         `json:"resourceTenantId"`
	Action           Action         `json:"action"`
	Allowed          bool           `json:"allowed"`
	Reason           DecisionReason `json:"reason"`
	AnomalyFlags     []string       `json:"anomalyFlags,omitempty"`
	Timestamp        time.Time      `json:"timestamp"`
	Source           string         `json:"source"` // component that produced the decision
}
