package models

import "time"

// DecisionReason classifies why a policy decision allowed or denied a
// request. Denial reasons are terminal for the request; the HTTP layer
// maps them to status codes without echoing internals.
type DecisionReason string

const (
	ReasonAllowed              DecisionReason = "allowed"
	ReasonCrossTenantAccess    DecisionReason = "cross_tenant_access"
	ReasonRoleDenied           DecisionReason = "role_denied"
	ReasonSuspicious           DecisionReason = "suspicious"
	ReasonTenantMismatch       DecisionReason = "tenant_mismatch"
	ReasonMissingTenantContext DecisionReason = "missing_tenant_context"
	ReasonTenantNotFound       DecisionReason = "tenant_not_found"
	ReasonTenantSuspended      DecisionReason = "tenant_suspended"
	ReasonConflictingFilter    DecisionReason = "conflicting_tenant_filter"
	ReasonResolutionTimeout    DecisionReason = "resolution_timeout"
	ReasonGatewayTimeout       DecisionReason = "gateway_timeout"
)

// PolicyDecision is the outcome of one authorization check. Exactly one
// decision is produced per data access attempt, before any store access.
type PolicyDecision struct {
	Allowed   bool           `json:"allowed"`
	Reason    DecisionReason `json:"reason"`
	Timestamp time.Time      `json:"timestamp"`
}

// Allow returns an allowed decision stamped now.
func Allow() PolicyDecision {
	return PolicyDecision{Allowed: true, Reason: ReasonAllowed, Timestamp: time.Now()}
}

// Deny returns a denied decision with the given reason, stamped now.
func Deny(reason DecisionReason) PolicyDecision {
	return PolicyDecision{Allowed: false, Reason: reason, Timestamp: time.Now()}
}
