package access

import (
	"sync/atomic"

	"github.com/edustack/campus-core/internal/models"
	"github.com/edustack/campus-core/internal/monitoring"
	"github.com/edustack/campus-core/pkg/logger"
)

// Engine evaluates (context, resource, action) triples. The tenant
// equality check runs first and unconditionally; no role rule can reach
// a resource in another tenant. This duplicates the scoped gateway's own
// filter enforcement on purpose, so a defect in either layer alone is
// not a breach.
type Engine struct {
	rules  atomic.Pointer[RuleTable]
	logger logger.Logger
}

func NewEngine(rules *RuleTable, log logger.Logger) *Engine {
	e := &Engine{logger: log}
	e.rules.Store(rules)
	return e
}

// ReplaceRules swaps the rule table. Used by the rule-file watcher;
// in-flight requests keep the table they started with.
func (e *Engine) ReplaceRules(rules *RuleTable) {
	e.rules.Store(rules)
}

// Authorize produces exactly one decision for the triple. Denials are
// final for the request; there is no retry path inside the core.
func (e *Engine) Authorize(rc *RequestContext, res models.ResourceDescriptor, action models.Action) models.PolicyDecision {
	principal := rc.Principal()

	// Mandatory tenant equality, before any role rule. Super admins get
	// no exemption: their context already names a single target tenant.
	if res.TenantID == "" || res.TenantID != rc.Tenant().ID {
		e.logger.Warn("Cross-tenant access denied",
			"principal_id", principal.ID,
			"principal_role", principal.Role,
			"context_tenant", rc.Tenant().ID,
			"resource_tenant", res.TenantID,
			"resource", res.Kind,
			"action", action)
		return e.record(principal, res, models.Deny(models.ReasonCrossTenantAccess))
	}

	if bad := InspectValues(res.OwnerID, res.ClassID); len(bad) > 0 {
		e.logger.Warn("Suspicious resource identifier denied",
			"principal_id", principal.ID,
			"resource", res.Kind,
			"offending_count", len(bad))
		return e.record(principal, res, models.Deny(models.ReasonSuspicious))
	}

	if !models.ValidResourceKind(res.Kind) || !models.ValidAction(action) {
		return e.record(principal, res, models.Deny(models.ReasonRoleDenied))
	}

	if !e.rules.Load().Allows(principal.Role, res.Kind, action) {
		return e.record(principal, res, models.Deny(models.ReasonRoleDenied))
	}

	if !scopeSatisfied(principal, res) {
		return e.record(principal, res, models.Deny(models.ReasonRoleDenied))
	}

	return e.record(principal, res, models.Allow())
}

func (e *Engine) record(p models.Principal, res models.ResourceDescriptor, d models.PolicyDecision) models.PolicyDecision {
	monitoring.RecordAuthzDecision(string(p.Role), string(res.Kind), string(d.Reason), d.Allowed)
	return d
}

// scopeSatisfied applies the own-scope constraints that the flat rule
// table cannot express: teachers act within their classes, students on
// their own records, parents on their linked students' records.
func scopeSatisfied(p models.Principal, res models.ResourceDescriptor) bool {
	switch p.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return true

	case models.RoleTeacher:
		if res.ClassID == "" {
			return true
		}
		return contains(p.ClassIDs, res.ClassID)

	case models.RoleStudent:
		switch res.Kind {
		case models.ResourceGrade, models.ResourceAttendance:
			// Own records only.
			return res.OwnerID == "" || res.OwnerID == p.ID
		case models.ResourceAssignment:
			return res.ClassID == "" || contains(p.ClassIDs, res.ClassID)
		}
		return true

	case models.RoleParent:
		switch res.Kind {
		case models.ResourceGrade, models.ResourceAttendance, models.ResourceAssignment:
			return res.OwnerID == "" || contains(p.LinkedStudentIDs, res.OwnerID)
		}
		return true
	}
	return false
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
