package access

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/edustack/campus-core/internal/models"
)

// RuleTable is the explicit role-by-resource-by-action permission map.
// It answers the role question only; the tenant-equality check in the
// policy engine runs before it and cannot be overridden by any rule here.
type RuleTable struct {
	roles map[models.Role]map[models.ResourceKind]map[models.Action]bool
}

// ruleFile is the YAML shape of an externally supplied rule table:
//
//	roles:
//	  teacher:
//	    assignment: [read, write]
//	    grade: [read, write]
type ruleFile struct {
	Roles map[string]map[string][]string `yaml:"roles"`
}

// DefaultRuleTable is the built-in permission map for the school domain.
func DefaultRuleTable() *RuleTable {
	all := []models.Action{models.ActionRead, models.ActionWrite, models.ActionDelete}
	rw := []models.Action{models.ActionRead, models.ActionWrite}
	r := []models.Action{models.ActionRead}

	t := newRuleTable()

	for _, kind := range []models.ResourceKind{
		models.ResourceAssignment, models.ResourceGrade, models.ResourceAttendance,
		models.ResourceMessage, models.ResourceEnrollment, models.ResourceTenant,
		models.ResourceAudit,
	} {
		t.set(models.RoleSuperAdmin, kind, all...)
	}

	t.set(models.RoleAdmin, models.ResourceAssignment, all...)
	t.set(models.RoleAdmin, models.ResourceGrade, all...)
	t.set(models.RoleAdmin, models.ResourceAttendance, all...)
	t.set(models.RoleAdmin, models.ResourceMessage, all...)
	t.set(models.RoleAdmin, models.ResourceEnrollment, all...)
	// Admins manage their tenant but cannot delete it.
	t.set(models.RoleAdmin, models.ResourceTenant, rw...)
	t.set(models.RoleAdmin, models.ResourceAudit, r...)

	t.set(models.RoleTeacher, models.ResourceAssignment, rw...)
	t.set(models.RoleTeacher, models.ResourceGrade, rw...)
	t.set(models.RoleTeacher, models.ResourceAttendance, rw...)
	t.set(models.RoleTeacher, models.ResourceMessage, rw...)
	t.set(models.RoleTeacher, models.ResourceEnrollment, r...)

	t.set(models.RoleStudent, models.ResourceAssignment, r...)
	t.set(models.RoleStudent, models.ResourceGrade, r...)
	t.set(models.RoleStudent, models.ResourceAttendance, r...)
	t.set(models.RoleStudent, models.ResourceMessage, rw...)

	t.set(models.RoleParent, models.ResourceAssignment, r...)
	t.set(models.RoleParent, models.ResourceGrade, r...)
	t.set(models.RoleParent, models.ResourceAttendance, r...)
	t.set(models.RoleParent, models.ResourceMessage, rw...)

	return t
}

// LoadRuleTable reads a rule table from a YAML file, rejecting unknown
// role, resource, or action names rather than silently dropping them.
func LoadRuleTable(path string) (*RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rule file: %w", err)
	}
	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("rule file %s defines no roles", path)
	}

	t := newRuleTable()
	for roleName, kinds := range file.Roles {
		role := models.Role(roleName)
		if !models.ValidRole(role) {
			return nil, fmt.Errorf("rule file %s: unknown role %q", path, roleName)
		}
		for kindName, actions := range kinds {
			kind := models.ResourceKind(kindName)
			if !models.ValidResourceKind(kind) {
				return nil, fmt.Errorf("rule file %s: unknown resource %q", path, kindName)
			}
			for _, actionName := range actions {
				action := models.Action(actionName)
				if !models.ValidAction(action) {
					return nil, fmt.Errorf("rule file %s: unknown action %q", path, actionName)
				}
				t.set(role, kind, action)
			}
		}
	}
	return t, nil
}

func newRuleTable() *RuleTable {
	return &RuleTable{roles: make(map[models.Role]map[models.ResourceKind]map[models.Action]bool)}
}

func (t *RuleTable) set(role models.Role, kind models.ResourceKind, actions ...models.Action) {
	if t.roles[role] == nil {
		t.roles[role] = make(map[models.ResourceKind]map[models.Action]bool)
	}
	if t.roles[role][kind] == nil {
		t.roles[role][kind] = make(map[models.Action]bool)
	}
	for _, a := range actions {
		t.roles[role][kind][a] = true
	}
}

// Allows reports whether the rule table grants the action. Absence is a
// deny; there are no explicit deny entries to shadow.
func (t *RuleTable) Allows(role models.Role, kind models.ResourceKind, action models.Action) bool {
	return t.roles[role][kind][action]
}
