package authz

import (
	"strings"

	"github.com/google/uuid"
)

// Deny reasons returned by Evaluate.
const (
	ReasonInvalidRole       = "invalid role"
	ReasonPermissionMissing = "permission not granted"
	ReasonOwnerOnly         = "resource owned by another user"
	ReasonCrossTenant       = "cross-tenant access denied"
)

// Conditions layer ownership and tenancy checks on top of the static table.
// OwnerID and TenantID are optional; CallerID/CallerTenantID describe the
// authenticated caller.
type Conditions struct {
	OwnerID        *uuid.UUID
	TenantID       *uuid.UUID
	CallerID       uuid.UUID
	CallerTenantID uuid.UUID
}

// Decision is the outcome of a permission evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// rule is one compiled allow-list entry. Wildcard entries ("resource:*")
// match any action on the resource.
type rule struct {
	resource string
	action   string
	wildcard bool
}

func compileRule(p Permission) rule {
	resource, action, _ := strings.Cut(string(p), ":")
	return rule{resource: resource, action: action, wildcard: action == "*"}
}

func compileRules(perms []Permission) []rule {
	rules := make([]rule, 0, len(perms))
	for _, p := range perms {
		rules = append(rules, compileRule(p))
	}
	return rules
}

var compiled = func() map[Role][]rule {
	m := make(map[Role][]rule, len(RolePermissions))
	for role, perms := range RolePermissions {
		m[role] = compileRules(perms)
	}
	return m
}()

func grants(rules []rule, p Permission) bool {
	want := compileRule(p)
	for _, r := range rules {
		if r.resource != want.resource {
			continue
		}
		if r.wildcard || r.action == want.action {
			return true
		}
	}
	return false
}

func roleGrants(role Role, p Permission) bool {
	return grants(compiled[role], p)
}

// Evaluate maps (role, permission, conditions) to an allow/deny decision.
// Pure function of its inputs; the role table is fixed at startup.
func Evaluate(role Role, permission Permission, cond *Conditions) Decision {
	if _, ok := ParseRole(string(role)); !ok {
		return deny(ReasonInvalidRole)
	}

	// ADMIN passes the static table implicitly; everyone else needs an entry.
	if role != RoleAdmin && !roleGrants(role, permission) {
		return deny(ReasonPermissionMissing)
	}

	if cond != nil {
		// Last line of defense: a handler supplying a foreign tenant id is
		// denied no matter the role.
		if cond.TenantID != nil && *cond.TenantID != cond.CallerTenantID {
			return deny(ReasonCrossTenant)
		}
		if cond.OwnerID != nil && *cond.OwnerID != cond.CallerID {
			if role != RoleAdmin && role != RoleManager {
				return deny(ReasonOwnerOnly)
			}
		}
	}

	return allow
}
