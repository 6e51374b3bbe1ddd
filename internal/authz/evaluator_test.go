package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestEvaluate_AdminAllowsEverything(t *testing.T) {
	for _, perm := range []Permission{
		ProjectCreate, ProjectDelete, TenantManageUsers, TaskGenerateCode, AttachmentDelete,
	} {
		decision := Evaluate(RoleAdmin, perm, nil)
		assert.True(t, decision.Allowed, "ADMIN should be allowed %s", perm)
	}
}

func TestEvaluate_InvalidRole(t *testing.T) {
	decision := Evaluate(Role("SUPERUSER"), ProjectRead, nil)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonInvalidRole, decision.Reason)
}

func TestEvaluate_ViewerIsReadOnly(t *testing.T) {
	assert.True(t, Evaluate(RoleViewer, ProjectRead, nil).Allowed)
	assert.True(t, Evaluate(RoleViewer, TaskRead, nil).Allowed)

	for _, perm := range []Permission{ProjectCreate, ProjectUpdate, ProjectDelete, TaskUpdate, RequirementCreate} {
		decision := Evaluate(RoleViewer, perm, nil)
		assert.False(t, decision.Allowed, "VIEWER should be denied %s", perm)
		assert.Equal(t, ReasonPermissionMissing, decision.Reason)
	}
}

func TestEvaluate_MemberTaskUpdateButNotProjectDelete(t *testing.T) {
	assert.True(t, Evaluate(RoleMember, TaskUpdate, nil).Allowed)

	decision := Evaluate(RoleMember, ProjectDelete, nil)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonPermissionMissing, decision.Reason)
}

func TestEvaluate_ManagerScope(t *testing.T) {
	assert.True(t, Evaluate(RoleManager, ProjectCreate, nil).Allowed)
	assert.True(t, Evaluate(RoleManager, AttachmentDelete, nil).Allowed)
	assert.False(t, Evaluate(RoleManager, ProjectDelete, nil).Allowed)
	assert.False(t, Evaluate(RoleManager, TenantManageUsers, nil).Allowed)
}

func TestGrants_WildcardPermission(t *testing.T) {
	// A table entry of "resource:*" must satisfy any action on that resource
	// without granting other resources.
	rules := compileRules([]Permission{Permission("report:*")})

	assert.True(t, grants(rules, Permission("report:read")))
	assert.True(t, grants(rules, Permission("report:delete")))
	assert.False(t, grants(rules, Permission("project:read")))
}

func TestEvaluate_OwnershipCondition(t *testing.T) {
	owner := uuid.New()
	caller := uuid.New()

	cond := &Conditions{OwnerID: &owner, CallerID: caller}

	// MEMBER holds task:update but not on someone else's record.
	decision := Evaluate(RoleMember, TaskUpdate, cond)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonOwnerOnly, decision.Reason)

	// The owner themselves passes.
	ownCond := &Conditions{OwnerID: &owner, CallerID: owner}
	assert.True(t, Evaluate(RoleMember, TaskUpdate, ownCond).Allowed)

	// MANAGER and ADMIN act on any record in the tenant.
	assert.True(t, Evaluate(RoleManager, TaskUpdate, cond).Allowed)
	assert.True(t, Evaluate(RoleAdmin, TaskUpdate, cond).Allowed)
}

func TestEvaluate_CrossTenantConditionDeniesEveryone(t *testing.T) {
	recordTenant := uuid.New()
	callerTenant := uuid.New()

	cond := &Conditions{TenantID: &recordTenant, CallerTenantID: callerTenant}

	for _, role := range []Role{RoleAdmin, RoleManager, RoleMember, RoleViewer} {
		decision := Evaluate(role, ProjectRead, cond)
		assert.False(t, decision.Allowed, "%s must not cross tenants", role)
		assert.Equal(t, ReasonCrossTenant, decision.Reason)
	}
}

func TestEvaluate_MatchingTenantCondition(t *testing.T) {
	tenantID := uuid.New()
	cond := &Conditions{TenantID: &tenantID, CallerTenantID: tenantID}
	assert.True(t, Evaluate(RoleViewer, ProjectRead, cond).Allowed)
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("ADMIN")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	_, ok = ParseRole("admin")
	assert.False(t, ok)

	_, ok = ParseRole("")
	assert.False(t, ok)
}
