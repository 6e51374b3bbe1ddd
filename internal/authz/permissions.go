package authz

// Role is a membership role inside a tenant.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleMember  Role = "MEMBER"
	RoleViewer  Role = "VIEWER"
)

// Permission is a "resource:action" capability string. An action of "*"
// matches every action on the resource.
type Permission string

const (
	ProjectCreate Permission = "project:create"
	ProjectRead   Permission = "project:read"
	ProjectUpdate Permission = "project:update"
	ProjectDelete Permission = "project:delete"
	ProjectManage Permission = "project:manage"

	RequirementCreate  Permission = "requirement:create"
	RequirementRead    Permission = "requirement:read"
	RequirementUpdate  Permission = "requirement:update"
	RequirementDelete  Permission = "requirement:delete"
	RequirementAnalyze Permission = "requirement:analyze"

	ModuleCreate   Permission = "module:create"
	ModuleRead     Permission = "module:read"
	ModuleUpdate   Permission = "module:update"
	ModuleDelete   Permission = "module:delete"
	ModuleGenerate Permission = "module:generate"

	TaskCreate       Permission = "task:create"
	TaskRead         Permission = "task:read"
	TaskUpdate       Permission = "task:update"
	TaskDelete       Permission = "task:delete"
	TaskAssign       Permission = "task:assign"
	TaskGenerateCode Permission = "task:generate_code"

	TenantRead           Permission = "tenant:read"
	TenantUpdate         Permission = "tenant:update"
	TenantManageUsers    Permission = "tenant:manage_users"
	TenantManageSettings Permission = "tenant:manage_settings"

	AIAnalyze   Permission = "ai:analyze"
	AIGenerate  Permission = "ai:generate"
	AIUnlimited Permission = "ai:unlimited"

	AttachmentUpload Permission = "attachment:upload"
	AttachmentRead   Permission = "attachment:read"
	AttachmentDelete Permission = "attachment:delete"
)

// RolePermissions is the static role allow-list. ADMIN is granted every
// permission implicitly and carries no entry here; the evaluator
// short-circuits on it.
var RolePermissions = map[Role][]Permission{
	RoleManager: {
		ProjectCreate, ProjectRead, ProjectUpdate, ProjectManage,
		RequirementCreate, RequirementRead, RequirementUpdate, RequirementAnalyze,
		ModuleCreate, ModuleRead, ModuleUpdate, ModuleGenerate,
		TaskCreate, TaskRead, TaskUpdate, TaskAssign, TaskGenerateCode,
		TenantRead,
		AIAnalyze, AIGenerate,
		AttachmentUpload, AttachmentRead, AttachmentDelete,
	},
	RoleMember: {
		ProjectRead,
		RequirementCreate, RequirementRead, RequirementUpdate, RequirementAnalyze,
		ModuleRead, ModuleUpdate, ModuleGenerate,
		TaskRead, TaskUpdate, TaskGenerateCode,
		TenantRead,
		AIAnalyze, AIGenerate,
		AttachmentUpload, AttachmentRead,
	},
	RoleViewer: {
		ProjectRead,
		RequirementRead,
		ModuleRead,
		TaskRead,
		TenantRead,
		AttachmentRead,
	},
}

// ParseRole validates a role string from a token claim.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleMember, RoleViewer:
		return Role(s), true
	}
	return "", false
}
