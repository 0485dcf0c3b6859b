package authz

const (
	RoleSales       = 10
	RoleCoordinator = 20
	RoleAudit       = 30
	RoleManagement  = 40
	RoleAdmin       = 50
)

func IsElevated(roleID int) bool {
	return roleID == RoleCoordinator || roleID == RoleManagement || roleID == RoleAdmin
}

func IsReadOnly(roleID int) bool {
	return roleID == RoleAudit
}
