package rbac

// Permissions for sensitive operations. Reads and ordinary writes are
// covered by authentication alone; deletes and installer runs are gated.
const (
	PermissionDeleteRecord  = "record:delete"
	PermissionManageBoard   = "board:manage"
	PermissionManageFields  = "fields:manage"
	PermissionRunInstaller  = "installer:run"
	PermissionApproveAction = "decision:approve"
	PermissionManageUsers   = "users:manage"
)

const (
	RoleMember = "member"
	RoleAdmin  = "admin"
	RoleOwner  = "owner"
)

var rolePermissions = map[string][]string{
	RoleMember: {
		PermissionApproveAction,
	},
	RoleAdmin: {
		PermissionDeleteRecord,
		PermissionManageBoard,
		PermissionManageFields,
		PermissionApproveAction,
		PermissionManageUsers,
	},
	RoleOwner: {
		PermissionDeleteRecord,
		PermissionManageBoard,
		PermissionManageFields,
		PermissionRunInstaller,
		PermissionApproveAction,
		PermissionManageUsers,
	},
}

// HasPermission reports whether a tenant role grants the permission.
func HasPermission(role string, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission returns a PermissionDeniedError when the role lacks the
// permission. Handlers prefer the error form.
func CheckPermission(role string, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}

// ValidateTenantInPayload ensures the tenant id carried in a request body
// matches the tenant claimed by the token.
func ValidateTenantInPayload(tokenTenantID, payloadTenantID string) error {
	if payloadTenantID != "" && payloadTenantID != tokenTenantID {
		return &TenantMismatchError{
			TokenTenantID:   tokenTenantID,
			PayloadTenantID: payloadTenantID,
		}
	}
	return nil
}

type TenantMismatchError struct {
	TokenTenantID   string
	PayloadTenantID string
}

func (e *TenantMismatchError) Error() string {
	return "tenant_id in payload does not match token"
}
