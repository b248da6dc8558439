package rbac

import (
	"errors"
	"testing"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleOwner, PermissionRunInstaller, true},
		{RoleAdmin, PermissionRunInstaller, false},
		{RoleAdmin, PermissionDeleteRecord, true},
		{RoleMember, PermissionDeleteRecord, false},
		{RoleMember, PermissionApproveAction, true},
		{"unknown", PermissionApproveAction, false},
	}

	for _, tt := range tests {
		if got := HasPermission(tt.role, tt.permission); got != tt.want {
			t.Errorf("HasPermission(%q, %q) = %v, want %v", tt.role, tt.permission, got, tt.want)
		}
	}
}

func TestCheckPermission(t *testing.T) {
	if err := CheckPermission(RoleOwner, PermissionDeleteRecord); err != nil {
		t.Errorf("owner delete: %v", err)
	}

	err := CheckPermission(RoleMember, PermissionRunInstaller)
	var denied *PermissionDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("err = %v, want PermissionDeniedError", err)
	}
	if denied.Role != RoleMember || denied.Permission != PermissionRunInstaller {
		t.Errorf("denied = %+v", denied)
	}
}

func TestValidateTenantInPayload(t *testing.T) {
	if err := ValidateTenantInPayload("t1", "t1"); err != nil {
		t.Errorf("matching tenants: %v", err)
	}
	// Empty payload tenant means "use the token's tenant".
	if err := ValidateTenantInPayload("t1", ""); err != nil {
		t.Errorf("empty payload tenant: %v", err)
	}
	if err := ValidateTenantInPayload("t1", "t2"); err == nil {
		t.Error("mismatched tenants: want error")
	}
}
