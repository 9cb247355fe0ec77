package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name      string
		granted   []string
		requested string
		want      bool
	}{
		{"exact match", []string{"team:read"}, "team:read", true},
		{"no match", []string{"team:read"}, "team:update", false},
		{"empty grants", []string{}, "team:read", false},
		{"nil grants", nil, "team:read", false},
		{"superadmin star", []string{"*"}, "anything:at:all", true},
		{"superadmin star colon star", []string{"*:*"}, "team:members:delete", true},
		{"prefix wildcard", []string{"team:members:*"}, "team:members:create", true},
		{"prefix wildcard deep", []string{"team:*"}, "team:members:delete", true},
		{"prefix wildcard miss", []string{"team:members:*"}, "team:read", false},
		{"wildcard does not match shorter", []string{"team:members:*"}, "billing:read", false},
		{"later grant wins", []string{"billing:read", "team:members:*"}, "team:members:update", true},
		{"double star strips one star only", []string{"team:**"}, "team:members", false},
		{"double star prefix keeps literal star", []string{"team:**"}, "team:*", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.granted, tt.requested))
		})
	}
}

func TestRoleHasPermission(t *testing.T) {
	role := &Role{Key: "admin", Name: "Administrator", Permissions: []string{"team:read", "team:members:*"}}

	assert.True(t, RoleHasPermission(role, "team:read"))
	assert.True(t, RoleHasPermission(role, "team:members:create"))
	assert.False(t, RoleHasPermission(role, "team:delete"))
	assert.False(t, RoleHasPermission(nil, "team:read"))
}

func TestOwnerRoleHasEverything(t *testing.T) {
	owner := OwnerRole()

	assert.Equal(t, OwnerRoleKey, owner.Key)
	assert.True(t, RoleHasPermission(owner, "team:delete"))
	assert.True(t, RoleHasPermission(owner, "team:members:update"))
}

func TestAnyRoleHasPermission(t *testing.T) {
	reader := &Role{Key: "reader", Permissions: []string{"team:read"}}
	editor := &Role{Key: "editor", Permissions: []string{"team:update"}}

	assert.True(t, AnyRoleHasPermission([]*Role{reader, editor}, "team:update"))
	assert.False(t, AnyRoleHasPermission([]*Role{reader}, "team:update"))
	assert.False(t, AnyRoleHasPermission(nil, "team:read"))
}
