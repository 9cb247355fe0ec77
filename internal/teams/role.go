package teams

// OwnerRoleKey is the reserved key for the synthesized owner role.
const OwnerRoleKey = "owner"

// Role is a named, immutable bundle of permission strings that can be
// assigned to team members.
type Role struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
	Description string   `json:"description,omitempty"`
}

// OwnerRole returns the role implicitly held by a team's owner. It is
// never stored in the catalog and grants every permission.
func OwnerRole() *Role {
	return &Role{
		Key:         OwnerRoleKey,
		Name:        "Owner",
		Permissions: []string{"*"},
	}
}
