package teams

// DefaultCatalog returns a catalog preloaded with the built-in
// administrator and member roles.
func DefaultCatalog() *RoleCatalog {
	c := NewRoleCatalog()

	c.Register("admin", "Administrator", []string{
		"team:create",
		"team:read",
		"team:update",
		"team:members:*",
	}, "Administrator users can perform any action.")

	c.Register("member", "Member", []string{
		"team:read",
		"team:members:read",
	}, "Member users can read teams and their members.")

	return c
}
