package teams

import (
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// DefaultInvitationDays is how long team invitations stay valid unless
// the catalog is configured otherwise.
const DefaultInvitationDays = 7

// RoleCatalog is the process-wide registry of assignable roles and the
// union of every permission they mention. It is built once at startup
// and injected into the services that resolve roles; the lock only
// matters if registration ever races a read.
type RoleCatalog struct {
	mu             sync.RWMutex
	roles          map[string]*Role
	order          []string
	permissions    []string
	invitationDays int
}

// NewRoleCatalog creates an empty catalog.
func NewRoleCatalog() *RoleCatalog {
	return &RoleCatalog{
		roles:          make(map[string]*Role),
		invitationDays: DefaultInvitationDays,
	}
}

// Register adds a role to the catalog and merges its permissions into
// the permission universe. Re-registering an existing key overwrites
// the previous role (last write wins) and logs the collision.
func (c *RoleCatalog) Register(key, name string, permissions []string, description string) *Role {
	role := &Role{
		Key:         key,
		Name:        name,
		Permissions: append([]string(nil), permissions...),
		Description: description,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.roles[key]; exists {
		log.WithField("role", key).Warn("[Teams] Role key registered twice, overwriting previous definition")
	} else {
		c.order = append(c.order, key)
	}
	c.roles[key] = role

	c.permissions = mergePermissions(c.permissions, permissions)

	return role
}

// FindRole returns the role with the given key, or nil.
func (c *RoleCatalog) FindRole(key string) *Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.roles[key]
}

// Roles returns the registered roles in registration order.
func (c *RoleCatalog) Roles() []*Role {
	c.mu.RLock()
	defer c.mu.RUnlock()

	roles := make([]*Role, 0, len(c.order))
	for _, key := range c.order {
		roles = append(roles, c.roles[key])
	}
	return roles
}

// HasRoles reports whether any roles have been registered. Role
// validation in the lifecycle actions is skipped entirely when this is
// false, letting deployments opt out of the role system.
func (c *RoleCatalog) HasRoles() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.roles) > 0
}

// HasPermissions reports whether any permissions have been registered.
func (c *RoleCatalog) HasPermissions() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.permissions) > 0
}

// Permissions returns the deduplicated, sorted permission universe.
func (c *RoleCatalog) Permissions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.permissions...)
}

// ValidPermissions returns the subset of candidates that are actually
// registered permissions, preserving candidate order.
func (c *RoleCatalog) ValidPermissions(candidates []string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	known := make(map[string]bool, len(c.permissions))
	for _, p := range c.permissions {
		known[p] = true
	}

	valid := make([]string, 0, len(candidates))
	for _, p := range candidates {
		if known[p] {
			valid = append(valid, p)
		}
	}
	return valid
}

// InvitationDays returns the number of days team invitations are valid for.
func (c *RoleCatalog) InvitationDays() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invitationDays
}

// SetInvitationDays overrides the invitation validity window.
func (c *RoleCatalog) SetInvitationDays(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invitationDays = days
}

func mergePermissions(existing, added []string) []string {
	seen := make(map[string]bool, len(existing)+len(added))
	merged := make([]string, 0, len(existing)+len(added))
	for _, p := range existing {
		if !seen[p] {
			seen[p] = true
			merged = append(merged, p)
		}
	}
	for _, p := range added {
		if !seen[p] {
			seen[p] = true
			merged = append(merged, p)
		}
	}
	sort.Strings(merged)
	return merged
}
