package service

import (
	"context"
	"sort"

	"github.com/teamdeck/teamdeck-backend/internal/repository"
	"github.com/teamdeck/teamdeck-backend/internal/teams"
)

// RoleKind distinguishes the three answers to "what role does this
// user have on this team": none at all, a named catalog role, or the
// implicit owner role.
type RoleKind int

const (
	RoleNone RoleKind = iota
	RoleNamed
	RoleOwner
)

// TeamContextService answers questions about a user's relationship to
// teams: which teams they can see, which one is active, and what they
// are allowed to do on each.
type TeamContextService interface {
	AllTeams(ctx context.Context, userID string) ([]*repository.Team, error)
	PersonalTeam(ctx context.Context, userID string) (*repository.Team, error)
	OwnsTeam(user *repository.User, team *repository.Team) bool
	BelongsToTeam(ctx context.Context, user *repository.User, team *repository.Team) (bool, error)

	GetCurrentTeam(ctx context.Context, user *repository.User) (*repository.Team, error)
	EnsureCurrentTeam(ctx context.Context, user *repository.User) (*repository.Team, error)
	SwitchTeam(ctx context.Context, user *repository.User, team *repository.Team) (bool, error)
	IsCurrentTeam(user *repository.User, team *repository.Team) bool

	TeamRole(ctx context.Context, user *repository.User, team *repository.Team) (RoleKind, *teams.Role, error)
	HasTeamRole(ctx context.Context, user *repository.User, team *repository.Team, roleKey string) (bool, error)
	TeamPermissions(ctx context.Context, user *repository.User, team *repository.Team) ([]string, error)
	HasTeamPermission(ctx context.Context, user *repository.User, team *repository.Team, permission string) (bool, error)
	CurrentTeamRole(ctx context.Context, user *repository.User) (RoleKind, *teams.Role, error)
	CurrentTeamPermissions(ctx context.Context, user *repository.User) ([]string, error)
	HasCurrentTeamPermission(ctx context.Context, user *repository.User, permission string) (bool, error)
}

type teamContextService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
	catalog  *teams.RoleCatalog
}

// NewTeamContextService creates a new team context service.
func NewTeamContextService(
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	catalog *teams.RoleCatalog,
) TeamContextService {
	return &teamContextService{
		teamRepo: teamRepo,
		userRepo: userRepo,
		catalog:  catalog,
	}
}

// ============================================
// MEMBERSHIP QUERIES
// ============================================

// AllTeams returns every team the user owns or has joined, sorted by
// name.
func (s *teamContextService) AllTeams(ctx context.Context, userID string) ([]*repository.Team, error) {
	owned, err := s.teamRepo.FindByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	joined, err := s.teamRepo.FindJoined(ctx, userID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(owned))
	all := make([]*repository.Team, 0, len(owned)+len(joined))
	for _, team := range append(owned, joined...) {
		if seen[team.ID] {
			continue
		}
		seen[team.ID] = true
		all = append(all, team)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (s *teamContextService) PersonalTeam(ctx context.Context, userID string) (*repository.Team, error) {
	return s.teamRepo.FindPersonalTeam(ctx, userID)
}

func (s *teamContextService) OwnsTeam(user *repository.User, team *repository.Team) bool {
	return user != nil && team != nil && team.UserID == user.ID
}

// BelongsToTeam reports whether the user owns the team or holds a
// membership on it.
func (s *teamContextService) BelongsToTeam(ctx context.Context, user *repository.User, team *repository.Team) (bool, error) {
	if user == nil || team == nil {
		return false, nil
	}
	if s.OwnsTeam(user, team) {
		return true, nil
	}
	return s.teamRepo.HasUser(ctx, team.ID, user.ID)
}

// ============================================
// CURRENT TEAM
// ============================================

// GetCurrentTeam resolves the user's current team without side
// effects. Returns nil when no current team is set.
func (s *teamContextService) GetCurrentTeam(ctx context.Context, user *repository.User) (*repository.Team, error) {
	if user == nil || user.CurrentTeamID == nil {
		return nil, nil
	}
	return s.teamRepo.FindByID(ctx, *user.CurrentTeamID)
}

// EnsureCurrentTeam resolves the current team, falling back to the
// user's personal team when none is set. The fallback is persisted so
// the next read is a plain lookup. Returns nil when the user has no
// personal team either.
func (s *teamContextService) EnsureCurrentTeam(ctx context.Context, user *repository.User) (*repository.Team, error) {
	if user == nil {
		return nil, nil
	}
	if user.CurrentTeamID != nil {
		return s.teamRepo.FindByID(ctx, *user.CurrentTeamID)
	}

	personal, err := s.teamRepo.FindPersonalTeam(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if personal == nil {
		return nil, nil
	}

	if err := s.userRepo.UpdateCurrentTeam(ctx, user.ID, &personal.ID); err != nil {
		return nil, err
	}
	user.CurrentTeamID = &personal.ID
	return personal, nil
}

// SwitchTeam makes the given team the user's current team. Returns
// false without mutating anything when the team is nil or the user
// neither owns nor belongs to it.
func (s *teamContextService) SwitchTeam(ctx context.Context, user *repository.User, team *repository.Team) (bool, error) {
	if user == nil || team == nil {
		return false, nil
	}

	belongs, err := s.BelongsToTeam(ctx, user, team)
	if err != nil {
		return false, err
	}
	if !belongs {
		return false, nil
	}

	if err := s.userRepo.UpdateCurrentTeam(ctx, user.ID, &team.ID); err != nil {
		return false, err
	}
	user.CurrentTeamID = &team.ID
	return true, nil
}

// IsCurrentTeam reports whether the given team is the user's current
// team.
func (s *teamContextService) IsCurrentTeam(user *repository.User, team *repository.Team) bool {
	if user == nil || team == nil || user.CurrentTeamID == nil {
		return false
	}
	return *user.CurrentTeamID == team.ID
}

// ============================================
// ROLES AND PERMISSIONS
// ============================================

// TeamRole resolves the user's role on the team. Owners get the
// implicit owner role. Members with no role, or a role key the catalog
// no longer knows, resolve to RoleNone.
func (s *teamContextService) TeamRole(ctx context.Context, user *repository.User, team *repository.Team) (RoleKind, *teams.Role, error) {
	if user == nil || team == nil {
		return RoleNone, nil, nil
	}
	if s.OwnsTeam(user, team) {
		return RoleOwner, teams.OwnerRole(), nil
	}

	membership, err := s.teamRepo.FindMembership(ctx, team.ID, user.ID)
	if err != nil {
		return RoleNone, nil, err
	}
	if membership == nil || membership.Role == nil {
		return RoleNone, nil, nil
	}

	role := s.catalog.FindRole(*membership.Role)
	if role == nil {
		return RoleNone, nil, nil
	}
	return RoleNamed, role, nil
}

// HasTeamRole reports whether the user holds the given role on the
// team. Owners hold every role implicitly; members match when their
// catalog-resolved role key equals roleKey.
func (s *teamContextService) HasTeamRole(ctx context.Context, user *repository.User, team *repository.Team, roleKey string) (bool, error) {
	kind, role, err := s.TeamRole(ctx, user, team)
	if err != nil {
		return false, err
	}

	switch kind {
	case RoleOwner:
		return true, nil
	case RoleNamed:
		return role.Key == roleKey, nil
	default:
		return false, nil
	}
}

// TeamPermissions returns the permissions the user holds on the team.
// Owners get the universal wildcard; non-members and members without a
// resolvable role get none.
func (s *teamContextService) TeamPermissions(ctx context.Context, user *repository.User, team *repository.Team) ([]string, error) {
	kind, role, err := s.TeamRole(ctx, user, team)
	if err != nil {
		return nil, err
	}

	switch kind {
	case RoleOwner:
		return []string{"*"}, nil
	case RoleNamed:
		perms := make([]string, len(role.Permissions))
		copy(perms, role.Permissions)
		return perms, nil
	default:
		return []string{}, nil
	}
}

func (s *teamContextService) HasTeamPermission(ctx context.Context, user *repository.User, team *repository.Team, permission string) (bool, error) {
	perms, err := s.TeamPermissions(ctx, user, team)
	if err != nil {
		return false, err
	}
	return teams.HasPermission(perms, permission), nil
}

// CurrentTeamRole resolves the user's role on their current team.
// No current team means RoleNone.
func (s *teamContextService) CurrentTeamRole(ctx context.Context, user *repository.User) (RoleKind, *teams.Role, error) {
	team, err := s.GetCurrentTeam(ctx, user)
	if err != nil {
		return RoleNone, nil, err
	}
	if team == nil {
		return RoleNone, nil, nil
	}
	return s.TeamRole(ctx, user, team)
}

// CurrentTeamPermissions returns the permissions the user holds on
// their current team. No current team means no permissions.
func (s *teamContextService) CurrentTeamPermissions(ctx context.Context, user *repository.User) ([]string, error) {
	team, err := s.GetCurrentTeam(ctx, user)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return []string{}, nil
	}
	return s.TeamPermissions(ctx, user, team)
}

// HasCurrentTeamPermission checks a permission against the user's
// current team. No current team means no permission.
func (s *teamContextService) HasCurrentTeamPermission(ctx context.Context, user *repository.User, permission string) (bool, error) {
	team, err := s.GetCurrentTeam(ctx, user)
	if err != nil {
		return false, err
	}
	if team == nil {
		return false, nil
	}
	return s.HasTeamPermission(ctx, user, team, permission)
}
