package service

import (
	"context"

	"github.com/teamdeck/teamdeck-backend/internal/repository"
)

// TeamAction names an operation subject to authorization.
type TeamAction string

const (
	ActionViewTeam         TeamAction = "view"
	ActionCreateTeam       TeamAction = "create"
	ActionUpdateTeam       TeamAction = "update"
	ActionDeleteTeam       TeamAction = "delete"
	ActionAddTeamMember    TeamAction = "addTeamMember"
	ActionUpdateTeamMember TeamAction = "updateTeamMember"
	ActionRemoveTeamMember TeamAction = "removeTeamMember"
)

// Gate decides whether a user may perform an action on a team.
// Implementations can be swapped to integrate an external policy
// engine; the default consults team permissions.
type Gate interface {
	Check(ctx context.Context, user *repository.User, action TeamAction, team *repository.Team) (bool, error)
	Authorize(ctx context.Context, user *repository.User, action TeamAction, team *repository.Team) error
}

// actionPermissions maps each gated action to the team permission that
// grants it. Team owners hold the universal wildcard and pass every
// check implicitly.
var actionPermissions = map[TeamAction]string{
	ActionViewTeam:         "team:read",
	ActionUpdateTeam:       "team:update",
	ActionDeleteTeam:       "team:delete",
	ActionAddTeamMember:    "team:members:create",
	ActionUpdateTeamMember: "team:members:update",
	ActionRemoveTeamMember: "team:members:delete",
}

type permissionGate struct {
	context TeamContextService
}

// NewPermissionGate creates the default gate backed by team
// permissions.
func NewPermissionGate(context TeamContextService) Gate {
	return &permissionGate{context: context}
}

func (g *permissionGate) Check(ctx context.Context, user *repository.User, action TeamAction, team *repository.Team) (bool, error) {
	if user == nil {
		return false, nil
	}

	// Any authenticated user may create teams.
	if action == ActionCreateTeam {
		return true, nil
	}

	permission, ok := actionPermissions[action]
	if !ok || team == nil {
		return false, nil
	}
	return g.context.HasTeamPermission(ctx, user, team, permission)
}

func (g *permissionGate) Authorize(ctx context.Context, user *repository.User, action TeamAction, team *repository.Team) error {
	allowed, err := g.Check(ctx, user, action, team)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}
