package events

import (
	"github.com/teamdeck/teamdeck-backend/internal/repository"
)

// Event is anything the dispatcher can fan out to listeners. Names are
// stable dotted identifiers; they double as the Redis channel suffix
// when mirroring is enabled.
type Event interface {
	Name() string
}

// AddingTeam fires before a team row exists. Listeners may veto by
// returning an error.
type AddingTeam struct {
	User *repository.User `json:"user"`
}

func (AddingTeam) Name() string { return "team.adding" }

// AddingTeamMember fires before a user is attached to a team.
type AddingTeamMember struct {
	Team *repository.Team `json:"team"`
	User *repository.User `json:"user"`
}

func (AddingTeamMember) Name() string { return "team.member.adding" }

// TeamMemberAdded fires after a user has been attached to a team,
// whether directly or through an accepted invitation.
type TeamMemberAdded struct {
	Team *repository.Team `json:"team"`
	User *repository.User `json:"user"`
}

func (TeamMemberAdded) Name() string { return "team.member.added" }

// TeamMemberUpdated fires after a member's role changes. Team and User
// reflect the state after the change.
type TeamMemberUpdated struct {
	Team *repository.Team `json:"team"`
	User *repository.User `json:"user"`
}

func (TeamMemberUpdated) Name() string { return "team.member.updated" }

// TeamMemberRemoved fires after a member leaves or is removed.
type TeamMemberRemoved struct {
	Team *repository.Team `json:"team"`
	User *repository.User `json:"user"`
}

func (TeamMemberRemoved) Name() string { return "team.member.removed" }

// InvitingTeamMember fires before an invitation row is created.
type InvitingTeamMember struct {
	Team  *repository.Team `json:"team"`
	Email string           `json:"email"`
	Role  *string          `json:"role,omitempty"`
}

func (InvitingTeamMember) Name() string { return "team.inviting" }

// UserRegistered fires after a new account is created. The personal
// team listener hangs off this.
type UserRegistered struct {
	User *repository.User `json:"user"`
}

func (UserRegistered) Name() string { return "user.registered" }
