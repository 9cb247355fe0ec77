package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"github.com/teamdeck/teamdeck-backend/internal/events"
	"github.com/teamdeck/teamdeck-backend/internal/repository"
	"github.com/teamdeck/teamdeck-backend/internal/teams"
)

var validate = validator.New()

// InvitationSender delivers invitation notifications. Delivery is best
// effort; a failed send never rolls back the invitation.
type InvitationSender interface {
	SendInvitation(ctx context.Context, team *repository.Team, invitation *repository.TeamInvitation, inviter *repository.User) error
}

// CreateTeamInput carries the fields for creating a team.
type CreateTeamInput struct {
	Name     string
	Personal bool
}

// TeamService implements the team lifecycle: creation, membership,
// invitations and deletion. Every mutating operation takes the acting
// user and authorizes them before touching anything.
type TeamService interface {
	CreateTeam(ctx context.Context, actor *repository.User, input CreateTeamInput) (*repository.Team, error)
	GetTeam(ctx context.Context, actor *repository.User, teamID string) (*repository.Team, error)
	UpdateTeamName(ctx context.Context, actor *repository.User, teamID, name string) (*repository.Team, error)
	DeleteTeam(ctx context.Context, actor *repository.User, teamID string) error
	ValidateTeamDeletion(ctx context.Context, actor *repository.User, team *repository.Team) error

	TeamMembers(ctx context.Context, actor *repository.User, teamID string) ([]*repository.Membership, error)
	AddTeamMember(ctx context.Context, actor *repository.User, teamID, email, role string) error
	UpdateMemberRole(ctx context.Context, actor *repository.User, teamID, memberID, role string) error
	RemoveTeamMember(ctx context.Context, actor *repository.User, teamID, memberID string) error

	TeamInvitations(ctx context.Context, actor *repository.User, teamID string) ([]*repository.TeamInvitation, error)
	InviteTeamMember(ctx context.Context, actor *repository.User, teamID, email, role string) (*repository.TeamInvitation, error)
	AcceptInvitation(ctx context.Context, actor *repository.User, invitationID string) error
	DeclineInvitation(ctx context.Context, actor *repository.User, invitationID string) error
}

type teamService struct {
	teamRepo       repository.TeamRepository
	userRepo       repository.UserRepository
	invitationRepo repository.InvitationRepository
	catalog        *teams.RoleCatalog
	gate           Gate
	context        TeamContextService
	bus            events.Bus
	sender         InvitationSender
}

// NewTeamService creates a new team service. sender may be nil to
// disable invitation emails.
func NewTeamService(
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	invitationRepo repository.InvitationRepository,
	catalog *teams.RoleCatalog,
	gate Gate,
	teamContext TeamContextService,
	bus events.Bus,
	sender InvitationSender,
) TeamService {
	return &teamService{
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		invitationRepo: invitationRepo,
		catalog:        catalog,
		gate:           gate,
		context:        teamContext,
		bus:            bus,
		sender:         sender,
	}
}

// ============================================
// TEAM LIFECYCLE
// ============================================

// CreateTeam creates a team owned by the actor and switches them to
// it. A user may own at most one personal team.
func (s *teamService) CreateTeam(ctx context.Context, actor *repository.User, input CreateTeamInput) (*repository.Team, error) {
	if err := s.gate.Authorize(ctx, actor, ActionCreateTeam, nil); err != nil {
		return nil, err
	}

	v := NewValidationError("createTeam")
	validateTeamName(v, input.Name)

	if input.Personal {
		personal, err := s.teamRepo.FindPersonalTeam(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if personal != nil {
			v.Add("personal_team", "You may not create a personal team.")
		}
	}
	if v.HasErrors() {
		return nil, v
	}

	if err := s.bus.Publish(ctx, events.AddingTeam{User: actor}); err != nil {
		return nil, err
	}

	team := &repository.Team{
		Name:         input.Name,
		UserID:       actor.ID,
		PersonalTeam: input.Personal,
	}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, err
	}

	if _, err := s.context.SwitchTeam(ctx, actor, team); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"team": team.ID, "owner": actor.ID}).Info("✅ Team created")
	return team, nil
}

func (s *teamService) GetTeam(ctx context.Context, actor *repository.User, teamID string) (*repository.Team, error) {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, ActionViewTeam, team); err != nil {
		return nil, err
	}
	return team, nil
}

func (s *teamService) UpdateTeamName(ctx context.Context, actor *repository.User, teamID, name string) (*repository.Team, error) {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, ActionUpdateTeam, team); err != nil {
		return nil, err
	}

	v := NewValidationError("updateTeamName")
	validateTeamName(v, name)
	if v.HasErrors() {
		return nil, v
	}

	if err := s.teamRepo.UpdateName(ctx, team.ID, name); err != nil {
		return nil, err
	}
	team.Name = name
	return team, nil
}

// ValidateTeamDeletion checks that the actor may delete the team.
// Personal teams are permanent.
func (s *teamService) ValidateTeamDeletion(ctx context.Context, actor *repository.User, team *repository.Team) error {
	if err := s.gate.Authorize(ctx, actor, ActionDeleteTeam, team); err != nil {
		return err
	}
	if team.PersonalTeam {
		return validationFailed("deleteTeam", "team", "You may not delete your personal team.")
	}
	return nil
}

// DeleteTeam purges the team and everything hanging off it.
func (s *teamService) DeleteTeam(ctx context.Context, actor *repository.User, teamID string) error {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if err := s.ValidateTeamDeletion(ctx, actor, team); err != nil {
		return err
	}

	if err := s.teamRepo.Purge(ctx, team.ID); err != nil {
		return err
	}

	log.WithField("team", team.ID).Info("🗑️ Team deleted")
	return nil
}

// ============================================
// MEMBERSHIP
// ============================================

func (s *teamService) TeamMembers(ctx context.Context, actor *repository.User, teamID string) ([]*repository.Membership, error) {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, ActionViewTeam, team); err != nil {
		return nil, err
	}
	return s.teamRepo.FindMembers(ctx, team.ID)
}

// AddTeamMember attaches an already-registered user to the team
// directly, skipping the invitation flow.
func (s *teamService) AddTeamMember(ctx context.Context, actor *repository.User, teamID, email, role string) error {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if err := s.gate.Authorize(ctx, actor, ActionAddTeamMember, team); err != nil {
		return err
	}

	v := NewValidationError("addTeamMember")
	validateEmail(v, email)
	s.validateRole(v, role)

	var user *repository.User
	if email != "" {
		user, err = s.userRepo.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user == nil {
			v.Add("email", "We were unable to find a registered user with this email address.")
		} else {
			onTeam, err := s.teamRepo.HasUserWithEmail(ctx, team.ID, email)
			if err != nil {
				return err
			}
			if onTeam {
				v.Add("email", "This user already belongs to the team.")
			}
		}
	}
	if v.HasErrors() {
		return v
	}

	if err := s.bus.Publish(ctx, events.AddingTeamMember{Team: team, User: user}); err != nil {
		return err
	}

	member := &repository.Membership{
		TeamID:      team.ID,
		UserID:      user.ID,
		Role:        optional(role),
		InvitedByID: &actor.ID,
	}
	if err := s.teamRepo.AttachMember(ctx, member); err != nil {
		if err == repository.ErrDuplicate {
			return validationFailed("addTeamMember", "email", "This user already belongs to the team.")
		}
		return err
	}

	return s.bus.Publish(ctx, events.TeamMemberAdded{Team: team, User: user})
}

func (s *teamService) UpdateMemberRole(ctx context.Context, actor *repository.User, teamID, memberID, role string) error {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if err := s.gate.Authorize(ctx, actor, ActionUpdateTeamMember, team); err != nil {
		return err
	}

	v := NewValidationError("")
	s.validateRole(v, role)
	if v.HasErrors() {
		return v
	}

	membership, err := s.teamRepo.FindMembership(ctx, team.ID, memberID)
	if err != nil {
		return err
	}
	if membership == nil {
		return ErrNotFound
	}

	if err := s.teamRepo.UpdateMemberRole(ctx, team.ID, memberID, role); err != nil {
		return err
	}

	member, err := s.userRepo.FindByID(ctx, memberID)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, events.TeamMemberUpdated{Team: team, User: member})
}

// RemoveTeamMember detaches a member. Members may always remove
// themselves; removing anyone else requires the gate. The owner cannot
// be removed.
func (s *teamService) RemoveTeamMember(ctx context.Context, actor *repository.User, teamID, memberID string) error {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return err
	}

	allowed, err := s.gate.Check(ctx, actor, ActionRemoveTeamMember, team)
	if err != nil {
		return err
	}
	if !allowed && actor.ID != memberID {
		return ErrForbidden
	}

	member, err := s.userRepo.FindByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return ErrNotFound
	}

	if member.ID == team.UserID {
		return validationFailed("removeTeamMember", "team", "You may not leave a team that you created.")
	}

	if err := s.teamRepo.RemoveUser(ctx, team.ID, member.ID); err != nil {
		return err
	}
	if member.CurrentTeamID != nil && *member.CurrentTeamID == team.ID {
		member.CurrentTeamID = nil
	}

	return s.bus.Publish(ctx, events.TeamMemberRemoved{Team: team, User: member})
}

// ============================================
// INVITATIONS
// ============================================

func (s *teamService) TeamInvitations(ctx context.Context, actor *repository.User, teamID string) ([]*repository.TeamInvitation, error) {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, ActionAddTeamMember, team); err != nil {
		return nil, err
	}
	return s.invitationRepo.FindByTeam(ctx, team.ID)
}

// InviteTeamMember creates a pending invitation for an email address
// and sends the notification in the background.
func (s *teamService) InviteTeamMember(ctx context.Context, actor *repository.User, teamID, email, role string) (*repository.TeamInvitation, error) {
	team, err := s.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, actor, ActionAddTeamMember, team); err != nil {
		return nil, err
	}

	v := NewValidationError("addTeamMember")
	validateEmail(v, email)
	s.validateRole(v, role)

	if email != "" {
		invited, err := s.invitationRepo.ExistsForEmail(ctx, team.ID, email)
		if err != nil {
			return nil, err
		}
		if invited {
			v.Add("email", "This user has already been invited to the team.")
		}

		onTeam, err := s.teamRepo.HasUserWithEmail(ctx, team.ID, email)
		if err != nil {
			return nil, err
		}
		if onTeam {
			v.Add("email", "This user already belongs to the team.")
		}
	}
	if v.HasErrors() {
		return nil, v
	}

	if err := s.bus.Publish(ctx, events.InvitingTeamMember{Team: team, Email: email, Role: optional(role)}); err != nil {
		return nil, err
	}

	invitation := &repository.TeamInvitation{
		TeamID:      team.ID,
		Email:       email,
		Role:        optional(role),
		InvitedByID: actor.ID,
		ExpiresAt:   time.Now().Add(time.Duration(s.catalog.InvitationDays()) * 24 * time.Hour),
	}
	if err := s.invitationRepo.Create(ctx, invitation); err != nil {
		if err == repository.ErrDuplicate {
			return nil, validationFailed("addTeamMember", "email", "This user has already been invited to the team.")
		}
		return nil, err
	}

	s.sendInvitation(team, invitation, actor)
	return invitation, nil
}

// AcceptInvitation turns a pending invitation into a membership.
// Expired invitations are deleted on the spot and rejected.
func (s *teamService) AcceptInvitation(ctx context.Context, actor *repository.User, invitationID string) error {
	invitation, err := s.invitationRepo.FindByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if invitation == nil {
		return ErrNotFound
	}

	team, err := s.findTeam(ctx, invitation.TeamID)
	if err != nil {
		return err
	}

	if invitation.Expired(time.Now()) {
		if err := s.invitationRepo.Delete(ctx, invitation.ID); err != nil {
			return err
		}
		return validationFailed("", "invitation", "This invitation has expired.")
	}

	if !strings.EqualFold(invitation.Email, actor.Email) {
		return validationFailed("", "email", "This invitation was sent to a different email address.")
	}

	onTeam, err := s.teamRepo.HasUser(ctx, team.ID, actor.ID)
	if err != nil {
		return err
	}
	if onTeam {
		return validationFailed("", "email", "You are already a member of this team.")
	}

	if err := s.teamRepo.AcceptInvitation(ctx, invitation, actor); err != nil {
		if err == repository.ErrDuplicate {
			return validationFailed("", "email", "You are already a member of this team.")
		}
		return err
	}

	return s.bus.Publish(ctx, events.TeamMemberAdded{Team: team, User: actor})
}

// DeclineInvitation deletes a pending invitation addressed to the
// actor. No membership is created and no event fires.
func (s *teamService) DeclineInvitation(ctx context.Context, actor *repository.User, invitationID string) error {
	invitation, err := s.invitationRepo.FindByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if invitation == nil {
		return ErrNotFound
	}
	if !strings.EqualFold(invitation.Email, actor.Email) {
		return ErrForbidden
	}
	return s.invitationRepo.Delete(ctx, invitation.ID)
}

// ============================================
// HELPERS
// ============================================

func (s *teamService) findTeam(ctx context.Context, teamID string) (*repository.Team, error) {
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, ErrNotFound
	}
	return team, nil
}

// validateRole requires a known role key, but only while the catalog
// actually has roles registered.
func (s *teamService) validateRole(v *ValidationError, role string) {
	if !s.catalog.HasRoles() {
		return
	}
	if role == "" {
		v.Add("role", "The role field is required.")
		return
	}
	if s.catalog.FindRole(role) == nil {
		v.Add("role", "The selected role is invalid.")
	}
}

func (s *teamService) sendInvitation(team *repository.Team, invitation *repository.TeamInvitation, inviter *repository.User) {
	if s.sender == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.sender.SendInvitation(ctx, team, invitation, inviter); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"team":  team.ID,
				"email": invitation.Email,
			}).Error("❌ Failed to send invitation email")
		}
	}()
}

func validateTeamName(v *ValidationError, name string) {
	if strings.TrimSpace(name) == "" {
		v.Add("name", "The name field is required.")
	} else if len(name) > 255 {
		v.Add("name", "The name may not be greater than 255 characters.")
	}
}

func validateEmail(v *ValidationError, email string) {
	if email == "" {
		v.Add("email", "The email field is required.")
		return
	}
	if err := validate.Var(email, "email"); err != nil {
		v.Add("email", "The email must be a valid email address.")
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
