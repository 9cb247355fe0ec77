package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamdeck/teamdeck-backend/internal/events"
	"github.com/teamdeck/teamdeck-backend/internal/teams"
)

func TestCreateTeamSwitchesCurrentTeam(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice Smith", "alice@example.com")

	team, err := env.teamSvc.CreateTeam(ctx, owner, CreateTeamInput{Name: "Acme"})
	require.NoError(t, err)
	require.NotNil(t, team)
	assert.Equal(t, owner.ID, team.UserID)
	assert.False(t, team.PersonalTeam)

	require.NotNil(t, owner.CurrentTeamID)
	assert.Equal(t, team.ID, *owner.CurrentTeamID)

	kind, role, err := env.context.TeamRole(ctx, owner, team)
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, kind)
	require.NotNil(t, role)
	assert.Equal(t, []string{"*"}, role.Permissions)
}

func TestCreateTeamValidatesName(t *testing.T) {
	env := newTestEnv(t)
	owner := env.makeUser(t, "Alice", "alice@example.com")

	_, err := env.teamSvc.CreateTeam(context.Background(), owner, CreateTeamInput{Name: "  "})
	requireValidation(t, err, "createTeam", "name")
}

func TestCreateSecondPersonalTeamFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")

	_, err := env.teamSvc.CreateTeam(ctx, owner, CreateTeamInput{Name: "Alice's Team", Personal: true})
	require.NoError(t, err)

	_, err = env.teamSvc.CreateTeam(ctx, owner, CreateTeamInput{Name: "Another", Personal: true})
	requireValidation(t, err, "createTeam", "personal_team")
}

func TestCreateTeamPreEventCanVeto(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")

	env.bus.Subscribe(events.AddingTeam{}.Name(), func(ctx context.Context, event events.Event) error {
		return ErrForbidden
	})

	_, err := env.teamSvc.CreateTeam(ctx, owner, CreateTeamInput{Name: "Vetoed"})
	assert.ErrorIs(t, err, ErrForbidden)

	teams, err := env.context.AllTeams(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestUpdateTeamName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Old Name", false)

	updated, err := env.teamSvc.UpdateTeamName(ctx, owner, team.ID, "New Name")
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)

	// Plain members cannot rename
	member := env.makeUser(t, "Bob", "bob@example.com")
	env.addMember(t, team, member, "member")
	_, err = env.teamSvc.UpdateTeamName(ctx, member, team.ID, "Hijacked")
	assert.ErrorIs(t, err, ErrForbidden)
}

// ============================================
// AddTeamMember
// ============================================

func TestAddTeamMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")

	var added *events.TeamMemberAdded
	env.bus.Subscribe(events.TeamMemberAdded{}.Name(), func(ctx context.Context, event events.Event) error {
		if e, ok := event.(events.TeamMemberAdded); ok {
			added = &e
		}
		return nil
	})

	err := env.teamSvc.AddTeamMember(ctx, owner, team.ID, "bob@example.com", "member")
	require.NoError(t, err)

	membership, err := env.teamRepo.FindMembership(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	require.NotNil(t, membership.Role)
	assert.Equal(t, "member", *membership.Role)
	require.NotNil(t, membership.InvitedByID)
	assert.Equal(t, owner.ID, *membership.InvitedByID)

	require.NotNil(t, added)
	assert.Equal(t, bob.ID, added.User.ID)
}

func TestAddTeamMemberValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")

	// Unregistered email
	err := env.teamSvc.AddTeamMember(ctx, owner, team.ID, "ghost@example.com", "member")
	requireValidation(t, err, "addTeamMember", "email")

	// Unknown role
	err = env.teamSvc.AddTeamMember(ctx, owner, team.ID, "bob@example.com", "warlord")
	requireValidation(t, err, "addTeamMember", "role")

	// Missing role while the catalog has roles
	err = env.teamSvc.AddTeamMember(ctx, owner, team.ID, "bob@example.com", "")
	requireValidation(t, err, "addTeamMember", "role")

	// Already on the team
	env.addMember(t, team, bob, "member")
	err = env.teamSvc.AddTeamMember(ctx, owner, team.ID, "bob@example.com", "member")
	requireValidation(t, err, "addTeamMember", "email")
}

func TestRoleValidationSkippedWithoutCatalogRoles(t *testing.T) {
	env := newTestEnvWithCatalog(t, teams.NewRoleCatalog())
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")

	// With no roles registered, an empty role is fine
	require.NoError(t, env.teamSvc.AddTeamMember(ctx, owner, team.ID, "bob@example.com", ""))

	membership, err := env.teamRepo.FindMembership(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Nil(t, membership.Role)

	// Free-form role strings pass through untouched
	invitation, err := env.teamSvc.InviteTeamMember(ctx, owner, team.ID, "carol@example.com", "freeform-role")
	require.NoError(t, err)
	require.NotNil(t, invitation.Role)
	assert.Equal(t, "freeform-role", *invitation.Role)
}

func TestAddTeamMemberRequiresPermission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")
	carol := env.makeUser(t, "Carol", "carol@example.com")
	env.addMember(t, team, bob, "member")

	// The member role cannot manage members
	err := env.teamSvc.AddTeamMember(ctx, bob, team.ID, "carol@example.com", "member")
	assert.ErrorIs(t, err, ErrForbidden)

	// Admins can, via the team:members:* wildcard
	env.addMember(t, team, carol, "admin")
	dave := env.makeUser(t, "Dave", "dave@example.com")
	err = env.teamSvc.AddTeamMember(ctx, carol, team.ID, dave.Email, "member")
	assert.NoError(t, err)
}

// ============================================
// Invitations
// ============================================

func TestInviteTeamMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)

	invitation, err := env.teamSvc.InviteTeamMember(ctx, owner, team.ID, "new@example.com", "member")
	require.NoError(t, err)
	require.NotNil(t, invitation)
	assert.Equal(t, "new@example.com", invitation.Email)
	assert.Equal(t, owner.ID, invitation.InvitedByID)

	// Expiry honors the catalog's invitation window
	wantExpiry := time.Now().Add(time.Duration(env.catalog.InvitationDays()) * 24 * time.Hour)
	assert.WithinDuration(t, wantExpiry, invitation.ExpiresAt, time.Minute)

	// Inviting the same email again fails
	_, err = env.teamSvc.InviteTeamMember(ctx, owner, team.ID, "new@example.com", "member")
	requireValidation(t, err, "addTeamMember", "email")
}

func TestInviteTeamMemberRejectsExistingMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")
	env.addMember(t, team, bob, "member")

	_, err := env.teamSvc.InviteTeamMember(ctx, owner, team.ID, "bob@example.com", "member")
	requireValidation(t, err, "addTeamMember", "email")

	// The owner's own email counts as belonging to the team
	_, err = env.teamSvc.InviteTeamMember(ctx, owner, team.ID, "alice@example.com", "member")
	requireValidation(t, err, "addTeamMember", "email")
}

func TestInviteTeamMemberValidatesEmailFormat(t *testing.T) {
	env := newTestEnv(t)
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)

	_, err := env.teamSvc.InviteTeamMember(context.Background(), owner, team.ID, "not-an-email", "member")
	requireValidation(t, err, "addTeamMember", "email")
}

func TestAcceptInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")

	invitation, err := env.teamSvc.InviteTeamMember(ctx, owner, team.ID, "bob@example.com", "member")
	require.NoError(t, err)

	require.NoError(t, env.teamSvc.AcceptInvitation(ctx, bob, invitation.ID))

	// Membership carries the invitation's role and inviter
	membership, err := env.teamRepo.FindMembership(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Equal(t, "member", *membership.Role)
	assert.Equal(t, owner.ID, *membership.InvitedByID)

	// Invitation is consumed
	gone, err := env.invRepo.FindByID(ctx, invitation.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Bob had no current team, so the joined team became it
	require.NotNil(t, bob.CurrentTeamID)
	assert.Equal(t, team.ID, *bob.CurrentTeamID)
}

func TestAcceptInvitationEmailMismatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	mallory := env.makeUser(t, "Mallory", "mallory@example.com")

	invitation, err := env.teamSvc.InviteTeamMember(ctx, owner, team.ID, "bob@example.com", "member")
	require.NoError(t, err)

	err = env.teamSvc.AcceptInvitation(ctx, mallory, invitation.ID)
	requireValidation(t, err, "default", "email")

	// The invitation survives a failed accept
	still, err := env.invRepo.FindByID(ctx, invitation.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestAcceptExpiredInvitationDeletesIt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")

	invitation, err := env.teamSvc.InviteTeamMember(ctx, owner, team.ID, "bob@example.com", "member")
	require.NoError(t, err)
	invitation.ExpiresAt = time.Now().Add(-time.Hour)

	err = env.teamSvc.AcceptInvitation(ctx, bob, invitation.ID)
	requireValidation(t, err, "default", "invitation")

	// The expired invitation was deleted, so a retry is a 404
	err = env.teamSvc.AcceptInvitation(ctx, bob, invitation.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptInvitationAlreadyMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")

	invitation, err := env.teamSvc.InviteTeamMember(ctx, owner, team.ID, "bob@example.com", "member")
	require.NoError(t, err)

	env.addMember(t, team, bob, "member")

	err = env.teamSvc.AcceptInvitation(ctx, bob, invitation.ID)
	requireValidation(t, err, "default", "email")
}

func TestDeclineInvitation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")
	mallory := env.makeUser(t, "Mallory", "mallory@example.com")

	invitation, err := env.teamSvc.InviteTeamMember(ctx, owner, team.ID, "bob@example.com", "member")
	require.NoError(t, err)

	// Only the addressee may decline
	assert.ErrorIs(t, env.teamSvc.DeclineInvitation(ctx, mallory, invitation.ID), ErrForbidden)

	require.NoError(t, env.teamSvc.DeclineInvitation(ctx, bob, invitation.ID))

	gone, err := env.invRepo.FindByID(ctx, invitation.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	// No membership was created
	membership, err := env.teamRepo.FindMembership(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, membership)
}

// ============================================
// UpdateMemberRole / RemoveTeamMember
// ============================================

func TestUpdateMemberRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")
	env.addMember(t, team, bob, "member")

	var updated *events.TeamMemberUpdated
	env.bus.Subscribe(events.TeamMemberUpdated{}.Name(), func(ctx context.Context, event events.Event) error {
		if e, ok := event.(events.TeamMemberUpdated); ok {
			updated = &e
		}
		return nil
	})

	require.NoError(t, env.teamSvc.UpdateMemberRole(ctx, owner, team.ID, bob.ID, "admin"))

	membership, err := env.teamRepo.FindMembership(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", *membership.Role)

	require.NotNil(t, updated)
	assert.Equal(t, bob.ID, updated.User.ID)
}

func TestUpdateMemberRoleValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")
	env.addMember(t, team, bob, "member")

	err := env.teamSvc.UpdateMemberRole(ctx, owner, team.ID, bob.ID, "warlord")
	requireValidation(t, err, "default", "role")

	// Not a member
	carol := env.makeUser(t, "Carol", "carol@example.com")
	err = env.teamSvc.UpdateMemberRole(ctx, owner, team.ID, carol.ID, "admin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveTeamMember(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")
	env.addMember(t, team, bob, "member")
	require.NoError(t, env.users.UpdateCurrentTeam(ctx, bob.ID, &team.ID))

	require.NoError(t, env.teamSvc.RemoveTeamMember(ctx, owner, team.ID, bob.ID))

	membership, err := env.teamRepo.FindMembership(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, membership)

	// Bob's current-team pointer was cleared with the membership
	stored, err := env.users.FindByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.CurrentTeamID)
}

func TestMemberCanLeaveTeam(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")
	env.addMember(t, team, bob, "member")

	// Self-removal needs no member management permission
	require.NoError(t, env.teamSvc.RemoveTeamMember(ctx, bob, team.ID, bob.ID))

	membership, err := env.teamRepo.FindMembership(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, membership)
}

func TestRemoveTeamMemberForbiddenForOthers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")
	carol := env.makeUser(t, "Carol", "carol@example.com")
	env.addMember(t, team, bob, "member")
	env.addMember(t, team, carol, "member")

	assert.ErrorIs(t, env.teamSvc.RemoveTeamMember(ctx, bob, team.ID, carol.ID), ErrForbidden)
}

func TestOwnerCannotBeRemoved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)

	err := env.teamSvc.RemoveTeamMember(ctx, owner, team.ID, owner.ID)
	requireValidation(t, err, "removeTeamMember", "team")
}

// ============================================
// DeleteTeam
// ============================================

func TestDeleteTeamPurgesEverything(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")
	env.addMember(t, team, bob, "member")
	require.NoError(t, env.users.UpdateCurrentTeam(ctx, owner.ID, &team.ID))
	require.NoError(t, env.users.UpdateCurrentTeam(ctx, bob.ID, &team.ID))

	_, err := env.teamSvc.InviteTeamMember(ctx, owner, team.ID, "pending@example.com", "member")
	require.NoError(t, err)

	require.NoError(t, env.teamSvc.DeleteTeam(ctx, owner, team.ID))

	gone, err := env.teamRepo.FindByID(ctx, team.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	invitations, err := env.invRepo.FindByTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Empty(t, invitations)

	for _, id := range []string{owner.ID, bob.ID} {
		stored, err := env.users.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, stored.CurrentTeamID)
	}
}

func TestDeletePersonalTeamFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	personal := env.makeTeam(t, owner, "Alice's Team", true)

	err := env.teamSvc.DeleteTeam(ctx, owner, personal.ID)
	requireValidation(t, err, "deleteTeam", "team")

	still, err := env.teamRepo.FindByID(ctx, personal.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestDeleteTeamRequiresPermission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	bob := env.makeUser(t, "Bob", "bob@example.com")
	env.addMember(t, team, bob, "admin")

	// Admin permissions do not include team:delete
	assert.ErrorIs(t, env.teamSvc.DeleteTeam(ctx, bob, team.ID), ErrForbidden)
}

func TestGetTeamRequiresMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.makeUser(t, "Alice", "alice@example.com")
	team := env.makeTeam(t, owner, "Acme", false)
	stranger := env.makeUser(t, "Sam", "sam@example.com")

	_, err := env.teamSvc.GetTeam(ctx, stranger, team.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.teamSvc.GetTeam(ctx, owner, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
