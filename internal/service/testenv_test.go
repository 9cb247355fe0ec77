package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/teamdeck/teamdeck-backend/internal/events"
	"github.com/teamdeck/teamdeck-backend/internal/repository"
	"github.com/teamdeck/teamdeck-backend/internal/teams"
)

type testEnv struct {
	store    *memStore
	catalog  *teams.RoleCatalog
	bus      *events.Dispatcher
	users    repository.UserRepository
	teamRepo repository.TeamRepository
	invRepo  repository.InvitationRepository
	context  TeamContextService
	gate     Gate
	teamSvc  TeamService
	authSvc  AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithCatalog(t, teams.DefaultCatalog())
}

func newTestEnvWithCatalog(t *testing.T, catalog *teams.RoleCatalog) *testEnv {
	t.Helper()

	store := newMemStore()
	bus := events.NewDispatcher(nil)

	users := &fakeUserRepo{s: store}
	teamRepo := &fakeTeamRepo{s: store}
	invRepo := &fakeInvitationRepo{s: store}

	contextSvc := NewTeamContextService(teamRepo, users, catalog)
	gate := NewPermissionGate(contextSvc)
	teamSvc := NewTeamService(teamRepo, users, invRepo, catalog, gate, contextSvc, bus, nil)
	authSvc := NewAuthService(users, bus, "test-secret", time.Hour)

	return &testEnv{
		store:    store,
		catalog:  catalog,
		bus:      bus,
		users:    users,
		teamRepo: teamRepo,
		invRepo:  invRepo,
		context:  contextSvc,
		gate:     gate,
		teamSvc:  teamSvc,
		authSvc:  authSvc,
	}
}

func (e *testEnv) makeUser(t *testing.T, name, email string) *repository.User {
	t.Helper()
	user := &repository.User{Name: name, Email: email, Password: "x"}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) makeTeam(t *testing.T, owner *repository.User, name string, personal bool) *repository.Team {
	t.Helper()
	team := &repository.Team{Name: name, UserID: owner.ID, PersonalTeam: personal}
	require.NoError(t, e.teamRepo.Create(context.Background(), team))
	return team
}

func (e *testEnv) addMember(t *testing.T, team *repository.Team, user *repository.User, role string) {
	t.Helper()
	member := &repository.Membership{TeamID: team.ID, UserID: user.ID, Role: optional(role)}
	require.NoError(t, e.teamRepo.AttachMember(context.Background(), member))
}

// requireValidation asserts err is a validation error carrying a
// message for the given field in the given bag.
func requireValidation(t *testing.T, err error, bag, field string) *ValidationError {
	t.Helper()
	ve, ok := AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	require.Equal(t, bag, ve.Bag)
	require.NotEmpty(t, ve.Fields[field], "expected messages for field %q, got %v", field, ve.Fields)
	return ve
}
