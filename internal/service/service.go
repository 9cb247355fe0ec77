package service

import (
	"time"

	"github.com/teamdeck/teamdeck-backend/internal/events"
	"github.com/teamdeck/teamdeck-backend/internal/repository"
	"github.com/teamdeck/teamdeck-backend/internal/teams"
)

// Services bundles every service for injection into handlers.
type Services struct {
	AuthService    AuthService
	TeamService    TeamService
	ContextService TeamContextService
	Gate           Gate
	Catalog        *teams.RoleCatalog
}

// NewServices wires the service layer on top of the repositories. The
// personal team listener is registered here so registration always
// yields a ready-to-use team.
func NewServices(
	repos *repository.Repositories,
	catalog *teams.RoleCatalog,
	dispatcher *events.Dispatcher,
	sender InvitationSender,
	jwtSecret string,
	tokenTTL time.Duration,
) *Services {
	contextService := NewTeamContextService(repos.TeamRepo, repos.UserRepo, catalog)
	gate := NewPermissionGate(contextService)
	teamService := NewTeamService(
		repos.TeamRepo, repos.UserRepo, repos.InvitationRepo,
		catalog, gate, contextService, dispatcher, sender,
	)
	authService := NewAuthService(repos.UserRepo, dispatcher, jwtSecret, tokenTTL)

	RegisterPersonalTeamListener(dispatcher, teamService)

	return &Services{
		AuthService:    authService,
		TeamService:    teamService,
		ContextService: contextService,
		Gate:           gate,
		Catalog:        catalog,
	}
}
