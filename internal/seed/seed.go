// Package seed loads demo data for development environments.
package seed

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/teamdeck/teamdeck-backend/internal/repository"
	"github.com/teamdeck/teamdeck-backend/internal/service"
)

// SeedData creates a pair of demo users and a shared team. Safe to run
// repeatedly; it bails out when the demo owner already exists.
func SeedData(repos *repository.Repositories, services *service.Services) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := repos.UserRepo.FindByEmail(ctx, "demo@teamdeck.io")
	if err != nil {
		log.WithError(err).Warn("🌱 Seed check failed")
		return
	}
	if existing != nil {
		log.Info("🌱 Seed data already present, skipping")
		return
	}

	owner, _, err := services.AuthService.Register(ctx, "Demo Owner", "demo@teamdeck.io", "demo-password")
	if err != nil {
		log.WithError(err).Warn("🌱 Failed to seed demo owner")
		return
	}

	member, _, err := services.AuthService.Register(ctx, "Demo Member", "member@teamdeck.io", "demo-password")
	if err != nil {
		log.WithError(err).Warn("🌱 Failed to seed demo member")
		return
	}

	team, err := services.TeamService.CreateTeam(ctx, owner, service.CreateTeamInput{Name: "Acme Inc"})
	if err != nil {
		log.WithError(err).Warn("🌱 Failed to seed demo team")
		return
	}

	if err := services.TeamService.AddTeamMember(ctx, owner, team.ID, member.Email, "member"); err != nil {
		log.WithError(err).Warn("🌱 Failed to seed demo membership")
		return
	}

	log.Info("🌱 Seed data created")
}
