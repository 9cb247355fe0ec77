// Package cron schedules recurring maintenance jobs.
package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/teamdeck/teamdeck-backend/internal/repository"
)

// Scheduler runs background jobs on a schedule.
type Scheduler struct {
	cron           *cron.Cron
	invitationRepo repository.InvitationRepository
}

// NewScheduler creates a new cron scheduler.
func NewScheduler(invitationRepo repository.InvitationRepository) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		invitationRepo: invitationRepo,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	// Sweep expired invitations nightly. Expiry is checked again at
	// acceptance time, so this is hygiene, not enforcement.
	if _, err := s.cron.AddFunc("0 3 * * *", s.sweepExpiredInvitations); err != nil {
		return err
	}

	s.cron.Start()
	log.Info("⏰ Cron scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("⏰ Cron scheduler stopped")
}

func (s *Scheduler) sweepExpiredInvitations() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	removed, err := s.invitationRepo.DeleteExpired(ctx, time.Now())
	if err != nil {
		log.WithError(err).Error("❌ Failed to sweep expired invitations")
		return
	}
	if removed > 0 {
		log.WithField("count", removed).Info("🧹 Removed expired invitations")
	}
}
