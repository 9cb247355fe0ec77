package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TeamInvitation is a pending, expiring offer for an email address to
// join a team with a pre-assigned role. At most one exists per
// (team, email) pair; the database enforces it.
type TeamInvitation struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"team_id"`
	Email       string    `json:"email"`
	Role        *string   `json:"role,omitempty"`
	InvitedByID string    `json:"invited_by_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Expired reports whether the invitation is past its expiry. Expired
// invitations are inert: acceptance deletes them instead of honoring
// them.
func (i *TeamInvitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// InvitationRepository defines team invitation data operations.
type InvitationRepository interface {
	Create(ctx context.Context, invitation *TeamInvitation) error
	FindByID(ctx context.Context, id string) (*TeamInvitation, error)
	FindByTeam(ctx context.Context, teamID string) ([]*TeamInvitation, error)
	ExistsForEmail(ctx context.Context, teamID, email string) (bool, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type pgInvitationRepository struct {
	pool *pgxpool.Pool
}

// NewInvitationRepository creates a new pgx-backed invitation repository.
func NewInvitationRepository(pool *pgxpool.Pool) InvitationRepository {
	return &pgInvitationRepository{pool: pool}
}

func (r *pgInvitationRepository) Create(ctx context.Context, invitation *TeamInvitation) error {
	if invitation.ID == "" {
		invitation.ID = uuid.New().String()
	}

	query := `
		INSERT INTO team_invitations (id, team_id, email, role, invited_by_id, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		invitation.ID, invitation.TeamID, invitation.Email, invitation.Role,
		invitation.InvitedByID, invitation.ExpiresAt,
	).Scan(&invitation.CreatedAt, &invitation.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *pgInvitationRepository) FindByID(ctx context.Context, id string) (*TeamInvitation, error) {
	query := `
		SELECT id, team_id, email, role, invited_by_id, expires_at, created_at, updated_at
		FROM team_invitations WHERE id = $1
	`
	invitation := &TeamInvitation{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&invitation.ID, &invitation.TeamID, &invitation.Email, &invitation.Role,
		&invitation.InvitedByID, &invitation.ExpiresAt,
		&invitation.CreatedAt, &invitation.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

func (r *pgInvitationRepository) FindByTeam(ctx context.Context, teamID string) ([]*TeamInvitation, error) {
	query := `
		SELECT id, team_id, email, role, invited_by_id, expires_at, created_at, updated_at
		FROM team_invitations WHERE team_id = $1
		ORDER BY created_at
	`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*TeamInvitation
	for rows.Next() {
		invitation := &TeamInvitation{}
		if err := rows.Scan(
			&invitation.ID, &invitation.TeamID, &invitation.Email, &invitation.Role,
			&invitation.InvitedByID, &invitation.ExpiresAt,
			&invitation.CreatedAt, &invitation.UpdatedAt,
		); err != nil {
			return nil, err
		}
		invitations = append(invitations, invitation)
	}
	return invitations, rows.Err()
}

func (r *pgInvitationRepository) ExistsForEmail(ctx context.Context, teamID, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM team_invitations WHERE team_id = $1 AND email = $2)`,
		teamID, email,
	).Scan(&exists)
	return exists, err
}

func (r *pgInvitationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM team_invitations WHERE id = $1`, id)
	return err
}

func (r *pgInvitationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM team_invitations WHERE expires_at < $1`, now,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
