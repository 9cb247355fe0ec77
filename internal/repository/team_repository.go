package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Team is a tenant/workspace owned by exactly one user. The owner is a
// full member regardless of membership rows.
type Team struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	UserID       string    `json:"user_id"`
	PersonalTeam bool      `json:"personal_team"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Membership joins a non-owner user to a team, carrying an optional
// role key and a back-reference to whoever added them.
type Membership struct {
	TeamID      string    `json:"team_id"`
	UserID      string    `json:"user_id"`
	Role        *string   `json:"role,omitempty"`
	InvitedByID *string   `json:"invited_by_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	User        *User     `json:"user,omitempty"`
}

// TeamRepository defines team and membership data operations.
type TeamRepository interface {
	Create(ctx context.Context, team *Team) error
	FindByID(ctx context.Context, id string) (*Team, error)
	UpdateName(ctx context.Context, id, name string) error
	FindByOwner(ctx context.Context, userID string) ([]*Team, error)
	FindPersonalTeam(ctx context.Context, userID string) (*Team, error)
	FindJoined(ctx context.Context, userID string) ([]*Team, error)

	// Membership operations
	AttachMember(ctx context.Context, member *Membership) error
	FindMembers(ctx context.Context, teamID string) ([]*Membership, error)
	FindMembership(ctx context.Context, teamID, userID string) (*Membership, error)
	FindUsers(ctx context.Context, teamID string) ([]*User, error)
	FindAllUsers(ctx context.Context, teamID string) ([]*User, error)
	HasUser(ctx context.Context, teamID, userID string) (bool, error)
	HasUserWithEmail(ctx context.Context, teamID, email string) (bool, error)
	UpdateMemberRole(ctx context.Context, teamID, userID, role string) error

	// Multi-row mutations, each a single transaction
	RemoveUser(ctx context.Context, teamID, userID string) error
	AcceptInvitation(ctx context.Context, invitation *TeamInvitation, user *User) error
	Purge(ctx context.Context, teamID string) error
}

type pgTeamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository creates a new pgx-backed team repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &pgTeamRepository{pool: pool}
}

func (r *pgTeamRepository) Create(ctx context.Context, team *Team) error {
	if team.ID == "" {
		team.ID = uuid.New().String()
	}

	query := `
		INSERT INTO teams (id, name, user_id, personal_team)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		team.ID, team.Name, team.UserID, team.PersonalTeam,
	).Scan(&team.CreatedAt, &team.UpdatedAt)
}

func (r *pgTeamRepository) FindByID(ctx context.Context, id string) (*Team, error) {
	query := `
		SELECT id, name, user_id, personal_team, created_at, updated_at
		FROM teams WHERE id = $1
	`
	team := &Team{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&team.ID, &team.Name, &team.UserID, &team.PersonalTeam,
		&team.CreatedAt, &team.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *pgTeamRepository) UpdateName(ctx context.Context, id, name string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE teams SET name = $1, updated_at = now() WHERE id = $2`,
		name, id,
	)
	return err
}

func (r *pgTeamRepository) FindByOwner(ctx context.Context, userID string) ([]*Team, error) {
	query := `
		SELECT id, name, user_id, personal_team, created_at, updated_at
		FROM teams WHERE user_id = $1
		ORDER BY name
	`
	return r.scanTeams(ctx, query, userID)
}

func (r *pgTeamRepository) FindPersonalTeam(ctx context.Context, userID string) (*Team, error) {
	query := `
		SELECT id, name, user_id, personal_team, created_at, updated_at
		FROM teams WHERE user_id = $1 AND personal_team = true
		ORDER BY created_at
		LIMIT 1
	`
	team := &Team{}
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&team.ID, &team.Name, &team.UserID, &team.PersonalTeam,
		&team.CreatedAt, &team.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (r *pgTeamRepository) FindJoined(ctx context.Context, userID string) ([]*Team, error) {
	query := `
		SELECT t.id, t.name, t.user_id, t.personal_team, t.created_at, t.updated_at
		FROM teams t
		JOIN team_user tu ON tu.team_id = t.id
		WHERE tu.user_id = $1
		ORDER BY t.name
	`
	return r.scanTeams(ctx, query, userID)
}

func (r *pgTeamRepository) scanTeams(ctx context.Context, query string, args ...interface{}) ([]*Team, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*Team
	for rows.Next() {
		team := &Team{}
		if err := rows.Scan(
			&team.ID, &team.Name, &team.UserID, &team.PersonalTeam,
			&team.CreatedAt, &team.UpdatedAt,
		); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *pgTeamRepository) AttachMember(ctx context.Context, member *Membership) error {
	query := `
		INSERT INTO team_user (team_id, user_id, role, invited_by_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		member.TeamID, member.UserID, member.Role, member.InvitedByID,
	).Scan(&member.CreatedAt, &member.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *pgTeamRepository) FindMembers(ctx context.Context, teamID string) ([]*Membership, error) {
	query := `
		SELECT tu.team_id, tu.user_id, tu.role, tu.invited_by_id, tu.created_at, tu.updated_at,
		       u.id, u.email, u.name, u.current_team_id, u.created_at, u.updated_at
		FROM team_user tu
		JOIN users u ON u.id = tu.user_id
		WHERE tu.team_id = $1
		ORDER BY tu.created_at
	`
	rows, err := r.pool.Query(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*Membership
	for rows.Next() {
		m := &Membership{User: &User{}}
		if err := rows.Scan(
			&m.TeamID, &m.UserID, &m.Role, &m.InvitedByID, &m.CreatedAt, &m.UpdatedAt,
			&m.User.ID, &m.User.Email, &m.User.Name, &m.User.CurrentTeamID,
			&m.User.CreatedAt, &m.User.UpdatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *pgTeamRepository) FindMembership(ctx context.Context, teamID, userID string) (*Membership, error) {
	query := `
		SELECT team_id, user_id, role, invited_by_id, created_at, updated_at
		FROM team_user
		WHERE team_id = $1 AND user_id = $2
	`
	m := &Membership{}
	err := r.pool.QueryRow(ctx, query, teamID, userID).Scan(
		&m.TeamID, &m.UserID, &m.Role, &m.InvitedByID, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// FindUsers returns the team's members via the membership join, owner
// excluded.
func (r *pgTeamRepository) FindUsers(ctx context.Context, teamID string) ([]*User, error) {
	query := `
		SELECT u.id, u.email, u.name, u.current_team_id, u.created_at, u.updated_at
		FROM users u
		JOIN team_user tu ON tu.user_id = u.id
		WHERE tu.team_id = $1
		ORDER BY tu.created_at
	`
	return r.scanUsers(ctx, query, teamID)
}

// FindAllUsers returns members plus the owner, owner appended last.
func (r *pgTeamRepository) FindAllUsers(ctx context.Context, teamID string) ([]*User, error) {
	users, err := r.FindUsers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT u.id, u.email, u.name, u.current_team_id, u.created_at, u.updated_at
		FROM users u
		JOIN teams t ON t.user_id = u.id
		WHERE t.id = $1
	`
	owner := &User{}
	err = r.pool.QueryRow(ctx, query, teamID).Scan(
		&owner.ID, &owner.Email, &owner.Name, &owner.CurrentTeamID,
		&owner.CreatedAt, &owner.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return users, nil
	}
	if err != nil {
		return nil, err
	}
	return append(users, owner), nil
}

func (r *pgTeamRepository) scanUsers(ctx context.Context, query string, args ...interface{}) ([]*User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u := &User{}
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Name, &u.CurrentTeamID, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *pgTeamRepository) HasUser(ctx context.Context, teamID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM team_user WHERE team_id = $1 AND user_id = $2
			UNION
			SELECT 1 FROM teams WHERE id = $1 AND user_id = $2
		)
	`
	var exists bool
	err := r.pool.QueryRow(ctx, query, teamID, userID).Scan(&exists)
	return exists, err
}

func (r *pgTeamRepository) HasUserWithEmail(ctx context.Context, teamID, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM team_user tu
			JOIN users u ON u.id = tu.user_id
			WHERE tu.team_id = $1 AND u.email = $2
			UNION
			SELECT 1 FROM teams t
			JOIN users u ON u.id = t.user_id
			WHERE t.id = $1 AND u.email = $2
		)
	`
	var exists bool
	err := r.pool.QueryRow(ctx, query, teamID, email).Scan(&exists)
	return exists, err
}

func (r *pgTeamRepository) UpdateMemberRole(ctx context.Context, teamID, userID, role string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE team_user SET role = $1, updated_at = now() WHERE team_id = $2 AND user_id = $3`,
		role, teamID, userID,
	)
	return err
}

// RemoveUser clears the member's current-team pointer if it references
// this team, then detaches the membership row. Both run in one
// transaction so a failure cannot leave a dangling pointer.
func (r *pgTeamRepository) RemoveUser(ctx context.Context, teamID, userID string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET current_team_id = NULL, updated_at = now()
			 WHERE id = $1 AND current_team_id = $2`,
			userID, teamID,
		); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`DELETE FROM team_user WHERE team_id = $1 AND user_id = $2`,
			teamID, userID,
		)
		return err
	})
}

// AcceptInvitation attaches the membership, deletes the invitation and
// points the user at the team if they had no current team, all
// atomically. A concurrent accept loses on the membership uniqueness
// constraint and gets ErrDuplicate.
func (r *pgTeamRepository) AcceptInvitation(ctx context.Context, invitation *TeamInvitation, user *User) error {
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO team_user (team_id, user_id, role, invited_by_id)
			 VALUES ($1, $2, $3, $4)`,
			invitation.TeamID, user.ID, invitation.Role, invitation.InvitedByID,
		)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM team_invitations WHERE id = $1`, invitation.ID,
		); err != nil {
			return err
		}

		if user.CurrentTeamID == nil {
			if _, err := tx.Exec(ctx,
				`UPDATE users SET current_team_id = $1, updated_at = now() WHERE id = $2`,
				invitation.TeamID, user.ID,
			); err != nil {
				return err
			}
			teamID := invitation.TeamID
			user.CurrentTeamID = &teamID
		}

		return nil
	})
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// Purge removes every trace of the team: current-team pointers of the
// owner and members scoped to this team, all memberships, all pending
// invitations, then the team row itself — in that order, in one
// transaction.
func (r *pgTeamRepository) Purge(ctx context.Context, teamID string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE users SET current_team_id = NULL, updated_at = now()
			 WHERE current_team_id = $1`,
			teamID,
		); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM team_user WHERE team_id = $1`, teamID,
		); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`DELETE FROM team_invitations WHERE team_id = $1`, teamID,
		); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
		return err
	})
}

func (r *pgTeamRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
