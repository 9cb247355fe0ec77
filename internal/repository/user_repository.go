package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// User is the identity record the team core hangs off of. The core
// only cares about ID, Email and CurrentTeamID; the rest belongs to
// the auth surface.
type User struct {
	ID            string    `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	Name          string    `db:"name" json:"name"`
	Password      string    `db:"password_hash" json:"-"`
	CurrentTeamID *string   `db:"current_team_id" json:"current_team_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// UserRepository defines user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateCurrentTeam(ctx context.Context, userID string, teamID *string) error
}

type sqlxUserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new sqlx-backed user repository.
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &sqlxUserRepository{db: db}
}

func (r *sqlxUserRepository) Create(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	query := `
		INSERT INTO users (id, email, name, password_hash, current_team_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Email, user.Name, user.Password, user.CurrentTeamID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (r *sqlxUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	user := &User{}
	err := r.db.GetContext(ctx, user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *sqlxUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	user := &User{}
	err := r.db.GetContext(ctx, user, `SELECT * FROM users WHERE email = $1`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *sqlxUserRepository) UpdateCurrentTeam(ctx context.Context, userID string, teamID *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET current_team_id = $1, updated_at = now() WHERE id = $2`,
		teamID, userID,
	)
	return err
}
