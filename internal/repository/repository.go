package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
)

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint (membership per team+user, invitation per team+email,
// user email). The constraints live in the database so concurrent
// check-then-insert races still surface here.
var ErrDuplicate = errors.New("duplicate resource")

const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// Repositories bundles every repository for injection into services.
type Repositories struct {
	UserRepo       UserRepository
	TeamRepo       TeamRepository
	InvitationRepo InvitationRepository
}

// NewRepositories wires the repositories. Team and invitation data go
// through pgxpool; the user repository runs on sqlx over the pgx
// stdlib driver.
func NewRepositories(pool *pgxpool.Pool, db *sqlx.DB) *Repositories {
	return &Repositories{
		UserRepo:       NewUserRepository(db),
		TeamRepo:       NewTeamRepository(pool),
		InvitationRepo: NewInvitationRepository(pool),
	}
}
