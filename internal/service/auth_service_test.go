package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, token, err := env.authSvc.Register(ctx, "Alice Smith", "alice@example.com", "secret-password")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "secret-password", user.Password)

	// Duplicate email
	_, _, err = env.authSvc.Register(ctx, "Alice Again", "alice@example.com", "another-password")
	assert.ErrorIs(t, err, ErrUserExists)

	// Login roundtrip
	logged, token, err := env.authSvc.Login(ctx, "alice@example.com", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)

	_, _, err = env.authSvc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = env.authSvc.Login(ctx, "nobody@example.com", "secret-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken(t *testing.T) {
	env := newTestEnv(t)

	user, token, err := env.authSvc.Register(context.Background(), "Alice", "alice@example.com", "secret-password")
	require.NoError(t, err)

	subject, err := env.authSvc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, subject)

	_, err = env.authSvc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Token signed with a different secret
	other := NewAuthService(env.users, env.bus, "other-secret", time.Hour)
	_, otherToken, err := other.Register(context.Background(), "Bob", "bob@example.com", "secret-password")
	require.NoError(t, err)
	_, err = env.authSvc.ValidateToken(otherToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRegistrationCreatesPersonalTeam(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	RegisterPersonalTeamListener(env.bus, env.teamSvc)

	user, _, err := env.authSvc.Register(ctx, "Alice Smith", "alice@example.com", "secret-password")
	require.NoError(t, err)

	personal, err := env.context.PersonalTeam(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, personal)
	assert.Equal(t, "Alice's Team", personal.Name)
	assert.True(t, personal.PersonalTeam)

	// The listener runs before Register returns, so the personal team
	// is already the current team.
	stored, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CurrentTeamID)
	assert.Equal(t, personal.ID, *stored.CurrentTeamID)
}

func TestRegistrationWithSingleWordName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	RegisterPersonalTeamListener(env.bus, env.teamSvc)

	user, _, err := env.authSvc.Register(ctx, "Madonna", "m@example.com", "secret-password")
	require.NoError(t, err)

	personal, err := env.context.PersonalTeam(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, personal)
	assert.Equal(t, "Madonna's Team", personal.Name)
}
