package service_test

import (
	"testing"
	"time"

	"github.com/stanstork/tickr-api/internal/service"
	"github.com/stretchr/testify/require"
)

func TestSignUpLoginAuthenticate(t *testing.T) {
	e := newEnv(t)

	user, err := e.svc.Auth.SignUp(e.ctx, service.SignUpInput{
		Email:    " Alice@Example.com ",
		Username: "alice",
		Password: "correct horse",
	})
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email)
	require.NotEqual(t, "correct horse", user.PasswordHash)

	_, err = e.svc.Auth.SignUp(e.ctx, service.SignUpInput{Email: "alice@example.com", Username: "other", Password: "password1"})
	require.ErrorIs(t, err, service.ErrConflict)

	_, err = e.svc.Auth.Login(e.ctx, "alice@example.com", "wrong password")
	require.ErrorIs(t, err, service.ErrUnauthorized)

	session, err := e.svc.Auth.Login(e.ctx, "ALICE@example.com", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.NotNil(t, session.User.LastLogin)

	id, err := e.svc.Auth.Authenticate(e.ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, id.UserID)
	require.Equal(t, "alice@example.com", id.Email)

	me, err := e.svc.Auth.CurrentUser(e.ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)
}

func TestSignUpValidation(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Auth.SignUp(e.ctx, service.SignUpInput{Email: "nope", Password: "long enough"})
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = e.svc.Auth.SignUp(e.ctx, service.SignUpInput{Email: "a@example.com", Password: "short"})
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestAuthenticateRejectsExpiredAndSuspended(t *testing.T) {
	e := newEnv(t, func(o *service.Options) { o.AccessTokenTTL = time.Hour })
	_, err := e.svc.Auth.SignUp(e.ctx, service.SignUpInput{Email: "bob@example.com", Username: "bob", Password: "password1"})
	require.NoError(t, err)

	session, err := e.svc.Auth.Login(e.ctx, "bob@example.com", "password1")
	require.NoError(t, err)

	e.clock.Advance(2 * time.Hour)
	_, err = e.svc.Auth.Authenticate(e.ctx, session.Token)
	require.ErrorIs(t, err, service.ErrUnauthorized)

	session, err = e.svc.Auth.Login(e.ctx, "bob@example.com", "password1")
	require.NoError(t, err)

	user := session.User
	user.IsActive = false
	_, err = e.repos.Users.UpdateUser(e.ctx, user)
	require.NoError(t, err)

	_, err = e.svc.Auth.Authenticate(e.ctx, session.Token)
	require.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = e.svc.Auth.Login(e.ctx, "bob@example.com", "password1")
	require.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	e := newEnv(t)
	other := newEnv(t, func(o *service.Options) { o.JWTSecret = "another-secret" })

	_, err := other.svc.Auth.SignUp(other.ctx, service.SignUpInput{Email: "c@example.com", Username: "c", Password: "password1"})
	require.NoError(t, err)
	session, err := other.svc.Auth.Login(other.ctx, "c@example.com", "password1")
	require.NoError(t, err)

	_, err = e.svc.Auth.Authenticate(e.ctx, session.Token)
	require.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = e.svc.Auth.Authenticate(e.ctx, "not-a-token")
	require.ErrorIs(t, err, service.ErrUnauthorized)
}
