package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
	"github.com/stanstork/tickr-api/internal/repository/memory"
	"github.com/stanstork/tickr-api/internal/service"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendTeamInvite(ctx context.Context, to, teamName, inviterName, url string) error {
	args := m.Called(ctx, to, teamName, inviterName, url)
	return args.Error(0)
}

type env struct {
	ctx   context.Context
	clock *testClock
	repos repository.Repositories
	svc   *service.Services
}

func newEnv(t *testing.T, configure ...func(*service.Options)) *env {
	t.Helper()
	clk := &testClock{t: epoch}
	repos := memory.NewRepositories(clk.Now)
	opts := service.Options{
		Now:        clk.Now,
		JWTSecret:  "test-secret",
		BcryptCost: 4,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	return &env{
		ctx:   context.Background(),
		clock: clk,
		repos: repos,
		svc:   service.New(repos, opts, zerolog.Nop()),
	}
}

// user creates a user straight in storage and returns its identity.
func (e *env) user(t *testing.T, username string) models.Identity {
	t.Helper()
	return e.userWith(t, username, func(*models.User) {})
}

func (e *env) staff(t *testing.T, username string) models.Identity {
	t.Helper()
	return e.userWith(t, username, func(u *models.User) { u.IsStaff = true })
}

func (e *env) superuser(t *testing.T, username string) models.Identity {
	t.Helper()
	return e.userWith(t, username, func(u *models.User) {
		u.IsStaff = true
		u.IsSuperuser = true
	})
}

func (e *env) userWith(t *testing.T, username string, mutate func(*models.User)) models.Identity {
	t.Helper()
	u := models.User{
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
		IsActive:     true,
	}
	mutate(&u)
	created, err := e.repos.Users.CreateUser(e.ctx, u)
	require.NoError(t, err)
	return created.Identity()
}

func (e *env) team(t *testing.T, owner models.Identity, name string) models.Team {
	t.Helper()
	team, err := e.svc.Teams.CreateTeam(e.ctx, owner, service.TeamInput{Name: name})
	require.NoError(t, err)
	return team
}

func (e *env) project(t *testing.T, creator models.Identity, name string) models.Project {
	t.Helper()
	p, err := e.svc.Projects.CreateProject(e.ctx, creator, service.ProjectInput{Name: name})
	require.NoError(t, err)
	return p
}

// join adds member to the team through a link invitation.
func (e *env) join(t *testing.T, owner models.Identity, team models.Team, member models.Identity) {
	t.Helper()
	res, err := e.svc.Invitations.Invite(e.ctx, owner, team.ID, service.InviteInput{})
	require.NoError(t, err)
	_, err = e.svc.Invitations.Accept(e.ctx, member, res.Invitation.Token)
	require.NoError(t, err)
}

func strPtr(s string) *string {
	return &s
}
