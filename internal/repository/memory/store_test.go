package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, s *Store, name string) models.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), models.User{Email: name + "@example.com", Username: name, IsActive: true})
	require.NoError(t, err)
	return u
}

func TestCreateUserUniqueness(t *testing.T) {
	s := New(func() time.Time { return t0 })
	seedUser(t, s, "alice")

	_, err := s.CreateUser(context.Background(), models.User{Email: "Alice@Example.com", Username: "other"})
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = s.CreateUser(context.Background(), models.User{Email: "new@example.com", Username: "alice"})
	require.ErrorIs(t, err, repository.ErrConflict)
}

func TestStartTimerKeepsOneRunning(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	u := seedUser(t, s, "alice")

	first, err := s.StartTimer(ctx, models.TimeEntry{UserID: u.ID, StartTime: t0})
	require.NoError(t, err)
	second, err := s.StartTimer(ctx, models.TimeEntry{UserID: u.ID, StartTime: t0.Add(time.Minute)})
	require.NoError(t, err)

	running, err := s.GetRunning(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, running.ID)

	closed, err := s.GetEntry(ctx, u.ID, first.ID)
	require.NoError(t, err)
	require.False(t, closed.IsRunning)
	require.Equal(t, time.Minute, *closed.Duration)

	missing := uuid.NewString()
	_, err = s.StartTimer(ctx, models.TimeEntry{UserID: u.ID, ProjectID: &missing, StartTime: t0})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestInvitationReissue(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	owner := seedUser(t, s, "alice")
	team, err := s.CreateTeam(ctx, models.Team{Name: "Eng", OwnerID: owner.ID})
	require.NoError(t, err)

	inv := models.Invitation{
		TeamID:      team.ID,
		Email:       "bob@example.com",
		InvitedByID: owner.ID,
		Token:       uuid.NewString(),
		CreatedAt:   t0,
		ExpiresAt:   t0.Add(time.Hour),
	}
	created, err := s.CreateInvitation(ctx, inv)
	require.NoError(t, err)

	dup := inv
	dup.Token = uuid.NewString()
	_, err = s.CreateInvitation(ctx, dup)
	require.ErrorIs(t, err, repository.ErrConflict)

	// Once expired the same row is re-issued with the new token.
	dup.CreatedAt = t0.Add(2 * time.Hour)
	dup.ExpiresAt = t0.Add(3 * time.Hour)
	reissued, err := s.CreateInvitation(ctx, dup)
	require.NoError(t, err)
	require.Equal(t, created.ID, reissued.ID)
	require.Equal(t, dup.Token, reissued.Token)

	_, err = s.GetInvitationByToken(ctx, inv.Token)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAcceptInvitationRequiresPending(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	owner := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	team, err := s.CreateTeam(ctx, models.Team{Name: "Eng", OwnerID: owner.ID})
	require.NoError(t, err)

	inv, err := s.CreateInvitation(ctx, models.Invitation{
		TeamID:      team.ID,
		Email:       bob.Email,
		InvitedByID: owner.ID,
		Token:       uuid.NewString(),
		CreatedAt:   t0,
		ExpiresAt:   t0.Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = s.DeclineInvitation(ctx, inv.ID)
	require.NoError(t, err)
	_, err = s.AcceptInvitation(ctx, inv.ID, bob.ID, t0)
	require.ErrorIs(t, err, repository.ErrConflict)

	member, err := s.IsMember(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, member)
}

func TestDeleteTeamCascades(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	owner := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	team, err := s.CreateTeam(ctx, models.Team{Name: "Eng", OwnerID: owner.ID})
	require.NoError(t, err)
	inv, err := s.CreateInvitation(ctx, models.Invitation{
		TeamID:      team.ID,
		Email:       bob.Email,
		InvitedByID: owner.ID,
		Token:       uuid.NewString(),
		CreatedAt:   t0,
		ExpiresAt:   t0.Add(time.Hour),
	})
	require.NoError(t, err)
	_, err = s.AcceptInvitation(ctx, inv.ID, bob.ID, t0)
	require.NoError(t, err)
	project, err := s.CreateProject(ctx, models.Project{Name: "Web", Type: models.ProjectGroup, CreatorID: owner.ID, TeamID: &team.ID})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTeam(ctx, team.ID))

	member, err := s.IsMember(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, member)
	_, err = s.GetInvitationByToken(ctx, inv.Token)
	require.ErrorIs(t, err, repository.ErrNotFound)

	kept, err := s.GetProject(ctx, project.ID)
	require.NoError(t, err)
	require.Nil(t, kept.TeamID)
}
