package service_test

import (
	"testing"
	"time"

	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/service"
	"github.com/stretchr/testify/require"
)

func TestVisibleProjectsUnion(t *testing.T) {
	e := newEnv(t)
	u1 := e.user(t, "u1")
	u2 := e.user(t, "u2")
	outsider := e.user(t, "outsider")
	team := e.team(t, u1, "T")
	e.join(t, u1, team, u2)

	p := e.project(t, u1, "P")
	_, err := e.svc.Projects.AssignToTeam(e.ctx, u1, team.ID, p.ID)
	require.NoError(t, err)

	for _, who := range []models.Identity{u1, u2} {
		projects, err := e.svc.Projects.ListProjects(e.ctx, who)
		require.NoError(t, err)
		require.Len(t, projects, 1)
		require.Equal(t, p.ID, projects[0].ID)
	}

	projects, err := e.svc.Projects.ListProjects(e.ctx, outsider)
	require.NoError(t, err)
	require.Empty(t, projects)
}

func TestVisibleProjectsNewestFirst(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")

	older := e.project(t, alice, "Older")
	e.clock.Advance(time.Hour)
	newer := e.project(t, alice, "Newer")

	projects, err := e.svc.Projects.ListProjects(e.ctx, alice)
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, newer.ID, projects[0].ID)
	require.Equal(t, older.ID, projects[1].ID)
}

func TestCreateProjectValidation(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	bobsTeam := e.team(t, bob, "Bob's")

	_, err := e.svc.Projects.CreateProject(e.ctx, alice, service.ProjectInput{Name: "   "})
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = e.svc.Projects.CreateProject(e.ctx, alice, service.ProjectInput{Name: "X", Type: "weird"})
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = e.svc.Projects.CreateProject(e.ctx, alice, service.ProjectInput{Name: "X", TeamID: &bobsTeam.ID})
	require.ErrorIs(t, err, service.ErrForbidden)

	p, err := e.svc.Projects.CreateProject(e.ctx, alice, service.ProjectInput{Name: "  Site  ", Type: models.ProjectGroup})
	require.NoError(t, err)
	require.Equal(t, "Site", p.Name)
	require.Equal(t, models.ProjectGroup, p.Type)
	require.Equal(t, alice.UserID, p.Creator.ID)

	def := e.project(t, alice, "Default")
	require.Equal(t, models.ProjectIndividual, def.Type)
}

func TestAssignAndUnassignProject(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	team := e.team(t, alice, "Eng")
	other := e.team(t, alice, "Ops")
	mine := e.project(t, alice, "Mine")
	theirs := e.project(t, bob, "Theirs")

	_, err := e.svc.Projects.AssignToTeam(e.ctx, bob, team.ID, theirs.ID)
	require.ErrorIs(t, err, service.ErrForbidden, "bob does not own the team")

	_, err = e.svc.Projects.AssignToTeam(e.ctx, alice, team.ID, theirs.ID)
	require.ErrorIs(t, err, service.ErrForbidden, "alice did not create the project")

	_, err = e.svc.Projects.AssignToTeam(e.ctx, alice, team.ID, "8f14e45f-ceea-467f-a0d6-6e7a8b1e2a3c")
	require.ErrorIs(t, err, service.ErrNotFound)

	assigned, err := e.svc.Projects.AssignToTeam(e.ctx, alice, team.ID, mine.ID)
	require.NoError(t, err)
	require.Equal(t, team.ID, *assigned.TeamID)

	_, err = e.svc.Projects.UnassignFromTeam(e.ctx, alice, other.ID, mine.ID)
	require.ErrorIs(t, err, service.ErrNotFound)

	unassigned, err := e.svc.Projects.UnassignFromTeam(e.ctx, alice, team.ID, mine.ID)
	require.NoError(t, err)
	require.Nil(t, unassigned.TeamID)
}

func TestUsePermission(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	staff := e.staff(t, "staff")
	p := e.project(t, alice, "P")

	start := func(id models.Identity) error {
		_, err := e.svc.Timer.Start(e.ctx, id, service.StartInput{ProjectID: &p.ID})
		return err
	}
	require.NoError(t, start(alice))
	require.NoError(t, start(staff))
	require.ErrorIs(t, start(bob), service.ErrForbidden)

	team := e.team(t, alice, "Eng")
	e.join(t, alice, team, bob)
	p, err := e.svc.Projects.AssignToTeam(e.ctx, alice, team.ID, p.ID)
	require.NoError(t, err)
	require.NoError(t, start(bob))
}

func TestProjectUpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	team := e.team(t, alice, "Eng")
	e.join(t, alice, team, bob)

	p, err := e.svc.Projects.CreateProject(e.ctx, alice, service.ProjectInput{Name: "P", TeamID: &team.ID})
	require.NoError(t, err)

	_, err = e.svc.Projects.UpdateProject(e.ctx, bob, p.ID, service.ProjectInput{Name: "Hijack"})
	require.ErrorIs(t, err, service.ErrForbidden)

	updated, err := e.svc.Projects.UpdateProject(e.ctx, alice, p.ID, service.ProjectInput{Name: "Renamed", Description: "d"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, models.ProjectIndividual, updated.Type)

	entry, err := e.svc.Timer.Start(e.ctx, alice, service.StartInput{ProjectID: &p.ID})
	require.NoError(t, err)

	require.ErrorIs(t, e.svc.Projects.DeleteProject(e.ctx, bob, p.ID), service.ErrForbidden)
	require.NoError(t, e.svc.Projects.DeleteProject(e.ctx, alice, p.ID))

	_, err = e.svc.Projects.GetProject(e.ctx, alice, p.ID)
	require.ErrorIs(t, err, service.ErrNotFound)

	orphan, err := e.svc.Timer.GetEntry(e.ctx, alice, entry.ID)
	require.NoError(t, err)
	require.Nil(t, orphan.ProjectID)
}
