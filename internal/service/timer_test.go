package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stanstork/tickr-api/internal/service"
	"github.com/stretchr/testify/require"
)

func TestTimerStartTwiceRotatesActiveEntry(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")

	first, err := e.svc.Timer.Start(e.ctx, alice, service.StartInput{Description: "first"})
	require.NoError(t, err)
	require.True(t, first.IsRunning)

	e.clock.Advance(time.Minute)
	second, err := e.svc.Timer.Start(e.ctx, alice, service.StartInput{Description: "second"})
	require.NoError(t, err)

	closed, err := e.svc.Timer.GetEntry(e.ctx, alice, first.ID)
	require.NoError(t, err)
	require.False(t, closed.IsRunning)
	require.NotNil(t, closed.EndTime)
	require.NotNil(t, closed.Duration)
	require.Equal(t, time.Minute, *closed.Duration)

	active, err := e.svc.Timer.Active(e.ctx, alice)
	require.NoError(t, err)
	require.Equal(t, second.ID, active.ID)

	entries, err := e.svc.Timer.ListEntries(e.ctx, alice)
	require.NoError(t, err)
	running := 0
	for _, entry := range entries {
		if entry.IsRunning {
			running++
		}
	}
	require.Equal(t, 1, running)
	require.Equal(t, second.ID, entries[0].ID, "newest first")
}

func TestTimerStopWithoutRunningEntry(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")

	_, err := e.svc.Timer.Stop(e.ctx, alice)
	require.ErrorIs(t, err, service.ErrInvalidState)

	reason, ok := service.Reason(err)
	require.True(t, ok)
	require.Equal(t, "no active timer to stop", reason)
}

func TestTimerStopRecordsDuration(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")

	_, err := e.svc.Timer.Start(e.ctx, alice, service.StartInput{})
	require.NoError(t, err)
	e.clock.Advance(90 * time.Second)

	stopped, err := e.svc.Timer.Stop(e.ctx, alice)
	require.NoError(t, err)
	require.False(t, stopped.IsRunning)
	require.Equal(t, 90*time.Second, *stopped.Duration)
	require.Equal(t, stopped.StartTime.Add(90*time.Second), *stopped.EndTime)

	_, err = e.svc.Timer.Active(e.ctx, alice)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestTimerStartOnForeignProjectIsForbidden(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	p := e.project(t, alice, "Private")

	_, err := e.svc.Timer.Start(e.ctx, bob, service.StartInput{ProjectID: &p.ID})
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = e.svc.Timer.Active(e.ctx, bob)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestTimerStartClosesRunningEntryEvenWhenRejected(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	p := e.project(t, alice, "Private")

	running, err := e.svc.Timer.Start(e.ctx, bob, service.StartInput{})
	require.NoError(t, err)
	e.clock.Advance(time.Second)

	_, err = e.svc.Timer.Start(e.ctx, bob, service.StartInput{ProjectID: &p.ID})
	require.ErrorIs(t, err, service.ErrForbidden)

	closed, err := e.svc.Timer.GetEntry(e.ctx, bob, running.ID)
	require.NoError(t, err)
	require.False(t, closed.IsRunning)
	require.Equal(t, time.Second, *closed.Duration)
}

func TestTimerStartProjectLookup(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")

	_, err := e.svc.Timer.Start(e.ctx, alice, service.StartInput{ProjectID: strPtr("not-a-uuid")})
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = e.svc.Timer.Start(e.ctx, alice, service.StartInput{ProjectID: strPtr("8f14e45f-ceea-467f-a0d6-6e7a8b1e2a3c")})
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestTimerStaffMayUseAnyProject(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	admin := e.staff(t, "admin")
	p := e.project(t, alice, "Shared")

	entry, err := e.svc.Timer.Start(e.ctx, admin, service.StartInput{ProjectID: &p.ID})
	require.NoError(t, err)
	require.Equal(t, p.ID, *entry.ProjectID)
	require.Equal(t, "Shared", *entry.ProjectName)
}

func TestTimerTeamMemberMayUseTeamProject(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	team := e.team(t, alice, "Eng")
	e.join(t, alice, team, bob)

	p, err := e.svc.Projects.CreateProject(e.ctx, alice, service.ProjectInput{Name: "Roadmap", TeamID: &team.ID})
	require.NoError(t, err)

	_, err = e.svc.Timer.Start(e.ctx, bob, service.StartInput{ProjectID: &p.ID})
	require.NoError(t, err)
}

func TestTimerEntriesArePrivate(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")

	entry, err := e.svc.Timer.Start(e.ctx, alice, service.StartInput{})
	require.NoError(t, err)

	_, err = e.svc.Timer.GetEntry(e.ctx, bob, entry.ID)
	require.ErrorIs(t, err, service.ErrNotFound)
	require.ErrorIs(t, e.svc.Timer.DeleteEntry(e.ctx, bob, entry.ID), service.ErrNotFound)

	require.NoError(t, e.svc.Timer.DeleteEntry(e.ctx, alice, entry.ID))
	_, err = e.svc.Timer.GetEntry(e.ctx, alice, entry.ID)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestTimerViewShowsElapsedForRunningEntry(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")

	entry, err := e.svc.Timer.Start(e.ctx, alice, service.StartInput{})
	require.NoError(t, err)
	e.clock.Advance(65 * time.Second)

	views := e.svc.Timer.View(entry)
	require.Len(t, views, 1)
	require.Nil(t, views[0].DurationSeconds)
	require.Equal(t, "00:00:00", views[0].DurationDisplay)
	require.NotNil(t, views[0].ElapsedTime)
	require.Equal(t, "00:01:05", *views[0].ElapsedTime)
}

func TestTimerConcurrentStartsKeepOneRunning(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")

	const starters = 20
	var wg sync.WaitGroup
	errs := make(chan error, starters)
	for i := 0; i < starters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.Timer.Start(e.ctx, alice, service.StartInput{Description: "parallel"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := e.svc.Timer.ListEntries(e.ctx, alice)
	require.NoError(t, err)
	require.Len(t, entries, starters)
	running := 0
	for _, entry := range entries {
		if entry.IsRunning {
			running++
		}
	}
	require.Equal(t, 1, running)
}

func TestCreateEntryDerivesDuration(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	p := e.project(t, alice, "Web")

	start := epoch.Add(-2 * time.Hour)
	end := start.Add(45 * time.Minute)
	entry, err := e.svc.Timer.CreateEntry(e.ctx, alice, service.EntryInput{
		ProjectID:   &p.ID,
		Description: strPtr("  review  "),
		StartTime:   &start,
		EndTime:     &end,
	})
	require.NoError(t, err)
	require.False(t, entry.IsRunning)
	require.Equal(t, "review", entry.Description)
	require.Equal(t, 45*time.Minute, *entry.Duration)
	require.Equal(t, "Web", *entry.ProjectName)

	_, err = e.svc.Timer.Active(e.ctx, alice)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestCreateEntryValidatesSpan(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	start := epoch
	before := epoch.Add(-time.Minute)

	_, err := e.svc.Timer.CreateEntry(e.ctx, alice, service.EntryInput{StartTime: &start, EndTime: &before})
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = e.svc.Timer.CreateEntry(e.ctx, alice, service.EntryInput{StartTime: &start})
	require.ErrorIs(t, err, service.ErrValidation)

	same, err := e.svc.Timer.CreateEntry(e.ctx, alice, service.EntryInput{StartTime: &start, EndTime: &start})
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), *same.Duration)
}

func TestCreateEntryOnForeignProjectIsForbidden(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	p := e.project(t, alice, "Private")
	start, end := epoch.Add(-time.Hour), epoch

	_, err := e.svc.Timer.CreateEntry(e.ctx, bob, service.EntryInput{ProjectID: &p.ID, StartTime: &start, EndTime: &end})
	require.ErrorIs(t, err, service.ErrForbidden)

	entries, err := e.svc.Timer.ListEntries(e.ctx, bob)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUpdateEntryRecomputesDuration(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	start, end := epoch.Add(-time.Hour), epoch
	entry, err := e.svc.Timer.CreateEntry(e.ctx, alice, service.EntryInput{StartTime: &start, EndTime: &end})
	require.NoError(t, err)

	later := start.Add(15 * time.Minute)
	updated, err := e.svc.Timer.UpdateEntry(e.ctx, alice, entry.ID, service.EntryInput{StartTime: &later, Description: strPtr("trimmed")})
	require.NoError(t, err)
	require.Equal(t, 45*time.Minute, *updated.Duration)
	require.Equal(t, "trimmed", updated.Description)

	tooLate := end.Add(time.Minute)
	_, err = e.svc.Timer.UpdateEntry(e.ctx, alice, entry.ID, service.EntryInput{StartTime: &tooLate})
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = e.svc.Timer.UpdateEntry(e.ctx, bob, entry.ID, service.EntryInput{Description: strPtr("mine now")})
	require.ErrorIs(t, err, service.ErrNotFound)

	stored, err := e.svc.Timer.GetEntry(e.ctx, alice, entry.ID)
	require.NoError(t, err)
	require.Equal(t, later, stored.StartTime)
	require.Equal(t, 45*time.Minute, *stored.Duration)
}

func TestUpdateRunningEntryKeepsItOpen(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	running, err := e.svc.Timer.Start(e.ctx, alice, service.StartInput{})
	require.NoError(t, err)

	end := epoch.Add(time.Hour)
	_, err = e.svc.Timer.UpdateEntry(e.ctx, alice, running.ID, service.EntryInput{EndTime: &end})
	require.ErrorIs(t, err, service.ErrInvalidState)

	updated, err := e.svc.Timer.UpdateEntry(e.ctx, alice, running.ID, service.EntryInput{Description: strPtr("renamed")})
	require.NoError(t, err)
	require.True(t, updated.IsRunning)
	require.Nil(t, updated.EndTime)
	require.Nil(t, updated.Duration)
	require.Equal(t, "renamed", updated.Description)
}
