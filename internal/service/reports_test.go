package service_test

import (
	"testing"
	"time"

	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/service"
	"github.com/stretchr/testify/require"
)

func TestReportSingleEntry(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")

	_, err := e.svc.Timer.Start(e.ctx, alice, service.StartInput{})
	require.NoError(t, err)
	e.clock.Advance(90 * time.Second)
	_, err = e.svc.Timer.Stop(e.ctx, alice)
	require.NoError(t, err)

	report, err := e.svc.Reports.Report(e.ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "00:01:30", report.TotalTime)
	require.Equal(t, int64(90), report.TotalSeconds)
	require.Equal(t, []models.ProjectBreakdown{
		{ProjectName: "No Project", HoursStr: "00:01:30", TotalSeconds: 90},
	}, report.ProjectBreakdown)
}

func TestReportGroupsByProjectAndSkipsRunning(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	api := e.project(t, alice, "API")
	web := e.project(t, alice, "Web")

	track := func(p *models.Project, d time.Duration) {
		in := service.StartInput{}
		if p != nil {
			in.ProjectID = &p.ID
		}
		_, err := e.svc.Timer.Start(e.ctx, alice, in)
		require.NoError(t, err)
		e.clock.Advance(d)
		_, err = e.svc.Timer.Stop(e.ctx, alice)
		require.NoError(t, err)
	}
	track(&api, time.Hour)
	track(&web, 2*time.Hour)
	track(&api, 30*time.Minute)
	track(nil, 10*time.Minute)

	// Still running, so excluded.
	_, err := e.svc.Timer.Start(e.ctx, alice, service.StartInput{ProjectID: &web.ID})
	require.NoError(t, err)
	e.clock.Advance(5 * time.Hour)

	report, err := e.svc.Reports.Report(e.ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "03:40:00", report.TotalTime)
	require.Equal(t, int64(13200), report.TotalSeconds)
	require.Equal(t, []models.ProjectBreakdown{
		{ProjectName: "Web", HoursStr: "02:00:00", TotalSeconds: 7200},
		{ProjectName: "API", HoursStr: "01:30:00", TotalSeconds: 5400},
		{ProjectName: "No Project", HoursStr: "00:10:00", TotalSeconds: 600},
	}, report.ProjectBreakdown)
}

func TestReportEmpty(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")

	report, err := e.svc.Reports.Report(e.ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "00:00:00", report.TotalTime)
	require.Empty(t, report.ProjectBreakdown)
}
