package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

type TimerService struct {
	entries  repository.TimeEntryRepository
	projects repository.ProjectRepository
	access   access
	clock    clock
	logger   zerolog.Logger
}

type StartInput struct {
	ProjectID   *string `json:"project_id"`
	Description string  `json:"description"`
}

// EntryInput carries a manually recorded entry. The duration is always
// derived from the two timestamps.
type EntryInput struct {
	ProjectID   *string    `json:"project_id"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}

func newTimerService(entries repository.TimeEntryRepository, projects repository.ProjectRepository, acl access, clk clock, logger zerolog.Logger) *TimerService {
	return &TimerService{
		entries:  entries,
		projects: projects,
		access:   acl,
		clock:    clk,
		logger:   logger.With().Str("component", "timer_service").Logger(),
	}
}

// Start closes whatever the caller has running and opens a new entry.
// The close is kept even if the new entry is rejected.
func (s *TimerService) Start(ctx context.Context, id models.Identity, in StartInput) (models.TimeEntry, error) {
	now := s.clock.now()

	closed, err := s.entries.StopRunning(ctx, id.UserID, now)
	if err != nil {
		return models.TimeEntry{}, storage(err, "user not found", "stop running timer")
	}
	for _, e := range closed {
		s.logger.Debug().Str("user_id", id.UserID).Str("entry_id", e.ID).Msg("force-closed running timer")
	}

	projectID, err := s.resolveProject(ctx, id, in.ProjectID)
	if err != nil {
		return models.TimeEntry{}, err
	}

	entry, err := s.entries.StartTimer(ctx, models.TimeEntry{
		UserID:      id.UserID,
		ProjectID:   projectID,
		Description: strings.TrimSpace(in.Description),
		StartTime:   now,
		IsRunning:   true,
	})
	if errors.Is(err, repository.ErrConflict) {
		return models.TimeEntry{}, conflict("a timer is already running")
	}
	if err != nil {
		return models.TimeEntry{}, storage(err, "project not found", "start timer")
	}
	return entry, nil
}

func (s *TimerService) Stop(ctx context.Context, id models.Identity) (models.TimeEntry, error) {
	closed, err := s.entries.StopRunning(ctx, id.UserID, s.clock.now())
	if err != nil {
		return models.TimeEntry{}, storage(err, "user not found", "stop timer")
	}
	if len(closed) == 0 {
		return models.TimeEntry{}, invalidState("no active timer to stop")
	}
	entry, err := s.entries.GetEntry(ctx, id.UserID, closed[0].ID)
	if err != nil {
		return models.TimeEntry{}, storage(err, "time entry not found", "load stopped entry")
	}
	return entry, nil
}

func (s *TimerService) Active(ctx context.Context, id models.Identity) (models.TimeEntry, error) {
	entry, err := s.entries.GetRunning(ctx, id.UserID)
	if err != nil {
		return models.TimeEntry{}, storage(err, "no active timer", "load active timer")
	}
	return entry, nil
}

func (s *TimerService) ListEntries(ctx context.Context, id models.Identity) ([]models.TimeEntry, error) {
	entries, err := s.entries.ListEntries(ctx, id.UserID)
	if err != nil {
		return nil, storage(err, "", "list entries")
	}
	return entries, nil
}

// GetEntry hides entries of other users behind NotFound.
func (s *TimerService) GetEntry(ctx context.Context, id models.Identity, entryID string) (models.TimeEntry, error) {
	if !validID(entryID) {
		return models.TimeEntry{}, notFound("time entry not found")
	}
	entry, err := s.entries.GetEntry(ctx, id.UserID, entryID)
	if err != nil {
		return models.TimeEntry{}, storage(err, "time entry not found", "load entry")
	}
	return entry, nil
}

func (s *TimerService) DeleteEntry(ctx context.Context, id models.Identity, entryID string) error {
	if !validID(entryID) {
		return notFound("time entry not found")
	}
	return storage(s.entries.DeleteEntry(ctx, id.UserID, entryID), "time entry not found", "delete entry")
}

// CreateEntry records a completed entry after the fact.
func (s *TimerService) CreateEntry(ctx context.Context, id models.Identity, in EntryInput) (models.TimeEntry, error) {
	if in.StartTime == nil {
		return models.TimeEntry{}, invalid("start_time: this field is required")
	}
	if in.EndTime == nil {
		return models.TimeEntry{}, invalid("end_time: this field is required")
	}
	projectID, err := s.resolveProject(ctx, id, in.ProjectID)
	if err != nil {
		return models.TimeEntry{}, err
	}

	end := in.EndTime.UTC().Truncate(time.Microsecond)
	entry := models.TimeEntry{
		UserID:    id.UserID,
		ProjectID: projectID,
		StartTime: in.StartTime.UTC().Truncate(time.Microsecond),
		EndTime:   &end,
	}
	if in.Description != nil {
		entry.Description = strings.TrimSpace(*in.Description)
	}
	if err := checkSpan(entry); err != nil {
		return models.TimeEntry{}, err
	}
	entry.RecomputeDuration()

	created, err := s.entries.CreateEntry(ctx, entry)
	if err != nil {
		return models.TimeEntry{}, storage(err, "project not found", "create entry")
	}
	return created, nil
}

// UpdateEntry applies the fields present in the input to one of the caller's entries.
// A running entry keeps its open end until the timer is stopped.
func (s *TimerService) UpdateEntry(ctx context.Context, id models.Identity, entryID string, in EntryInput) (models.TimeEntry, error) {
	entry, err := s.GetEntry(ctx, id, entryID)
	if err != nil {
		return models.TimeEntry{}, err
	}

	if in.ProjectID != nil {
		projectID, err := s.resolveProject(ctx, id, in.ProjectID)
		if err != nil {
			return models.TimeEntry{}, err
		}
		entry.ProjectID = projectID
	}
	if in.Description != nil {
		entry.Description = strings.TrimSpace(*in.Description)
	}
	if in.StartTime != nil {
		entry.StartTime = in.StartTime.UTC().Truncate(time.Microsecond)
	}
	if in.EndTime != nil {
		if entry.IsRunning {
			return models.TimeEntry{}, invalidState("stop the timer before setting its end time")
		}
		end := in.EndTime.UTC().Truncate(time.Microsecond)
		entry.EndTime = &end
	}
	if entry.IsRunning && entry.StartTime.After(s.clock.now()) {
		return models.TimeEntry{}, invalid("start_time: a running timer cannot start in the future")
	}
	if err := checkSpan(entry); err != nil {
		return models.TimeEntry{}, err
	}
	entry.RecomputeDuration()

	updated, err := s.entries.UpdateEntry(ctx, entry)
	if err != nil {
		return models.TimeEntry{}, storage(err, "time entry not found", "update entry")
	}
	return updated, nil
}

// resolveProject turns an optional project reference into a project the caller may log time on.
// A blank reference clears the project.
func (s *TimerService) resolveProject(ctx context.Context, id models.Identity, ref *string) (*string, error) {
	if ref == nil || strings.TrimSpace(*ref) == "" {
		return nil, nil
	}
	raw := strings.TrimSpace(*ref)
	if !validID(raw) {
		return nil, invalid("project: %q is not a valid id", raw)
	}
	project, err := s.projects.GetProject(ctx, raw)
	if err != nil {
		return nil, storage(err, "project not found", "load project")
	}
	allowed, err := s.access.canUse(ctx, id, project)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, forbidden("you do not have permission to use this project")
	}
	return &project.ID, nil
}

func checkSpan(e models.TimeEntry) error {
	if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
		return invalid("end_time: must not be before start_time")
	}
	return nil
}

// View renders entries with their derived fields at the current instant.
func (s *TimerService) View(entries ...models.TimeEntry) []models.TimeEntryView {
	now := s.clock.now()
	views := make([]models.TimeEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.View(now))
	}
	return views
}
