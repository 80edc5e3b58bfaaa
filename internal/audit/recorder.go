// Package audit writes the admin activity trail.
package audit

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

const maxUserAgentLen = 500

// Entry describes one admin action.
type Entry struct {
	AdminID     string
	Action      models.ActivityAction
	TargetType  string
	TargetID    string
	Description string
}

// Recorder persists entries through the activity repository.
type Recorder struct {
	repo   repository.ActivityLogRepository
	logger zerolog.Logger
}

func NewRecorder(repo repository.ActivityLogRepository, logger zerolog.Logger) *Recorder {
	return &Recorder{
		repo:   repo,
		logger: logger.With().Str("component", "audit_recorder").Logger(),
	}
}

// Record stores the entry with the client metadata found on ctx. Failures are logged and swallowed.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	meta := RequestFromContext(ctx)
	params := repository.CreateActivityParams{
		Action:      entry.Action,
		TargetType:  strings.TrimSpace(entry.TargetType),
		Description: strings.TrimSpace(entry.Description),
		UserAgent:   truncate(meta.UserAgent, maxUserAgentLen),
	}
	if id := strings.TrimSpace(entry.AdminID); id != "" {
		params.AdminUserID = &id
	}
	if id := strings.TrimSpace(entry.TargetID); id != "" {
		params.TargetID = &id
	}
	if ip := strings.TrimSpace(meta.IP); ip != "" {
		params.IPAddress = &ip
	}

	if _, err := r.repo.CreateActivity(ctx, params); err != nil {
		r.logger.Error().Err(err).
			Str("action", string(entry.Action)).
			Str("target_type", params.TargetType).
			Str("target_id", entry.TargetID).
			Msg("failed to persist activity log")
	}
}

// Discard drops every entry.
type Discard struct{}

func (Discard) Record(context.Context, Entry) {}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
