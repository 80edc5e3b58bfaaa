package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/audit"
	"github.com/stanstork/tickr-api/internal/repository"
)

const (
	defaultInviteTTL      = 7 * 24 * time.Hour
	defaultAccessTokenTTL = 7 * 24 * time.Hour
	defaultInviteURL      = "http://localhost:3000/invitations/%s"
)

// InviteMailer delivers team invitation emails.
type InviteMailer interface {
	SendTeamInvite(ctx context.Context, recipientEmail, teamName, inviterName, inviteURL string) error
}

// Auditor persists admin activity. Implementations must not fail the caller.
type Auditor interface {
	Record(ctx context.Context, entry audit.Entry)
}

type Options struct {
	// Now overrides the wall clock, mostly for tests.
	Now               func() time.Time
	JWTSecret         string
	AccessTokenTTL    time.Duration
	BcryptCost        int
	InviteTTL         time.Duration
	InviteURLTemplate string
	EnforceEmailMatch bool
	Mailer            InviteMailer
	Auditor           Auditor
}

// Services groups the domain services the HTTP layer depends on.
type Services struct {
	Auth        *AuthService
	Timer       *TimerService
	Teams       *TeamService
	Invitations *InvitationService
	Projects    *ProjectService
	Reports     *ReportService
	Admin       *AdminService
}

func New(repos repository.Repositories, opts Options, logger zerolog.Logger) *Services {
	clk := clock(opts.Now)
	if opts.Now == nil {
		clk = clock(time.Now)
	}
	if opts.AccessTokenTTL <= 0 {
		opts.AccessTokenTTL = defaultAccessTokenTTL
	}
	if opts.InviteTTL <= 0 {
		opts.InviteTTL = defaultInviteTTL
	}
	if strings.TrimSpace(opts.InviteURLTemplate) == "" {
		opts.InviteURLTemplate = defaultInviteURL
	}
	if opts.Auditor == nil {
		opts.Auditor = audit.Discard{}
	}

	acl := access{teams: repos.Teams}
	return &Services{
		Auth:        newAuthService(repos.Users, opts, clk, logger),
		Timer:       newTimerService(repos.TimeEntries, repos.Projects, acl, clk, logger),
		Teams:       newTeamService(repos.Teams, acl, logger),
		Invitations: newInvitationService(repos, acl, opts, clk, logger),
		Projects:    newProjectService(repos.Projects, repos.Teams, acl, logger),
		Reports:     newReportService(repos.TimeEntries),
		Admin:       newAdminService(repos, opts.Auditor, clk, logger),
	}
}

type clock func() time.Time

// now truncates to the precision Postgres keeps for timestamptz.
func (c clock) now() time.Time {
	return c().UTC().Truncate(time.Microsecond)
}

func validID(raw string) bool {
	_, err := uuid.Parse(strings.TrimSpace(raw))
	return err == nil
}
