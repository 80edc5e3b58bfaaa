package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

type InvitationService struct {
	teams       repository.TeamRepository
	users       repository.UserRepository
	invitations repository.InvitationRepository
	access      access
	mailer      InviteMailer
	ttl         time.Duration
	urlTemplate string
	enforceMail bool
	clock       clock
	logger      zerolog.Logger
}

// InviteInput targets a registered user, an email address, or neither for a share link.
type InviteInput struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

type InviteResult struct {
	Invitation models.InvitationDetail `json:"invitation"`
	InviteURL  string                  `json:"invite_url"`
}

func newInvitationService(repos repository.Repositories, acl access, opts Options, clk clock, logger zerolog.Logger) *InvitationService {
	return &InvitationService{
		teams:       repos.Teams,
		users:       repos.Users,
		invitations: repos.Invitations,
		access:      acl,
		mailer:      opts.Mailer,
		ttl:         opts.InviteTTL,
		urlTemplate: opts.InviteURLTemplate,
		enforceMail: opts.EnforceEmailMatch,
		clock:       clk,
		logger:      logger.With().Str("component", "invitation_service").Logger(),
	}
}

func (s *InvitationService) Invite(ctx context.Context, id models.Identity, teamID string, in InviteInput) (InviteResult, error) {
	if !validID(teamID) {
		return InviteResult{}, notFound("team not found")
	}
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return InviteResult{}, storage(err, "team not found", "load team")
	}
	if team.OwnerID != id.UserID {
		return InviteResult{}, forbidden("only the team owner can invite members")
	}

	email, err := s.resolveRecipient(ctx, team, in)
	if err != nil {
		return InviteResult{}, err
	}

	now := s.clock.now()
	inv, err := s.invitations.CreateInvitation(ctx, models.Invitation{
		TeamID:      team.ID,
		Email:       email,
		InvitedByID: id.UserID,
		Token:       uuid.NewString(),
		Status:      models.InvitationPending,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	})
	if errors.Is(err, repository.ErrConflict) {
		return InviteResult{}, conflict("invitation already sent")
	}
	if err != nil {
		return InviteResult{}, storage(err, "team not found", "create invitation")
	}

	url := s.inviteURL(inv.Token)
	s.logger.Info().
		Str("team_id", team.ID).
		Str("invitation_id", inv.ID).
		Bool("link", inv.IsLink()).
		Msg("invitation created")
	s.deliver(ctx, inv, url)

	return InviteResult{Invitation: inv.Detail(now), InviteURL: url}, nil
}

// resolveRecipient picks the invitation address and rejects people already on the team.
func (s *InvitationService) resolveRecipient(ctx context.Context, team models.Team, in InviteInput) (string, error) {
	userID := strings.TrimSpace(in.UserID)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	switch {
	case userID != "":
		if !validID(userID) {
			return "", notFound("user not found")
		}
		user, err := s.users.GetUserByID(ctx, userID)
		if err != nil {
			return "", storage(err, "user not found", "load invitee")
		}
		if err := s.rejectMember(ctx, team, user.ID); err != nil {
			return "", err
		}
		return strings.ToLower(user.Email), nil

	case email != "":
		if _, err := mail.ParseAddress(email); err != nil {
			return "", invalid("email: enter a valid email address")
		}
		if models.IsReservedInviteAddress(email) {
			return "", invalid("email: addresses under %s are reserved for invitation links", strings.TrimPrefix(models.LinkInvitationDomain, "@"))
		}
		user, err := s.users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if err := s.rejectMember(ctx, team, user.ID); err != nil {
				return "", err
			}
		case !errors.Is(err, repository.ErrNotFound):
			return "", storage(err, "", "load invitee")
		}
		return email, nil

	default:
		return models.LinkInvitationPrefix + uuid.NewString() + models.LinkInvitationDomain, nil
	}
}

func (s *InvitationService) rejectMember(ctx context.Context, team models.Team, userID string) error {
	member, err := s.access.inTeam(ctx, team, userID)
	if err != nil {
		return err
	}
	if member {
		return conflict("user is already a member of this team")
	}
	return nil
}

func (s *InvitationService) deliver(ctx context.Context, inv models.Invitation, url string) {
	if s.mailer == nil || inv.IsLink() {
		return
	}
	inviter := inv.InvitedBy.Username
	if inviter == "" {
		inviter = inv.InvitedBy.Email
	}
	if err := s.mailer.SendTeamInvite(ctx, inv.Email, inv.Team.Name, inviter, url); err != nil {
		s.logger.Error().Err(err).Str("invitation_id", inv.ID).Msg("failed to send invitation email")
	}
}

func (s *InvitationService) inviteURL(token string) string {
	if strings.Contains(s.urlTemplate, "%s") {
		return fmt.Sprintf(s.urlTemplate, token)
	}
	return strings.TrimRight(s.urlTemplate, "/") + "/" + token
}

// GetInvitation is public. Unknown and malformed tokens are both NotFound.
func (s *InvitationService) GetInvitation(ctx context.Context, token string) (models.InvitationDetail, error) {
	inv, err := s.byToken(ctx, token)
	if err != nil {
		return models.InvitationDetail{}, err
	}
	return inv.Detail(s.clock.now()), nil
}

func (s *InvitationService) Accept(ctx context.Context, id models.Identity, token string) (models.InvitationDetail, error) {
	inv, err := s.byToken(ctx, token)
	if err != nil {
		return models.InvitationDetail{}, err
	}
	// Membership is checked first so a repeated accept reports Conflict.
	member, err := s.access.inTeam(ctx, inv.Team, id.UserID)
	if err != nil {
		return models.InvitationDetail{}, err
	}
	if member {
		return models.InvitationDetail{}, conflict("you are already a member of this team")
	}
	now := s.clock.now()
	if !inv.IsValid(now) {
		return models.InvitationDetail{}, invalidState("invitation is no longer valid")
	}
	if s.enforceMail && !inv.IsLink() && !strings.EqualFold(inv.Email, id.Email) {
		return models.InvitationDetail{}, forbidden("this invitation was sent to a different email address")
	}

	accepted, err := s.invitations.AcceptInvitation(ctx, inv.ID, id.UserID, now)
	if errors.Is(err, repository.ErrConflict) {
		return models.InvitationDetail{}, invalidState("invitation is no longer valid")
	}
	if err != nil {
		return models.InvitationDetail{}, storage(err, "invitation not found", "accept invitation")
	}
	s.logger.Info().Str("team_id", inv.TeamID).Str("user_id", id.UserID).Msg("invitation accepted")
	return accepted.Detail(now), nil
}

func (s *InvitationService) Decline(ctx context.Context, id models.Identity, token string) (models.InvitationDetail, error) {
	inv, err := s.byToken(ctx, token)
	if err != nil {
		return models.InvitationDetail{}, err
	}
	declined, err := s.invitations.DeclineInvitation(ctx, inv.ID)
	if err != nil {
		return models.InvitationDetail{}, storage(err, "invitation not found", "decline invitation")
	}
	s.logger.Info().Str("invitation_id", inv.ID).Str("user_id", id.UserID).Msg("invitation declined")
	return declined.Detail(s.clock.now()), nil
}

// MyInvitations lists the still valid invitations addressed to the caller.
func (s *InvitationService) MyInvitations(ctx context.Context, id models.Identity) ([]models.InvitationDetail, error) {
	pending, err := s.invitations.ListPendingInvitationsByEmail(ctx, id.Email)
	if err != nil {
		return nil, storage(err, "", "list invitations")
	}
	now := s.clock.now()
	out := make([]models.InvitationDetail, 0, len(pending))
	for _, inv := range pending {
		if inv.IsValid(now) {
			out = append(out, inv.Detail(now))
		}
	}
	return out, nil
}

func (s *InvitationService) byToken(ctx context.Context, token string) (models.Invitation, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return models.Invitation{}, notFound("invitation not found")
	}
	inv, err := s.invitations.GetInvitationByToken(ctx, parsed.String())
	if err != nil {
		return models.Invitation{}, storage(err, "invitation not found", "load invitation")
	}
	return inv, nil
}
