package service_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/service"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLinkInvitationScenario(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	team := e.team(t, alice, "Eng")

	res, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{})
	require.NoError(t, err)
	require.True(t, res.Invitation.IsLink())
	require.True(t, strings.HasPrefix(res.Invitation.Email, "link-"))
	require.Contains(t, res.InviteURL, res.Invitation.Token)
	require.Equal(t, epoch.Add(7*24*time.Hour), res.Invitation.ExpiresAt)

	preview, err := e.svc.Invitations.GetInvitation(e.ctx, res.Invitation.Token)
	require.NoError(t, err)
	require.Equal(t, "Eng", preview.Team.Name)
	require.Equal(t, "alice", preview.InvitedBy.Username)
	require.True(t, preview.IsValid)

	accepted, err := e.svc.Invitations.Accept(e.ctx, bob, res.Invitation.Token)
	require.NoError(t, err)
	require.Equal(t, models.InvitationAccepted, accepted.Status)
	require.NotNil(t, accepted.AcceptedAt)

	members, err := e.svc.Teams.ListMembers(e.ctx, alice, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, alice.UserID, members[0].User.ID)
	require.Equal(t, models.MemberRoleOwner, members[0].Role)
	require.Equal(t, team.CreatedAt, members[0].JoinedAt)
	require.Equal(t, bob.UserID, members[1].User.ID)
	require.Equal(t, models.MemberRoleMember, members[1].Role)
}

func TestAcceptTwiceIsConflict(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	team := e.team(t, alice, "Eng")

	res, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{UserID: bob.UserID})
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", res.Invitation.Email)

	_, err = e.svc.Invitations.Accept(e.ctx, bob, res.Invitation.Token)
	require.NoError(t, err)
	_, err = e.svc.Invitations.Accept(e.ctx, bob, res.Invitation.Token)
	require.ErrorIs(t, err, service.ErrConflict)

	members, err := e.svc.Teams.ListMembers(e.ctx, alice, team.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	reloaded, err := e.repos.Teams.GetTeam(e.ctx, team.ID)
	require.NoError(t, err)
	require.Equal(t, 2, reloaded.MemberCount)
}

func TestInvitationExpiresLazily(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	team := e.team(t, alice, "Eng")

	res, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{Email: "bob@example.com"})
	require.NoError(t, err)
	require.True(t, res.Invitation.IsValid)

	e.clock.Advance(8 * 24 * time.Hour)

	preview, err := e.svc.Invitations.GetInvitation(e.ctx, res.Invitation.Token)
	require.NoError(t, err)
	require.Equal(t, models.InvitationPending, preview.Status)
	require.False(t, preview.IsValid)
	require.True(t, preview.IsExpired)

	mine, err := e.svc.Invitations.MyInvitations(e.ctx, bob)
	require.NoError(t, err)
	require.Empty(t, mine)

	_, err = e.svc.Invitations.Accept(e.ctx, bob, res.Invitation.Token)
	require.ErrorIs(t, err, service.ErrInvalidState)
}

func TestInvitePermissionsAndTargets(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	team := e.team(t, alice, "Eng")

	_, err := e.svc.Invitations.Invite(e.ctx, bob, team.ID, service.InviteInput{})
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{UserID: "8f14e45f-ceea-467f-a0d6-6e7a8b1e2a3c"})
	require.ErrorIs(t, err, service.ErrNotFound)

	_, err = e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{UserID: alice.UserID})
	require.ErrorIs(t, err, service.ErrConflict, "owner counts as a member")

	_, err = e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{Email: "not an email"})
	require.ErrorIs(t, err, service.ErrValidation)

	_, err = e.svc.Invitations.Invite(e.ctx, alice, "missing", service.InviteInput{})
	require.ErrorIs(t, err, service.ErrNotFound)

	// Unregistered addresses are accepted.
	res, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{Email: "  New.Person@Example.com "})
	require.NoError(t, err)
	require.Equal(t, "new.person@example.com", res.Invitation.Email)

	e.join(t, alice, team, bob)
	_, err = e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{Email: "BOB@example.com"})
	require.ErrorIs(t, err, service.ErrConflict)
}

func TestDuplicatePendingInvitationIsConflict(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	team := e.team(t, alice, "Eng")

	_, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{Email: "carol@example.com"})
	require.NoError(t, err)
	_, err = e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{Email: "carol@example.com"})
	require.ErrorIs(t, err, service.ErrConflict)

	reason, _ := service.Reason(err)
	require.Equal(t, "invitation already sent", reason)
}

func TestReinviteAfterDeclineIssuesFreshToken(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	carol := e.user(t, "carol")
	team := e.team(t, alice, "Eng")

	first, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{Email: "carol@example.com"})
	require.NoError(t, err)
	declined, err := e.svc.Invitations.Decline(e.ctx, carol, first.Invitation.Token)
	require.NoError(t, err)
	require.Equal(t, models.InvitationDeclined, declined.Status)

	_, err = e.svc.Invitations.Accept(e.ctx, carol, first.Invitation.Token)
	require.ErrorIs(t, err, service.ErrInvalidState)

	second, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{Email: "carol@example.com"})
	require.NoError(t, err)
	require.NotEqual(t, first.Invitation.Token, second.Invitation.Token)
	require.Equal(t, first.Invitation.ID, second.Invitation.ID)
	require.Equal(t, models.InvitationPending, second.Invitation.Status)

	_, err = e.svc.Invitations.GetInvitation(e.ctx, first.Invitation.Token)
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeclineExpiredInvitation(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	team := e.team(t, alice, "Eng")

	res, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{Email: "bob@example.com"})
	require.NoError(t, err)
	e.clock.Advance(30 * 24 * time.Hour)

	declined, err := e.svc.Invitations.Decline(e.ctx, bob, res.Invitation.Token)
	require.NoError(t, err)
	require.Equal(t, models.InvitationDeclined, declined.Status)
}

func TestUnknownOrMalformedTokenIsNotFound(t *testing.T) {
	e := newEnv(t)
	bob := e.user(t, "bob")

	for _, token := range []string{"garbage", "8f14e45f-ceea-467f-a0d6-6e7a8b1e2a3c"} {
		_, err := e.svc.Invitations.GetInvitation(e.ctx, token)
		require.ErrorIs(t, err, service.ErrNotFound)
		_, err = e.svc.Invitations.Accept(e.ctx, bob, token)
		require.ErrorIs(t, err, service.ErrNotFound)
		_, err = e.svc.Invitations.Decline(e.ctx, bob, token)
		require.ErrorIs(t, err, service.ErrNotFound)
	}
}

func TestMyInvitationsMatchesEmail(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	eng := e.team(t, alice, "Eng")
	ops := e.team(t, alice, "Ops")

	_, err := e.svc.Invitations.Invite(e.ctx, alice, eng.ID, service.InviteInput{Email: "bob@example.com"})
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	_, err = e.svc.Invitations.Invite(e.ctx, alice, ops.ID, service.InviteInput{UserID: bob.UserID})
	require.NoError(t, err)
	_, err = e.svc.Invitations.Invite(e.ctx, alice, ops.ID, service.InviteInput{Email: "someone@example.com"})
	require.NoError(t, err)

	mine, err := e.svc.Invitations.MyInvitations(e.ctx, bob)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, "Ops", mine[0].Team.Name)
	require.Equal(t, "Eng", mine[1].Team.Name)
}

func TestEnforcedEmailMatch(t *testing.T) {
	e := newEnv(t, func(o *service.Options) { o.EnforceEmailMatch = true })
	alice := e.user(t, "alice")
	bob := e.user(t, "bob")
	mallory := e.user(t, "mallory")
	team := e.team(t, alice, "Eng")

	res, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{UserID: bob.UserID})
	require.NoError(t, err)

	_, err = e.svc.Invitations.Accept(e.ctx, mallory, res.Invitation.Token)
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = e.svc.Invitations.Accept(e.ctx, bob, res.Invitation.Token)
	require.NoError(t, err)

	// Link invitations stay open to any holder.
	link, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{})
	require.NoError(t, err)
	_, err = e.svc.Invitations.Accept(e.ctx, mallory, link.Invitation.Token)
	require.NoError(t, err)
}

func TestInvitationMailDelivery(t *testing.T) {
	mailer := &mockMailer{}
	e := newEnv(t, func(o *service.Options) {
		o.Mailer = mailer
		o.InviteURLTemplate = "https://tickr.test/join/%s"
	})
	alice := e.user(t, "alice")
	team := e.team(t, alice, "Eng")

	mailer.On("SendTeamInvite", mock.Anything, "dave@example.com", "Eng", "alice", mock.AnythingOfType("string")).
		Return(errors.New("smtp down")).Once()

	res, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{Email: "dave@example.com"})
	require.NoError(t, err, "delivery failures do not fail the invite")
	require.Equal(t, "https://tickr.test/join/"+res.Invitation.Token, res.InviteURL)

	_, err = e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{})
	require.NoError(t, err)

	mailer.AssertExpectations(t)
	mailer.AssertNumberOfCalls(t, "SendTeamInvite", 1)
}

func TestInviteRejectsReservedLinkDomain(t *testing.T) {
	mailer := &mockMailer{}
	e := newEnv(t, func(o *service.Options) { o.Mailer = mailer })
	alice := e.user(t, "alice")
	team := e.team(t, alice, "Eng")

	_, err := e.svc.Invitations.Invite(e.ctx, alice, team.ID, service.InviteInput{Email: "Someone@Invite.Link"})
	require.ErrorIs(t, err, service.ErrValidation)
	mailer.AssertNotCalled(t, "SendTeamInvite", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
