package memory

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

func (s *Store) CreateInvitation(_ context.Context, inv models.Invitation) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[inv.TeamID]; !ok {
		return models.Invitation{}, errors.Wrap(repository.ErrNotFound, "create invitation: team_invitations_team_id_fkey")
	}
	if _, ok := s.users[inv.InvitedByID]; !ok {
		return models.Invitation{}, errors.Wrap(repository.ErrNotFound, "create invitation: team_invitations_invited_by_fkey")
	}
	for _, rec := range s.invitations {
		if rec.value.Token == inv.Token {
			return models.Invitation{}, errors.Wrap(repository.ErrConflict, "create invitation: team_invitations_token_key")
		}
	}

	inv.Status = models.InvitationPending
	inv.AcceptedAt = nil
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.ExpiresAt = inv.ExpiresAt.UTC()

	for _, rec := range s.invitations {
		cur := rec.value
		if cur.TeamID != inv.TeamID || cur.Email != inv.Email {
			continue
		}
		if cur.Status == models.InvitationPending && cur.ExpiresAt.After(inv.CreatedAt) {
			return models.Invitation{}, errors.Wrap(repository.ErrConflict, "create invitation: pending invitation exists")
		}
		// Re-issue the stale row in place.
		inv.ID = cur.ID
		rec.value = inv
		return s.invitationLocked(inv), nil
	}

	inv.ID = newID()
	s.invitations[inv.ID] = &record[models.Invitation]{seq: s.nextSeq(), value: inv}
	return s.invitationLocked(inv), nil
}

func (s *Store) GetInvitationByToken(_ context.Context, token string) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.invitations {
		if rec.value.Token == token {
			return s.invitationLocked(rec.value), nil
		}
	}
	return models.Invitation{}, repository.ErrNotFound
}

func (s *Store) ListPendingInvitationsByEmail(_ context.Context, email string) ([]models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := []*record[models.Invitation]{}
	for _, rec := range s.invitations {
		if rec.value.Status == models.InvitationPending && strings.EqualFold(rec.value.Email, email) {
			recs = append(recs, rec)
		}
	}
	newestFirst(recs, func(i models.Invitation) time.Time { return i.CreatedAt })

	invitations := make([]models.Invitation, 0, len(recs))
	for _, rec := range recs {
		invitations = append(invitations, s.invitationLocked(rec.value))
	}
	return invitations, nil
}

func (s *Store) DeclineInvitation(_ context.Context, invitationID string) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.invitations[invitationID]
	if !ok {
		return models.Invitation{}, repository.ErrNotFound
	}
	rec.value.Status = models.InvitationDeclined
	return s.invitationLocked(rec.value), nil
}

func (s *Store) AcceptInvitation(_ context.Context, invitationID, userID string, at time.Time) (models.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.invitations[invitationID]
	if !ok || rec.value.Status != models.InvitationPending || !rec.value.ExpiresAt.After(at) {
		return models.Invitation{}, errors.Wrap(repository.ErrConflict, "accept invitation: no longer pending")
	}
	if err := s.addMemberLocked(rec.value.TeamID, userID, at); err != nil {
		return models.Invitation{}, err
	}
	accepted := at.UTC()
	rec.value.Status = models.InvitationAccepted
	rec.value.AcceptedAt = &accepted
	return s.invitationLocked(rec.value), nil
}

func (s *Store) invitationLocked(inv models.Invitation) models.Invitation {
	inv.AcceptedAt = cloneTime(inv.AcceptedAt)
	inv.InvitedBy = s.summaryLocked(inv.InvitedByID)
	if rec, ok := s.teams[inv.TeamID]; ok {
		inv.Team = s.teamLocked(rec.value)
	}
	return inv
}
