package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/stanstork/tickr-api/internal/models"
)

type InvitationRepository interface {
	// CreateInvitation inserts a pending invitation. An existing row for the same team and email
	// is re-issued in place when it is no longer valid and yields ErrConflict otherwise.
	CreateInvitation(ctx context.Context, inv models.Invitation) (models.Invitation, error)
	GetInvitationByToken(ctx context.Context, token string) (models.Invitation, error)
	ListPendingInvitationsByEmail(ctx context.Context, email string) ([]models.Invitation, error)
	DeclineInvitation(ctx context.Context, invitationID string) (models.Invitation, error)
	// AcceptInvitation materialises the membership and marks the invitation accepted atomically.
	// It yields ErrConflict when the invitation stopped being valid in the meantime.
	AcceptInvitation(ctx context.Context, invitationID, userID string, at time.Time) (models.Invitation, error)
}

type invitationRepository struct {
	db *sql.DB
}

func NewInvitationRepository(db *sql.DB) InvitationRepository {
	return &invitationRepository{db: db}
}

// invitationProjection expects the invitation row aliased as i.
const invitationProjection = `
	SELECT i.id, i.team_id, i.email, i.invited_by, b.username, b.email, i.token, i.status,
		i.created_at, i.expires_at, i.accepted_at,
		t.name, t.description, t.owner_id, o.username, o.email, t.created_at,
		1 + (SELECT COUNT(*) FROM tickr.team_members m WHERE m.team_id = t.id AND m.user_id <> t.owner_id)`

const invitationJoins = `
	JOIN tickr.teams t ON t.id = i.team_id
	JOIN tickr.users o ON o.id = t.owner_id
	JOIN tickr.users b ON b.id = i.invited_by`

func (r *invitationRepository) CreateInvitation(ctx context.Context, inv models.Invitation) (models.Invitation, error) {
	query := `
		WITH i AS (
			INSERT INTO tickr.team_invitations AS cur (team_id, email, invited_by, token, status, created_at, expires_at)
			VALUES ($1, $2, $3, $4, 'pending', $5, $6)
			ON CONFLICT (team_id, email) DO UPDATE
			SET invited_by = EXCLUDED.invited_by,
				token = EXCLUDED.token,
				status = 'pending',
				created_at = EXCLUDED.created_at,
				expires_at = EXCLUDED.expires_at,
				accepted_at = NULL
			WHERE cur.status <> 'pending' OR cur.expires_at <= EXCLUDED.created_at
			RETURNING *
		)` + invitationProjection + ` FROM i` + invitationJoins

	row := r.db.QueryRowContext(ctx, query,
		inv.TeamID,
		inv.Email,
		inv.InvitedByID,
		inv.Token,
		inv.CreatedAt,
		inv.ExpiresAt,
	)
	created, err := scanInvitation(row)
	if errors.Is(err, sql.ErrNoRows) {
		// The conflicting row is still a valid pending invitation.
		return models.Invitation{}, errors.Wrap(ErrConflict, "create invitation: pending invitation exists")
	}
	return created, translate(err, "create invitation")
}

func (r *invitationRepository) GetInvitationByToken(ctx context.Context, token string) (models.Invitation, error) {
	query := invitationProjection + ` FROM tickr.team_invitations i` + invitationJoins + ` WHERE i.token = $1`
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, token))
	return inv, translate(err, "get invitation")
}

func (r *invitationRepository) ListPendingInvitationsByEmail(ctx context.Context, email string) ([]models.Invitation, error) {
	query := invitationProjection + ` FROM tickr.team_invitations i` + invitationJoins + `
		WHERE lower(i.email) = lower($1) AND i.status = 'pending'
		ORDER BY i.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, translate(err, "list invitations")
	}
	defer rows.Close()

	invitations := []models.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, translate(err, "scan invitation")
		}
		invitations = append(invitations, inv)
	}
	return invitations, translate(rows.Err(), "list invitations")
}

func (r *invitationRepository) DeclineInvitation(ctx context.Context, invitationID string) (models.Invitation, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tickr.team_invitations SET status = 'declined' WHERE id = $1`, invitationID)
	if err != nil {
		return models.Invitation{}, translate(err, "decline invitation")
	}
	if err := requireAffected(result, "decline invitation"); err != nil {
		return models.Invitation{}, err
	}
	return r.getByID(ctx, invitationID)
}

func (r *invitationRepository) AcceptInvitation(ctx context.Context, invitationID, userID string, at time.Time) (models.Invitation, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return models.Invitation{}, translate(err, "begin accept")
	}
	defer rollback(tx)

	var teamID string
	err = tx.QueryRowContext(ctx, `
		UPDATE tickr.team_invitations
		SET status = 'accepted', accepted_at = $2
		WHERE id = $1 AND status = 'pending' AND expires_at > $2
		RETURNING team_id`,
		invitationID, at).Scan(&teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invitation{}, errors.Wrap(ErrConflict, "accept invitation: no longer pending")
	}
	if err != nil {
		return models.Invitation{}, translate(err, "accept invitation")
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tickr.team_members (team_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id, user_id) DO NOTHING`,
		teamID, userID, at); err != nil {
		return models.Invitation{}, translate(err, "add member")
	}

	if err := tx.Commit(); err != nil {
		return models.Invitation{}, translate(err, "commit accept")
	}
	return r.getByID(ctx, invitationID)
}

func (r *invitationRepository) getByID(ctx context.Context, invitationID string) (models.Invitation, error) {
	query := invitationProjection + ` FROM tickr.team_invitations i` + invitationJoins + ` WHERE i.id = $1`
	inv, err := scanInvitation(r.db.QueryRowContext(ctx, query, invitationID))
	return inv, translate(err, "get invitation")
}

func scanInvitation(s scanner) (models.Invitation, error) {
	var inv models.Invitation
	err := s.Scan(
		&inv.ID,
		&inv.TeamID,
		&inv.Email,
		&inv.InvitedByID,
		&inv.InvitedBy.Username,
		&inv.InvitedBy.Email,
		&inv.Token,
		&inv.Status,
		&inv.CreatedAt,
		&inv.ExpiresAt,
		&inv.AcceptedAt,
		&inv.Team.Name,
		&inv.Team.Description,
		&inv.Team.OwnerID,
		&inv.Team.Owner.Username,
		&inv.Team.Owner.Email,
		&inv.Team.CreatedAt,
		&inv.Team.MemberCount,
	)
	inv.InvitedBy.ID = inv.InvitedByID
	inv.Team.ID = inv.TeamID
	inv.Team.Owner.ID = inv.Team.OwnerID
	return inv, err
}
