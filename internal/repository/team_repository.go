package repository

import (
	"context"
	"database/sql"

	"github.com/stanstork/tickr-api/internal/models"
)

type TeamRepository interface {
	CreateTeam(ctx context.Context, team models.Team) (models.Team, error)
	GetTeam(ctx context.Context, teamID string) (models.Team, error)
	ListTeamsByOwner(ctx context.Context, ownerID string) ([]models.Team, error)
	UpdateTeam(ctx context.Context, team models.Team) (models.Team, error)
	DeleteTeam(ctx context.Context, teamID string) error

	RemoveMember(ctx context.Context, teamID, userID string) error
	IsMember(ctx context.Context, teamID, userID string) (bool, error)
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)

	ListTeams(ctx context.Context, filter models.TeamFilter) (models.Paginated[models.AdminTeam], error)
}

type teamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) TeamRepository {
	return &teamRepository{db: db}
}

// The owner always counts as one member, with or without an explicit row.
const teamSelect = `
	SELECT t.id, t.name, t.description, t.owner_id, o.username, o.email, t.created_at,
		1 + (SELECT COUNT(*) FROM tickr.team_members m WHERE m.team_id = t.id AND m.user_id <> t.owner_id)
	FROM tickr.teams t
	JOIN tickr.users o ON o.id = t.owner_id`

func (r *teamRepository) CreateTeam(ctx context.Context, team models.Team) (models.Team, error) {
	const query = `
		INSERT INTO tickr.teams (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id;
	`
	var id string
	if err := r.db.QueryRowContext(ctx, query, team.Name, team.Description, team.OwnerID).Scan(&id); err != nil {
		return models.Team{}, translate(err, "create team")
	}
	return r.GetTeam(ctx, id)
}

func (r *teamRepository) GetTeam(ctx context.Context, teamID string) (models.Team, error) {
	team, err := scanTeam(r.db.QueryRowContext(ctx, teamSelect+` WHERE t.id = $1`, teamID))
	return team, translate(err, "get team")
}

func (r *teamRepository) ListTeamsByOwner(ctx context.Context, ownerID string) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, teamSelect+` WHERE t.owner_id = $1 ORDER BY t.created_at DESC, t.id`, ownerID)
	if err != nil {
		return nil, translate(err, "list teams")
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, translate(err, "scan team")
		}
		teams = append(teams, team)
	}
	return teams, translate(rows.Err(), "list teams")
}

func (r *teamRepository) UpdateTeam(ctx context.Context, team models.Team) (models.Team, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tickr.teams SET name = $2, description = $3 WHERE id = $1`,
		team.ID, team.Name, team.Description)
	if err != nil {
		return models.Team{}, translate(err, "update team")
	}
	if err := requireAffected(result, "update team"); err != nil {
		return models.Team{}, err
	}
	return r.GetTeam(ctx, team.ID)
}

func (r *teamRepository) DeleteTeam(ctx context.Context, teamID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tickr.teams WHERE id = $1`, teamID)
	if err != nil {
		return translate(err, "delete team")
	}
	return requireAffected(result, "delete team")
}

func (r *teamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tickr.team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return translate(err, "remove member")
	}
	return requireAffected(result, "remove member")
}

func (r *teamRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickr.team_members WHERE team_id = $1 AND user_id = $2)`,
		teamID, userID).Scan(&exists)
	return exists, translate(err, "check member")
}

func (r *teamRepository) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	const query = `
		SELECT m.team_id, m.user_id, u.username, u.email, m.joined_at
		FROM tickr.team_members m
		JOIN tickr.users u ON u.id = m.user_id
		WHERE m.team_id = $1
		ORDER BY m.joined_at, u.id;
	`
	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, translate(err, "list members")
	}
	defer rows.Close()

	members := []models.TeamMember{}
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.User.Username, &m.User.Email, &m.JoinedAt); err != nil {
			return nil, translate(err, "scan member")
		}
		m.User.ID = m.UserID
		members = append(members, m)
	}
	return members, translate(rows.Err(), "list members")
}

func (r *teamRepository) ListTeams(ctx context.Context, filter models.TeamFilter) (models.Paginated[models.AdminTeam], error) {
	page := filter.Page.Normalize()
	result := models.Paginated[models.AdminTeam]{Page: page.Number, PageSize: page.Size, Results: []models.AdminTeam{}}

	var where whereBuilder
	if filter.Search != "" {
		where.add(`(t.name ILIKE $%[1]d OR o.email ILIKE $%[1]d)`, likePattern(filter.Search))
	}

	countQuery := `SELECT COUNT(*) FROM tickr.teams t JOIN tickr.users o ON o.id = t.owner_id ` + where.clause()
	if err := r.db.QueryRowContext(ctx, countQuery, where.args...).Scan(&result.Count); err != nil {
		return result, translate(err, "count teams")
	}

	suffix, args := where.page(page.Size, page.Offset())
	query := `
	SELECT t.id, t.name, t.description, t.owner_id, o.username, o.email, t.created_at,
		1 + (SELECT COUNT(*) FROM tickr.team_members m WHERE m.team_id = t.id AND m.user_id <> t.owner_id),
		(SELECT COUNT(*) FROM tickr.projects p WHERE p.team_id = t.id)
	FROM tickr.teams t
	JOIN tickr.users o ON o.id = t.owner_id ` + where.clause() + ` ORDER BY t.created_at DESC, t.id ` + suffix

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, translate(err, "list teams")
	}
	defer rows.Close()

	for rows.Next() {
		var team models.AdminTeam
		if err := rows.Scan(
			&team.ID,
			&team.Name,
			&team.Description,
			&team.OwnerID,
			&team.Owner.Username,
			&team.Owner.Email,
			&team.CreatedAt,
			&team.MemberCount,
			&team.ProjectsCount,
		); err != nil {
			return result, translate(err, "scan team")
		}
		team.Owner.ID = team.OwnerID
		result.Results = append(result.Results, team)
	}
	return result, translate(rows.Err(), "list teams")
}

func scanTeam(s scanner) (models.Team, error) {
	var team models.Team
	err := s.Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.OwnerID,
		&team.Owner.Username,
		&team.Owner.Email,
		&team.CreatedAt,
		&team.MemberCount,
	)
	team.Owner.ID = team.OwnerID
	return team, err
}
