package repository

import (
	"context"
	"database/sql"

	"github.com/stanstork/tickr-api/internal/models"
)

type ProjectRepository interface {
	CreateProject(ctx context.Context, project models.Project) (models.Project, error)
	GetProject(ctx context.Context, projectID string) (models.Project, error)
	// ListVisibleProjects returns projects the user created, or whose team the user owns or belongs to.
	ListVisibleProjects(ctx context.Context, userID string) ([]models.Project, error)
	UpdateProject(ctx context.Context, project models.Project) (models.Project, error)
	SetProjectTeam(ctx context.Context, projectID string, teamID *string) (models.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
	ListProjects(ctx context.Context, filter models.ProjectFilter) (models.Paginated[models.AdminProject], error)
	GetAdminProject(ctx context.Context, projectID string) (models.AdminProject, error)
	// ListTeamProjects returns the projects assigned to a team, newest first.
	ListTeamProjects(ctx context.Context, teamID string) ([]models.Project, error)
}

type projectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const adminProjectSelect = `
	SELECT p.id, p.name, p.description, p.type, p.creator_id, c.username, c.email, p.team_id, p.created_at,
		t.name,
		(SELECT COUNT(*) FROM tickr.time_entries te WHERE te.project_id = p.id)
	FROM tickr.projects p
	JOIN tickr.users c ON c.id = p.creator_id
	LEFT JOIN tickr.teams t ON t.id = p.team_id`

const projectSelect = `
	SELECT p.id, p.name, p.description, p.type, p.creator_id, c.username, c.email, p.team_id, p.created_at
	FROM tickr.projects p
	JOIN tickr.users c ON c.id = p.creator_id`

func (r *projectRepository) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	const query = `
		INSERT INTO tickr.projects (name, description, type, creator_id, team_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		project.Name,
		project.Description,
		project.Type,
		project.CreatorID,
		project.TeamID,
	).Scan(&id)
	if err != nil {
		return models.Project{}, translate(err, "create project")
	}
	return r.GetProject(ctx, id)
}

func (r *projectRepository) GetProject(ctx context.Context, projectID string) (models.Project, error) {
	project, err := scanProject(r.db.QueryRowContext(ctx, projectSelect+` WHERE p.id = $1`, projectID))
	return project, translate(err, "get project")
}

func (r *projectRepository) ListVisibleProjects(ctx context.Context, userID string) ([]models.Project, error) {
	// A single predicate over projects keeps the union free of duplicates.
	query := projectSelect + `
		WHERE p.creator_id = $1
		   OR p.team_id IN (SELECT t.id FROM tickr.teams t WHERE t.owner_id = $1)
		   OR p.team_id IN (SELECT m.team_id FROM tickr.team_members m WHERE m.user_id = $1)
		ORDER BY p.created_at DESC, p.id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, translate(err, "list projects")
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, translate(err, "scan project")
		}
		projects = append(projects, project)
	}
	return projects, translate(rows.Err(), "list projects")
}

func (r *projectRepository) UpdateProject(ctx context.Context, project models.Project) (models.Project, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tickr.projects SET name = $2, description = $3, type = $4 WHERE id = $1`,
		project.ID, project.Name, project.Description, project.Type)
	if err != nil {
		return models.Project{}, translate(err, "update project")
	}
	if err := requireAffected(result, "update project"); err != nil {
		return models.Project{}, err
	}
	return r.GetProject(ctx, project.ID)
}

func (r *projectRepository) SetProjectTeam(ctx context.Context, projectID string, teamID *string) (models.Project, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE tickr.projects SET team_id = $2 WHERE id = $1`, projectID, teamID)
	if err != nil {
		return models.Project{}, translate(err, "set project team")
	}
	if err := requireAffected(result, "set project team"); err != nil {
		return models.Project{}, err
	}
	return r.GetProject(ctx, projectID)
}

func (r *projectRepository) DeleteProject(ctx context.Context, projectID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tickr.projects WHERE id = $1`, projectID)
	if err != nil {
		return translate(err, "delete project")
	}
	return requireAffected(result, "delete project")
}

func (r *projectRepository) ListProjects(ctx context.Context, filter models.ProjectFilter) (models.Paginated[models.AdminProject], error) {
	page := filter.Page.Normalize()
	result := models.Paginated[models.AdminProject]{Page: page.Number, PageSize: page.Size, Results: []models.AdminProject{}}

	var where whereBuilder
	if filter.Type != "" {
		where.add(`p.type = $%[1]d`, string(filter.Type))
	}
	if filter.Search != "" {
		where.add(`(p.name ILIKE $%[1]d OR c.email ILIKE $%[1]d)`, likePattern(filter.Search))
	}

	countQuery := `SELECT COUNT(*) FROM tickr.projects p JOIN tickr.users c ON c.id = p.creator_id ` + where.clause()
	if err := r.db.QueryRowContext(ctx, countQuery, where.args...).Scan(&result.Count); err != nil {
		return result, translate(err, "count projects")
	}

	suffix, args := where.page(page.Size, page.Offset())
	query := adminProjectSelect + ` ` + where.clause() + ` ORDER BY p.created_at DESC, p.id ` + suffix

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return result, translate(err, "list projects")
	}
	defer rows.Close()

	for rows.Next() {
		project, err := scanAdminProject(rows)
		if err != nil {
			return result, translate(err, "scan project")
		}
		result.Results = append(result.Results, project)
	}
	return result, translate(rows.Err(), "list projects")
}

func (r *projectRepository) GetAdminProject(ctx context.Context, projectID string) (models.AdminProject, error) {
	project, err := scanAdminProject(r.db.QueryRowContext(ctx, adminProjectSelect+` WHERE p.id = $1`, projectID))
	return project, translate(err, "get admin project")
}

func (r *projectRepository) ListTeamProjects(ctx context.Context, teamID string) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, projectSelect+` WHERE p.team_id = $1 ORDER BY p.created_at DESC, p.id`, teamID)
	if err != nil {
		return nil, translate(err, "list team projects")
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, translate(err, "scan project")
		}
		projects = append(projects, project)
	}
	return projects, translate(rows.Err(), "list team projects")
}

func scanAdminProject(s scanner) (models.AdminProject, error) {
	var project models.AdminProject
	err := s.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.Type,
		&project.CreatorID,
		&project.Creator.Username,
		&project.Creator.Email,
		&project.TeamID,
		&project.CreatedAt,
		&project.TeamName,
		&project.TimeEntriesCount,
	)
	project.Creator.ID = project.CreatorID
	return project, err
}

func scanProject(s scanner) (models.Project, error) {
	var project models.Project
	err := s.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.Type,
		&project.CreatorID,
		&project.Creator.Username,
		&project.Creator.Email,
		&project.TeamID,
		&project.CreatedAt,
	)
	project.Creator.ID = project.CreatorID
	return project, err
}
