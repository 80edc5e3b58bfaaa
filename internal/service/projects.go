package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

type ProjectService struct {
	projects repository.ProjectRepository
	teams    repository.TeamRepository
	access   access
	logger   zerolog.Logger
}

type ProjectInput struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        models.ProjectType `json:"type"`
	TeamID      *string            `json:"team_id"`
}

func newProjectService(projects repository.ProjectRepository, teams repository.TeamRepository, acl access, logger zerolog.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		teams:    teams,
		access:   acl,
		logger:   logger.With().Str("component", "project_service").Logger(),
	}
}

func (s *ProjectService) CreateProject(ctx context.Context, id models.Identity, in ProjectInput) (models.Project, error) {
	project, err := normalizeProject(in)
	if err != nil {
		return models.Project{}, err
	}
	project.CreatorID = id.UserID

	if in.TeamID != nil && strings.TrimSpace(*in.TeamID) != "" {
		team, err := s.ownedTeam(ctx, id, strings.TrimSpace(*in.TeamID))
		if err != nil {
			return models.Project{}, err
		}
		project.TeamID = &team.ID
	}

	created, err := s.projects.CreateProject(ctx, project)
	if err != nil {
		return models.Project{}, storage(err, "team not found", "create project")
	}
	s.logger.Info().Str("project_id", created.ID).Str("creator_id", id.UserID).Msg("project created")
	return created, nil
}

// ListProjects returns every project visible to the caller, newest first.
func (s *ProjectService) ListProjects(ctx context.Context, id models.Identity) ([]models.Project, error) {
	projects, err := s.projects.ListVisibleProjects(ctx, id.UserID)
	if err != nil {
		return nil, storage(err, "", "list projects")
	}
	return projects, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id models.Identity, projectID string) (models.Project, error) {
	project, err := s.load(ctx, projectID)
	if err != nil {
		return models.Project{}, err
	}
	allowed, err := s.access.canUse(ctx, id, project)
	if err != nil {
		return models.Project{}, err
	}
	if !allowed {
		return models.Project{}, notFound("project not found")
	}
	return project, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, id models.Identity, projectID string, in ProjectInput) (models.Project, error) {
	current, err := s.GetProject(ctx, id, projectID)
	if err != nil {
		return models.Project{}, err
	}
	if current.CreatorID != id.UserID {
		return models.Project{}, forbidden("only the project creator can update the project")
	}
	if in.Type == "" {
		in.Type = current.Type
	}
	patch, err := normalizeProject(in)
	if err != nil {
		return models.Project{}, err
	}
	current.Name, current.Description, current.Type = patch.Name, patch.Description, patch.Type

	updated, err := s.projects.UpdateProject(ctx, current)
	if err != nil {
		return models.Project{}, storage(err, "project not found", "update project")
	}
	return updated, nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, id models.Identity, projectID string) error {
	project, err := s.GetProject(ctx, id, projectID)
	if err != nil {
		return err
	}
	if project.CreatorID != id.UserID {
		return forbidden("only the project creator can delete the project")
	}
	if err := s.projects.DeleteProject(ctx, project.ID); err != nil {
		return storage(err, "project not found", "delete project")
	}
	s.logger.Info().Str("project_id", project.ID).Msg("project deleted")
	return nil
}

func (s *ProjectService) AssignToTeam(ctx context.Context, id models.Identity, teamID, projectID string) (models.Project, error) {
	team, project, err := s.teamAndProject(ctx, id, teamID, projectID)
	if err != nil {
		return models.Project{}, err
	}
	updated, err := s.projects.SetProjectTeam(ctx, project.ID, &team.ID)
	if err != nil {
		return models.Project{}, storage(err, "project not found", "assign project")
	}
	s.logger.Info().Str("project_id", project.ID).Str("team_id", team.ID).Msg("project assigned to team")
	return updated, nil
}

func (s *ProjectService) UnassignFromTeam(ctx context.Context, id models.Identity, teamID, projectID string) (models.Project, error) {
	team, project, err := s.teamAndProject(ctx, id, teamID, projectID)
	if err != nil {
		return models.Project{}, err
	}
	if project.TeamID == nil || *project.TeamID != team.ID {
		return models.Project{}, notFound("project is not assigned to this team")
	}
	updated, err := s.projects.SetProjectTeam(ctx, project.ID, nil)
	if err != nil {
		return models.Project{}, storage(err, "project not found", "unassign project")
	}
	s.logger.Info().Str("project_id", project.ID).Str("team_id", team.ID).Msg("project removed from team")
	return updated, nil
}

func (s *ProjectService) teamAndProject(ctx context.Context, id models.Identity, teamID, projectID string) (models.Team, models.Project, error) {
	team, err := s.ownedTeam(ctx, id, teamID)
	if err != nil {
		return models.Team{}, models.Project{}, err
	}
	project, err := s.load(ctx, projectID)
	if err != nil {
		return models.Team{}, models.Project{}, err
	}
	if project.CreatorID != id.UserID {
		return models.Team{}, models.Project{}, forbidden("you can only manage projects you created")
	}
	return team, project, nil
}

func (s *ProjectService) ownedTeam(ctx context.Context, id models.Identity, teamID string) (models.Team, error) {
	if !validID(teamID) {
		return models.Team{}, notFound("team not found")
	}
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return models.Team{}, storage(err, "team not found", "load team")
	}
	if team.OwnerID != id.UserID {
		return models.Team{}, forbidden("only the team owner can manage team projects")
	}
	return team, nil
}

func (s *ProjectService) load(ctx context.Context, projectID string) (models.Project, error) {
	if !validID(projectID) {
		return models.Project{}, notFound("project not found")
	}
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return models.Project{}, storage(err, "project not found", "load project")
	}
	return project, nil
}

func normalizeProject(in ProjectInput) (models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Project{}, invalid("name: this field may not be blank")
	}
	typ := models.ProjectType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	if typ == "" {
		typ = models.ProjectIndividual
	}
	if !models.IsValidProjectType(typ) {
		return models.Project{}, invalid("type: %q is not a valid choice", in.Type)
	}
	return models.Project{Name: name, Description: strings.TrimSpace(in.Description), Type: typ}, nil
}
