package memory

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

func (s *Store) CreateProject(_ context.Context, project models.Project) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[project.CreatorID]; !ok {
		return models.Project{}, errors.Wrap(repository.ErrNotFound, "create project: projects_creator_id_fkey")
	}
	if project.TeamID != nil {
		if _, ok := s.teams[*project.TeamID]; !ok {
			return models.Project{}, errors.Wrap(repository.ErrNotFound, "create project: projects_team_id_fkey")
		}
	}
	project.ID = newID()
	project.TeamID = cloneString(project.TeamID)
	project.CreatedAt = s.timestamp()
	s.projects[project.ID] = &record[models.Project]{seq: s.nextSeq(), value: project}
	return s.projectLocked(project), nil
}

func (s *Store) GetProject(_ context.Context, projectID string) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.projects[projectID]
	if !ok {
		return models.Project{}, repository.ErrNotFound
	}
	return s.projectLocked(rec.value), nil
}

func (s *Store) ListVisibleProjects(_ context.Context, userID string) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := []*record[models.Project]{}
	for _, rec := range s.projects {
		if s.visibleLocked(rec.value, userID) {
			recs = append(recs, rec)
		}
	}
	newestFirst(recs, func(p models.Project) time.Time { return p.CreatedAt })

	projects := make([]models.Project, 0, len(recs))
	for _, rec := range recs {
		projects = append(projects, s.projectLocked(rec.value))
	}
	return projects, nil
}

func (s *Store) visibleLocked(p models.Project, userID string) bool {
	if p.CreatorID == userID {
		return true
	}
	if p.TeamID == nil {
		return false
	}
	if team, ok := s.teams[*p.TeamID]; ok && team.value.OwnerID == userID {
		return true
	}
	_, member := s.members[memberKey{teamID: *p.TeamID, userID: userID}]
	return member
}

func (s *Store) UpdateProject(_ context.Context, project models.Project) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.projects[project.ID]
	if !ok {
		return models.Project{}, repository.ErrNotFound
	}
	rec.value.Name = project.Name
	rec.value.Description = project.Description
	rec.value.Type = project.Type
	return s.projectLocked(rec.value), nil
}

func (s *Store) SetProjectTeam(_ context.Context, projectID string, teamID *string) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.projects[projectID]
	if !ok {
		return models.Project{}, repository.ErrNotFound
	}
	if teamID != nil {
		if _, ok := s.teams[*teamID]; !ok {
			return models.Project{}, errors.Wrap(repository.ErrNotFound, "set project team: projects_team_id_fkey")
		}
	}
	rec.value.TeamID = cloneString(teamID)
	return s.projectLocked(rec.value), nil
}

func (s *Store) DeleteProject(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return repository.ErrNotFound
	}
	s.deleteProjectLocked(projectID)
	return nil
}

func (s *Store) deleteProjectLocked(projectID string) {
	for _, rec := range s.entries {
		if rec.value.ProjectID != nil && *rec.value.ProjectID == projectID {
			rec.value.ProjectID = nil
		}
	}
	delete(s.projects, projectID)
}

func (s *Store) ListProjects(_ context.Context, filter models.ProjectFilter) (models.Paginated[models.AdminProject], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := []*record[models.Project]{}
	for _, rec := range s.projects {
		p := rec.value
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		if !matches(filter.Search, p.Name, s.summaryLocked(p.CreatorID).Email) {
			continue
		}
		recs = append(recs, rec)
	}
	newestFirst(recs, func(p models.Project) time.Time { return p.CreatedAt })

	projects := make([]models.AdminProject, 0, len(recs))
	for _, rec := range recs {
		projects = append(projects, s.adminProjectLocked(rec.value))
	}
	return paginate(projects, filter.Page), nil
}

func (s *Store) GetAdminProject(_ context.Context, projectID string) (models.AdminProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.projects[projectID]
	if !ok {
		return models.AdminProject{}, repository.ErrNotFound
	}
	return s.adminProjectLocked(rec.value), nil
}

func (s *Store) ListTeamProjects(_ context.Context, teamID string) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := []*record[models.Project]{}
	for _, rec := range s.projects {
		if rec.value.TeamID != nil && *rec.value.TeamID == teamID {
			recs = append(recs, rec)
		}
	}
	newestFirst(recs, func(p models.Project) time.Time { return p.CreatedAt })

	projects := make([]models.Project, 0, len(recs))
	for _, rec := range recs {
		projects = append(projects, s.projectLocked(rec.value))
	}
	return projects, nil
}

func (s *Store) adminProjectLocked(p models.Project) models.AdminProject {
	project := models.AdminProject{Project: s.projectLocked(p)}
	if project.TeamID != nil {
		if team, ok := s.teams[*project.TeamID]; ok {
			name := team.value.Name
			project.TeamName = &name
		}
	}
	for _, e := range s.entries {
		if e.value.ProjectID != nil && *e.value.ProjectID == project.ID {
			project.TimeEntriesCount++
		}
	}
	return project
}

func (s *Store) projectLocked(p models.Project) models.Project {
	p.TeamID = cloneString(p.TeamID)
	p.Creator = s.summaryLocked(p.CreatorID)
	return p
}
