package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/audit"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

const (
	overviewWindow      = 30 * 24 * time.Hour
	defaultGrowthDays   = 30
	defaultActivityDays = 7
	maxSeriesDays       = 366
)

type AdminService struct {
	users    repository.UserRepository
	teams    repository.TeamRepository
	projects repository.ProjectRepository
	activity repository.ActivityLogRepository
	settings repository.SettingsRepository
	stats    repository.StatsRepository
	auditor  Auditor
	clock    clock
	logger   zerolog.Logger
}

// AdminUserUpdate carries the fields staff may change. Nil fields are left untouched.
type AdminUserUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsStaff   *bool   `json:"is_staff"`
	IsActive  *bool   `json:"is_active"`
}

func newAdminService(repos repository.Repositories, auditor Auditor, clk clock, logger zerolog.Logger) *AdminService {
	return &AdminService{
		users:    repos.Users,
		teams:    repos.Teams,
		projects: repos.Projects,
		activity: repos.Activity,
		settings: repos.Settings,
		stats:    repos.Stats,
		auditor:  auditor,
		clock:    clk,
		logger:   logger.With().Str("component", "admin_service").Logger(),
	}
}

func (s *AdminService) ListUsers(ctx context.Context, id models.Identity, filter models.UserFilter) (models.Paginated[models.AdminUser], error) {
	if err := requireStaff(id); err != nil {
		return models.Paginated[models.AdminUser]{}, err
	}
	users, err := s.users.ListUsers(ctx, filter)
	if err != nil {
		return users, storage(err, "", "list users")
	}
	return users, nil
}

func (s *AdminService) GetUser(ctx context.Context, id models.Identity, userID string) (models.AdminUser, error) {
	if err := requireStaff(id); err != nil {
		return models.AdminUser{}, err
	}
	if !validID(userID) {
		return models.AdminUser{}, notFound("user not found")
	}
	user, err := s.users.GetAdminUser(ctx, userID)
	if err != nil {
		return models.AdminUser{}, storage(err, "user not found", "load user")
	}
	return user, nil
}

func (s *AdminService) UpdateUser(ctx context.Context, id models.Identity, userID string, in AdminUserUpdate) (models.AdminUser, error) {
	user, err := s.GetUser(ctx, id, userID)
	if err != nil {
		return models.AdminUser{}, err
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.IsStaff != nil {
		user.IsStaff = *in.IsStaff
	}
	if in.IsActive != nil {
		if !*in.IsActive && user.ID == id.UserID {
			return models.AdminUser{}, conflict("you cannot suspend your own account")
		}
		user.IsActive = *in.IsActive
	}

	if _, err := s.users.UpdateUser(ctx, user.User); err != nil {
		return models.AdminUser{}, storage(err, "user not found", "update user")
	}
	s.record(ctx, id, models.ActionUserUpdate, "user", user.ID, fmt.Sprintf("Updated user %s", user.Email))
	return s.reload(ctx, user.ID)
}

func (s *AdminService) SuspendUser(ctx context.Context, id models.Identity, userID string) (models.AdminUser, error) {
	return s.setActive(ctx, id, userID, false)
}

func (s *AdminService) ActivateUser(ctx context.Context, id models.Identity, userID string) (models.AdminUser, error) {
	return s.setActive(ctx, id, userID, true)
}

func (s *AdminService) setActive(ctx context.Context, id models.Identity, userID string, active bool) (models.AdminUser, error) {
	user, err := s.GetUser(ctx, id, userID)
	if err != nil {
		return models.AdminUser{}, err
	}
	action, verb := models.ActionUserActivate, "Activated"
	if !active {
		if user.ID == id.UserID {
			return models.AdminUser{}, conflict("you cannot suspend your own account")
		}
		action, verb = models.ActionUserSuspend, "Suspended"
	}

	user.IsActive = active
	if _, err := s.users.UpdateUser(ctx, user.User); err != nil {
		return models.AdminUser{}, storage(err, "user not found", "update user")
	}
	s.record(ctx, id, action, "user", user.ID, fmt.Sprintf("%s user %s", verb, user.Email))
	return s.reload(ctx, user.ID)
}

func (s *AdminService) DeleteUser(ctx context.Context, id models.Identity, userID string) error {
	user, err := s.GetUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if user.ID == id.UserID {
		return conflict("you cannot delete your own account")
	}
	if err := s.users.DeleteUser(ctx, user.ID); err != nil {
		return storage(err, "user not found", "delete user")
	}
	s.record(ctx, id, models.ActionUserDelete, "user", user.ID, fmt.Sprintf("Deleted user %s", user.Email))
	return nil
}

func (s *AdminService) ListTeams(ctx context.Context, id models.Identity, filter models.TeamFilter) (models.Paginated[models.AdminTeam], error) {
	if err := requireStaff(id); err != nil {
		return models.Paginated[models.AdminTeam]{}, err
	}
	teams, err := s.teams.ListTeams(ctx, filter)
	if err != nil {
		return teams, storage(err, "", "list teams")
	}
	return teams, nil
}

// GetTeam returns a team with its roster and assigned projects.
func (s *AdminService) GetTeam(ctx context.Context, id models.Identity, teamID string) (models.AdminTeamDetail, error) {
	if err := requireStaff(id); err != nil {
		return models.AdminTeamDetail{}, err
	}
	if !validID(teamID) {
		return models.AdminTeamDetail{}, notFound("team not found")
	}
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return models.AdminTeamDetail{}, storage(err, "team not found", "load team")
	}
	rows, err := s.teams.ListMembers(ctx, team.ID)
	if err != nil {
		return models.AdminTeamDetail{}, storage(err, "team not found", "list members")
	}
	projects, err := s.projects.ListTeamProjects(ctx, team.ID)
	if err != nil {
		return models.AdminTeamDetail{}, storage(err, "", "list team projects")
	}
	return models.AdminTeamDetail{
		AdminTeam: models.AdminTeam{Team: team, ProjectsCount: len(projects)},
		Members:   roster(team, rows),
		Projects:  projects,
	}, nil
}

func (s *AdminService) GetProject(ctx context.Context, id models.Identity, projectID string) (models.AdminProject, error) {
	if err := requireStaff(id); err != nil {
		return models.AdminProject{}, err
	}
	if !validID(projectID) {
		return models.AdminProject{}, notFound("project not found")
	}
	project, err := s.projects.GetAdminProject(ctx, projectID)
	if err != nil {
		return models.AdminProject{}, storage(err, "project not found", "load project")
	}
	return project, nil
}

func (s *AdminService) ListProjects(ctx context.Context, id models.Identity, filter models.ProjectFilter) (models.Paginated[models.AdminProject], error) {
	if err := requireStaff(id); err != nil {
		return models.Paginated[models.AdminProject]{}, err
	}
	if filter.Type != "" && !models.IsValidProjectType(filter.Type) {
		return models.Paginated[models.AdminProject]{}, invalid("type: %q is not a valid choice", filter.Type)
	}
	projects, err := s.projects.ListProjects(ctx, filter)
	if err != nil {
		return projects, storage(err, "", "list projects")
	}
	return projects, nil
}

// Overview counts platform totals. "This month" means the trailing 30 days.
func (s *AdminService) Overview(ctx context.Context, id models.Identity) (models.Overview, error) {
	if err := requireStaff(id); err != nil {
		return models.Overview{}, err
	}
	overview, err := s.stats.Overview(ctx, s.clock.now().Add(-overviewWindow))
	if err != nil {
		return models.Overview{}, storage(err, "", "overview")
	}
	return overview, nil
}

// UserGrowth reports signups per UTC day over the trailing window, today included.
// Zero days means the default window.
func (s *AdminService) UserGrowth(ctx context.Context, id models.Identity, days int) ([]models.GrowthPoint, error) {
	if err := requireStaff(id); err != nil {
		return nil, err
	}
	dates, err := s.seriesDates(days, defaultGrowthDays)
	if err != nil {
		return nil, err
	}
	since, _ := time.Parse(models.DayLayout, dates[0])

	base, daily, err := s.stats.UserGrowth(ctx, since)
	if err != nil {
		return nil, storage(err, "", "user growth")
	}
	counts := make(map[string]int, len(daily))
	for _, d := range daily {
		counts[d.Day] = d.Count
	}

	points := make([]models.GrowthPoint, 0, len(dates))
	cumulative := base
	for _, date := range dates {
		cumulative += counts[date]
		points = append(points, models.GrowthPoint{Date: date, Count: counts[date], Cumulative: cumulative})
	}
	return points, nil
}

// ActivitySeries reports entries, new projects and active users per UTC day.
func (s *AdminService) ActivitySeries(ctx context.Context, id models.Identity, days int) ([]models.ActivityPoint, error) {
	if err := requireStaff(id); err != nil {
		return nil, err
	}
	dates, err := s.seriesDates(days, defaultActivityDays)
	if err != nil {
		return nil, err
	}
	since, _ := time.Parse(models.DayLayout, dates[0])

	daily, err := s.stats.DailyActivity(ctx, since)
	if err != nil {
		return nil, storage(err, "", "daily activity")
	}
	byDay := make(map[string]models.DailyActivity, len(daily))
	for _, d := range daily {
		byDay[d.Day] = d
	}

	points := make([]models.ActivityPoint, 0, len(dates))
	for _, date := range dates {
		d := byDay[date]
		points = append(points, models.ActivityPoint{
			Date:        date,
			TimeEntries: d.TimeEntries,
			NewProjects: d.NewProjects,
			ActiveUsers: d.ActiveUsers,
		})
	}
	return points, nil
}

// seriesDates lists the days from today minus days up to today, oldest first.
func (s *AdminService) seriesDates(days, fallback int) ([]string, error) {
	if days == 0 {
		days = fallback
	}
	if days < 0 || days > maxSeriesDays {
		return nil, invalid("days: must be between 1 and %d", maxSeriesDays)
	}
	now := s.clock.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dates := make([]string, 0, days+1)
	for i := days; i >= 0; i-- {
		dates = append(dates, today.AddDate(0, 0, -i).Format(models.DayLayout))
	}
	return dates, nil
}

func (s *AdminService) ListActivity(ctx context.Context, id models.Identity, filter models.ActivityFilter) (models.Paginated[models.ActivityLog], error) {
	if err := requireStaff(id); err != nil {
		return models.Paginated[models.ActivityLog]{}, err
	}
	if filter.Action != "" && !models.IsValidActivityAction(filter.Action) {
		return models.Paginated[models.ActivityLog]{}, invalid("action: %q is not a valid choice", filter.Action)
	}
	logs, err := s.activity.ListActivity(ctx, filter)
	if err != nil {
		return logs, storage(err, "", "list activity")
	}
	return logs, nil
}

func (s *AdminService) GetSettings(ctx context.Context, id models.Identity) ([]models.Setting, error) {
	if err := requireSuperuser(id); err != nil {
		return nil, err
	}
	settings, err := s.settings.ListSettings(ctx)
	if err != nil {
		return nil, storage(err, "", "list settings")
	}
	return settings, nil
}

func (s *AdminService) UpdateSettings(ctx context.Context, id models.Identity, values map[string]string) ([]models.Setting, error) {
	if err := requireSuperuser(id); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, invalid("settings: at least one key is required")
	}
	clean := make(map[string]string, len(values))
	for k, v := range values {
		key := strings.TrimSpace(k)
		if key == "" {
			return nil, invalid("settings: keys may not be blank")
		}
		clean[key] = v
	}

	settings, err := s.settings.UpsertSettings(ctx, clean, id.UserID)
	if err != nil {
		return nil, storage(err, "user not found", "update settings")
	}
	s.record(ctx, id, models.ActionSettingsUpdate, "settings", "", fmt.Sprintf("Updated %d setting(s)", len(clean)))
	return settings, nil
}

func (s *AdminService) reload(ctx context.Context, userID string) (models.AdminUser, error) {
	user, err := s.users.GetAdminUser(ctx, userID)
	if err != nil {
		return models.AdminUser{}, storage(err, "user not found", "load user")
	}
	return user, nil
}

func (s *AdminService) record(ctx context.Context, id models.Identity, action models.ActivityAction, targetType, targetID, description string) {
	s.auditor.Record(ctx, audit.Entry{
		AdminID:     id.UserID,
		Action:      action,
		TargetType:  targetType,
		TargetID:    targetID,
		Description: description,
	})
}

func requireStaff(id models.Identity) error {
	if !id.IsStaff && !id.IsSuperuser {
		return forbidden("you do not have permission to perform this action")
	}
	return nil
}

func requireSuperuser(id models.Identity) error {
	if !id.IsSuperuser {
		return forbidden("superuser access required")
	}
	return nil
}
