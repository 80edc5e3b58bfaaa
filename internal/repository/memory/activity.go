package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

func (s *Store) CreateActivity(_ context.Context, params repository.CreateActivityParams) (models.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := models.ActivityLog{
		ID:          newID(),
		AdminUserID: trimmed(params.AdminUserID),
		Action:      params.Action,
		TargetType:  params.TargetType,
		TargetID:    trimmed(params.TargetID),
		Description: params.Description,
		IPAddress:   trimmed(params.IPAddress),
		UserAgent:   params.UserAgent,
		CreatedAt:   s.timestamp(),
	}
	if entry.AdminUserID != nil {
		if _, ok := s.users[*entry.AdminUserID]; !ok {
			return models.ActivityLog{}, errors.Wrap(repository.ErrNotFound, "create activity: activity_logs_admin_user_id_fkey")
		}
	}
	s.activity[entry.ID] = &record[models.ActivityLog]{seq: s.nextSeq(), value: entry}
	return s.activityLocked(entry), nil
}

func (s *Store) ListActivity(_ context.Context, filter models.ActivityFilter) (models.Paginated[models.ActivityLog], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	adminID := strings.TrimSpace(filter.AdminID)
	recs := []*record[models.ActivityLog]{}
	for _, rec := range s.activity {
		a := rec.value
		if filter.Action != "" && a.Action != filter.Action {
			continue
		}
		if adminID != "" && (a.AdminUserID == nil || *a.AdminUserID != adminID) {
			continue
		}
		recs = append(recs, rec)
	}
	newestFirst(recs, func(a models.ActivityLog) time.Time { return a.CreatedAt })

	logs := make([]models.ActivityLog, 0, len(recs))
	for _, rec := range recs {
		logs = append(logs, s.activityLocked(rec.value))
	}
	return paginate(logs, filter.Page), nil
}

func (s *Store) activityLocked(a models.ActivityLog) models.ActivityLog {
	a.AdminUserID = cloneString(a.AdminUserID)
	a.TargetID = cloneString(a.TargetID)
	a.IPAddress = cloneString(a.IPAddress)
	a.AdminEmail = nil
	if a.AdminUserID != nil {
		if u, ok := s.users[*a.AdminUserID]; ok {
			email := u.value.Email
			a.AdminEmail = &email
		}
	}
	return a
}

func (s *Store) ListSettings(_ context.Context) ([]models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settingsLocked(), nil
}

func (s *Store) UpsertSettings(_ context.Context, values map[string]string, updatedBy string) ([]models.Setting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var by *string
	if updatedBy != "" {
		if _, ok := s.users[updatedBy]; !ok {
			return nil, errors.Wrap(repository.ErrNotFound, "upsert setting: admin_settings_updated_by_fkey")
		}
		by = &updatedBy
	}
	now := s.timestamp()
	for k, v := range values {
		setting := s.settings[k]
		setting.Key = k
		setting.Value = v
		setting.UpdatedBy = cloneString(by)
		setting.UpdatedAt = now
		s.settings[k] = setting
	}
	return s.settingsLocked(), nil
}

func (s *Store) settingsLocked() []models.Setting {
	settings := make([]models.Setting, 0, len(s.settings))
	for _, setting := range s.settings {
		setting.UpdatedBy = cloneString(setting.UpdatedBy)
		settings = append(settings, setting)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings
}

func (s *Store) Overview(_ context.Context, since time.Time) (models.Overview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var o models.Overview
	for _, rec := range s.users {
		o.TotalUsers++
		if rec.value.IsActive {
			o.ActiveUsers++
		}
		if !rec.value.CreatedAt.Before(since) {
			o.NewUsersThisMonth++
		}
	}
	for _, rec := range s.teams {
		o.TotalTeams++
		if !rec.value.CreatedAt.Before(since) {
			o.NewTeamsThisMonth++
		}
	}
	for _, rec := range s.projects {
		o.TotalProjects++
		if !rec.value.CreatedAt.Before(since) {
			o.NewProjectsThisMonth++
		}
	}
	o.TotalTimeEntries = len(s.entries)
	return o, nil
}

func (s *Store) UserGrowth(_ context.Context, since time.Time) (int, []models.DailyCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := 0
	counts := map[string]int{}
	for _, rec := range s.users {
		created := rec.value.CreatedAt
		if created.Before(since) {
			base++
			continue
		}
		counts[created.UTC().Format(models.DayLayout)]++
	}

	daily := make([]models.DailyCount, 0, len(counts))
	for day, n := range counts {
		daily = append(daily, models.DailyCount{Day: day, Count: n})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Day < daily[j].Day })
	return base, daily, nil
}

func (s *Store) DailyActivity(_ context.Context, since time.Time) ([]models.DailyActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDay := map[string]*models.DailyActivity{}
	users := map[string]map[string]struct{}{}
	day := func(key string) *models.DailyActivity {
		d, ok := byDay[key]
		if !ok {
			d = &models.DailyActivity{Day: key}
			byDay[key] = d
		}
		return d
	}
	for _, rec := range s.entries {
		if rec.value.StartTime.Before(since) {
			continue
		}
		key := rec.value.StartTime.UTC().Format(models.DayLayout)
		day(key).TimeEntries++
		if users[key] == nil {
			users[key] = map[string]struct{}{}
		}
		users[key][rec.value.UserID] = struct{}{}
	}
	for _, rec := range s.projects {
		if rec.value.CreatedAt.Before(since) {
			continue
		}
		day(rec.value.CreatedAt.UTC().Format(models.DayLayout)).NewProjects++
	}

	days := make([]models.DailyActivity, 0, len(byDay))
	for key, d := range byDay {
		d.ActiveUsers = len(users[key])
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })
	return days, nil
}

func trimmed(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
