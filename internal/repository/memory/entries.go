package memory

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

func (s *Store) StopRunning(_ context.Context, userID string, at time.Time) ([]models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, repository.ErrNotFound
	}
	return s.closeRunningLocked(userID, at), nil
}

func (s *Store) StartTimer(_ context.Context, entry models.TimeEntry) (models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[entry.UserID]; !ok {
		return models.TimeEntry{}, repository.ErrNotFound
	}
	if err := s.checkProjectLocked(entry.ProjectID); err != nil {
		return models.TimeEntry{}, err
	}
	s.closeRunningLocked(entry.UserID, entry.StartTime)

	entry.ID = newID()
	entry.ProjectID = cloneString(entry.ProjectID)
	entry.StartTime = entry.StartTime.UTC()
	entry.EndTime = nil
	entry.Duration = nil
	entry.IsRunning = true
	s.entries[entry.ID] = &record[models.TimeEntry]{seq: s.nextSeq(), value: entry}
	return s.entryLocked(entry), nil
}

func (s *Store) CreateEntry(_ context.Context, entry models.TimeEntry) (models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[entry.UserID]; !ok {
		return models.TimeEntry{}, repository.ErrNotFound
	}
	if err := s.checkProjectLocked(entry.ProjectID); err != nil {
		return models.TimeEntry{}, err
	}

	entry.ID = newID()
	entry.ProjectID = cloneString(entry.ProjectID)
	entry.StartTime = entry.StartTime.UTC()
	entry.EndTime = cloneTime(entry.EndTime)
	entry.IsRunning = false
	entry.RecomputeDuration()
	s.entries[entry.ID] = &record[models.TimeEntry]{seq: s.nextSeq(), value: entry}
	return s.entryLocked(entry), nil
}

func (s *Store) UpdateEntry(_ context.Context, entry models.TimeEntry) (models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[entry.ID]
	if !ok || rec.value.UserID != entry.UserID {
		return models.TimeEntry{}, repository.ErrNotFound
	}
	if err := s.checkProjectLocked(entry.ProjectID); err != nil {
		return models.TimeEntry{}, err
	}

	v := &rec.value
	v.ProjectID = cloneString(entry.ProjectID)
	v.Description = entry.Description
	v.StartTime = entry.StartTime.UTC()
	if !v.IsRunning {
		v.EndTime = cloneTime(entry.EndTime)
	}
	v.RecomputeDuration()
	return s.entryLocked(*v), nil
}

func (s *Store) checkProjectLocked(projectID *string) error {
	if projectID == nil {
		return nil
	}
	if _, ok := s.projects[*projectID]; !ok {
		return errors.Wrap(repository.ErrNotFound, "insert entry: time_entries_project_id_fkey")
	}
	return nil
}

func (s *Store) closeRunningLocked(userID string, at time.Time) []models.TimeEntry {
	closed := []models.TimeEntry{}
	for _, rec := range s.entries {
		if rec.value.UserID != userID || !rec.value.IsRunning {
			continue
		}
		rec.value.Close(at.UTC())
		closed = append(closed, s.entryLocked(rec.value))
	}
	return closed
}

func (s *Store) GetRunning(_ context.Context, userID string) (models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.entries {
		if rec.value.UserID == userID && rec.value.IsRunning {
			return s.entryLocked(rec.value), nil
		}
	}
	return models.TimeEntry{}, repository.ErrNotFound
}

func (s *Store) GetEntry(_ context.Context, userID, entryID string) (models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[entryID]
	if !ok || rec.value.UserID != userID {
		return models.TimeEntry{}, repository.ErrNotFound
	}
	return s.entryLocked(rec.value), nil
}

func (s *Store) ListEntries(_ context.Context, userID string) ([]models.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := []*record[models.TimeEntry]{}
	for _, rec := range s.entries {
		if rec.value.UserID == userID {
			recs = append(recs, rec)
		}
	}
	newestFirst(recs, func(e models.TimeEntry) time.Time { return e.StartTime })

	entries := make([]models.TimeEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, s.entryLocked(rec.value))
	}
	return entries, nil
}

func (s *Store) DeleteEntry(_ context.Context, userID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.entries[entryID]
	if !ok || rec.value.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.entries, entryID)
	return nil
}

func (s *Store) ProjectTotals(_ context.Context, userID string) ([]models.ProjectTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type group struct {
		name  *string
		total time.Duration
	}
	groups := map[string]*group{}
	for _, rec := range s.entries {
		e := rec.value
		if e.UserID != userID || e.EndTime == nil {
			continue
		}
		var name *string
		key := "\x00"
		if e.ProjectID != nil {
			if p, ok := s.projects[*e.ProjectID]; ok {
				n := p.value.Name
				name, key = &n, "n:"+n
			}
		}
		g, ok := groups[key]
		if !ok {
			g = &group{name: name}
			groups[key] = g
		}
		if e.Duration != nil {
			g.total += e.Duration.Truncate(time.Microsecond)
		}
	}

	totals := make([]models.ProjectTotal, 0, len(groups))
	for _, g := range groups {
		totals = append(totals, models.ProjectTotal{ProjectName: g.name, Total: g.total})
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return nameKey(totals[i].ProjectName) < nameKey(totals[j].ProjectName)
	})
	return totals, nil
}

func nameKey(name *string) string {
	if name == nil {
		return ""
	}
	return *name
}

func (s *Store) entryLocked(e models.TimeEntry) models.TimeEntry {
	e.ProjectID = cloneString(e.ProjectID)
	e.EndTime = cloneTime(e.EndTime)
	if e.Duration != nil {
		d := *e.Duration
		e.Duration = &d
	}
	e.ProjectName = nil
	if e.ProjectID != nil {
		if p, ok := s.projects[*e.ProjectID]; ok {
			n := p.value.Name
			e.ProjectName = &n
		}
	}
	return e
}
