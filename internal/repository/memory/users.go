package memory

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		if strings.EqualFold(rec.value.Email, user.Email) {
			return models.User{}, errors.Wrap(repository.ErrConflict, "create user: users_email_lower_idx")
		}
		if rec.value.Username == user.Username {
			return models.User{}, errors.Wrap(repository.ErrConflict, "create user: users_username_key")
		}
	}

	user.ID = newID()
	user.CreatedAt = s.timestamp()
	user.LastLogin = nil
	s.users[user.ID] = &record[models.User]{seq: s.nextSeq(), value: user}
	return user, nil
}

func (s *Store) GetUserByID(_ context.Context, userID string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return s.userCopy(rec.value), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		if strings.EqualFold(rec.value.Email, email) {
			return s.userCopy(rec.value), nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[user.ID]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	rec.value.FirstName = user.FirstName
	rec.value.LastName = user.LastName
	rec.value.IsActive = user.IsActive
	rec.value.IsStaff = user.IsStaff
	rec.value.IsSuperuser = user.IsSuperuser
	return s.userCopy(rec.value), nil
}

func (s *Store) SetLastLogin(_ context.Context, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	at = at.UTC()
	rec.value.LastLogin = &at
	return nil
}

// DeleteUser applies the same cascades as the foreign keys of the schema.
func (s *Store) DeleteUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return repository.ErrNotFound
	}
	for id, rec := range s.teams {
		if rec.value.OwnerID == userID {
			s.deleteTeamLocked(id)
		}
	}
	for key := range s.members {
		if key.userID == userID {
			delete(s.members, key)
		}
	}
	for id, rec := range s.invitations {
		if rec.value.InvitedByID == userID {
			delete(s.invitations, id)
		}
	}
	for id, rec := range s.projects {
		if rec.value.CreatorID == userID {
			s.deleteProjectLocked(id)
		}
	}
	for id, rec := range s.entries {
		if rec.value.UserID == userID {
			delete(s.entries, id)
		}
	}
	for _, rec := range s.activity {
		if rec.value.AdminUserID != nil && *rec.value.AdminUserID == userID {
			rec.value.AdminUserID = nil
		}
	}
	for key, setting := range s.settings {
		if setting.UpdatedBy != nil && *setting.UpdatedBy == userID {
			setting.UpdatedBy = nil
			s.settings[key] = setting
		}
	}
	delete(s.users, userID)
	return nil
}

func (s *Store) GetAdminUser(_ context.Context, userID string) (models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return models.AdminUser{}, repository.ErrNotFound
	}
	return s.adminUserLocked(rec.value), nil
}

func (s *Store) ListUsers(_ context.Context, filter models.UserFilter) (models.Paginated[models.AdminUser], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := make([]*record[models.User], 0, len(s.users))
	for _, rec := range s.users {
		u := rec.value
		switch filter.Status {
		case "active":
			if !u.IsActive {
				continue
			}
		case "inactive":
			if u.IsActive {
				continue
			}
		case "staff":
			if !u.IsStaff {
				continue
			}
		}
		if !matches(filter.Search, u.Email, u.Username) {
			continue
		}
		recs = append(recs, rec)
	}
	newestFirst(recs, func(u models.User) time.Time { return u.CreatedAt })

	users := make([]models.AdminUser, 0, len(recs))
	for _, rec := range recs {
		users = append(users, s.adminUserLocked(rec.value))
	}
	return paginate(users, filter.Page), nil
}

func (s *Store) adminUserLocked(u models.User) models.AdminUser {
	admin := models.AdminUser{User: s.userCopy(u)}
	for _, rec := range s.entries {
		if rec.value.UserID == u.ID {
			admin.TotalTimeEntries++
		}
	}
	for key := range s.members {
		if key.userID == u.ID {
			admin.TeamsCount++
		}
	}
	for _, rec := range s.projects {
		if rec.value.CreatorID == u.ID {
			admin.ProjectsCount++
		}
	}
	return admin
}

func (s *Store) userCopy(u models.User) models.User {
	u.LastLogin = cloneTime(u.LastLogin)
	return u
}

func (s *Store) summaryLocked(userID string) models.UserSummary {
	if rec, ok := s.users[userID]; ok {
		return rec.value.Summary()
	}
	return models.UserSummary{ID: userID}
}
