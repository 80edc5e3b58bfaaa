package memory

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

func (s *Store) CreateTeam(_ context.Context, team models.Team) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[team.OwnerID]; !ok {
		return models.Team{}, errors.Wrap(repository.ErrNotFound, "create team: teams_owner_id_fkey")
	}
	team.ID = newID()
	team.CreatedAt = s.timestamp()
	s.teams[team.ID] = &record[models.Team]{seq: s.nextSeq(), value: team}
	return s.teamLocked(team), nil
}

func (s *Store) GetTeam(_ context.Context, teamID string) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.teams[teamID]
	if !ok {
		return models.Team{}, repository.ErrNotFound
	}
	return s.teamLocked(rec.value), nil
}

func (s *Store) ListTeamsByOwner(_ context.Context, ownerID string) ([]models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := []*record[models.Team]{}
	for _, rec := range s.teams {
		if rec.value.OwnerID == ownerID {
			recs = append(recs, rec)
		}
	}
	newestFirst(recs, func(t models.Team) time.Time { return t.CreatedAt })

	teams := make([]models.Team, 0, len(recs))
	for _, rec := range recs {
		teams = append(teams, s.teamLocked(rec.value))
	}
	return teams, nil
}

func (s *Store) UpdateTeam(_ context.Context, team models.Team) (models.Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.teams[team.ID]
	if !ok {
		return models.Team{}, repository.ErrNotFound
	}
	rec.value.Name = team.Name
	rec.value.Description = team.Description
	return s.teamLocked(rec.value), nil
}

func (s *Store) DeleteTeam(_ context.Context, teamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[teamID]; !ok {
		return repository.ErrNotFound
	}
	s.deleteTeamLocked(teamID)
	return nil
}

func (s *Store) deleteTeamLocked(teamID string) {
	for key := range s.members {
		if key.teamID == teamID {
			delete(s.members, key)
		}
	}
	for id, rec := range s.invitations {
		if rec.value.TeamID == teamID {
			delete(s.invitations, id)
		}
	}
	for _, rec := range s.projects {
		if rec.value.TeamID != nil && *rec.value.TeamID == teamID {
			rec.value.TeamID = nil
		}
	}
	delete(s.teams, teamID)
}

// addMemberLocked has get-or-create semantics: an existing row is kept as is.
func (s *Store) addMemberLocked(teamID, userID string, joinedAt time.Time) error {
	if _, ok := s.teams[teamID]; !ok {
		return errors.Wrap(repository.ErrNotFound, "add member: team_members_team_id_fkey")
	}
	if _, ok := s.users[userID]; !ok {
		return errors.Wrap(repository.ErrNotFound, "add member: team_members_user_id_fkey")
	}
	key := memberKey{teamID: teamID, userID: userID}
	if _, ok := s.members[key]; ok {
		return nil
	}
	s.members[key] = &record[models.TeamMember]{
		seq:   s.nextSeq(),
		value: models.TeamMember{TeamID: teamID, UserID: userID, JoinedAt: joinedAt.UTC()},
	}
	return nil
}

func (s *Store) RemoveMember(_ context.Context, teamID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey{teamID: teamID, userID: userID}
	if _, ok := s.members[key]; !ok {
		return repository.ErrNotFound
	}
	delete(s.members, key)
	return nil
}

func (s *Store) IsMember(_ context.Context, teamID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.members[memberKey{teamID: teamID, userID: userID}]
	return ok, nil
}

func (s *Store) ListMembers(_ context.Context, teamID string) ([]models.TeamMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := []*record[models.TeamMember]{}
	for key, rec := range s.members {
		if key.teamID == teamID {
			recs = append(recs, rec)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		ji, jj := recs[i].value.JoinedAt, recs[j].value.JoinedAt
		if !ji.Equal(jj) {
			return ji.Before(jj)
		}
		return recs[i].seq < recs[j].seq
	})

	members := make([]models.TeamMember, 0, len(recs))
	for _, rec := range recs {
		m := rec.value
		m.User = s.summaryLocked(m.UserID)
		members = append(members, m)
	}
	return members, nil
}

func (s *Store) ListTeams(_ context.Context, filter models.TeamFilter) (models.Paginated[models.AdminTeam], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := []*record[models.Team]{}
	for _, rec := range s.teams {
		owner := s.summaryLocked(rec.value.OwnerID)
		if matches(filter.Search, rec.value.Name, owner.Email) {
			recs = append(recs, rec)
		}
	}
	newestFirst(recs, func(t models.Team) time.Time { return t.CreatedAt })

	teams := make([]models.AdminTeam, 0, len(recs))
	for _, rec := range recs {
		team := models.AdminTeam{Team: s.teamLocked(rec.value)}
		for _, p := range s.projects {
			if p.value.TeamID != nil && *p.value.TeamID == team.ID {
				team.ProjectsCount++
			}
		}
		teams = append(teams, team)
	}
	return paginate(teams, filter.Page), nil
}

// teamLocked fills the owner projection and the member count. The owner always counts once.
func (s *Store) teamLocked(t models.Team) models.Team {
	t.Owner = s.summaryLocked(t.OwnerID)
	t.MemberCount = 1
	for key := range s.members {
		if key.teamID == t.ID && key.userID != t.OwnerID {
			t.MemberCount++
		}
	}
	return t
}
