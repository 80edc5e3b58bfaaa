package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

type TeamService struct {
	teams  repository.TeamRepository
	access access
	logger zerolog.Logger
}

type TeamInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func newTeamService(teams repository.TeamRepository, acl access, logger zerolog.Logger) *TeamService {
	return &TeamService{
		teams:  teams,
		access: acl,
		logger: logger.With().Str("component", "team_service").Logger(),
	}
}

func (s *TeamService) CreateTeam(ctx context.Context, id models.Identity, in TeamInput) (models.Team, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Team{}, invalid("name: this field may not be blank")
	}
	team, err := s.teams.CreateTeam(ctx, models.Team{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		OwnerID:     id.UserID,
	})
	if err != nil {
		return models.Team{}, storage(err, "user not found", "create team")
	}
	s.logger.Info().Str("team_id", team.ID).Str("owner_id", id.UserID).Msg("team created")
	return team, nil
}

// ListTeams returns the teams the caller owns.
func (s *TeamService) ListTeams(ctx context.Context, id models.Identity) ([]models.Team, error) {
	teams, err := s.teams.ListTeamsByOwner(ctx, id.UserID)
	if err != nil {
		return nil, storage(err, "", "list teams")
	}
	return teams, nil
}

func (s *TeamService) GetTeam(ctx context.Context, id models.Identity, teamID string) (models.Team, error) {
	team, err := s.load(ctx, teamID)
	if err != nil {
		return models.Team{}, err
	}
	visible, err := s.access.canSeeTeam(ctx, id, team)
	if err != nil {
		return models.Team{}, err
	}
	if !visible {
		return models.Team{}, notFound("team not found")
	}
	return team, nil
}

func (s *TeamService) UpdateTeam(ctx context.Context, id models.Identity, teamID string, in TeamInput) (models.Team, error) {
	team, err := s.owned(ctx, id, teamID, "only the team owner can update the team")
	if err != nil {
		return models.Team{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Team{}, invalid("name: this field may not be blank")
	}
	team.Name = name
	team.Description = strings.TrimSpace(in.Description)

	updated, err := s.teams.UpdateTeam(ctx, team)
	if err != nil {
		return models.Team{}, storage(err, "team not found", "update team")
	}
	return updated, nil
}

func (s *TeamService) DeleteTeam(ctx context.Context, id models.Identity, teamID string) error {
	if _, err := s.owned(ctx, id, teamID, "only the team owner can delete the team"); err != nil {
		return err
	}
	if err := s.teams.DeleteTeam(ctx, teamID); err != nil {
		return storage(err, "team not found", "delete team")
	}
	s.logger.Info().Str("team_id", teamID).Msg("team deleted")
	return nil
}

// ListMembers puts the owner first and folds an explicit owner row into that entry.
func (s *TeamService) ListMembers(ctx context.Context, id models.Identity, teamID string) ([]models.Member, error) {
	team, err := s.GetTeam(ctx, id, teamID)
	if err != nil {
		return nil, err
	}
	rows, err := s.teams.ListMembers(ctx, team.ID)
	if err != nil {
		return nil, storage(err, "team not found", "list members")
	}

	return roster(team, rows), nil
}

func roster(team models.Team, rows []models.TeamMember) []models.Member {
	members := make([]models.Member, 0, len(rows)+1)
	members = append(members, models.Member{User: team.Owner, Role: models.MemberRoleOwner, JoinedAt: team.CreatedAt})
	for _, row := range rows {
		if row.UserID == team.OwnerID {
			continue
		}
		members = append(members, models.Member{User: row.User, Role: models.MemberRoleMember, JoinedAt: row.JoinedAt})
	}
	return members
}

func (s *TeamService) RemoveMember(ctx context.Context, id models.Identity, teamID, userID string) error {
	team, err := s.owned(ctx, id, teamID, "only the team owner can remove members")
	if err != nil {
		return err
	}
	if userID == team.OwnerID {
		return conflict("cannot remove the team owner")
	}
	if !validID(userID) {
		return notFound("user is not a member of this team")
	}
	if err := s.teams.RemoveMember(ctx, team.ID, userID); err != nil {
		return storage(err, "user is not a member of this team", "remove member")
	}
	s.logger.Info().Str("team_id", team.ID).Str("user_id", userID).Msg("member removed")
	return nil
}

func (s *TeamService) load(ctx context.Context, teamID string) (models.Team, error) {
	if !validID(teamID) {
		return models.Team{}, notFound("team not found")
	}
	team, err := s.teams.GetTeam(ctx, teamID)
	if err != nil {
		return models.Team{}, storage(err, "team not found", "load team")
	}
	return team, nil
}

// owned loads the team and requires the caller to own it.
func (s *TeamService) owned(ctx context.Context, id models.Identity, teamID, reason string) (models.Team, error) {
	team, err := s.load(ctx, teamID)
	if err != nil {
		return models.Team{}, err
	}
	if team.OwnerID != id.UserID {
		return models.Team{}, forbidden("%s", reason)
	}
	return team, nil
}
