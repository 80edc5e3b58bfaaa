package service

import (
	"context"

	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/repository"
)

// access answers membership and permission questions shared by several services.
type access struct {
	teams repository.TeamRepository
}

// inTeam reports whether the user owns the team or has an explicit membership row.
func (a access) inTeam(ctx context.Context, team models.Team, userID string) (bool, error) {
	if team.OwnerID == userID {
		return true, nil
	}
	ok, err := a.teams.IsMember(ctx, team.ID, userID)
	if err != nil {
		return false, storage(err, "team not found", "check membership")
	}
	return ok, nil
}

// canUse decides whether the caller may log time against the project.
func (a access) canUse(ctx context.Context, id models.Identity, project models.Project) (bool, error) {
	if project.CreatorID == id.UserID || id.IsStaff {
		return true, nil
	}
	if project.TeamID == nil {
		return false, nil
	}
	team, err := a.teams.GetTeam(ctx, *project.TeamID)
	if err != nil {
		return false, storage(err, "team not found", "load project team")
	}
	return a.inTeam(ctx, team, id.UserID)
}

// canSeeTeam grants read access to the owner, members and staff.
func (a access) canSeeTeam(ctx context.Context, id models.Identity, team models.Team) (bool, error) {
	if id.IsStaff {
		return true, nil
	}
	return a.inTeam(ctx, team, id.UserID)
}
