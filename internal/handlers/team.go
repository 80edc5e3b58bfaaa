package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/service"
)

type TeamHandler struct {
	teams    *service.TeamService
	projects *service.ProjectService
	logger   zerolog.Logger
}

func NewTeamHandler(teams *service.TeamService, projects *service.ProjectService, logger zerolog.Logger) *TeamHandler {
	return &TeamHandler{
		teams:    teams,
		projects: projects,
		logger:   logger.With().Str("handler", "team").Logger(),
	}
}

func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.TeamInput
	if !decodeJSON(w, r, &req) {
		return
	}
	team, err := h.teams.CreateTeam(r.Context(), id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	teams, err := h.teams.ListTeams(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	team, err := h.teams.GetTeam(r.Context(), id, mux.Vars(r)["teamID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.TeamInput
	if !decodeJSON(w, r, &req) {
		return
	}
	team, err := h.teams.UpdateTeam(r.Context(), id, mux.Vars(r)["teamID"], req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.teams.DeleteTeam(r.Context(), id, mux.Vars(r)["teamID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	members, err := h.teams.ListMembers(r.Context(), id, mux.Vars(r)["teamID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	if err := h.teams.RemoveMember(r.Context(), id, vars["teamID"], vars["userID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeDetail(w, http.StatusOK, "Member removed successfully")
}

func (h *TeamHandler) AssignProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	project, err := h.projects.AssignToTeam(r.Context(), id, vars["teamID"], vars["projectID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"detail":  "Project added to team",
		"project": project,
	})
}

func (h *TeamHandler) UnassignProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	vars := mux.Vars(r)
	project, err := h.projects.UnassignFromTeam(r.Context(), id, vars["teamID"], vars["projectID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"detail":  "Project removed from team",
		"project": project,
	})
}
