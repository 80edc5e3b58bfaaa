package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stanstork/tickr-api/internal/service"
)

type AdminHandler struct {
	admin  *service.AdminService
	logger zerolog.Logger
}

func NewAdminHandler(admin *service.AdminService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		admin:  admin,
		logger: logger.With().Str("handler", "admin").Logger(),
	}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	users, err := h.admin.ListUsers(r.Context(), id, models.UserFilter{
		Status: queryString(r, "status"),
		Search: queryString(r, "search"),
		Page:   pageFromQuery(r),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	user, err := h.admin.GetUser(r.Context(), id, mux.Vars(r)["userID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.AdminUserUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := h.admin.UpdateUser(r.Context(), id, mux.Vars(r)["userID"], req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) SuspendUser(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	user, err := h.admin.SuspendUser(r.Context(), id, mux.Vars(r)["userID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"detail": "User suspended", "user": user})
}

func (h *AdminHandler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	user, err := h.admin.ActivateUser(r.Context(), id, mux.Vars(r)["userID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"detail": "User activated", "user": user})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.admin.DeleteUser(r.Context(), id, mux.Vars(r)["userID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	teams, err := h.admin.ListTeams(r.Context(), id, models.TeamFilter{
		Search: queryString(r, "search"),
		Page:   pageFromQuery(r),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *AdminHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	team, err := h.admin.GetTeam(r.Context(), id, mux.Vars(r)["teamID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *AdminHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	project, err := h.admin.GetProject(r.Context(), id, mux.Vars(r)["projectID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *AdminHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	projects, err := h.admin.ListProjects(r.Context(), id, models.ProjectFilter{
		Type:   models.ProjectType(queryString(r, "type")),
		Search: queryString(r, "search"),
		Page:   pageFromQuery(r),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	overview, err := h.admin.Overview(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *AdminHandler) UserGrowth(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	points, err := h.admin.UserGrowth(r.Context(), id, queryDays(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *AdminHandler) Activity(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	points, err := h.admin.ActivitySeries(r.Context(), id, queryDays(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *AdminHandler) ListActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	logs, err := h.admin.ListActivity(r.Context(), id, models.ActivityFilter{
		Action:  models.ActivityAction(queryString(r, "action")),
		AdminID: queryString(r, "admin_user"),
		Page:    pageFromQuery(r),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	settings, err := h.admin.GetSettings(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	values := map[string]string{}
	if !decodeJSON(w, r, &values) {
		return
	}
	settings, err := h.admin.UpdateSettings(r.Context(), id, values)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
