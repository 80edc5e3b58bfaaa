package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/service"
)

type ProjectHandler struct {
	projects *service.ProjectService
	logger   zerolog.Logger
}

func NewProjectHandler(projects *service.ProjectService, logger zerolog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		logger:   logger.With().Str("handler", "project").Logger(),
	}
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.ProjectInput
	if !decodeJSON(w, r, &req) {
		return
	}
	project, err := h.projects.CreateProject(r.Context(), id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	projects, err := h.projects.ListProjects(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	project, err := h.projects.GetProject(r.Context(), id, mux.Vars(r)["projectID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.ProjectInput
	if !decodeJSON(w, r, &req) {
		return
	}
	project, err := h.projects.UpdateProject(r.Context(), id, mux.Vars(r)["projectID"], req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.projects.DeleteProject(r.Context(), id, mux.Vars(r)["projectID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
