package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/service"
)

type TimerHandler struct {
	timer  *service.TimerService
	logger zerolog.Logger
}

func NewTimerHandler(timer *service.TimerService, logger zerolog.Logger) *TimerHandler {
	return &TimerHandler{
		timer:  timer,
		logger: logger.With().Str("handler", "timer").Logger(),
	}
}

func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.StartInput
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.timer.Start(r.Context(), id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.timer.View(entry)[0])
}

func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	entry, err := h.timer.Stop(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.timer.View(entry)[0])
}

func (h *TimerHandler) Active(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	entry, err := h.timer.Active(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.timer.View(entry)[0])
}

func (h *TimerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	entries, err := h.timer.ListEntries(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.timer.View(entries...))
}

func (h *TimerHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	entry, err := h.timer.GetEntry(r.Context(), id, mux.Vars(r)["entryID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.timer.View(entry)[0])
}

func (h *TimerHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.EntryInput
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.timer.CreateEntry(r.Context(), id, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.timer.View(entry)[0])
}

func (h *TimerHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.EntryInput
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.timer.UpdateEntry(r.Context(), id, mux.Vars(r)["entryID"], req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, h.timer.View(entry)[0])
}

func (h *TimerHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if err := h.timer.DeleteEntry(r.Context(), id, mux.Vars(r)["entryID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
