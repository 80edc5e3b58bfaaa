package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/service"
)

type InviteHandler struct {
	invitations *service.InvitationService
	logger      zerolog.Logger
}

func NewInviteHandler(invitations *service.InvitationService, logger zerolog.Logger) *InviteHandler {
	return &InviteHandler{
		invitations: invitations,
		logger:      logger.With().Str("handler", "invite").Logger(),
	}
}

func (h *InviteHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req service.InviteInput
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.invitations.Invite(r.Context(), id, mux.Vars(r)["teamID"], req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	detail := "Invitation sent successfully"
	if res.Invitation.IsLink() {
		detail = "Invitation link created successfully"
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"detail":          detail,
		"invitation_link": res.InviteURL,
		"invitation":      res.Invitation,
	})
}

// GetInvitation is public so that recipients can preview before signing in.
func (h *InviteHandler) GetInvitation(w http.ResponseWriter, r *http.Request) {
	inv, err := h.invitations.GetInvitation(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *InviteHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	inv, err := h.invitations.Accept(r.Context(), id, mux.Vars(r)["token"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"detail": "Successfully joined the team!",
		"team":   inv.Team,
	})
}

func (h *InviteHandler) DeclineInvitation(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	if _, err := h.invitations.Decline(r.Context(), id, mux.Vars(r)["token"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeDetail(w, http.StatusOK, "Invitation declined")
}

func (h *InviteHandler) MyInvitations(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	invitations, err := h.invitations.MyInvitations(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, invitations)
}
