package handlers

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stanstork/tickr-api/internal/authz"
	"github.com/stanstork/tickr-api/internal/service"
)

type AuthHandler struct {
	auth   *service.AuthService
	logger zerolog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func NewAuthHandler(auth *service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With().Str("handler", "auth").Logger(),
	}
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req service.SignUpInput
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": "User registered successfully",
		"data":    user,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	user, err := h.auth.CurrentUser(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// JWTMiddleware resolves the bearer token into an identity on the request context.
func (h *AuthHandler) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeDetail(w, http.StatusUnauthorized, "authentication credentials were not provided")
			return
		}
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			writeDetail(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		id, err := h.auth.Authenticate(r.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(authz.WithIdentity(r.Context(), id)))
	})
}
