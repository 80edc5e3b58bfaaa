package handlers

import (
	"net/http"

	"github.com/stanstork/tickr-api/internal/authz"
	"github.com/stanstork/tickr-api/internal/models"
)

// identity returns the caller placed on the context by JWTMiddleware, replying 401 when absent.
func identity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	id, ok := authz.IdentityFromRequest(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "authentication credentials were not provided")
		return models.Identity{}, false
	}
	return id, true
}
