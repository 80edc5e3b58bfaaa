package authz

import (
	"encoding/json"
	"net/http"

	"github.com/stanstork/tickr-api/internal/models"
)

// Require returns a middleware that lets the request through only when allow accepts the caller.
func Require(allow func(models.Identity) bool, reason string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromRequest(r)
			if !ok {
				deny(w, http.StatusUnauthorized, "authentication credentials were not provided")
				return
			}
			if !allow(id) {
				deny(w, http.StatusForbidden, reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff admits staff members and superusers.
func RequireStaff(next http.Handler) http.Handler {
	return Require(IsStaff, "you do not have permission to perform this action")(next)
}

func RequireSuperuser(next http.Handler) http.Handler {
	return Require(IsSuperuser, "superuser access required")(next)
}

func IsStaff(id models.Identity) bool {
	return id.IsStaff || id.IsSuperuser
}

func IsSuperuser(id models.Identity) bool {
	return id.IsSuperuser
}

func deny(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": reason})
}
