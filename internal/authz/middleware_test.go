package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stanstork/tickr-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestRequireStaff(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireStaff(ok)

	cases := []struct {
		name   string
		id     *models.Identity
		status int
	}{
		{name: "anonymous", status: http.StatusUnauthorized},
		{name: "regular", id: &models.Identity{UserID: "u1"}, status: http.StatusForbidden},
		{name: "staff", id: &models.Identity{UserID: "u2", IsStaff: true}, status: http.StatusNoContent},
		{name: "superuser", id: &models.Identity{UserID: "u3", IsSuperuser: true}, status: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tc.id != nil {
				req = req.WithContext(WithIdentity(req.Context(), *tc.id))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestRequireSuperuserRejectsStaff(t *testing.T) {
	handler := RequireSuperuser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
	req = req.WithContext(WithIdentity(req.Context(), models.Identity{UserID: "u1", IsStaff: true}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.JSONEq(t, `{"detail":"superuser access required"}`, rec.Body.String())
}
