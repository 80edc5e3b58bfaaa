package authz

import (
	"context"
	"net/http"

	"github.com/stanstork/tickr-api/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the authenticated caller on the context.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(identityKey).(models.Identity)
	if !ok || id.UserID == "" {
		return models.Identity{}, false
	}
	return id, true
}

func IdentityFromRequest(r *http.Request) (models.Identity, bool) {
	return IdentityFromContext(r.Context())
}
