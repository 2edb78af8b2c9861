package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/friendloop/backend/internal/apperr"
	"github.com/friendloop/backend/internal/logging"
)

type identityKey struct{}

// Identity is the authenticated principal attached to a request by
// RequireAuth.
type Identity struct {
	UserID string
	Email  string
}

// IdentityFromContext returns the authenticated principal, if any.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// RequireAuth rejects requests without a valid access token and attaches the
// token's identity to the request context. The Authorization header may carry
// the raw token or use the conventional "Bearer " prefix.
func RequireAuth(verifier AccessTokenVerifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			respondError(w, r, apperr.AccessDenied("Access denied."))
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		claims, err := verifier.VerifyAccessToken(token)
		if err != nil {
			respondError(w, r, apperr.AccessDenied("Invalid Token").Wrap(err))
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, Identity{
			UserID: claims.UserID,
			Email:  claims.Email,
		})
		ctx = logging.WithUserID(ctx, claims.UserID)
		next(w, r.WithContext(ctx))
	}
}
