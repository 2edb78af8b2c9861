package handlers

import (
	"net/http"

	"github.com/friendloop/backend/internal/middleware"
)

// Dependencies aggregates the collaborators required by the HTTP handlers.
type Dependencies struct {
	Accounts    AccountService
	Friendships FriendshipService
	Verifier    AccessTokenVerifier
	Limiter     middleware.RateLimiter
}

// RegisterRoutes wires the HTTP handlers into the provided ServeMux. The
// account creation, login and recovery-request routes sit behind the per-IP
// limiter; every friendship route requires a valid access token.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	users := NewUserHandler(deps.Accounts)
	friendships := NewFriendshipHandler(deps.Friendships)

	mux.HandleFunc("GET /healthz", Health)

	mux.HandleFunc("GET /user/{userId}", users.Get)
	mux.HandleFunc("POST /create-user", WithRateLimit(deps.Limiter, users.Create))
	mux.HandleFunc("POST /login", WithRateLimit(deps.Limiter, users.Login))
	mux.HandleFunc("POST /refresh_token", users.Refresh)
	mux.HandleFunc("POST /request_recover_password", WithRateLimit(deps.Limiter, users.RequestRecovery))
	mux.HandleFunc("POST /recover_password", users.ResetPassword)

	mux.HandleFunc("POST /new_friendship_request", RequireAuth(deps.Verifier, friendships.Create))
	mux.HandleFunc("POST /accept_friendship_request", RequireAuth(deps.Verifier, friendships.Accept))
	mux.HandleFunc("GET /list_all_friends", RequireAuth(deps.Verifier, friendships.List))
	mux.HandleFunc("DELETE /delete_friendship", RequireAuth(deps.Verifier, friendships.Delete))
}
