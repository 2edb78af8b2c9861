package app

import (
	"github.com/friendloop/backend/internal/auth"
	"github.com/friendloop/backend/internal/config"
	"github.com/friendloop/backend/internal/db"
	"github.com/friendloop/backend/internal/friends"
	"github.com/friendloop/backend/internal/handlers"
	"github.com/friendloop/backend/internal/mail"
	"github.com/friendloop/backend/internal/middleware"
	"github.com/friendloop/backend/internal/repositories"
	"github.com/friendloop/backend/internal/users"
)

// buildDependencies wires together the concrete implementations used by the
// HTTP handlers. When no SMTP address is configured, recovery mail is logged
// instead of sent, which keeps local development working without a relay.
func buildDependencies(pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	tokens, err := auth.NewTokens(cfg.TokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	var dispatcher mail.Dispatcher = mail.LogDispatcher{}
	if cfg.SMTP.Addr != "" {
		dispatcher = mail.NewSMTPDispatcher(cfg.SMTP.Addr, cfg.SMTP.From)
	}

	userRepo := repositories.NewPostgresUserRepository(pool)
	friendshipRepo := repositories.NewPostgresFriendshipRepository(pool)

	return handlers.Dependencies{
		Accounts:    users.NewService(userRepo, tokens, dispatcher, cfg.ResetTokenTTL, cfg.ResetBaseURL),
		Friendships: friends.NewService(userRepo, friendshipRepo),
		Verifier:    tokens,
		Limiter: middleware.NewIPRateLimiter(
			cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, cfg.RateLimit.TTL),
	}, nil
}
