package handlers

import (
	"context"

	"github.com/friendloop/backend/internal/auth"
	"github.com/friendloop/backend/internal/friends"
	"github.com/friendloop/backend/internal/models"
	"github.com/friendloop/backend/internal/users"
)

// AccountService captures the account operations required by the user handlers.
type AccountService interface {
	Register(ctx context.Context, in users.RegisterInput) (models.User, error)
	Login(ctx context.Context, email, password string) (models.TokenPair, error)
	RotateAccessToken(ctx context.Context, accessToken, refreshToken string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConsumePasswordReset(ctx context.Context, token, newPassword, confirm string) error
	GetUser(ctx context.Context, id string) (models.User, error)
}

// FriendshipService captures the ledger operations required by the friendship handlers.
type FriendshipService interface {
	CreateRequest(ctx context.Context, senderID, receiverID string) (models.Friendship, friends.Outcome, error)
	AcceptRequest(ctx context.Context, edgeID, actorID string) error
	ListFriends(ctx context.Context, userID string) ([]friends.Friend, error)
	DeleteFriendship(ctx context.Context, edgeID, actorID string) error
}

// AccessTokenVerifier validates bearer tokens for the auth middleware.
type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}
