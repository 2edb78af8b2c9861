package repositories

import (
	"context"
	"time"

	"github.com/friendloop/backend/internal/models"
)

// FriendshipRepository defines data access for friendship edges. The ordered
// (sender, receiver) pair is unique at the store level; Create surfaces a
// violation as ErrConflict.
type FriendshipRepository interface {
	Create(ctx context.Context, edge models.Friendship) error
	FindByID(ctx context.Context, id string) (models.Friendship, error)
	FindByPair(ctx context.Context, senderID, receiverID string) (models.Friendship, error)
	ListForUser(ctx context.Context, userID string) ([]models.Friendship, error)
	SetAccepted(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) error
}
