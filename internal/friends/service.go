package friends

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/friendloop/backend/internal/apperr"
	"github.com/friendloop/backend/internal/models"
	"github.com/friendloop/backend/internal/repositories"
)

// Outcome describes how a friendship request resolved.
type Outcome int

const (
	// OutcomePending means a new unilateral request edge was created.
	OutcomePending Outcome = iota
	// OutcomeNowFriends means a reciprocal pending request was auto-accepted.
	OutcomeNowFriends
	// OutcomeAlreadyFriends means an accepted reverse edge already existed.
	OutcomeAlreadyFriends
)

// Friend is one entry of a user's friend list: the accepted edge plus the
// counterpart on its other side.
type Friend struct {
	EdgeID string
	Since  *time.Time
	User   models.User
}

// Service is the friendship ledger. It owns the edge lifecycle and its
// consistency rules; participant existence is validated against the user
// store.
type Service struct {
	users repositories.UserRepository
	edges repositories.FriendshipRepository

	// NowFunc overrides the clock in tests.
	NowFunc func() time.Time
}

// NewService wires the friendship ledger.
func NewService(users repositories.UserRepository, edges repositories.FriendshipRepository) *Service {
	return &Service{users: users, edges: edges}
}

// CreateRequest records a friendship request from sender to receiver.
//
// An existing edge for the same ordered pair is a conflict. A pending edge in
// the opposite direction means both users asked for each other independently:
// the reverse edge is auto-accepted instead of leaving two forever-pending
// rows. The store's uniqueness constraint backstops the check-then-insert
// race; its violation maps to the same conflict as the pre-check.
func (s *Service) CreateRequest(ctx context.Context, senderID, receiverID string) (models.Friendship, Outcome, error) {
	if senderID == "" || receiverID == "" {
		return models.Friendship{}, 0, apperr.Validation("Some input data is missing.").
			WithData(map[string]string{"message": missingParticipantMessage(senderID, receiverID)})
	}

	if senderID == receiverID {
		return models.Friendship{}, 0, apperr.Validation("senderUserId and receiverUserId must be different users.")
	}

	if _, err := s.users.FindByID(ctx, senderID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Friendship{}, 0, apperr.Validation("The provided senderUserId does not exist.")
		}
		return models.Friendship{}, 0, apperr.Internal(err)
	}
	if _, err := s.users.FindByID(ctx, receiverID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Friendship{}, 0, apperr.Validation("The provided receiverUserId does not exist.")
		}
		return models.Friendship{}, 0, apperr.Internal(err)
	}

	existing, err := s.edges.FindByPair(ctx, senderID, receiverID)
	switch {
	case err == nil:
		if existing.Accepted {
			return models.Friendship{}, 0, apperr.Conflict("The two provided users are already friends.")
		}
		return models.Friendship{}, 0, apperr.Conflict("Friendship request already sent.")
	case !errors.Is(err, repositories.ErrNotFound):
		return models.Friendship{}, 0, apperr.Internal(err)
	}

	reciprocal, err := s.edges.FindByPair(ctx, receiverID, senderID)
	switch {
	case err == nil:
		if reciprocal.Accepted {
			return reciprocal, OutcomeAlreadyFriends, nil
		}

		now := s.now()
		if err := s.edges.SetAccepted(ctx, reciprocal.ID, now); err != nil {
			return models.Friendship{}, 0, apperr.Internal(err)
		}
		reciprocal.Accepted = true
		reciprocal.AcceptedAt = &now
		return reciprocal, OutcomeNowFriends, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return models.Friendship{}, 0, apperr.Internal(err)
	}

	edge := models.Friendship{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		CreatedAt:  s.now(),
	}

	if err := s.edges.Create(ctx, edge); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			// Lost a race with a concurrent identical request.
			return models.Friendship{}, 0, apperr.Conflict("Friendship request already sent.")
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Friendship{}, 0, apperr.Validation("The provided senderUserId or receiverUserId does not exist.")
		}
		return models.Friendship{}, 0, apperr.Internal(err)
	}

	return edge, OutcomePending, nil
}

// AcceptRequest marks a pending request as accepted. Only the receiver of the
// request may accept it.
func (s *Service) AcceptRequest(ctx context.Context, edgeID, actorID string) error {
	edge, err := s.edges.FindByID(ctx, edgeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("No friendship request found with the provided id").
				WithData(map[string]string{"friendshipRequestId": edgeID})
		}
		return apperr.Internal(err)
	}

	if edge.ReceiverID != actorID {
		return apperr.AccessDenied("Access denied.")
	}

	if edge.Accepted {
		return apperr.Validation("Friendship request already accepted.")
	}

	if err := s.edges.SetAccepted(ctx, edge.ID, s.now()); err != nil {
		return apperr.Internal(err)
	}

	return nil
}

// ListFriends returns the accepted friendships of a user with the counterpart
// participant resolved for each edge. An empty result is reported as an
// error, preserving the historical contract.
func (s *Service) ListFriends(ctx context.Context, userID string) ([]Friend, error) {
	edges, err := s.edges.ListForUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var out []Friend
	for _, edge := range edges {
		if !edge.Accepted {
			continue
		}

		counterpartID := edge.SenderID
		if counterpartID == userID {
			counterpartID = edge.ReceiverID
		}

		counterpart, err := s.users.FindByID(ctx, counterpartID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				continue
			}
			return nil, apperr.Internal(err)
		}

		out = append(out, Friend{EdgeID: edge.ID, Since: edge.AcceptedAt, User: counterpart})
	}

	if len(out) == 0 {
		return nil, apperr.NotFound("No friends found for the provided user.")
	}

	return out, nil
}

// DeleteFriendship removes an edge, pending or accepted. Either participant
// may delete it.
func (s *Service) DeleteFriendship(ctx context.Context, edgeID, actorID string) error {
	edge, err := s.edges.FindByID(ctx, edgeID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperr.NotFound("No friendship found with the provided id").
				WithData(map[string]string{"friendshipId": edgeID})
		}
		return apperr.Internal(err)
	}

	if edge.SenderID != actorID && edge.ReceiverID != actorID {
		return apperr.AccessDenied("Access denied.")
	}

	if err := s.edges.Delete(ctx, edge.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Already gone; treat a concurrent delete as success.
			return nil
		}
		return apperr.Internal(err)
	}

	return nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc()
	}
	return time.Now().UTC()
}

func missingParticipantMessage(senderID, receiverID string) string {
	switch {
	case senderID == "" && receiverID == "":
		return "You need to send senderUserId and receiverUserId"
	case senderID == "":
		return "You need to send senderUserId"
	default:
		return "You need to send receiverUserId"
	}
}
