package handlers

import (
	"net/http"
	"time"

	"github.com/friendloop/backend/internal/apperr"
	"github.com/friendloop/backend/internal/friends"
	"github.com/friendloop/backend/internal/models"
)

// FriendshipHandler exposes the friendship ledger over HTTP. Every route
// requires an authenticated caller.
type FriendshipHandler struct {
	friendships FriendshipService
}

// NewFriendshipHandler wires the friendship handlers.
func NewFriendshipHandler(friendships FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendships: friendships}
}

type friendshipDTO struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"senderUserId"`
	ReceiverID string     `json:"receiverUserId"`
	Accepted   bool       `json:"accepted"`
	CreatedAt  time.Time  `json:"createdAt"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
}

func toFriendshipDTO(f models.Friendship) friendshipDTO {
	return friendshipDTO{
		ID:         f.ID,
		SenderID:   f.SenderID,
		ReceiverID: f.ReceiverID,
		Accepted:   f.Accepted,
		CreatedAt:  f.CreatedAt,
		AcceptedAt: f.AcceptedAt,
	}
}

type friendDTO struct {
	FriendshipID string     `json:"friendshipId"`
	Since        *time.Time `json:"since,omitempty"`
	User         userDTO    `json:"user"`
}

type createFriendshipRequest struct {
	SenderID   string `json:"senderUserId"`
	ReceiverID string `json:"receiverUserId"`
}

// Create handles POST /new_friendship_request. The sender comes from the
// request body; only acceptance and deletion check actorship.
func (h *FriendshipHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFriendshipRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	edge, outcome, err := h.friendships.CreateRequest(r.Context(), req.SenderID, req.ReceiverID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	switch outcome {
	case friends.OutcomeNowFriends:
		respondJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"message":    "You are now friends.",
			"friendship": toFriendshipDTO(edge),
		})
	case friends.OutcomeAlreadyFriends:
		respondJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"message":    "The two provided users are already friends.",
			"friendship": toFriendshipDTO(edge),
		})
	default:
		respondJSON(w, http.StatusCreated, map[string]any{
			"success":    true,
			"friendship": toFriendshipDTO(edge),
		})
	}
}

type acceptFriendshipRequest struct {
	FriendshipRequestID string `json:"friendshipRequestId"`
}

// Accept handles POST /accept_friendship_request.
func (h *FriendshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req acceptFriendshipRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.FriendshipRequestID == "" {
		respondError(w, r, apperr.Validation("Some input data is missing.").
			WithData(map[string]string{"message": "You need to send friendshipRequestId"}))
		return
	}

	identity, _ := IdentityFromContext(r.Context())
	if err := h.friendships.AcceptRequest(r.Context(), req.FriendshipRequestID, identity.UserID); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Friendship request accepted.",
	})
}

// List handles GET /list_all_friends.
func (h *FriendshipHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFromContext(r.Context())

	list, err := h.friendships.ListFriends(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	dtos := make([]friendDTO, 0, len(list))
	for _, f := range list {
		dtos = append(dtos, friendDTO{
			FriendshipID: f.EdgeID,
			Since:        f.Since,
			User:         toUserDTO(f.User),
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"friends": dtos,
	})
}

type deleteFriendshipRequest struct {
	FriendshipID string `json:"friendshipId"`
}

// Delete handles DELETE /delete_friendship.
func (h *FriendshipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteFriendshipRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.FriendshipID == "" {
		respondError(w, r, apperr.Validation("Some input data is missing.").
			WithData(map[string]string{"message": "You need to send friendshipId"}))
		return
	}

	identity, _ := IdentityFromContext(r.Context())
	if err := h.friendships.DeleteFriendship(r.Context(), req.FriendshipID, identity.UserID); err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Friendship deleted.",
	})
}
