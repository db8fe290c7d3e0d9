package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatlink/chatlink-server/internal/service/friends"
	"github.com/chatlink/chatlink-server/internal/store"
)

// FriendsHandlers provides HTTP handlers for friend and block endpoints.
type FriendsHandlers struct {
	service *friends.Service
	store   store.Store
	log     *zerolog.Logger
}

// NewFriendsHandlers creates a new friends handlers instance.
func NewFriendsHandlers(svc *friends.Service, st store.Store, logger *zerolog.Logger) *FriendsHandlers {
	return &FriendsHandlers{
		service: svc,
		store:   st,
		log:     logger,
	}
}

// FriendResponse represents an accepted friend in API responses.
type FriendResponse struct {
	FriendshipID int64        `json:"friendship_id"`
	User         UserResponse `json:"user"`
	FriendsSince string       `json:"friends_since"`
}

// FriendRequestResponse represents a pending friend request.
type FriendRequestResponse struct {
	FriendshipID int64        `json:"friendship_id"`
	User         UserResponse `json:"user"`
	CreatedAt    string       `json:"created_at"`
}

// PendingRequestsResponse groups pending requests by direction.
type PendingRequestsResponse struct {
	Sent     []FriendRequestResponse `json:"sent"`
	Received []FriendRequestResponse `json:"received"`
}

// otherParty loads the user on the other side of a friendship record.
func (h *FriendsHandlers) otherParty(c *gin.Context, f *store.Friend, userID int64) (*store.User, bool) {
	otherID := f.FriendID
	if otherID == userID {
		otherID = f.UserID
	}
	user, err := h.store.GetUserByID(c.Request.Context(), otherID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", otherID).Msg("failed to load friendship party")
		return nil, false
	}
	return user, true
}

// SendRequest sends a friend request to the user in the path.
// POST /api/friends/requests/:userId
func (h *FriendsHandlers) SendRequest(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	req, err := h.service.SendRequest(c.Request.Context(), userID, targetID)
	if err != nil {
		switch {
		case errors.Is(err, friends.ErrSelfReference):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot send a friend request to yourself"})
		case errors.Is(err, friends.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, friends.ErrDuplicate):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "relationship already exists"})
		case errors.Is(err, friends.ErrBlocked):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "blocked relationship"})
		default:
			h.log.Error().Err(err).Int64("from", userID).Int64("to", targetID).Msg("failed to send friend request")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	target, ok := h.otherParty(c, req, userID)
	if !ok {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusCreated, FriendRequestResponse{
		FriendshipID: req.ID,
		User:         userToResponse(target),
		CreatedAt:    req.CreatedAt.Format(time.RFC3339),
	})
}

// Respond accepts or declines a pending request from the user in the path.
// PUT /api/friends/requests/:userId/:action
func (h *FriendsHandlers) Respond(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	requesterID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	action, ok := friends.ParseAction(c.Param("action"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "action must be accept or decline"})
		return
	}

	if err := h.service.Respond(c.Request.Context(), userID, requesterID, action); err != nil {
		if errors.Is(err, friends.ErrNoPendingRequest) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no pending request from this user"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Int64("requester_id", requesterID).Msg("failed to respond to friend request")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("user_id", userID).Int64("requester_id", requesterID).Str("action", string(action)).Msg("friend request resolved")
	c.JSON(http.StatusOK, gin.H{"message": "friend request " + string(action) + "ed"})
}

// PendingRequests lists the user's pending requests in both directions.
// GET /api/friends/requests
func (h *FriendsHandlers) PendingRequests(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	sent, received, err := h.service.PendingRequests(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list pending requests")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := PendingRequestsResponse{
		Sent:     make([]FriendRequestResponse, 0, len(sent)),
		Received: make([]FriendRequestResponse, 0, len(received)),
	}
	for _, f := range sent {
		user, ok := h.otherParty(c, f, userID)
		if !ok {
			continue
		}
		resp.Sent = append(resp.Sent, FriendRequestResponse{
			FriendshipID: f.ID,
			User:         userToResponse(user),
			CreatedAt:    f.CreatedAt.Format(time.RFC3339),
		})
	}
	for _, f := range received {
		user, ok := h.otherParty(c, f, userID)
		if !ok {
			continue
		}
		resp.Received = append(resp.Received, FriendRequestResponse{
			FriendshipID: f.ID,
			User:         userToResponse(user),
			CreatedAt:    f.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, resp)
}

// ListFriends lists accepted friends with their user profiles.
// GET /api/friends
func (h *FriendsHandlers) ListFriends(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	friendships, err := h.service.Friends(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list friends")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]FriendResponse, 0, len(friendships))
	for _, f := range friendships {
		user, ok := h.otherParty(c, f, userID)
		if !ok {
			continue
		}
		response = append(response, FriendResponse{
			FriendshipID: f.ID,
			User:         userToResponse(user),
			FriendsSince: f.UpdatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}

// RemoveFriend removes an accepted friendship with the user in the path.
// DELETE /api/friends/:userId
func (h *FriendsHandlers) RemoveFriend(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	friendID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.service.RemoveFriend(c.Request.Context(), userID, friendID); err != nil {
		if errors.Is(err, friends.ErrNotFriends) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not friends with this user"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Int64("friend_id", friendID).Msg("failed to remove friend")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "friend removed"})
}

// BlockUser blocks the user in the path.
// POST /api/blocks/:userId
func (h *FriendsHandlers) BlockUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.service.Block(c.Request.Context(), userID, targetID); err != nil {
		switch {
		case errors.Is(err, friends.ErrSelfReference):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot block yourself"})
		case errors.Is(err, friends.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		default:
			h.log.Error().Err(err).Int64("user_id", userID).Int64("target_id", targetID).Msg("failed to block user")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Int64("user_id", userID).Int64("target_id", targetID).Msg("user blocked")
	c.JSON(http.StatusOK, gin.H{"message": "user blocked"})
}

// UnblockUser removes a block on the user in the path.
// DELETE /api/blocks/:userId
func (h *FriendsHandlers) UnblockUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	if err := h.service.Unblock(c.Request.Context(), userID, targetID); err != nil {
		if errors.Is(err, friends.ErrNotBlocked) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user is not blocked"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Int64("target_id", targetID).Msg("failed to unblock user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user unblocked"})
}
