package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatlink/chatlink-server/internal/store"
)

// UserHandlers provides HTTP handlers for user operations.
type UserHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(st store.Store, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		store: st,
		log:   logger,
	}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

func userToResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
	}
}

// Me returns the authenticated user's profile.
// GET /api/users/me
func (h *UserHandlers) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

// UpdateMeRequest represents a profile update body.
type UpdateMeRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

// UpdateMe updates the authenticated user's display name.
// PUT /api/users/me
func (h *UserHandlers) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" || len(displayName) > 64 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "display name must be 1-64 characters"})
		return
	}

	if err := h.store.UpdateUserProfile(c.Request.Context(), userID, displayName); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	user, err := h.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

// SearchUsers searches registered users by username or display name.
// GET /api/users/search?q=query
func (h *UserHandlers) SearchUsers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 3 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "search query must be at least 3 characters"})
		return
	}

	users, err := h.store.SearchUsers(c.Request.Context(), query, userID)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("failed to search users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, userToResponse(u))
	}

	c.JSON(http.StatusOK, response)
}
