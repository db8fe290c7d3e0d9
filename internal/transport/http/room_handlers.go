package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatlink/chatlink-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	store store.Store
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store: st,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

// UpdateRoomRequest represents the rename room request body.
type UpdateRoomRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

// CreateDirectRoomRequest represents the create direct room request body.
type CreateDirectRoomRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	OwnerID       *int64 `json:"owner_id,omitempty"`
	LastMessageAt string `json:"last_message_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// MessageResponse represents a message in API responses.
type MessageResponse struct {
	ID               int64  `json:"id"`
	RoomID           int64  `json:"room_id"`
	SenderID         int64  `json:"sender_id"`
	Content          string `json:"content"`
	ReplyToMessageID *int64 `json:"reply_to_message_id,omitempty"`
	Edited           bool   `json:"is_edited"`
	CreatedAt        string `json:"created_at"`
}

// ReactionResponse represents a reaction in API responses.
type ReactionResponse struct {
	UserID    int64  `json:"user_id"`
	Reaction  string `json:"reaction"`
	CreatedAt string `json:"created_at"`
}

func roomToResponse(room *store.Room) RoomResponse {
	resp := RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		Type:      string(room.Type),
		OwnerID:   room.OwnerID,
		CreatedAt: room.CreatedAt.Format(time.RFC3339),
	}
	if room.LastMessageAt != nil {
		resp.LastMessageAt = room.LastMessageAt.Format(time.RFC3339)
	}
	return resp
}

func messageToResponse(msg *store.Message) MessageResponse {
	return MessageResponse{
		ID:               msg.ID,
		RoomID:           msg.RoomID,
		SenderID:         msg.UserID,
		Content:          msg.Body,
		ReplyToMessageID: msg.ReplyToID,
		Edited:           msg.Edited,
		CreatedAt:        msg.CreatedAt.Format(time.RFC3339),
	}
}

// requireMember checks persisted membership and writes the error response on
// failure.
func (h *RoomHandlers) requireMember(c *gin.Context, userID, roomID int64) bool {
	member, err := h.store.IsMember(c.Request.Context(), userID, roomID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Int64("user_id", userID).Msg("failed to check membership")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return false
	}
	if !member {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a member of this room"})
		return false
	}
	return true
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	// Create public room with current user as owner
	room, err := h.store.CreateRoom(c.Request.Context(), req.Name, store.RoomTypePublic, &userID)
	if err != nil {
		// Duplicate name hits the UNIQUE constraint
		if strings.Contains(err.Error(), "UNIQUE") {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "room with this name already exists"})
			return
		}
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	// The owner participates from the start
	if err := h.store.AddMember(c.Request.Context(), userID, room.ID); err != nil {
		h.log.Error().Err(err).Int64("room_id", room.ID).Int64("user_id", userID).Msg("failed to add owner as member")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_name", room.Name).Int64("room_id", room.ID).Int64("owner_id", userID).Msg("room created")
	c.JSON(http.StatusCreated, roomToResponse(room))
}

// UpdateRoom renames a room. Only the owner may rename, and direct rooms
// cannot be renamed.
// PUT /api/rooms/:id
func (h *RoomHandlers) UpdateRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	room, err := h.store.GetRoomByID(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to look up room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if room.Type == store.RoomTypeDirect {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "direct rooms cannot be renamed"})
		return
	}
	if room.OwnerID == nil || *room.OwnerID != userID {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the room owner may rename it"})
		return
	}

	if err := h.store.RenameRoom(c.Request.Context(), roomID, req.Name); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "room with this name already exists"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to rename room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	room.Name = req.Name
	h.log.Info().Int64("room_id", roomID).Str("room_name", req.Name).Msg("room renamed")
	c.JSON(http.StatusOK, roomToResponse(room))
}

// CreateDirectRoom handles direct message room creation. The room is
// deduplicated so repeated requests for the same pair return the same room.
// POST /api/rooms/direct
func (h *RoomHandlers) CreateDirectRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateDirectRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create direct room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if req.UserID == userID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot create a direct room with yourself"})
		return
	}

	if _, err := h.store.GetUserByID(c.Request.Context(), req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("target_user_id", req.UserID).Msg("failed to look up user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	low, high := userID, req.UserID
	if low > high {
		low, high = high, low
	}
	directKey := fmt.Sprintf("dm:%d:%d", low, high)

	room, err := h.store.CreateDirectRoom(c.Request.Context(), directKey, userID, req.UserID)
	if err != nil {
		h.log.Error().Err(err).Str("direct_key", directKey).Msg("failed to create direct room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("room_id", room.ID).Int64("user_id", userID).Int64("peer_id", req.UserID).Msg("direct room ready")
	c.JSON(http.StatusOK, roomToResponse(room))
}

// ListRooms handles listing accessible rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	rooms, err := h.store.ListRooms(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomToResponse(room))
	}

	c.JSON(http.StatusOK, response)
}

// JoinRoom adds the current user as a persisted member of a public room.
// Membership here is what authorizes sending over the WebSocket; joining
// twice is a no-op.
// POST /api/rooms/:id/join
func (h *RoomHandlers) JoinRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	room, err := h.store.GetRoomByID(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to look up room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	// Private and direct rooms are invitation-only
	if room.Type != store.RoomTypePublic {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "room is not joinable"})
		return
	}

	if err := h.store.AddMember(c.Request.Context(), userID, roomID); err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Int64("user_id", userID).Msg("failed to join room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("room_id", roomID).Int64("user_id", userID).Msg("user joined room")
	c.JSON(http.StatusOK, gin.H{"message": "joined room"})
}

// LeaveRoom removes the current user's persisted membership.
// DELETE /api/rooms/:id/leave
func (h *RoomHandlers) LeaveRoom(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.store.RemoveMember(c.Request.Context(), userID, roomID); err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Int64("user_id", userID).Msg("failed to leave room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("room_id", roomID).Int64("user_id", userID).Msg("user left room")
	c.JSON(http.StatusOK, gin.H{"message": "left room"})
}

// RemoveMember removes a user from a room. Members may remove themselves;
// only the owner may remove others, and the owner cannot be removed.
// DELETE /api/rooms/:id/members/:userId
func (h *RoomHandlers) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	room, err := h.store.GetRoomByID(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to look up room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if room.OwnerID != nil && *room.OwnerID == targetID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "the room owner cannot be removed"})
		return
	}
	isOwner := room.OwnerID != nil && *room.OwnerID == userID
	if targetID != userID && !isOwner {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the room owner may remove other members"})
		return
	}

	if err := h.store.RemoveMember(c.Request.Context(), targetID, roomID); err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Int64("target_id", targetID).Msg("failed to remove member")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("room_id", roomID).Int64("target_id", targetID).Int64("by", userID).Msg("member removed")
	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

// ListMessages returns room history, newest first. Pagination uses the
// before_id cursor: pass the oldest message id from the previous page.
// GET /api/rooms/:id/messages?limit=50&before_id=123
func (h *RoomHandlers) ListMessages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	if !h.requireMember(c, userID, roomID) {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
	}

	var beforeID *int64
	if raw := c.Query("before_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before_id"})
			return
		}
		beforeID = &id
	}

	messages, err := h.store.ListMessages(c.Request.Context(), roomID, limit, beforeID)
	if err != nil {
		h.log.Error().Err(err).Int64("room_id", roomID).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, messageToResponse(msg))
	}

	c.JSON(http.StatusOK, response)
}

// EditMessageRequest represents the edit message request body.
type EditMessageRequest struct {
	Content string `json:"content" binding:"required,min=1,max=4096"`
}

// EditMessage replaces the body of a message the current user sent and marks
// it edited.
// PUT /api/rooms/:id/messages/:messageId
func (h *RoomHandlers) EditMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "messageId")
	if !ok {
		return
	}

	var req EditMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	// Scope the edit to the room in the path.
	if _, err := h.store.GetRoomMessage(c.Request.Context(), messageID, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
			return
		}
		h.log.Error().Err(err).Int64("message_id", messageID).Msg("failed to look up message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.store.EditMessage(c.Request.Context(), messageID, userID, req.Content); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the author may edit a message"})
			return
		}
		h.log.Error().Err(err).Int64("message_id", messageID).Int64("user_id", userID).Msg("failed to edit message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	msg, err := h.store.GetRoomMessage(c.Request.Context(), messageID, roomID)
	if err != nil {
		h.log.Error().Err(err).Int64("message_id", messageID).Msg("failed to reload message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("message_id", messageID).Int64("user_id", userID).Msg("message edited")
	c.JSON(http.StatusOK, messageToResponse(msg))
}

// DeleteMessage soft-deletes a message the current user sent.
// DELETE /api/rooms/:id/messages/:messageId
func (h *RoomHandlers) DeleteMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "messageId")
	if !ok {
		return
	}

	if err := h.store.DeleteMessage(c.Request.Context(), messageID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
			return
		}
		h.log.Error().Err(err).Int64("message_id", messageID).Int64("user_id", userID).Msg("failed to delete message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("message_id", messageID).Int64("user_id", userID).Msg("message deleted")
	c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
}

// ReactionRequest represents the reaction toggle request body.
type ReactionRequest struct {
	Reaction string `json:"reaction" binding:"required,min=1,max=16"`
}

// ToggleReaction adds the current user's reaction to a message, or removes
// it when the same reaction already exists.
// POST /api/rooms/:id/messages/:messageId/reactions
func (h *RoomHandlers) ToggleReaction(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "messageId")
	if !ok {
		return
	}
	if !h.requireMember(c, userID, roomID) {
		return
	}

	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if _, err := h.store.GetRoomMessage(c.Request.Context(), messageID, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
			return
		}
		h.log.Error().Err(err).Int64("message_id", messageID).Msg("failed to look up message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	added, err := h.store.ToggleReaction(c.Request.Context(), messageID, userID, req.Reaction)
	if err != nil {
		h.log.Error().Err(err).Int64("message_id", messageID).Int64("user_id", userID).Msg("failed to toggle reaction")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reaction": req.Reaction, "added": added})
}

// ListReactions lists all reactions on a message.
// GET /api/rooms/:id/messages/:messageId/reactions
func (h *RoomHandlers) ListReactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	roomID, ok := pathID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "messageId")
	if !ok {
		return
	}
	if !h.requireMember(c, userID, roomID) {
		return
	}

	if _, err := h.store.GetRoomMessage(c.Request.Context(), messageID, roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
			return
		}
		h.log.Error().Err(err).Int64("message_id", messageID).Msg("failed to look up message")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	reactions, err := h.store.ListReactions(c.Request.Context(), messageID)
	if err != nil {
		h.log.Error().Err(err).Int64("message_id", messageID).Msg("failed to list reactions")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]ReactionResponse, 0, len(reactions))
	for _, r := range reactions {
		response = append(response, ReactionResponse{
			UserID:    r.UserID,
			Reaction:  r.Emoji,
			CreatedAt: r.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}
