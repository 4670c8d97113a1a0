package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/store"
)

// ChatHandlers provides HTTP handlers for conversation endpoints.
type ChatHandlers struct {
	store        store.Store
	historyLimit int
	log          *zerolog.Logger
}

// NewChatHandlers creates a new chat handlers instance.
func NewChatHandlers(st store.Store, historyLimit int, logger *zerolog.Logger) *ChatHandlers {
	return &ChatHandlers{
		store:        st,
		historyLimit: historyLimit,
		log:          logger,
	}
}

// ResolveConversationRequest names the chat partner to resolve.
type ResolveConversationRequest struct {
	Friend string `json:"friend" binding:"required"`
}

// ConversationResponse represents a resolved conversation.
type ConversationResponse struct {
	ID     int64  `json:"id"`
	Friend string `json:"friend"`
}

// MessageResponse represents one persisted message.
type MessageResponse struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	CreatedAt string `json:"created_at"`
}

// ResolveConversation returns the conversation between the caller and the
// named partner, creating it if the pair has never chatted. Membership is
// fixed here and never changes afterwards.
// POST /api/chats
func (h *ChatHandlers) ResolveConversation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req ResolveConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid resolve conversation request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	friend, err := h.store.GetUserByUsername(c.Request.Context(), req.Friend)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user does not exist"})
			return
		}
		h.log.Error().Err(err).Str("friend", req.Friend).Msg("failed to look up user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if friend.ID == user.ID {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot chat with yourself"})
		return
	}

	conv, err := h.store.GetOrCreateConversation(c.Request.Context(), user.ID, friend.ID)
	if err != nil {
		h.log.Error().Err(err).
			Int64("user_id", user.ID).
			Int64("friend_id", friend.ID).
			Msg("failed to resolve conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().
		Int64("conversation_id", conv.ID).
		Int64("user_id", user.ID).
		Str("friend", friend.Username).
		Msg("conversation resolved")
	c.JSON(http.StatusOK, ConversationResponse{ID: conv.ID, Friend: friend.Username})
}

// ListMessages returns a conversation's history, newest first. Only
// participants may read it; outsiders get the same not-found as a missing
// conversation.
// GET /api/chats/:id/messages
func (h *ChatHandlers) ListMessages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
		return
	}

	conv, err := h.store.GetConversation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
			return
		}
		h.log.Error().Err(err).Int64("conversation_id", id).Msg("failed to load conversation")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if !conv.HasParticipant(user.ID) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		return
	}

	messages, err := h.store.ListMessagesByConversation(c.Request.Context(), id, h.historyLimit)
	if err != nil {
		h.log.Error().Err(err).Int64("conversation_id", id).Msg("failed to list messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]MessageResponse, 0, len(messages))
	for _, msg := range messages {
		response = append(response, MessageResponse{
			ID:        msg.ID,
			Sender:    msg.SenderName,
			Message:   msg.Body,
			CreatedAt: msg.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}
