package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/services"
)

// MessageHandler manages message endpoints for all conversations,
// one-to-one and group alike.
type MessageHandler struct {
	messages *services.MessageService
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// History returns a page of messages, newest first. The skip query
// parameter counts newest messages to pass over.
func (h *MessageHandler) History(c *gin.Context) {
	skip := 0
	if raw := c.Query("skip"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid skip"})
			return
		}
		skip = parsed
	}

	page, err := h.messages.History(c.Request.Context(), userIDFromContext(c), c.Param("conversation_id"), skip)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": page})
}

// Post appends a text message to a conversation.
func (h *MessageHandler) Post(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.messages.Post(c.Request.Context(), userIDFromContext(c), c.Param("conversation_id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": dto})
}

// Edit replaces the content of the caller's own message.
func (h *MessageHandler) Edit(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.messages.Edit(c.Request.Context(), userIDFromContext(c), c.Param("message_id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": dto})
}

// Delete removes the caller's own message for everyone.
func (h *MessageHandler) Delete(c *gin.Context) {
	if _, err := h.messages.Delete(c.Request.Context(), userIDFromContext(c), c.Param("message_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// MarkSeen advances the caller's last-seen marker to this message.
func (h *MessageHandler) MarkSeen(c *gin.Context) {
	if err := h.messages.MarkSeen(c.Request.Context(), userIDFromContext(c), c.Param("message_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "seen"})
}
