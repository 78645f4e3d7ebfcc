package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/services"
	"messenger-service/internal/telemetry"
)

// FriendHandler manages the friend list and friend request endpoints.
type FriendHandler struct {
	friends *services.FriendService
	audit   *telemetry.AuditEmitter
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friends *services.FriendService, audit *telemetry.AuditEmitter) *FriendHandler {
	return &FriendHandler{friends: friends, audit: audit}
}

// ListFriends returns the caller's friends with conversation summaries.
func (h *FriendHandler) ListFriends(c *gin.Context) {
	friends, err := h.friends.ListFriends(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// ListRequests returns the caller's pending requests, both directions.
func (h *FriendHandler) ListRequests(c *gin.Context) {
	requests, err := h.friends.ListRequests(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// SendRequest creates a pending friend request addressed by username.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.friends.SendRequest(c.Request.Context(), userIDFromContext(c), req.Username)
	if err != nil {
		h.emitAudit(c, "ERROR", "friend request failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Friend request sent")
	c.JSON(http.StatusCreated, gin.H{"request": dto})
}

// Accept converts a pending request into a friendship and its
// one-to-one conversation.
func (h *FriendHandler) Accept(c *gin.Context) {
	dto, err := h.friends.Accept(c.Request.Context(), userIDFromContext(c), c.Param("request_id"))
	if err != nil {
		h.emitAudit(c, "ERROR", "friend request accept failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Friend request accepted")
	c.JSON(http.StatusOK, gin.H{"friend": dto})
}

// Decline discards a pending request. Either party may do this.
func (h *FriendHandler) Decline(c *gin.Context) {
	if err := h.friends.Decline(c.Request.Context(), userIDFromContext(c), c.Param("request_id")); err != nil {
		h.emitAudit(c, "ERROR", "friend request decline failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Friend request declined")
	c.JSON(http.StatusOK, gin.H{"status": "declined"})
}

// RemoveFriend deletes the friendship and its conversation with all
// messages and attachments.
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	if err := h.friends.RemoveFriend(c.Request.Context(), userIDFromContext(c), c.Param("username")); err != nil {
		h.emitAudit(c, "ERROR", "friend removal failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Friend removed")
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *FriendHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), auditUserID(c))
}
