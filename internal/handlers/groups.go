package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/services"
	"messenger-service/internal/telemetry"
)

// GroupHandler manages group conversation endpoints.
type GroupHandler struct {
	groups *services.GroupService
	audit  *telemetry.AuditEmitter
}

// NewGroupHandler builds a GroupHandler.
func NewGroupHandler(groups *services.GroupService, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{groups: groups, audit: audit}
}

// Create starts a group conversation with the listed recipients.
func (h *GroupHandler) Create(c *gin.Context) {
	var req struct {
		Title      *string  `json:"title"`
		Recipients []string `json:"recipients" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.groups.Create(c.Request.Context(), userIDFromContext(c), req.Title, req.Recipients)
	if err != nil {
		h.emitAudit(c, "ERROR", "group creation failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group created")
	c.JSON(http.StatusCreated, gin.H{"group": dto})
}

// List returns the caller's groups with message summaries.
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groups.ListGroups(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// ListMembers returns the group's current members.
func (h *GroupHandler) ListMembers(c *gin.Context) {
	members, err := h.groups.ListMembers(c.Request.Context(), userIDFromContext(c), c.Param("conversation_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// Rename sets a new group title and announces it in the conversation.
func (h *GroupHandler) Rename(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.groups.Rename(c.Request.Context(), userIDFromContext(c), c.Param("conversation_id"), req.Title); err != nil {
		h.emitAudit(c, "ERROR", "group rename failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group renamed")
	c.JSON(http.StatusOK, gin.H{"status": "renamed"})
}

// AddRecipient adds a user to the group by username.
func (h *GroupHandler) AddRecipient(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.groups.AddRecipient(c.Request.Context(), userIDFromContext(c), c.Param("conversation_id"), req.Username); err != nil {
		h.emitAudit(c, "ERROR", "group member add failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group member added")
	c.JSON(http.StatusOK, gin.H{"status": "added"})
}

// RemoveRecipient removes a member, dissolving the group when fewer
// than two recipients would remain.
func (h *GroupHandler) RemoveRecipient(c *gin.Context) {
	if err := h.groups.RemoveRecipient(c.Request.Context(), userIDFromContext(c), c.Param("conversation_id"), c.Param("username")); err != nil {
		h.emitAudit(c, "ERROR", "group member removal failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group member removed")
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), auditUserID(c))
}
