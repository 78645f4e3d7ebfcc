package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/services"
)

// FileHandler manages attachment and avatar endpoints. Uploads arrive
// as multipart form data under the "file" field.
type FileHandler struct {
	attachments *services.AttachmentService
}

// NewFileHandler builds a FileHandler.
func NewFileHandler(attachments *services.AttachmentService) *FileHandler {
	return &FileHandler{attachments: attachments}
}

// Upload stores an attachment in a conversation and returns the
// generated file-reference message.
func (h *FileHandler) Upload(c *gin.Context) {
	fileName, data, ok := readMultipartFile(c)
	if !ok {
		return
	}

	dto, err := h.attachments.Upload(c.Request.Context(), userIDFromContext(c), c.Param("conversation_id"), fileName, data)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": dto})
}

// Download returns an attachment the caller is allowed to see.
func (h *FileHandler) Download(c *gin.Context) {
	dto, err := h.attachments.Download(c.Request.Context(), userIDFromContext(c), c.Param("file_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": dto})
}

// GetAvatar returns the base64 image for a user or group conversation
// id, or null when none was uploaded.
func (h *FileHandler) GetAvatar(c *gin.Context) {
	image, err := h.attachments.Avatar(c.Request.Context(), c.Param("owner_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image": image})
}

// SetUserAvatar replaces the caller's profile image.
func (h *FileHandler) SetUserAvatar(c *gin.Context) {
	fileName, data, ok := readMultipartFile(c)
	if !ok {
		return
	}

	if err := h.attachments.SetUserAvatar(c.Request.Context(), userIDFromContext(c), fileName, data); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// SetGroupAvatar replaces a group's image.
func (h *FileHandler) SetGroupAvatar(c *gin.Context) {
	fileName, data, ok := readMultipartFile(c)
	if !ok {
		return
	}

	if err := h.attachments.SetGroupAvatar(c.Request.Context(), userIDFromContext(c), c.Param("conversation_id"), fileName, data); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func readMultipartFile(c *gin.Context) (string, []byte, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return "", nil, false
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return "", nil, false
	}
	return header.Filename, data, true
}
