package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moajmalnk/bugricer-sub002/internal/service"
)

type AttachmentHandler struct {
	attachmentService service.IAttachmentService
}

func NewAttachmentHandler(attachmentService service.IAttachmentService) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
	}
}

// UploadVoice accepts a multipart voice recording under the "audio" field.
// The optional "duration" field is a client hint used only when the file
// itself cannot be parsed.
func (h *AttachmentHandler) UploadVoice(c *gin.Context) {
	fileHeader, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file is required"})
		return
	}

	var clientDuration float64
	if durationStr := c.PostForm("duration"); durationStr != "" {
		clientDuration, err = strconv.ParseFloat(durationStr, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid duration"})
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}

	userID, _ := identity(c)
	attachment, err := h.attachmentService.StoreVoice(c.Request.Context(), userID, fileHeader.Filename, data, clientDuration)
	if err != nil {
		respondError(c, err, "Failed to store voice attachment")
		return
	}

	c.JSON(http.StatusCreated, attachment)
}
