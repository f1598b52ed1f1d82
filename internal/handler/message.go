package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/moajmalnk/bugricer-sub002/internal/service"
)

type MessageHandler struct {
	messageService service.IMessageService
}

func NewMessageHandler(messageService service.IMessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// SendMessage handles sending a message to a group
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, userName := identity(c)
	msg, err := h.messageService.SendMessage(c.Request.Context(), c.Param("id"), userID, userName, &req)
	if err != nil {
		respondError(c, err, "Failed to send message")
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// GetMessages returns one page of a group's history.
// Page 1 is the newest page; defaults to 1 when omitted.
func (h *MessageHandler) GetMessages(c *gin.Context) {
	page := 1
	if pageStr := c.Query("page"); pageStr != "" {
		var err error
		page, err = strconv.Atoi(pageStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
			return
		}
	}

	userID, _ := identity(c)
	result, err := h.messageService.GetMessages(c.Request.Context(), c.Param("id"), userID, page)
	if err != nil {
		respondError(c, err, "Failed to retrieve messages")
		return
	}

	c.JSON(http.StatusOK, result)
}

// SyncMessages returns every message newer than after_seq, oldest first.
// Polling clients call this with the last sequence number they have seen.
func (h *MessageHandler) SyncMessages(c *gin.Context) {
	afterSeq, err := strconv.ParseInt(c.DefaultQuery("after_seq", "0"), 10, 64)
	if err != nil || afterSeq < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid after_seq"})
		return
	}

	userID, _ := identity(c)
	messages, err := h.messageService.GetMessagesSince(c.Request.Context(), c.Param("id"), userID, afterSeq)
	if err != nil {
		respondError(c, err, "Failed to retrieve messages")
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// DeleteMessage tombstones a message
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID, _ := identity(c)
	err := h.messageService.DeleteMessage(c.Request.Context(), c.Param("id"), userID, isAdmin(c))
	if err != nil {
		respondError(c, err, "Failed to delete message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "message deleted"})
}
