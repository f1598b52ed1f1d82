package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moajmalnk/bugricer-sub002/internal/service"
)

type TypingHandler struct {
	typingService service.ITypingService
}

func NewTypingHandler(typingService service.ITypingService) *TypingHandler {
	return &TypingHandler{
		typingService: typingService,
	}
}

// SetTyping records or clears the caller's typing state in a group
func (h *TypingHandler) SetTyping(c *gin.Context) {
	var req service.TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, userName := identity(c)
	err := h.typingService.SetTyping(c.Request.Context(), c.Param("id"), userID, userName, req.IsTyping)
	if err != nil {
		respondError(c, err, "Failed to update typing state")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "typing state updated"})
}

// ListTyping returns the members currently typing, excluding the caller
func (h *TypingHandler) ListTyping(c *gin.Context) {
	userID, _ := identity(c)
	typists, err := h.typingService.ListTyping(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to list typing members")
		return
	}

	c.JSON(http.StatusOK, gin.H{"typing": typists})
}
