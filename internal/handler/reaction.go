package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moajmalnk/bugricer-sub002/internal/service"
)

type ReactionHandler struct {
	reactionService service.IReactionService
}

func NewReactionHandler(reactionService service.IReactionService) *ReactionHandler {
	return &ReactionHandler{
		reactionService: reactionService,
	}
}

// AddReaction adds the caller's emoji reaction to a message
func (h *ReactionHandler) AddReaction(c *gin.Context) {
	var req service.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, userName := identity(c)
	added, err := h.reactionService.AddReaction(c.Request.Context(), c.Param("id"), userID, userName, req.Emoji)
	if err != nil {
		respondError(c, err, "Failed to add reaction")
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"added": added})
}

// RemoveReaction removes the caller's emoji reaction from a message
func (h *ReactionHandler) RemoveReaction(c *gin.Context) {
	emoji := c.Query("emoji")
	if emoji == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji is required"})
		return
	}

	userID, _ := identity(c)
	if err := h.reactionService.RemoveReaction(c.Request.Context(), c.Param("id"), userID, emoji); err != nil {
		respondError(c, err, "Failed to remove reaction")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "reaction removed"})
}

// ListReactions returns a message's reactions grouped per emoji
func (h *ReactionHandler) ListReactions(c *gin.Context) {
	userID, _ := identity(c)
	groups, err := h.reactionService.ListReactions(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to list reactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reactions": groups})
}
