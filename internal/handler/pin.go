package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moajmalnk/bugricer-sub002/internal/service"
)

type PinHandler struct {
	pinService service.IPinService
}

func NewPinHandler(pinService service.IPinService) *PinHandler {
	return &PinHandler{
		pinService: pinService,
	}
}

// PinMessage pins a message in its group
func (h *PinHandler) PinMessage(c *gin.Context) {
	userID, userName := identity(c)
	pinned, err := h.pinService.PinMessage(c.Request.Context(), c.Param("id"), userID, userName)
	if err != nil {
		respondError(c, err, "Failed to pin message")
		return
	}

	status := http.StatusOK
	if pinned {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"pinned": pinned})
}

// UnpinMessage removes a message's pin
func (h *PinHandler) UnpinMessage(c *gin.Context) {
	userID, _ := identity(c)
	if err := h.pinService.UnpinMessage(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, "Failed to unpin message")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "message unpinned"})
}

// ListPins returns a group's pinned messages, newest pin first
func (h *PinHandler) ListPins(c *gin.Context) {
	userID, _ := identity(c)
	pins, err := h.pinService.ListPins(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, "Failed to list pins")
		return
	}

	c.JSON(http.StatusOK, gin.H{"pins": pins})
}
