package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moajmalnk/bugricer-sub002/internal/service"
	"github.com/moajmalnk/bugricer-sub002/middleware/jwt"
)

// respondError maps service sentinel errors to HTTP statuses. Anything
// unrecognized is a 500 with a generic body so internals never leak.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidGroupName),
		errors.Is(err, service.ErrInvalidMessageContent),
		errors.Is(err, service.ErrInvalidMessageType),
		errors.Is(err, service.ErrInvalidEmoji),
		errors.Is(err, service.ErrInvalidPage),
		errors.Is(err, service.ErrEmptyMemberList),
		errors.Is(err, service.ErrInvalidVoiceFile),
		errors.Is(err, service.ErrVoiceFileTooLarge),
		errors.Is(err, service.ErrProjectNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrAttachmentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotGroupMember),
		errors.Is(err, service.ErrNotGroupAdmin),
		errors.Is(err, service.ErrAdminRequired),
		errors.Is(err, service.ErrDeleteNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrReplyTargetNotFound):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSequencerUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": service.ErrSequencerUnavailable.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// identity pulls the authenticated user out of the gin context.
// The JWT middleware guarantees these keys on protected routes.
func identity(c *gin.Context) (userID, userName string) {
	return c.GetString("user_id"), c.GetString("username")
}

func isAdmin(c *gin.Context) bool {
	return c.GetString("role") == jwt.RoleAdmin
}
