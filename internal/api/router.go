package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/moajmalnk/bugricer-sub002/internal/handler"
	"github.com/moajmalnk/bugricer-sub002/utils/workerpool"
)

// RegisterRoutes registers all API routes.
// Every chat route requires a platform-issued JWT; the voice directory is
// served statically so attachment URLs resolve without a handler.
func RegisterRoutes(
	r *gin.Engine,
	mw *MiddlewareManager,
	groupHandler *handler.GroupHandler,
	messageHandler *handler.MessageHandler,
	reactionHandler *handler.ReactionHandler,
	pinHandler *handler.PinHandler,
	typingHandler *handler.TypingHandler,
	attachmentHandler *handler.AttachmentHandler,
	uploadPool *workerpool.Pool,
	voiceDir string,
) {
	r.Use(mw.Recovery(), mw.CORS(), mw.TraceID(), mw.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.Static("/uploads/voice", voiceDir)

	api := r.Group("/api/v1")
	api.Use(mw.JWTAuth())
	{
		groups := api.Group("/groups")
		{
			groups.POST("", groupHandler.CreateGroup)
			groups.GET("", groupHandler.ListGroups)
			groups.GET("/:id", groupHandler.GetGroup)
			groups.DELETE("/:id", groupHandler.DeleteGroup)

			groups.GET("/:id/members", groupHandler.GetMembers)
			groups.POST("/:id/members", groupHandler.AddMembers)
			groups.DELETE("/:id/members", groupHandler.RemoveMembers)
			groups.POST("/:id/read", groupHandler.MarkRead)

			groups.GET("/:id/messages", messageHandler.GetMessages)
			groups.GET("/:id/messages/sync", messageHandler.SyncMessages)
			groups.POST("/:id/messages", mw.RateLimitByEndpoint("send"), messageHandler.SendMessage)

			groups.GET("/:id/typing", typingHandler.ListTyping)
			groups.POST("/:id/typing", mw.RateLimitByEndpoint("typing"), typingHandler.SetTyping)

			groups.GET("/:id/pins", pinHandler.ListPins)
		}

		messages := api.Group("/messages")
		{
			messages.DELETE("/:id", messageHandler.DeleteMessage)

			messages.GET("/:id/reactions", reactionHandler.ListReactions)
			messages.POST("/:id/reactions", reactionHandler.AddReaction)
			messages.DELETE("/:id/reactions", reactionHandler.RemoveReaction)

			messages.POST("/:id/pin", pinHandler.PinMessage)
			messages.DELETE("/:id/pin", pinHandler.UnpinMessage)
		}

		attachments := api.Group("/attachments")
		{
			attachments.POST("/voice", mw.RateLimitByEndpoint("upload"), mw.Bounded(uploadPool), attachmentHandler.UploadVoice)
		}
	}
}
