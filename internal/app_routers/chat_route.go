package approuters

import (
	"github.com/gin-gonic/gin"

	"github.com/adnanfazil/ChatApp/internal/configuration"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	userRoute := router.Group("/api/users")
	{
		userRoute.GET("/online-status", container.ChatHandler.GetOnlineStatus)
	}

	chatRoute := router.Group("/api/chats")
	{
		chatRoute.GET("/:conversationId/participants", container.ChatHandler.GetParticipants)
		chatRoute.GET("/:conversationId/messages", container.ChatHandler.GetRoomMessages)
	}

	messageRoute := router.Group("/api/messages")
	{
		messageRoute.POST("", container.ChatHandler.PostMessage)
	}
}
