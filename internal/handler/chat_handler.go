package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/adnanfazil/ChatApp/internal/model"
	"github.com/adnanfazil/ChatApp/internal/service"
)

type ChatHandler interface {
	GetOnlineStatus(c *gin.Context)
	GetParticipants(c *gin.Context)
	GetRoomMessages(c *gin.Context)
	PostMessage(c *gin.Context)
}

type chatHandler struct {
	service service.ChatService
}

func NewChatHandler(service service.ChatService) ChatHandler {
	return &chatHandler{
		service: service,
	}
}

// GetOnlineStatus answers a batch presence query for a comma-separated list
// of user ids, e.g. GET /api/users/online-status?ids=a,b,c
func (h *chatHandler) GetOnlineStatus(c *gin.Context) {
	raw := c.Query("ids")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "ids query parameter is required",
		})
		return
	}

	ids := make([]model.Identity, 0)
	for _, part := range strings.Split(raw, ",") {
		if id := model.ParseIdentity(part); !id.IsZero() {
			ids = append(ids, id)
		}
	}

	statuses, err := h.service.GetOnlineStatuses(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get online status",
		})
		return
	}

	byString := make(map[string]model.PresenceStatus, len(statuses))
	for id, status := range statuses {
		byString[id.String()] = status
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses": byString,
	})
}

func (h *chatHandler) GetParticipants(c *gin.Context) {
	conversationID := c.Param("conversationId")

	participants, err := h.service.GetParticipants(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get participants",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participants": model.IdentityStrings(participants),
	})
}

func (h *chatHandler) GetRoomMessages(c *gin.Context) {
	conversationID := c.Param("conversationId")
	page := c.DefaultQuery("page", "1")
	pageNumber, err := strconv.ParseInt(page, 10, 64)
	if err != nil || pageNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid page number",
		})
		return
	}

	msgs, err := h.service.GetRoomMessages(c.Request.Context(), conversationID, pageNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get messages",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
	})
}

// PostMessage durably stores a message. The client emits the "new message"
// socket event afterwards; live delivery is layered on top of this write.
func (h *chatHandler) PostMessage(c *gin.Context) {
	var msg model.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid message payload",
		})
		return
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.Status = model.MessageSentId

	id, err := h.service.PostMessage(c.Request.Context(), &msg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store message",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"messageId": id,
	})
}
