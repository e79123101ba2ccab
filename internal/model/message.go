package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	MessageRecievedId = 1
	MessageSentId     = 2
	MessageSeenId     = 3
	MessageDeletedId  = 5
)

// Message represents a chat message in MongoDB. Messages are durably stored
// before the hub ever sees them; live delivery is push-best-effort on top.
type Message struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MessageId      string             `json:"messageId" bson:"message_id"`
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversation_id"`
	SenderID       string             `json:"senderId" bson:"sender_id"`
	Type           string             `json:"type" bson:"type"`
	Body           string             `json:"body" bson:"body"`
	FileURL        *string            `json:"fileUrl" bson:"file_url"`
	CreatedAt      time.Time          `json:"createdAt" bson:"created_at"`
	Status         int                `json:"status" bson:"status"`
}
