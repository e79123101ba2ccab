package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation represents a chat conversation/room in MongoDB
type Conversation struct {
	ID               primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ConversationType string             `json:"conversationType" bson:"conversation_type"`
	ConversationName string             `json:"conversationName" bson:"conversation_name"`
	ParticipantIds   []string           `json:"participantIds" bson:"participant_ids"`
	CreatedBy        string             `json:"createdBy" bson:"created_by"`
	CreatedAt        time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updated_at"`
	LastMessageAt    time.Time          `json:"lastMessageAt" bson:"last_message_at"`
	LastMessage      *LastMessage       `json:"lastMessage" bson:"last_message"`
	IsActive         bool               `json:"isActive" bson:"is_active"`
}

// LastMessage stores the most recent message preview
type LastMessage struct {
	MessageId  string    `json:"messageId" bson:"message_id"`
	Content    string    `json:"content" bson:"content"`
	SenderId   string    `json:"senderId" bson:"sender_id"`
	SenderName string    `json:"senderName" bson:"sender_name"`
	SentAt     time.Time `json:"sentAt" bson:"sent_at"`
}

// ParticipantIdentities returns the canonical identities of all participants.
func (c *Conversation) ParticipantIdentities() []Identity {
	ids := make([]Identity, 0, len(c.ParticipantIds))
	for _, raw := range c.ParticipantIds {
		id := ParseIdentity(raw)
		if !id.IsZero() {
			ids = append(ids, id)
		}
	}
	return ids
}
