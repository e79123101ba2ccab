package event

import (
	"encoding/json"
	"time"

	"github.com/adnanfazil/ChatApp/internal/model"
)

// Event names mirror the wire contract of the web client.
const (
	// inbound
	EventNewMessage      = "new message"
	EventJoinChat        = "join chat"
	EventTyping          = "typing"
	EventStopTyping      = "stop typing"
	EventClearChat       = "clear chat"
	EventDeleteChat      = "delete chat"
	EventChatCreated     = "chat created"
	EventGetOnlineStatus = "get online status"

	// outbound
	EventConnected            = "connected"
	EventMessageReceived      = "message received"
	EventUserStatusChange     = "user_status_change"
	EventOnlineStatusResponse = "online status response"
	EventOnlineStatusError    = "online status error"
)

// WsEvent is the envelope every frame on the socket is wrapped in.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewWsEvent builds an envelope around a marshalable payload.
func NewWsEvent(name string, payload any) (WsEvent, error) {
	if payload == nil {
		return WsEvent{Event: name}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return WsEvent{}, err
	}
	return WsEvent{Event: name, Payload: raw}, nil
}

// ConnectedPayload acknowledges a successful handshake.
type ConnectedPayload struct {
	Message   string    `json:"message"`
	UserID    string    `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
}

// UserRef is a user as it appears embedded in socket payloads. Only the id is
// load-bearing for routing.
type UserRef struct {
	ID string `json:"_id"`
}

// ChatRef is a conversation as it appears embedded in socket payloads: the id
// and the participant ids are all the hub needs for fan-out.
type ChatRef struct {
	ID    string   `json:"_id"`
	Users []string `json:"users"`
}

// ParticipantIdentities returns the canonical identities of the chat's users.
func (c *ChatRef) ParticipantIdentities() []model.Identity {
	ids := make([]model.Identity, 0, len(c.Users))
	for _, raw := range c.Users {
		id := model.ParseIdentity(raw)
		if !id.IsZero() {
			ids = append(ids, id)
		}
	}
	return ids
}

// NewMessagePayload is the inbound "new message" payload. The message body is
// already durably stored; the hub only parses the routing envelope and
// re-emits the payload verbatim to recipients.
type NewMessagePayload struct {
	Chat   *ChatRef `json:"chat"`
	Sender *UserRef `json:"sender"`
}

// JoinChatPayload carries the conversation a connection wants as its active room.
type JoinChatPayload struct {
	ConversationID string `json:"conversationId"`
}

// TypingPayload is both the inbound typing request and the outbound
// indicator; the server fills in the typer before broadcasting.
type TypingPayload struct {
	ConversationID string         `json:"conversationId"`
	UserID         string         `json:"userId,omitempty"`
	User           *model.Profile `json:"user,omitempty"`
}

// ClearChatPayload notifies a room that its history was wiped.
type ClearChatPayload struct {
	ConversationID string `json:"conversationId"`
}

// ChatLifecyclePayload is the inbound payload for "delete chat" and
// "chat created": the affected chat plus the user who performed the action.
type ChatLifecyclePayload struct {
	Chat   *ChatRef `json:"chat"`
	UserID string   `json:"userId"`
}

// DeletedChatPayload is broadcast to the other participants on delete.
type DeletedChatPayload struct {
	ChatID string `json:"chatId"`
}

// StatusChangePayload is broadcast to a user's contacts when they go online
// or offline.
type StatusChangePayload struct {
	UserID    string        `json:"userId"`
	User      model.Profile `json:"user"`
	IsOnline  bool          `json:"isOnline"`
	LastSeen  time.Time     `json:"lastSeen"`
	Timestamp time.Time     `json:"timestamp"`
}

// OnlineStatusRequest asks for the current status of a set of users.
type OnlineStatusRequest struct {
	UserIDs []string `json:"userIds"`
}

// ErrorPayload is sent back to the requesting connection when a query fails.
type ErrorPayload struct {
	Message string `json:"message"`
}
