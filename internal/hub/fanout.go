package hub

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/adnanfazil/ChatApp/internal/event"
	"github.com/adnanfazil/ChatApp/internal/model"
)

// handleNewMessage re-emits an already-persisted message to the personal room
// of every participant except the sender, so every connected device of every
// other participant gets it whether or not the conversation is open.
// Recipients with no live connection are simply skipped; they will see the
// message on next fetch.
func (h *Hub) handleNewMessage(c *Client, raw json.RawMessage) {
	var p event.NewMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Chat == nil || len(p.Chat.Users) == 0 || p.Sender == nil {
		h.logger.Debug("malformed new message payload, dropping", zap.String("client_id", c.ID))
		return
	}

	sender := model.ParseIdentity(p.Sender.ID)
	if sender.IsZero() {
		h.logger.Debug("new message without sender id, dropping", zap.String("client_id", c.ID))
		return
	}

	// the original payload is forwarded verbatim; only routing is parsed here
	out := event.WsEvent{Event: event.EventMessageReceived, Payload: raw}

	for _, participant := range p.Chat.ParticipantIdentities() {
		if participant.Equal(sender) {
			continue
		}
		h.rooms.emit(participant.String(), out, c.ID)
	}
}

// handleClearChat tells everyone with the conversation open (except the
// originator) that its history was wiped.
func (h *Hub) handleClearChat(c *Client, raw json.RawMessage) {
	var p event.ClearChatPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ConversationID == "" {
		h.logger.Debug("malformed clear chat payload, dropping", zap.String("client_id", c.ID))
		return
	}

	ev, err := event.NewWsEvent(event.EventClearChat, p)
	if err != nil {
		return
	}
	h.rooms.emit(p.ConversationID, ev, c.ID)
}

// handleChatLifecycle fans "delete chat" and "chat created" out to each other
// participant's personal room, mirroring the message fan-out path.
func (h *Hub) handleChatLifecycle(c *Client, raw json.RawMessage, name string) {
	var p event.ChatLifecyclePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Chat == nil || len(p.Chat.Users) == 0 {
		h.logger.Debug("malformed chat lifecycle payload, dropping",
			zap.String("event", name),
			zap.String("client_id", c.ID),
		)
		return
	}

	actor := model.ParseIdentity(p.UserID)
	if actor.IsZero() {
		actor = c.identity
	}

	var out event.WsEvent
	var err error
	switch name {
	case event.EventDeleteChat:
		out, err = event.NewWsEvent(name, event.DeletedChatPayload{ChatID: p.Chat.ID})
	default:
		// chat created carries the full chat so recipients can render it
		out, err = event.NewWsEvent(name, p.Chat)
	}
	if err != nil {
		return
	}

	for _, participant := range p.Chat.ParticipantIdentities() {
		if participant.Equal(actor) {
			continue
		}
		h.rooms.emit(participant.String(), out, c.ID)
	}
}
