package hub

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adnanfazil/ChatApp/internal/event"
	"github.com/adnanfazil/ChatApp/internal/model"
)

type typingKey struct {
	room string
	user model.Identity
}

type typingEntry struct {
	timer  *time.Timer
	connID string
}

// typingCoordinator relays typing indicators to room peers and owns the
// authoritative quiet-window timeout: a start with no renewal and no explicit
// stop turns into a stop broadcast after the window elapses. State is
// ephemeral per (room, identity) and dropped on disconnect.
type typingCoordinator struct {
	mu      sync.Mutex
	entries map[typingKey]*typingEntry
	rooms   *roomTable
	logger  *zap.Logger
	window  time.Duration
	stopped bool
}

func newTypingCoordinator(rooms *roomTable, logger *zap.Logger, window time.Duration) *typingCoordinator {
	return &typingCoordinator{
		entries: make(map[typingKey]*typingEntry),
		rooms:   rooms,
		logger:  logger,
		window:  window,
	}
}

// start is edge-triggered: the first call broadcasts "typing" to room peers
// and arms the expiry timer; renewed starts while already typing only reset
// the timer, no duplicate broadcast.
func (t *typingCoordinator) start(c *Client, room string) {
	key := typingKey{room: room, user: c.identity}

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	if entry, ok := t.entries[key]; ok {
		entry.timer.Reset(t.window)
		entry.connID = c.ID
		t.mu.Unlock()
		return
	}
	t.entries[key] = &typingEntry{
		connID: c.ID,
		timer: time.AfterFunc(t.window, func() {
			t.expire(key)
		}),
	}
	t.mu.Unlock()

	profile := c.profile
	ev, err := event.NewWsEvent(event.EventTyping, event.TypingPayload{
		ConversationID: room,
		UserID:         c.identity.String(),
		User:           &profile,
	})
	if err != nil {
		return
	}
	t.rooms.emit(room, ev, c.ID)
}

// stop cancels the pending expiry (if any) and broadcasts "stop typing".
func (t *typingCoordinator) stop(c *Client, room string) {
	key := typingKey{room: room, user: c.identity}

	t.mu.Lock()
	if entry, ok := t.entries[key]; ok {
		entry.timer.Stop()
		delete(t.entries, key)
	}
	t.mu.Unlock()

	t.emitStop(room, c.identity, c.ID)
}

// expire fires when the quiet window passed with no renewal and no explicit
// stop.
func (t *typingCoordinator) expire(key typingKey) {
	t.mu.Lock()
	entry, ok := t.entries[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.entries, key)
	connID := entry.connID
	t.mu.Unlock()

	t.logger.Debug("typing state expired",
		zap.String("room", key.room),
		zap.String("user_id", key.user.String()),
	)
	t.emitStop(key.room, key.user, connID)
}

// clearConnection drops every typing timer owned by a disconnecting
// connection so no timer outlives it, and tells room peers typing ended.
func (t *typingCoordinator) clearConnection(c *Client) {
	t.mu.Lock()
	var cleared []typingKey
	for key, entry := range t.entries {
		if entry.connID == c.ID {
			entry.timer.Stop()
			delete(t.entries, key)
			cleared = append(cleared, key)
		}
	}
	t.mu.Unlock()

	for _, key := range cleared {
		t.emitStop(key.room, key.user, c.ID)
	}
}

func (t *typingCoordinator) emitStop(room string, user model.Identity, excludeConnID string) {
	ev, err := event.NewWsEvent(event.EventStopTyping, event.TypingPayload{
		ConversationID: room,
		UserID:         user.String(),
	})
	if err != nil {
		return
	}
	t.rooms.emit(room, ev, excludeConnID)
}

// stopAll cancels every timer; used on hub shutdown.
func (t *typingCoordinator) stopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	for key, entry := range t.entries {
		entry.timer.Stop()
		delete(t.entries, key)
	}
}

// activeCount reports how many typing timers are armed, for monitoring.
func (t *typingCoordinator) activeCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
