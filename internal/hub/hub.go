package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/adnanfazil/ChatApp/internal/auth"
	"github.com/adnanfazil/ChatApp/internal/event"
	"github.com/adnanfazil/ChatApp/internal/model"
)

// PresenceStore is the durable presence surface the hub depends on. Failures
// are logged and swallowed at the call sites: presence is best-effort and
// never blocks delivery or teardown.
type PresenceStore interface {
	GetUser(ctx context.Context, id model.Identity) (*model.User, error)
	UpdatePresence(ctx context.Context, id model.Identity, online bool, connID, deviceInfo, ipAddress string) error
	TouchPresence(ctx context.Context, id model.Identity) error
	BatchGetPresence(ctx context.Context, ids []model.Identity) (map[model.Identity]model.PresenceStatus, error)
	SweepStalePresence(ctx context.Context, olderThan time.Duration) (int64, error)
}

// ConversationDirectory resolves conversation membership for presence
// broadcast targeting.
type ConversationDirectory interface {
	ContactsOf(ctx context.Context, id model.Identity) ([]model.Identity, error)
	FindParticipants(ctx context.Context, conversationID string) ([]model.Identity, error)
}

// Options tunes the hub's timers and transport policy.
type Options struct {
	PresenceStaleThreshold time.Duration // default 5m
	PresenceSweepInterval  time.Duration // default 5m; <= 0 disables the sweep
	TypingQuietWindow      time.Duration // default 3s
	AllowedOrigins         []string
	StoreTimeout           time.Duration // per-operation budget for store calls
}

func (o *Options) applyDefaults() {
	if o.PresenceStaleThreshold == 0 {
		o.PresenceStaleThreshold = 5 * time.Minute
	}
	if o.PresenceSweepInterval == 0 {
		o.PresenceSweepInterval = 5 * time.Minute
	}
	if o.TypingQuietWindow == 0 {
		o.TypingQuietWindow = 3 * time.Second
	}
	if o.StoreTimeout == 0 {
		o.StoreTimeout = 10 * time.Second
	}
}

// Hub owns the connection registry, the room table and the presence/typing
// coordinators. It is explicitly constructed and passed by handle — never a
// package-level singleton.
type Hub struct {
	registry *registry
	rooms    *roomTable
	presence *presenceCoordinator
	typing   *typingCoordinator

	store    PresenceStore
	convs    ConversationDirectory
	verifier auth.Verifier
	logger   *zap.Logger
	opts     Options

	upgrader websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(store PresenceStore, convs ConversationDirectory, verifier auth.Verifier, logger *zap.Logger, opts Options) *Hub {
	opts.applyDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		registry: newRegistry(),
		rooms:    newRoomTable(),
		store:    store,
		convs:    convs,
		verifier: verifier,
		logger:   logger,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	h.presence = newPresenceCoordinator(h)
	h.typing = newTypingCoordinator(h.rooms, logger, opts.TypingQuietWindow)

	h.presence.startSweep()

	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// ServeWS authenticates the handshake and, only then, upgrades and registers
// the connection. Any credential failure is refused uniformly before any
// state mutation.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); len(header) > 7 && header[:7] == "Bearer " {
			token = header[7:]
		}
	}

	identity, err := h.verifier.Verify(token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.StoreTimeout)
	user, err := h.store.GetUser(ctx, identity)
	cancel()
	if err != nil || user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(identity, user.Profile(), conn, h, r.UserAgent(), r.RemoteAddr)
	if err := h.Register(client); err != nil {
		_ = conn.Close()
		return
	}

	go client.ReadMessages()
	go client.WriteMessages()
}

// Register wires a freshly authenticated client into the hub: registry entry,
// personal room membership for the whole connection lifetime, presence
// ONLINE transition, and the handshake ack.
func (h *Hub) Register(c *Client) error {
	total, err := h.registry.register(c)
	if err != nil {
		// programming error, rejected loudly but the process stays up
		h.logger.Error("duplicate connection registration rejected",
			zap.String("client_id", c.ID),
			zap.String("user_id", c.identity.String()),
			zap.Error(err),
		)
		return err
	}

	h.rooms.join(c.identity.String(), c)

	h.presence.handleConnect(c, total)

	ack, err := event.NewWsEvent(event.EventConnected, event.ConnectedPayload{
		Message:   "Successfully connected",
		UserID:    c.identity.String(),
		Timestamp: time.Now(),
	})
	if err == nil {
		c.SafeSend(ack, sendTimeout)
	}

	h.logger.Info("client registered",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.identity.String()),
		zap.Int("connections", total),
	)
	return nil
}

// Unregister is the single atomic teardown sequence: typing timers cleared,
// rooms left, registry entry removed, presence OFFLINE transition decided
// and broadcast. Idempotent — a client is torn down at most once.
func (h *Hub) Unregister(c *Client) {
	removed, remaining := h.registry.unregister(c.ID)
	if removed == nil {
		return
	}

	h.typing.clearConnection(c)

	if active := c.ActiveRoom(); active != "" {
		h.rooms.leave(active, c.ID)
	}
	h.rooms.leave(c.identity.String(), c.ID)

	h.presence.handleDisconnect(c, remaining)

	h.logger.Info("client unregistered",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.identity.String()),
		zap.Int("remaining_connections", remaining),
	)
}

// dispatch routes one inbound event. A failing or panicking handler affects
// only the event being processed, never the connection's read loop.
func (h *Hub) dispatch(c *Client, ev event.WsEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("event handler panicked",
				zap.String("event", ev.Event),
				zap.String("client_id", c.ID),
				zap.Any("panic", rec),
			)
		}
	}()

	switch ev.Event {
	case event.EventNewMessage:
		h.handleNewMessage(c, ev.Payload)
	case event.EventJoinChat:
		h.handleJoinChat(c, ev.Payload)
	case event.EventTyping:
		h.handleTyping(c, ev.Payload, true)
	case event.EventStopTyping:
		h.handleTyping(c, ev.Payload, false)
	case event.EventClearChat:
		h.handleClearChat(c, ev.Payload)
	case event.EventDeleteChat:
		h.handleChatLifecycle(c, ev.Payload, event.EventDeleteChat)
	case event.EventChatCreated:
		h.handleChatLifecycle(c, ev.Payload, event.EventChatCreated)
	case event.EventGetOnlineStatus:
		h.presence.handleStatusQuery(c, ev.Payload)
	default:
		h.logger.Debug("unknown event type", zap.String("event", ev.Event))
	}
}

// handleJoinChat enforces the single-active-room invariant: joining a new
// conversation leaves the previous one; re-joining the current one is a no-op.
func (h *Hub) handleJoinChat(c *Client, raw json.RawMessage) {
	var p event.JoinChatPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ConversationID == "" {
		h.logger.Debug("malformed join chat payload", zap.String("client_id", c.ID))
		return
	}

	previous, changed := c.swapActiveRoom(p.ConversationID)
	if !changed {
		return
	}
	if previous != "" {
		h.rooms.leave(previous, c.ID)
	}
	h.rooms.join(p.ConversationID, c)

	h.logger.Debug("client switched room",
		zap.String("client_id", c.ID),
		zap.String("room", p.ConversationID),
		zap.String("previous", previous),
	)
}

func (h *Hub) handleTyping(c *Client, raw json.RawMessage, start bool) {
	var p event.TypingPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.ConversationID == "" {
		h.logger.Debug("malformed typing payload", zap.String("client_id", c.ID))
		return
	}

	if start {
		h.typing.start(c, p.ConversationID)
	} else {
		h.typing.stop(c, p.ConversationID)
	}
}

// GetStatuses answers a synchronous presence read for the REST surface.
func (h *Hub) GetStatuses(ctx context.Context, ids []model.Identity) (map[model.Identity]model.PresenceStatus, error) {
	return h.store.BatchGetPresence(ctx, ids)
}

// Stop shuts the hub down: sweep and typing timers stopped, every client
// closed.
func (h *Hub) Stop() {
	h.cancel()
	h.presence.stopSweep()
	h.typing.stopAll()

	for _, c := range h.registry.snapshot() {
		c.Close()
	}
}
