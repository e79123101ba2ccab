package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/adnanfazil/ChatApp/internal/event"
	"github.com/adnanfazil/ChatApp/internal/model"
)

var (
	// tuning parameters
	writeWait      = 10 * time.Second    // time allowed to write a message to the peer
	pongWait       = 20 * time.Second    // time allowed to read the next pong message from the peer
	pingInterval   = (pongWait * 9) / 10 // send pings to peer with this period
	maxMessageSize = 64 * 1024           // max inbound message size (64KB)
	sendBufSize    = 256                 // per-connection outbound buffer size
	sendTimeout    = 2 * time.Second     // timeout for enqueuing outbound messages
)

// Client is one live transport session for one identity. Created after a
// successful handshake, destroyed on transport close; never persisted.
type Client struct {
	ID       string
	identity model.Identity
	profile  model.Profile
	conn     *websocket.Conn
	hub      *Hub
	egress   chan event.WsEvent

	// client metadata captured at upgrade time, recorded with presence
	deviceInfo string
	remoteAddr string

	// the single active conversation room; switching conversations leaves
	// the previous one
	activeRoom   string
	activeRoomMu sync.RWMutex

	// cancel or stop goroutines
	cancel         context.CancelFunc
	ctx            context.Context
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
	closed         bool
	closedMu       sync.RWMutex
}

func newClient(identity model.Identity, profile model.Profile, conn *websocket.Conn, h *Hub, deviceInfo, remoteAddr string) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		ID:             uuid.New().String(),
		identity:       identity,
		profile:        profile,
		conn:           conn,
		hub:            h,
		egress:         make(chan event.WsEvent, sendBufSize),
		deviceInfo:     deviceInfo,
		remoteAddr:     remoteAddr,
		cancel:         cancel,
		ctx:            ctx,
		connClosed:     make(chan struct{}),
		connClosedOnce: sync.Once{},
	}
}

// Identity returns the identity owning this connection.
func (c *Client) Identity() model.Identity {
	return c.identity
}

// ReadMessages pumps inbound frames and dispatches each one inline, so
// events from a single connection are processed in the order received.
func (c *Client) ReadMessages() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev event.WsEvent

			if err := c.conn.ReadJSON(&ev); err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					c.hub.logger.Info("client disconnected", zap.String("client_id", c.ID))
					return
				}

				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseInternalServerErr,
					websocket.CloseProtocolError,
				) {
					c.hub.logger.Warn("unexpected close", zap.String("client_id", c.ID), zap.Error(err))
				}

				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					c.hub.logger.Info("client timed out, closing connection", zap.String("client_id", c.ID))
					return
				}

				c.hub.logger.Warn("error reading from client", zap.String("client_id", c.ID), zap.Error(err))
				return
			}

			c.hub.dispatch(c, ev)
		}
	}
}

func (c *Client) WriteMessages() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()

		c.connClosedOnce.Do(func() {
			close(c.connClosed)
		})
	}()

	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-c.egress:
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, nil); err != nil {
					c.hub.logger.Debug("close write failed", zap.String("client_id", c.ID), zap.Error(err))
				}
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.hub.logger.Warn("write failed", zap.String("client_id", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				c.hub.logger.Debug("ping failed", zap.String("client_id", c.ID), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	// a pong is a liveness signal; let presence know so the stale sweep
	// does not reap quiet-but-connected users
	c.hub.presence.touch(c)
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// swapActiveRoom replaces the single active conversation room and returns the
// previous one so the caller can leave it. changed is false when the same
// room was requested again.
func (c *Client) swapActiveRoom(roomID string) (previous string, changed bool) {
	c.activeRoomMu.Lock()
	defer c.activeRoomMu.Unlock()

	if c.activeRoom == roomID {
		return c.activeRoom, false
	}
	previous = c.activeRoom
	c.activeRoom = roomID
	return previous, true
}

// ActiveRoom returns the conversation room currently open on this connection.
func (c *Client) ActiveRoom() string {
	c.activeRoomMu.RLock()
	defer c.activeRoomMu.RUnlock()
	return c.activeRoom
}

func (c *Client) Close() {
	c.once.Do(func() {
		// Mark as closed BEFORE closing the channel
		c.closedMu.Lock()
		c.closed = true
		c.closedMu.Unlock()

		c.cancel()
		close(c.egress)

		if c.conn == nil {
			return
		}

		// Wait for WriteMessages to close conn, or force close after timeout
		go func() {
			select {
			case <-c.connClosed:
				// WriteMessages closed it properly
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
			}
		}()
	})
}

// IsClosed returns true if the client has been closed
func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}

// SafeSend attempts to enqueue an event for this client. Returns false if
// the client is closed or the buffer stayed full past the timeout.
func (c *Client) SafeSend(ev event.WsEvent, timeout time.Duration) bool {
	if c.IsClosed() {
		return false
	}

	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-time.After(timeout):
		return false
	}
}
