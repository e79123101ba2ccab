package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adnanfazil/ChatApp/internal/event"
	"github.com/adnanfazil/ChatApp/internal/model"
)

// presenceCoordinator drives the per-identity OFFLINE/ONLINE state machine.
// The registry's connection count is the authority for transitions; the
// durable store mirrors it and is repaired by the stale sweep when clients
// die without a clean disconnect.
type presenceCoordinator struct {
	hub *Hub

	sweepOnce sync.Once
	sweepDone chan struct{}
}

func newPresenceCoordinator(h *Hub) *presenceCoordinator {
	return &presenceCoordinator{
		hub:       h,
		sweepDone: make(chan struct{}),
	}
}

// handleConnect records the connection in the presence store and, on the
// first connection of the identity, broadcasts the online transition to its
// contacts. Additional tabs only advance last_seen.
func (p *presenceCoordinator) handleConnect(c *Client, total int) {
	ctx, cancel := p.opCtx()
	defer cancel()

	if err := p.hub.store.UpdatePresence(ctx, c.identity, true, c.ID, c.deviceInfo, c.remoteAddr); err != nil {
		p.hub.logger.Warn("presence update failed on connect",
			zap.String("user_id", c.identity.String()),
			zap.Error(err),
		)
	}

	if total == 1 {
		p.broadcastStatus(ctx, c.identity, true)
	}
}

// handleDisconnect broadcasts the offline transition only when the last live
// connection of the identity is gone; one closing tab among several changes
// nothing.
func (p *presenceCoordinator) handleDisconnect(c *Client, remaining int) {
	if remaining > 0 {
		return
	}

	ctx, cancel := p.opCtx()
	defer cancel()

	if err := p.hub.store.UpdatePresence(ctx, c.identity, false, "", "", ""); err != nil {
		p.hub.logger.Warn("presence update failed on disconnect",
			zap.String("user_id", c.identity.String()),
			zap.Error(err),
		)
	}

	p.broadcastStatus(ctx, c.identity, false)
}

// touch is the liveness signal from pong frames; best-effort and async so it
// never stalls the read loop.
func (p *presenceCoordinator) touch(c *Client) {
	go func() {
		ctx, cancel := p.opCtx()
		defer cancel()
		if err := p.hub.store.TouchPresence(ctx, c.identity); err != nil {
			p.hub.logger.Debug("presence touch failed",
				zap.String("user_id", c.identity.String()),
				zap.Error(err),
			)
		}
	}()
}

// broadcastStatus emits user_status_change to the personal room of every
// contact (anyone sharing a conversation with the identity).
func (p *presenceCoordinator) broadcastStatus(ctx context.Context, id model.Identity, online bool) {
	contacts, err := p.hub.convs.ContactsOf(ctx, id)
	if err != nil {
		p.hub.logger.Warn("contact lookup failed, skipping status broadcast",
			zap.String("user_id", id.String()),
			zap.Error(err),
		)
		return
	}
	if len(contacts) == 0 {
		return
	}

	profile := model.Profile{ID: id.String()}
	if user, err := p.hub.store.GetUser(ctx, id); err == nil && user != nil {
		profile = user.Profile()
	}

	now := time.Now()
	ev, err := event.NewWsEvent(event.EventUserStatusChange, event.StatusChangePayload{
		UserID:    id.String(),
		User:      profile,
		IsOnline:  online,
		LastSeen:  now,
		Timestamp: now,
	})
	if err != nil {
		return
	}

	for _, contact := range contacts {
		p.hub.rooms.emit(contact.String(), ev, "")
	}

	p.hub.logger.Debug("status change broadcast",
		zap.String("user_id", id.String()),
		zap.Bool("online", online),
		zap.Int("contacts", len(contacts)),
	)
}

// handleStatusQuery answers a "get online status" event; the response (or the
// error) goes to the requesting connection only.
func (p *presenceCoordinator) handleStatusQuery(c *Client, raw json.RawMessage) {
	var req event.OnlineStatusRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		p.hub.logger.Debug("malformed status query payload", zap.String("client_id", c.ID))
		return
	}

	ids := make([]model.Identity, 0, len(req.UserIDs))
	for _, rawID := range req.UserIDs {
		if id := model.ParseIdentity(rawID); !id.IsZero() {
			ids = append(ids, id)
		}
	}

	ctx, cancel := p.opCtx()
	defer cancel()

	statuses, err := p.hub.store.BatchGetPresence(ctx, ids)
	if err != nil {
		p.hub.logger.Warn("status query failed", zap.Error(err))
		if ev, merr := event.NewWsEvent(event.EventOnlineStatusError, event.ErrorPayload{
			Message: "Failed to get online status",
		}); merr == nil {
			c.SafeSend(ev, sendTimeout)
		}
		return
	}

	byString := make(map[string]model.PresenceStatus, len(statuses))
	for id, status := range statuses {
		byString[id.String()] = status
	}

	if ev, merr := event.NewWsEvent(event.EventOnlineStatusResponse, byString); merr == nil {
		c.SafeSend(ev, sendTimeout)
	}
}

// startSweep arms the periodic stale-presence correction. The sweep marks
// long-silent online records offline in one batch write; it deliberately does
// not broadcast per contact.
func (p *presenceCoordinator) startSweep() {
	if p.hub.opts.PresenceSweepInterval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(p.hub.opts.PresenceSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.sweepDone:
				return
			case <-p.hub.ctx.Done():
				return
			case <-ticker.C:
				p.runSweep()
			}
		}
	}()
}

func (p *presenceCoordinator) runSweep() {
	ctx, cancel := p.opCtx()
	defer cancel()

	if _, err := p.hub.store.SweepStalePresence(ctx, p.hub.opts.PresenceStaleThreshold); err != nil {
		p.hub.logger.Warn("stale presence sweep failed", zap.Error(err))
	}
}

func (p *presenceCoordinator) stopSweep() {
	p.sweepOnce.Do(func() {
		close(p.sweepDone)
	})
}

func (p *presenceCoordinator) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), p.hub.opts.StoreTimeout)
}
