package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/adnanfazil/ChatApp/internal/event"
	"github.com/adnanfazil/ChatApp/internal/model"
)

var errStoreDown = errors.New("store unavailable")

type presenceUpdate struct {
	id     model.Identity
	online bool
	connID string
}

// fakeStore is an in-memory PresenceStore.
type fakeStore struct {
	mu       sync.Mutex
	users    map[model.Identity]*model.User
	presence map[model.Identity]model.PresenceStatus
	updates  []presenceUpdate
	failAll  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[model.Identity]*model.User),
		presence: make(map[model.Identity]model.PresenceStatus),
	}
}

func (s *fakeStore) addUser(id model.Identity, firstName, lastName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &model.User{
		UserID:    id.String(),
		FirstName: firstName,
		LastName:  lastName,
	}
}

func (s *fakeStore) GetUser(ctx context.Context, id model.Identity) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errStoreDown
	}
	user, ok := s.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return user, nil
}

func (s *fakeStore) UpdatePresence(ctx context.Context, id model.Identity, online bool, connID, deviceInfo, ipAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errStoreDown
	}
	s.updates = append(s.updates, presenceUpdate{id: id, online: online, connID: connID})
	s.presence[id] = model.PresenceStatus{IsOnline: online, LastSeen: time.Now()}
	return nil
}

func (s *fakeStore) TouchPresence(ctx context.Context, id model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return errStoreDown
	}
	status := s.presence[id]
	status.LastSeen = time.Now()
	s.presence[id] = status
	return nil
}

func (s *fakeStore) BatchGetPresence(ctx context.Context, ids []model.Identity) (map[model.Identity]model.PresenceStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return nil, errStoreDown
	}
	out := make(map[model.Identity]model.PresenceStatus)
	for _, id := range ids {
		if status, ok := s.presence[id]; ok {
			out[id] = status
		}
	}
	return out, nil
}

func (s *fakeStore) SweepStalePresence(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return 0, errStoreDown
	}
	cutoff := time.Now().Add(-olderThan)
	var swept int64
	for id, status := range s.presence {
		if status.IsOnline && status.LastSeen.Before(cutoff) {
			status.IsOnline = false
			s.presence[id] = status
			swept++
		}
	}
	return swept, nil
}

func (s *fakeStore) presenceUpdates() []presenceUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]presenceUpdate, len(s.updates))
	copy(out, s.updates)
	return out
}

func (s *fakeStore) setPresence(id model.Identity, online bool, lastSeen time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presence[id] = model.PresenceStatus{IsOnline: online, LastSeen: lastSeen}
}

func (s *fakeStore) getPresence(id model.Identity) model.PresenceStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presence[id]
}

func (s *fakeStore) setFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = failing
}

// fakeDirectory is an in-memory ConversationDirectory.
type fakeDirectory struct {
	mu           sync.Mutex
	contacts     map[model.Identity][]model.Identity
	participants map[string][]model.Identity
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		contacts:     make(map[model.Identity][]model.Identity),
		participants: make(map[string][]model.Identity),
	}
}

// addConversation records a conversation and derives the contact relation
// between its participants.
func (d *fakeDirectory) addConversation(conversationID string, ids ...model.Identity) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.participants[conversationID] = ids
	for _, a := range ids {
		for _, b := range ids {
			if a.Equal(b) {
				continue
			}
			exists := false
			for _, c := range d.contacts[a] {
				if c.Equal(b) {
					exists = true
					break
				}
			}
			if !exists {
				d.contacts[a] = append(d.contacts[a], b)
			}
		}
	}
}

func (d *fakeDirectory) ContactsOf(ctx context.Context, id model.Identity) ([]model.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contacts[id], nil
}

func (d *fakeDirectory) FindParticipants(ctx context.Context, conversationID string) ([]model.Identity, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.participants[conversationID], nil
}

// newTestHub builds a hub with the background sweep disabled so tests drive
// it explicitly.
func newTestHub(t *testing.T, store *fakeStore, dir *fakeDirectory, opts Options) *Hub {
	t.Helper()
	if opts.PresenceSweepInterval == 0 {
		opts.PresenceSweepInterval = -1
	}
	h := NewHub(store, dir, nil, zap.NewNop(), opts)
	t.Cleanup(h.Stop)
	return h
}

// connect registers a pump-less client; outbound events are read straight
// off its egress channel. The handshake ack is drained.
func connect(t *testing.T, h *Hub, id model.Identity) *Client {
	t.Helper()
	c := newClient(id, model.Profile{ID: id.String()}, nil, h, "test-agent", "127.0.0.1")
	if err := h.Register(c); err != nil {
		t.Fatalf("register client for %s: %v", id, err)
	}
	ack := recvEvent(t, c)
	if ack.Event != event.EventConnected {
		t.Fatalf("expected connected ack, got %q", ack.Event)
	}
	return c
}

// recvEvent waits for the next event enqueued to the client.
func recvEvent(t *testing.T, c *Client) event.WsEvent {
	t.Helper()
	select {
	case ev := <-c.egress:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event on client %s", c.ID)
		return event.WsEvent{}
	}
}

// expectNoEvent asserts nothing arrives within the window.
func expectNoEvent(t *testing.T, c *Client, window time.Duration) {
	t.Helper()
	select {
	case ev := <-c.egress:
		t.Fatalf("unexpected event %q on client %s", ev.Event, c.ID)
	case <-time.After(window):
	}
}

// inbound wraps a payload into the envelope a client would send.
func inbound(t *testing.T, name string, payload any) event.WsEvent {
	t.Helper()
	ev, err := event.NewWsEvent(name, payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", name, err)
	}
	return ev
}

// decodePayload unmarshals an event payload into out.
func decodePayload(t *testing.T, ev event.WsEvent, out any) {
	t.Helper()
	if err := json.Unmarshal(ev.Payload, out); err != nil {
		t.Fatalf("decode %s payload: %v", ev.Event, err)
	}
}
