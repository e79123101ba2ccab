package hub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adnanfazil/ChatApp/internal/event"
)

// typingFixture wires two users into the same conversation room. The
// directory stays empty so presence broadcasts cannot interleave with the
// typing events under test.
func typingFixture(t *testing.T, window time.Duration) (h *Hub, alice, bob *Client) {
	t.Helper()

	store := newFakeStore()
	store.addUser("alice", "Alice", "Adams")
	store.addUser("bob", "Bob", "Brown")

	h = newTestHub(t, store, newFakeDirectory(), Options{TypingQuietWindow: window})

	alice = connect(t, h, "alice")
	bob = connect(t, h, "bob")
	h.dispatch(alice, inbound(t, event.EventJoinChat, event.JoinChatPayload{ConversationID: "conv-1"}))
	h.dispatch(bob, inbound(t, event.EventJoinChat, event.JoinChatPayload{ConversationID: "conv-1"}))
	return h, alice, bob
}

func typingEvent(t *testing.T, name, conversationID string) event.WsEvent {
	t.Helper()
	return inbound(t, name, event.TypingPayload{ConversationID: conversationID})
}

func TestTypingReachesPeersNotTyper(t *testing.T) {
	h, alice, bob := typingFixture(t, time.Minute)

	h.dispatch(alice, typingEvent(t, event.EventTyping, "conv-1"))

	ev := recvEvent(t, bob)
	require.Equal(t, event.EventTyping, ev.Event)

	var p event.TypingPayload
	decodePayload(t, ev, &p)
	assert.Equal(t, "conv-1", p.ConversationID)
	assert.Equal(t, "alice", p.UserID)
	require.NotNil(t, p.User)
	assert.Equal(t, "alice", p.User.ID)

	expectNoEvent(t, alice, 100*time.Millisecond)
}

func TestTypingIsEdgeTriggered(t *testing.T) {
	h, alice, bob := typingFixture(t, time.Minute)

	h.dispatch(alice, typingEvent(t, event.EventTyping, "conv-1"))
	h.dispatch(alice, typingEvent(t, event.EventTyping, "conv-1"))
	h.dispatch(alice, typingEvent(t, event.EventTyping, "conv-1"))

	ev := recvEvent(t, bob)
	assert.Equal(t, event.EventTyping, ev.Event)
	expectNoEvent(t, bob, 100*time.Millisecond)

	assert.Equal(t, 1, h.typing.activeCount())
}

func TestTypingExpiresAfterQuietWindow(t *testing.T) {
	h, alice, bob := typingFixture(t, 150*time.Millisecond)

	h.dispatch(alice, typingEvent(t, event.EventTyping, "conv-1"))
	require.Equal(t, event.EventTyping, recvEvent(t, bob).Event)

	ev := recvEvent(t, bob)
	require.Equal(t, event.EventStopTyping, ev.Event)

	var p event.TypingPayload
	decodePayload(t, ev, &p)
	assert.Equal(t, "conv-1", p.ConversationID)
	assert.Equal(t, "alice", p.UserID)

	// the typer hears neither its own indicator nor the expiry
	expectNoEvent(t, alice, 100*time.Millisecond)
	assert.Zero(t, h.typing.activeCount())
}

func TestTypingRenewalDefersExpiry(t *testing.T) {
	h, alice, bob := typingFixture(t, 500*time.Millisecond)

	h.dispatch(alice, typingEvent(t, event.EventTyping, "conv-1"))
	require.Equal(t, event.EventTyping, recvEvent(t, bob).Event)

	// renew before the window closes; the original deadline must not fire
	time.Sleep(300 * time.Millisecond)
	h.dispatch(alice, typingEvent(t, event.EventTyping, "conv-1"))
	expectNoEvent(t, bob, 300*time.Millisecond)

	// the renewed deadline does
	require.Equal(t, event.EventStopTyping, recvEvent(t, bob).Event)
}

func TestExplicitStopCancelsExpiry(t *testing.T) {
	h, alice, bob := typingFixture(t, 150*time.Millisecond)

	h.dispatch(alice, typingEvent(t, event.EventTyping, "conv-1"))
	require.Equal(t, event.EventTyping, recvEvent(t, bob).Event)

	h.dispatch(alice, typingEvent(t, event.EventStopTyping, "conv-1"))
	require.Equal(t, event.EventStopTyping, recvEvent(t, bob).Event)

	// no second stop from the expiry timer
	expectNoEvent(t, bob, 300*time.Millisecond)
}

func TestStopWithoutStartStillRelays(t *testing.T) {
	h, alice, bob := typingFixture(t, time.Minute)

	h.dispatch(alice, typingEvent(t, event.EventStopTyping, "conv-1"))
	assert.Equal(t, event.EventStopTyping, recvEvent(t, bob).Event)
}

func TestDisconnectClearsTypingState(t *testing.T) {
	h, alice, bob := typingFixture(t, time.Minute)

	h.dispatch(alice, typingEvent(t, event.EventTyping, "conv-1"))
	require.Equal(t, event.EventTyping, recvEvent(t, bob).Event)
	require.Equal(t, 1, h.typing.activeCount())

	h.Unregister(alice)

	ev := recvEvent(t, bob)
	assert.Equal(t, event.EventStopTyping, ev.Event)
	assert.Zero(t, h.typing.activeCount())
}

func TestTypingPerRoomPerUser(t *testing.T) {
	h, alice, bob := typingFixture(t, time.Minute)

	h.dispatch(alice, typingEvent(t, event.EventTyping, "conv-1"))
	h.dispatch(bob, typingEvent(t, event.EventTyping, "conv-1"))

	require.Equal(t, event.EventTyping, recvEvent(t, bob).Event)
	require.Equal(t, event.EventTyping, recvEvent(t, alice).Event)
	assert.Equal(t, 2, h.typing.activeCount())
}

func TestMalformedTypingPayloadIgnored(t *testing.T) {
	h, alice, bob := typingFixture(t, time.Minute)

	h.dispatch(alice, event.WsEvent{Event: event.EventTyping, Payload: []byte("{not json")})
	h.dispatch(alice, inbound(t, event.EventTyping, event.TypingPayload{}))

	expectNoEvent(t, bob, 100*time.Millisecond)
	assert.Zero(t, h.typing.activeCount())
}
