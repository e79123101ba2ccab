package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adnanfazil/ChatApp/internal/model"
)

func detachedClient(id model.Identity) *Client {
	return newClient(id, model.Profile{ID: id.String()}, nil, nil, "test-agent", "127.0.0.1")
}

func TestRegistryCountsConnectionsPerIdentity(t *testing.T) {
	r := newRegistry()
	alice := model.Identity("alice")

	tab1 := detachedClient(alice)
	tab2 := detachedClient(alice)

	total, err := r.register(tab1)
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	total, err = r.register(tab2)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	conns, identities := r.totals()
	assert.Equal(t, 2, conns)
	assert.Equal(t, 1, identities)
}

func TestRegistryRejectsDuplicateConnectionID(t *testing.T) {
	r := newRegistry()
	c := detachedClient("alice")

	_, err := r.register(c)
	require.NoError(t, err)

	_, err = r.register(c)
	assert.ErrorIs(t, err, ErrDuplicateConnection)

	// the original registration is untouched
	conns, _ := r.totals()
	assert.Equal(t, 1, conns)
}

func TestRegistryUnregisterReportsRemaining(t *testing.T) {
	r := newRegistry()
	alice := model.Identity("alice")

	tab1 := detachedClient(alice)
	tab2 := detachedClient(alice)
	_, err := r.register(tab1)
	require.NoError(t, err)
	_, err = r.register(tab2)
	require.NoError(t, err)

	removed, remaining := r.unregister(tab1.ID)
	require.NotNil(t, removed)
	assert.Equal(t, tab1.ID, removed.ID)
	assert.Equal(t, 1, remaining)

	removed, remaining = r.unregister(tab2.ID)
	require.NotNil(t, removed)
	assert.Equal(t, 0, remaining)
	assert.Empty(t, r.connectionsOf(alice))
}

func TestRegistryUnregisterIsIdempotent(t *testing.T) {
	r := newRegistry()
	c := detachedClient("alice")
	_, err := r.register(c)
	require.NoError(t, err)

	removed, _ := r.unregister(c.ID)
	require.NotNil(t, removed)

	removed, remaining := r.unregister(c.ID)
	assert.Nil(t, removed)
	assert.Equal(t, 0, remaining)

	removed, _ = r.unregister("never-registered")
	assert.Nil(t, removed)
}

func TestRegistryConnectionsOf(t *testing.T) {
	r := newRegistry()
	alice := model.Identity("alice")
	bob := model.Identity("bob")

	aliceTab := detachedClient(alice)
	bobTab1 := detachedClient(bob)
	bobTab2 := detachedClient(bob)
	for _, c := range []*Client{aliceTab, bobTab1, bobTab2} {
		_, err := r.register(c)
		require.NoError(t, err)
	}

	assert.Len(t, r.connectionsOf(alice), 1)
	assert.Len(t, r.connectionsOf(bob), 2)
	assert.Nil(t, r.connectionsOf("carol"))
}
