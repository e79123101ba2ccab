package hub

import (
	"crypto/sha1"
	"encoding/binary"
	"sync"

	"github.com/adnanfazil/ChatApp/internal/event"
)

const (
	shardCount = 64 // tune: 16/64/128 depending on load
)

type roomBucket struct {
	sync.RWMutex
	rooms map[string]map[string]*Client // room id → connection id → client
}

// roomTable is the addressable broadcast layer. A room is either a personal
// room (id = user id, joined for the connection's whole lifetime) or a
// conversation room (joined while that conversation is open in the UI).
type roomTable struct {
	shards [shardCount]*roomBucket
}

func newRoomTable() *roomTable {
	t := &roomTable{}
	for i := 0; i < shardCount; i++ {
		t.shards[i] = &roomBucket{
			rooms: make(map[string]map[string]*Client),
		}
	}
	return t
}

func getShard(roomID string) uint32 {
	if roomID == "" {
		return 0
	}

	h := sha1.Sum([]byte(roomID))
	return binary.BigEndian.Uint32(h[:4]) % shardCount
}

func (t *roomTable) join(roomID string, c *Client) {
	b := t.shards[getShard(roomID)]
	b.Lock()
	defer b.Unlock()

	room, ok := b.rooms[roomID]
	if !ok {
		room = make(map[string]*Client)
		b.rooms[roomID] = room
	}
	room[c.ID] = c
}

func (t *roomTable) leave(roomID string, connID string) {
	b := t.shards[getShard(roomID)]
	b.Lock()
	defer b.Unlock()

	if room, ok := b.rooms[roomID]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(b.rooms, roomID)
		}
	}
}

// emit delivers an event to every connection in the room except the excluded
// one. Delivery is fire-and-forget, at-most-once: closed or slow clients are
// skipped — durable storage is the source of truth on next fetch. Returns the
// number of connections the event was enqueued to.
func (t *roomTable) emit(roomID string, ev event.WsEvent, excludeConnID string) int {
	b := t.shards[getShard(roomID)]

	// collect targets while holding RLock, deliver without it
	b.RLock()
	room, ok := b.rooms[roomID]
	if !ok || len(room) == 0 {
		b.RUnlock()
		return 0
	}

	targets := make([]*Client, 0, len(room))
	for id, c := range room {
		if id == excludeConnID {
			continue
		}
		targets = append(targets, c)
	}
	b.RUnlock()

	delivered := 0
	for _, c := range targets {
		if c.SafeSend(ev, sendTimeout) {
			delivered++
		}
	}
	return delivered
}

// members returns the connection ids currently joined to a room.
func (t *roomTable) members(roomID string) []string {
	b := t.shards[getShard(roomID)]
	b.RLock()
	defer b.RUnlock()

	room := b.rooms[roomID]
	if len(room) == 0 {
		return nil
	}
	out := make([]string, 0, len(room))
	for id := range room {
		out = append(out, id)
	}
	return out
}

// forEachRoom visits every room under its shard's read lock.
func (t *roomTable) forEachRoom(fn func(roomID string, members map[string]*Client)) {
	for _, b := range t.shards {
		b.RLock()
		for id, room := range b.rooms {
			fn(id, room)
		}
		b.RUnlock()
	}
}
