package ws

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vedran77/conversa/internal/presence"
)

// Rooms groups live connections by conversation. Nothing is persisted; a
// room exists only while it has members.
type Rooms struct {
	mu     sync.RWMutex
	rooms  map[uuid.UUID]map[presence.Conn]struct{}
	joined map[presence.Conn]map[uuid.UUID]struct{}
}

func NewRooms() *Rooms {
	return &Rooms{
		rooms:  make(map[uuid.UUID]map[presence.Conn]struct{}),
		joined: make(map[presence.Conn]map[uuid.UUID]struct{}),
	}
}

// Join adds member to the conversation's room. Joining twice is a no-op.
func (r *Rooms) Join(member presence.Conn, conversationID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[conversationID]
	if !ok {
		room = make(map[presence.Conn]struct{})
		r.rooms[conversationID] = room
	}
	room[member] = struct{}{}

	convs, ok := r.joined[member]
	if !ok {
		convs = make(map[uuid.UUID]struct{})
		r.joined[member] = convs
	}
	convs[conversationID] = struct{}{}
}

// Leave removes member from one room.
func (r *Rooms) Leave(member presence.Conn, conversationID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(member, conversationID)
}

// LeaveAll removes member from every room it joined and returns how many
// rooms that was.
func (r *Rooms) LeaveAll(member presence.Conn) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	convs := r.joined[member]
	n := len(convs)
	for id := range convs {
		r.leaveLocked(member, id)
	}
	return n
}

func (r *Rooms) leaveLocked(member presence.Conn, conversationID uuid.UUID) {
	if room, ok := r.rooms[conversationID]; ok {
		delete(room, member)
		if len(room) == 0 {
			delete(r.rooms, conversationID)
		}
	}
	if convs, ok := r.joined[member]; ok {
		delete(convs, conversationID)
		if len(convs) == 0 {
			delete(r.joined, member)
		}
	}
}

func (r *Rooms) IsMember(member presence.Conn, conversationID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[conversationID][member]
	return ok
}

// Members returns a snapshot of the room.
func (r *Rooms) Members(conversationID uuid.UUID) []presence.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[conversationID]
	members := make([]presence.Conn, 0, len(room))
	for m := range room {
		members = append(members, m)
	}
	return members
}

// Count returns the number of non-empty rooms.
func (r *Rooms) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Broadcast sends data to every member except exclude and returns how many
// members accepted it. Sends happen outside the lock.
func (r *Rooms) Broadcast(conversationID uuid.UUID, data []byte, exclude presence.Conn) int {
	sent := 0
	for _, m := range r.Members(conversationID) {
		if m == exclude {
			continue
		}
		if m.Send(data) {
			sent++
		}
	}
	return sent
}
