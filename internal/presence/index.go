// Package presence tracks which users currently have a live connection.
//
// The index keeps one handle per user. A second connect from the same user
// replaces the first; the evicted connection stays open but no longer
// receives pushes.
package presence

import (
	"sync"

	"github.com/google/uuid"
)

// Conn is a live connection handle owned by the transport. The index only
// holds a reference and compares handles by identity.
type Conn interface {
	// Send queues an encoded event. It returns false if the connection is
	// closing or cannot accept more data.
	Send(data []byte) bool
}

// Observer is told about every change after the index lock is released.
// Implementations must not block.
type Observer interface {
	OnRegister(userID uuid.UUID, conn Conn, evicted Conn)
	OnUnregister(userID uuid.UUID, conn Conn)
}

type Index struct {
	mu       sync.RWMutex
	conns    map[uuid.UUID]Conn
	observer Observer
}

// New creates an empty index. observer may be nil.
func New(observer Observer) *Index {
	return &Index{
		conns:    make(map[uuid.UUID]Conn),
		observer: observer,
	}
}

// Register maps userID to conn, overwriting any previous handle, and returns
// the handle it replaced.
func (x *Index) Register(userID uuid.UUID, conn Conn) (evicted Conn) {
	x.mu.Lock()
	prev, ok := x.conns[userID]
	x.conns[userID] = conn
	x.mu.Unlock()

	if ok && prev == conn {
		prev = nil
	}
	if x.observer != nil {
		x.observer.OnRegister(userID, conn, prev)
	}
	return prev
}

// UnregisterByHandle removes the entry pointing at conn. It is a no-op when
// conn was never registered or has already been replaced.
func (x *Index) UnregisterByHandle(conn Conn) (uuid.UUID, bool) {
	var (
		userID uuid.UUID
		found  bool
	)

	x.mu.Lock()
	for id, c := range x.conns {
		if c == conn {
			userID, found = id, true
			delete(x.conns, id)
			break
		}
	}
	x.mu.Unlock()

	if found && x.observer != nil {
		x.observer.OnUnregister(userID, conn)
	}
	return userID, found
}

// Lookup returns the live handle for userID, if any.
func (x *Index) Lookup(userID uuid.UUID) (Conn, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	c, ok := x.conns[userID]
	return c, ok
}

func (x *Index) IsOnline(userID uuid.UUID) bool {
	_, ok := x.Lookup(userID)
	return ok
}

// Online returns the number of users with a registered handle.
func (x *Index) Online() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.conns)
}

// Reset drops every entry without notifying the observer. Used at shutdown.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.conns = make(map[uuid.UUID]Conn)
}
