package ws

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	refuse bool
}

func (f *fakeConn) Send(data []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse {
		return false
	}
	f.frames = append(f.frames, data)
	return true
}

func (f *fakeConn) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestRoomsJoinLeave(t *testing.T) {
	r := NewRooms()
	a, b := &fakeConn{}, &fakeConn{}
	conv := uuid.New()

	r.Join(a, conv)
	r.Join(a, conv)
	r.Join(b, conv)

	assert.True(t, r.IsMember(a, conv))
	assert.Len(t, r.Members(conv), 2)

	r.Leave(a, conv)
	assert.False(t, r.IsMember(a, conv))
	assert.True(t, r.IsMember(b, conv))

	r.Leave(b, conv)
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.Members(conv))
}

func TestRoomsLeaveAll(t *testing.T) {
	r := NewRooms()
	a, b := &fakeConn{}, &fakeConn{}
	c1, c2 := uuid.New(), uuid.New()

	r.Join(a, c1)
	r.Join(a, c2)
	r.Join(b, c2)

	assert.Equal(t, 2, r.LeaveAll(a))
	assert.False(t, r.IsMember(a, c1))
	assert.False(t, r.IsMember(a, c2))
	assert.True(t, r.IsMember(b, c2))
	assert.Equal(t, 1, r.Count())

	assert.Equal(t, 0, r.LeaveAll(a))
}

func TestRoomsBroadcast(t *testing.T) {
	r := NewRooms()
	sender, peer, closing, outsider := &fakeConn{}, &fakeConn{}, &fakeConn{refuse: true}, &fakeConn{}
	conv := uuid.New()

	r.Join(sender, conv)
	r.Join(peer, conv)
	r.Join(closing, conv)
	r.Join(outsider, uuid.New())

	n := r.Broadcast(conv, []byte(`{}`), sender)

	assert.Equal(t, 1, n)
	assert.Equal(t, 0, sender.count())
	assert.Equal(t, 1, peer.count())
	assert.Equal(t, 0, outsider.count())
}

func TestRoomsConcurrent(t *testing.T) {
	r := NewRooms()
	conv := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &fakeConn{}
			r.Join(c, conv)
			r.Broadcast(conv, []byte(`{}`), c)
			r.LeaveAll(c)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Count())
}
