package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	frames   [][]byte
	err      error
	deadline time.Time
	closed   bool
	// block, when set, holds every write until the connection is closed.
	block chan struct{}
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	if c.block != nil {
		<-c.block
		return errors.New("use of closed connection")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadline = t
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed && c.block != nil {
		close(c.block)
	}
	c.closed = true
	return nil
}

func (c *fakeConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestPushReachesOnlyTargetUser(t *testing.T) {
	h := NewHub(nil)
	alice1, alice2, bob := &fakeConn{}, &fakeConn{}, &fakeConn{}
	h.Register("alice", alice1)
	h.Register("alice", alice2)
	h.Register("bob", bob)

	n := h.Push("alice", map[string]string{"title": "Ticket TCK-1 mis à jour"})
	assert.Equal(t, 2, n)
	require.Eventually(t, func() bool {
		return len(alice1.received()) == 1 && len(alice2.received()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Empty(t, bob.received())

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(alice1.received()[0], &decoded))
	assert.Equal(t, "Ticket TCK-1 mis à jour", decoded["title"])
	alice1.mu.Lock()
	assert.False(t, alice1.deadline.IsZero())
	alice1.mu.Unlock()
}

func TestPushDropsBrokenConnections(t *testing.T) {
	h := NewHub(nil)
	conn := &fakeConn{err: errors.New("closed")}
	h.Register("alice", conn)
	h.Push("alice", "x")

	require.Eventually(t, func() bool { return h.Connected("alice") == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, conn.isClosed())
}

func TestStalledConnectionDoesNotBlockOtherUsers(t *testing.T) {
	h := NewHub(nil)
	slow := &fakeConn{block: make(chan struct{})}
	fast := &fakeConn{}
	h.Register("slow", slow)
	h.Register("fast", fast)

	h.Push("slow", "first")

	done := make(chan int, 1)
	go func() { done <- h.Push("fast", "hello") }()
	select {
	case n := <-done:
		assert.Equal(t, 1, n)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("push to fast user waited on a stalled connection")
	}
	require.Eventually(t, func() bool { return len(fast.received()) == 1 }, time.Second, 5*time.Millisecond)
	_ = slow.Close()
}

func TestFullQueueClosesConnection(t *testing.T) {
	h := NewHub(nil, WithSendBuffer(1))
	slow := &fakeConn{block: make(chan struct{})}
	h.Register("slow", slow)

	// The writer holds one frame, the queue holds one, the next overflows.
	for i := 0; i < 3; i++ {
		h.Push("slow", i)
		time.Sleep(10 * time.Millisecond)
	}
	require.Eventually(t, slow.isClosed, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, h.Connected("slow"))
	assert.Equal(t, 0, h.Push("slow", "late"))
}

func TestUnregister(t *testing.T) {
	h := NewHub(nil)
	unregister := h.Register("alice", &fakeConn{})
	assert.Equal(t, 1, h.Connected("alice"))
	unregister()
	assert.Equal(t, 0, h.Connected("alice"))
	assert.Equal(t, 0, h.Push("nobody", "x"))
	unregister()
}
