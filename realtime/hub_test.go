package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	frames []Message
	err    error
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.frames = append(f.frames, v.(Message))
	return nil
}

func testHub() *Hub {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewHub(log)
}

func TestEmitToRegisteredConnection(t *testing.T) {
	hub := testHub()
	conn := &fakeConn{}
	hub.Register("u1", conn)

	ok := hub.Emit("u1", "order.created", map[string]string{"orderNumber": "ORD-1"})
	assert.True(t, ok)
	require.Len(t, conn.frames, 1)
	assert.Equal(t, "order.created", conn.frames[0].Event)
}

func TestEmitToUnknownUser(t *testing.T) {
	hub := testHub()
	assert.False(t, hub.Emit("nobody", "order.created", nil))
}

func TestEmitFansOutToAllConnections(t *testing.T) {
	hub := testHub()
	tab1 := &fakeConn{}
	tab2 := &fakeConn{}
	hub.Register("u1", tab1)
	hub.Register("u1", tab2)

	assert.True(t, hub.Emit("u1", "order.paid", nil))
	assert.Len(t, tab1.frames, 1)
	assert.Len(t, tab2.frames, 1)
}

func TestEmitSucceedsIfAnyWriteSucceeds(t *testing.T) {
	hub := testHub()
	broken := &fakeConn{err: errors.New("connection reset")}
	healthy := &fakeConn{}
	hub.Register("u1", broken)
	hub.Register("u1", healthy)

	assert.True(t, hub.Emit("u1", "order.paid", nil))
	assert.Len(t, healthy.frames, 1)
}

func TestEmitFailsWhenAllWritesFail(t *testing.T) {
	hub := testHub()
	hub.Register("u1", &fakeConn{err: errors.New("connection reset")})

	assert.False(t, hub.Emit("u1", "order.paid", nil))
}

func TestDeregisterStopsDelivery(t *testing.T) {
	hub := testHub()
	conn := &fakeConn{}
	hub.Register("u1", conn)
	require.True(t, hub.Connected("u1"))

	hub.Deregister("u1", conn)
	assert.False(t, hub.Connected("u1"))
	assert.False(t, hub.Emit("u1", "order.paid", nil))
	assert.Empty(t, conn.frames)
}

// overlapConn counts how many WriteJSON calls run at the same time.
type overlapConn struct {
	inFlight int32
	overlaps int32
	writes   int32
}

func (c *overlapConn) WriteJSON(interface{}) error {
	if atomic.AddInt32(&c.inFlight, 1) > 1 {
		atomic.AddInt32(&c.overlaps, 1)
	}
	atomic.AddInt32(&c.writes, 1)
	atomic.AddInt32(&c.inFlight, -1)
	return nil
}

func TestEmitSerializesWritesPerConnection(t *testing.T) {
	const emitters = 8

	hub := testHub()
	conn := &overlapConn{}
	hub.Register("u1", conn)

	var wg sync.WaitGroup
	for i := 0; i < emitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Emit("u1", "order.paid", nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(emitters), atomic.LoadInt32(&conn.writes))
	assert.Zero(t, atomic.LoadInt32(&conn.overlaps))
}

func TestConnectionsAreScopedPerUser(t *testing.T) {
	hub := testHub()
	mine := &fakeConn{}
	theirs := &fakeConn{}
	hub.Register("u1", mine)
	hub.Register("u2", theirs)

	hub.Emit("u1", "payment.succeeded", nil)
	assert.Len(t, mine.frames, 1)
	assert.Empty(t, theirs.frames)
}
