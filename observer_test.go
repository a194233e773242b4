package qrtr

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qrtrlink/qrtr-go/internal/directory"
	"github.com/qrtrlink/qrtr-go/internal/wire"
)

// newTestObserver builds an Observer with no socket, for exercising
// packet handling and debounce logic directly — Create requires a real
// AF_QIPCRTR socket, which is not available off-target.
func newTestObserver() *Observer {
	return &Observer{
		log:     zap.NewNop().Sugar(),
		dir:     directory.New(),
		subs:    newSubscriberRegistry(),
		waiters: newWaiterRegistry(),
		timers:     make(map[NodeID]*time.Timer),
		pkts:       make(chan wire.CtrlPacket, pktChanBufSize),
		debounceCh: make(chan NodeID, debounceBufSize),
		closed:     make(chan struct{}),
		ctx:        context.Background(),
	}
}

func TestHandleNewServerDispatchesServiceAdded(t *testing.T) {
	o := newTestObserver()

	var got []ServiceAdded
	o.subs.add(EventServiceAdded, func(ev Event) { got = append(got, ev.(ServiceAdded)) })

	o.handleNewServer(wire.CtrlPacket{Node: 1, Service: 100, Port: 10, Instance: 1})

	require.Len(t, got, 1)
	assert.Equal(t, NodeID(1), got[0].Node)
	assert.Equal(t, ServiceID(100), got[0].Service)
	assert.False(t, o.dir.IsPublished(1), "a node is not published until its debounce window fires")
}

func TestHandleNewServerArmsDebounceOnce(t *testing.T) {
	o := newTestObserver()

	o.handleNewServer(wire.CtrlPacket{Node: 1, Service: 100, Port: 10})
	firstTimer := o.timers[1]
	require.NotNil(t, firstTimer)

	o.handleNewServer(wire.CtrlPacket{Node: 1, Service: 200, Port: 20})
	assert.Same(t, firstTimer, o.timers[1], "a second service burst must reset, not replace, the pending timer")
}

func TestFirePublishSkipsRemovedNode(t *testing.T) {
	o := newTestObserver()
	// no InsertService call: node 1 was never created, mimicking a node
	// that was removed again before its debounce window elapsed.

	var got []NodeAdded
	o.subs.add(EventNodeAdded, func(ev Event) { got = append(got, ev.(NodeAdded)) })

	o.firePublish(1)

	assert.Empty(t, got)
	assert.False(t, o.dir.IsPublished(1))
}

func TestFirePublishPublishesAndNotifiesWaiters(t *testing.T) {
	o := newTestObserver()
	o.dir.InsertService(1, 10, 100, 1, 0)

	var got []NodeAdded
	o.subs.add(EventNodeAdded, func(ev Event) { got = append(got, ev.(NodeAdded)) })

	waitDone := make(chan struct{})
	go func() {
		_, err := o.waiters.wait(context.Background(), o.dir, 1)
		assert.NoError(t, err)
		close(waitDone)
	}()
	time.Sleep(10 * time.Millisecond)

	o.firePublish(1)

	require.Len(t, got, 1)
	assert.Equal(t, NodeID(1), got[0].Node)
	assert.True(t, o.dir.IsPublished(1))

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("waiter was not notified by firePublish")
	}
}

func TestHandleDelServerLastServiceUnpublishesAndRemoves(t *testing.T) {
	o := newTestObserver()
	o.dir.InsertService(1, 10, 100, 1, 0)
	o.dir.SetPublished(1, true)
	o.timers[1] = time.NewTimer(time.Hour) // simulate a stray pending timer

	var removed []ServiceRemoved
	var nodeRemoved []NodeRemoved
	o.subs.add(EventServiceRemoved, func(ev Event) { removed = append(removed, ev.(ServiceRemoved)) })
	o.subs.add(EventNodeRemoved, func(ev Event) { nodeRemoved = append(nodeRemoved, ev.(NodeRemoved)) })

	o.handleDelServer(wire.CtrlPacket{Node: 1, Service: 100, Port: 10})

	require.Len(t, removed, 1)
	require.Len(t, nodeRemoved, 1)
	assert.False(t, o.dir.Exists(1))
	_, stillPending := o.timers[1]
	assert.False(t, stillPending)
}

func TestHandleDelServerUnknownIsIgnored(t *testing.T) {
	o := newTestObserver()

	called := false
	o.subs.add(EventServiceRemoved, func(Event) { called = true })

	o.handleDelServer(wire.CtrlPacket{Node: 99, Service: 1, Port: 1})

	assert.False(t, called)
	assert.False(t, o.dir.Exists(99))
}
