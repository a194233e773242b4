package qrtr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/qrtrlink/qrtr-go/internal/directory"
	"github.com/qrtrlink/qrtr-go/internal/sockio"
	"github.com/qrtrlink/qrtr-go/internal/wire"
)

// PublishDebounce is the window a freshly discovered node's service burst
// is accumulated in before it is announced to consumers (spec.md §4.2).
const PublishDebounce = 100 * time.Millisecond

const (
	recvBufferSize  = 256
	pktChanBufSize  = 64
	debounceBufSize = 64
)

// Option configures an Observer at construction time.
type Option func(*observerConfig)

type observerConfig struct {
	log      *zap.SugaredLogger
	provider metric.MeterProvider
}

// WithLogger overrides the zap logger an Observer uses; default is
// zap.S().Named("qrtr.observer").
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *observerConfig) { c.log = log }
}

// WithMeterProvider enables directory-size metrics via the given otel
// MeterProvider. Omitted, metrics are a no-op.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(c *observerConfig) { c.provider = provider }
}

// Observer owns one control socket, decodes the bus's control traffic,
// and maintains a directory of nodes and the services they export.
//
// All directory mutation, timer handling, and event dispatch happens on
// one goroutine (run) — the idiomatic Go stand-in for spec.md's
// single-threaded event loop, grounded on the teacher's node.Node.Run
// actor pattern (one select loop over channels fed by a dedicated socket
// reader goroutine).
type Observer struct {
	log *zap.SugaredLogger

	sock      *sockio.Socket
	localNode uint32

	dir     *directory.Table
	subs    *subscriberRegistry
	waiters *waiterRegistry
	metrics *observerMetrics

	timers map[NodeID]*time.Timer // run-loop goroutine only

	pkts        chan wire.CtrlPacket
	ioErr       chan error
	initRes     chan error
	debounceCh  chan NodeID

	ctx    context.Context
	cancel context.CancelFunc
	closed chan struct{} // closed once, signals readLoop/run to stop enqueueing
	done   chan struct{} // closed once run() returns

	closeOnce sync.Once
}

// Create opens the control socket, drives the kernel lookup handshake,
// and starts decoding. If lookupTimeout is positive, Create blocks until
// the initial service burst quiesces (no further control traffic for one
// PublishDebounce window) or lookupTimeout elapses, whichever comes
// first; on elapse it returns ErrTimeout and tears the socket down. If
// lookupTimeout is zero, Create returns immediately and callers discover
// nodes asynchronously via the NodeAdded event.
func Create(ctx context.Context, lookupTimeout time.Duration, opts ...Option) (*Observer, error) {
	cfg := observerConfig{
		log:      zap.S().Named("qrtr.observer"),
		provider: nil,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	sock, err := sockio.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSocketCreate, err)
	}
	if err := sock.Bind(); err != nil {
		sock.Close()
		return nil, fmt.Errorf("%w: %w", ErrSocketCreate, err)
	}
	localNode, _, err := sock.Getsockname()
	if err != nil {
		sock.Close()
		return nil, fmt.Errorf("%w: %w", ErrSocketIO, err)
	}
	if err := sock.SendTo(wire.EncodeNewLookup(), localNode, sockio.CtrlPort); err != nil {
		sock.Close()
		return nil, fmt.Errorf("%w: send NEW_LOOKUP: %w", ErrSocketIO, err)
	}

	var metrics *observerMetrics
	if cfg.provider != nil {
		metrics, err = newObserverMetrics(cfg.provider)
		if err != nil {
			sock.Close()
			return nil, fmt.Errorf("qrtr: configure metrics: %w", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	o := &Observer{
		log:       cfg.log,
		sock:      sock,
		localNode: localNode,
		dir:       directory.New(),
		subs:      newSubscriberRegistry(),
		waiters:   newWaiterRegistry(),
		metrics:   metrics,
		timers:    make(map[NodeID]*time.Timer),
		pkts:       make(chan wire.CtrlPacket, pktChanBufSize),
		ioErr:      make(chan error, 1),
		initRes:    make(chan error, 1),
		debounceCh: make(chan NodeID, debounceBufSize),
		ctx:       runCtx,
		cancel:    cancel,
		closed:    make(chan struct{}),
		done:      make(chan struct{}),
	}

	go o.readLoop()
	go o.run()

	if lookupTimeout <= 0 {
		return o, nil
	}

	select {
	case err := <-o.initRes:
		if err != nil {
			o.Close()
			return nil, err
		}
		return o, nil
	case <-time.After(lookupTimeout):
		o.Close()
		return nil, ErrTimeout
	case <-ctx.Done():
		o.Close()
		return nil, ErrCancelled
	}
}

func (o *Observer) readLoop() {
	buf := make([]byte, recvBufferSize)
	for {
		n, _, _, err := o.sock.RecvFrom(buf)
		if err != nil {
			select {
			case o.ioErr <- fmt.Errorf("%w: %w", ErrSocketIO, err):
			case <-o.closed:
			}
			return
		}

		pkt, err := wire.Decode(buf[:n])
		if err != nil {
			o.log.Debugw("dropping short control packet", "bytes", n, "err", err)
			continue
		}

		select {
		case o.pkts <- pkt:
		case <-o.closed:
			return
		}
	}
}

func (o *Observer) run() {
	defer close(o.done)

	quiescence := time.NewTimer(PublishDebounce)
	defer quiescence.Stop()
	initSignaled := false

	signalInit := func(err error) {
		if initSignaled {
			return
		}
		initSignaled = true
		o.initRes <- err
	}

	for {
		select {
		case <-o.ctx.Done():
			return

		case err := <-o.ioErr:
			o.log.Errorw("control socket failed, observer stopping", "err", err)
			signalInit(err)
			return

		case pkt := <-o.pkts:
			if !initSignaled {
				if !quiescence.Stop() {
					select {
					case <-quiescence.C:
					default:
					}
				}
				quiescence.Reset(PublishDebounce)
			}
			o.handlePacket(pkt)

		case <-quiescence.C:
			signalInit(nil)

		case id := <-o.debounceCh:
			o.firePublish(id)
		}
	}
}

func (o *Observer) handlePacket(pkt wire.CtrlPacket) {
	switch pkt.Cmd {
	case wire.CmdNewServer:
		o.handleNewServer(pkt)
	case wire.CmdDelServer:
		o.handleDelServer(pkt)
	default:
		o.log.Debugw("dropping unknown control packet", "cmd", pkt.Cmd)
	}
}

func (o *Observer) handleNewServer(pkt wire.CtrlPacket) {
	id := NodeID(pkt.Node)
	svc := ServiceID(pkt.Service)

	o.dir.InsertService(id, pkt.Port, svc, pkt.Version(), pkt.InstanceID())
	if o.metrics != nil {
		o.metrics.serviceAdded(o.ctx)
	}
	o.subs.dispatch(ServiceAdded{Node: id, Service: svc})

	if !o.dir.IsPublished(id) {
		o.armDebounce(id)
	}
}

func (o *Observer) handleDelServer(pkt wire.CtrlPacket) {
	id := NodeID(pkt.Node)
	svc := ServiceID(pkt.Service)

	_, empty, ok := o.dir.RemoveService(id, pkt.Port)
	if !ok {
		o.log.Warnw("DEL_SERVER for unknown node/port", "node", id, "port", pkt.Port)
		return
	}
	if o.metrics != nil {
		o.metrics.serviceRemoved(o.ctx)
	}
	o.subs.dispatch(ServiceRemoved{Node: id, Service: svc})

	if !empty {
		return
	}

	if o.dir.IsPublished(id) {
		if changed, _ := o.dir.SetPublished(id, false); changed {
			if o.metrics != nil {
				o.metrics.nodeUnpublished(o.ctx)
			}
			o.subs.dispatch(NodeRemoved{Node: id})
		}
	}
	if t, ok := o.timers[id]; ok {
		t.Stop()
		delete(o.timers, id)
	}
	o.dir.Remove(id)
}

func (o *Observer) armDebounce(id NodeID) {
	if t, ok := o.timers[id]; ok {
		t.Reset(PublishDebounce)
		return
	}
	o.timers[id] = time.AfterFunc(PublishDebounce, func() {
		select {
		case o.debounceCh <- id:
		case <-o.closed:
		}
	})
}

func (o *Observer) firePublish(id NodeID) {
	delete(o.timers, id)

	if !o.dir.Exists(id) {
		return // removed (or never existed) before the debounce fired
	}
	changed, err := o.dir.SetPublished(id, true)
	if err != nil || !changed {
		return
	}
	if o.metrics != nil {
		o.metrics.nodePublished(o.ctx)
	}
	o.waiters.notify(id)
	o.subs.dispatch(NodeAdded{Node: id})
}

// GetNode returns a snapshot of node id, or false if it is unknown or not
// yet published.
func (o *Observer) GetNode(id NodeID) (Node, bool) {
	v, ok := o.dir.Lookup(id)
	if !ok {
		return Node{}, false
	}
	return newNode(v), true
}

// PeekNode is an alias for GetNode: spec.md names both, with identical
// semantics (a published-only, non-blocking lookup).
func (o *Observer) PeekNode(id NodeID) (Node, bool) { return o.GetNode(id) }

// EnumerateNodes returns the ids of all currently published nodes.
func (o *Observer) EnumerateNodes() []NodeID { return o.dir.EnumerateNodes() }

// LookupPort returns the port of the highest-version entry for service
// on node, or false if the node does not export it.
func (o *Observer) LookupPort(node NodeID, service ServiceID) (uint32, bool) {
	return o.dir.LookupPort(node, service)
}

// LookupService returns the service id hosted at (node, port), or false
// if none.
func (o *Observer) LookupService(node NodeID, port uint32) (ServiceID, bool) {
	return o.dir.LookupService(node, port)
}

// WaitForNode blocks until node id is published, ctx is done, or the
// Observer is closed. A zero-deadline ctx (context.Background, or one
// built with context.WithCancel but no timeout) waits indefinitely until
// cancel or publish — the idiomatic stand-in for spec.md's
// (timeout_ms=0, cancel) pair.
func (o *Observer) WaitForNode(ctx context.Context, id NodeID) (Node, error) {
	select {
	case <-o.done:
		return Node{}, ErrClosed
	default:
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-o.done:
			cancel()
		case <-waitCtx.Done():
		}
	}()

	n, err := o.waiters.wait(waitCtx, o.dir, id)
	if err != nil && ctx.Err() == nil {
		return Node{}, ErrClosed
	}
	return n, err
}

// Subscribe registers handler for events of kind, invoked synchronously
// on the Observer's run loop (so handlers must not block or call back
// into the Observer). Returns a token for Unsubscribe.
func (o *Observer) Subscribe(kind EventKind, handler func(Event)) SubscriptionToken {
	return o.subs.add(kind, handler)
}

// Unsubscribe removes a handler previously registered with Subscribe.
func (o *Observer) Unsubscribe(token SubscriptionToken) {
	o.subs.remove(token)
}

// Close stops decoding and releases the control socket. The directory is
// retained at its last-known state; subsequent lookups keep returning it
// but no further updates will occur.
func (o *Observer) Close() error {
	var err error
	o.closeOnce.Do(func() {
		close(o.closed)
		o.cancel()
		err = o.sock.Close()
		<-o.done
	})
	return err
}
