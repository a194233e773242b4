package qrtr

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/qrtrlink/qrtr-go/internal/sockio"
)

const clientRecvBufSize = 128

// Message is one inbound datagram delivered on a Client's port. Payload
// is a freshly owned copy — safe to retain after the handler returns.
type Message struct {
	Payload []byte
}

// Client is a datagram conduit to one (node, port) service endpoint.
// Grounded on the teacher's pkg/sock.megaSock: a dedicated reader
// goroutine blocking on the socket feeds a buffered channel, Send writes
// straight to the kernel, and Close tears both down via a cancel
// context.
type Client struct {
	log *zap.SugaredLogger

	sock       *sockio.Socket
	node, port uint32

	messages chan Message

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
}

// ClientOption configures a Client at construction time.
type ClientOption func(*clientConfig)

type clientConfig struct {
	log *zap.SugaredLogger
}

// WithClientLogger overrides the zap logger a Client uses; default is
// zap.S().Named("qrtr.client").
func WithClientLogger(log *zap.SugaredLogger) ClientOption {
	return func(c *clientConfig) { c.log = log }
}

// Open creates an AF_QIPCRTR datagram socket, binds it to a kernel-assigned
// local port so its read loop can receive, and fixes its remote address to
// (node, port). It does not verify the peer exists or is
// reachable — that is discovered on first Send/RecvFrom, matching QRTR's
// connectionless semantics.
func Open(node NodeID, port uint32, opts ...ClientOption) (*Client, error) {
	cfg := clientConfig{log: zap.S().Named("qrtr.client")}
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

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		log:      cfg.log,
		sock:     sock,
		node:     uint32(node),
		port:     port,
		messages: make(chan Message, clientRecvBufSize),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go c.readLoop()

	return c, nil
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer close(c.messages)

	buf := make([]byte, recvBufferSize)
	for {
		n, _, _, err := c.sock.RecvFrom(buf)
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			c.log.Debugw("client recv failed", "node", c.node, "port", c.port, "err", err)
			return
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])

		select {
		case c.messages <- Message{Payload: payload}:
		case <-c.ctx.Done():
			return
		}
	}
}

// Send writes the entirety of payload as one datagram to the client's
// remote (node, port). The buffer is not framed or fragmented; it is the
// caller's responsibility to keep it within the bus's datagram limits.
func (c *Client) Send(ctx context.Context, payload []byte) error {
	select {
	case <-ctx.Done():
		return ErrCancelled
	default:
	}

	if err := c.sock.SendTo(payload, c.node, c.port); err != nil {
		return fmt.Errorf("%w: %w", ErrSocketIO, err)
	}
	return nil
}

// Messages returns the channel inbound datagrams are delivered on. It is
// closed once the client's socket is closed or its read loop errors.
func (c *Client) Messages() <-chan Message { return c.messages }

// Close releases the client's socket and stops delivering messages.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.sock.Close()
		<-c.done
	})
	return err
}
