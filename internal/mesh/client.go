package mesh

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// Default intervals for the client.
const (
	// defaultHandshakeTimeout bounds the initial state dump replay.
	defaultHandshakeTimeout = 15 * time.Second

	// divertQueueSize buffers envelopes for a taken receiver.
	divertQueueSize = 64
)

// Stream is the framed envelope transport to a radio. Implemented by
// radio.TCPStream; tests substitute an in-memory fake.
type Stream interface {
	Packets() <-chan *radio.FromRadio
	Send(*radio.ToRadio) error
	IsConnected() bool
	Close() error
}

// Dialer opens a stream to the radio.
type Dialer func(ctx context.Context) (Stream, error)

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// noopLogger discards all log output.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Client.
type Options struct {
	// Dial opens the transport. Required.
	Dial Dialer

	// Logger receives structured log output. Optional.
	Logger Logger

	// IDs yields outbound packet identifiers. Optional; defaults to the
	// random source. Tests inject a deterministic one.
	IDs radio.IDSource

	// Events receives ingestion notifications. Optional; defaults to
	// NoopEvents.
	Events EventSink

	// HandshakeTimeout bounds the initial state dump. Default: 15s.
	HandshakeTimeout time.Duration
}

// Stats holds client operational counters.
type Stats struct {
	PacketsIngested uint64
	AcksResolved    uint64
	RoutesResolved  uint64
	UnknownDropped  uint64 // decoded packets on ports nobody handles
	DivertDropped   uint64 // envelopes dropped because the taken receiver lagged
	PendingAcks     int
	PendingRoutes   int
	Connected       bool
}

// Client synchronizes a local cache with a mesh radio and provides the
// operation surface on top of it.
//
// Thread Safety: all methods are safe for concurrent use.
type Client struct {
	opts   Options
	logger Logger
	ids    radio.IDSource
	events EventSink

	connectMu sync.Mutex // serializes Connect/Disconnect

	mu        sync.RWMutex
	stream    Stream
	connected bool
	loopDone  chan struct{}

	state  *stateStore
	acks   *pending[bool]
	routes *pending[[]RouteHop]

	passkeyMu sync.RWMutex
	passkey   []byte

	divertMu      sync.Mutex
	divert        chan *radio.FromRadio
	receiverTaken bool

	packetsIngested atomic.Uint64
	acksResolved    atomic.Uint64
	routesResolved  atomic.Uint64
	unknownDropped  atomic.Uint64
	divertDropped   atomic.Uint64
}

// NewClient creates a client. Connect must be called before any operation.
func NewClient(opts Options) (*Client, error) {
	if opts.Dial == nil {
		return nil, fmt.Errorf("mesh: Options.Dial is required")
	}
	if opts.HandshakeTimeout == 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}

	c := &Client{
		opts:   opts,
		logger: opts.Logger,
		ids:    opts.IDs,
		events: opts.Events,
		state:  newStateStore(),
		acks:   newPending[bool](),
		routes: newPending[[]RouteHop](),
	}
	if c.logger == nil {
		c.logger = noopLogger{}
	}
	if c.ids == nil {
		c.ids = radio.NewIDSource()
	}
	if c.events == nil {
		c.events = NoopEvents{}
	}
	return c, nil
}

// Connect dials the radio, replays its state dump, and starts the
// ingestion loop.
//
// The handshake sends a want-config nonce and ingests everything the radio
// replays (node database, channels, config categories) until the radio
// echoes the nonce back. Only then is the client connected; the cache is
// guaranteed to hold the radio's view of the mesh.
//
// Returns:
//   - error: ErrAlreadyConnected, dial failure, or ErrHandshakeFailed
func (c *Client) Connect(ctx context.Context) error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	if c.IsConnected() {
		return ErrAlreadyConnected
	}
	if ctx == nil {
		ctx = context.Background()
	}

	stream, err := c.opts.Dial(ctx)
	if err != nil {
		return fmt.Errorf("mesh: dial: %w", err)
	}

	c.state.reset()
	c.setPasskey(nil)

	nonce := c.ids.Next()
	if err := stream.Send(&radio.ToRadio{WantConfigID: &nonce}); err != nil {
		stream.Close()
		return fmt.Errorf("%w: want-config send: %w", ErrHandshakeFailed, err)
	}

	if err := c.awaitConfigComplete(ctx, stream, nonce); err != nil {
		stream.Close()
		return err
	}

	loopDone := make(chan struct{})
	c.mu.Lock()
	c.stream = stream
	c.connected = true
	c.loopDone = loopDone
	c.mu.Unlock()

	c.divertMu.Lock()
	c.divert = nil
	c.receiverTaken = false
	c.divertMu.Unlock()

	go c.run(stream, loopDone)

	c.logger.Info("connected to radio",
		"node", NodeID(c.state.myNodeNum()),
		"nodes_known", len(c.state.snapshot().Nodes))
	return nil
}

// awaitConfigComplete ingests the initial state dump until the radio
// echoes the handshake nonce.
func (c *Client) awaitConfigComplete(ctx context.Context, stream Stream, nonce uint32) error {
	timer := time.NewTimer(c.opts.HandshakeTimeout)
	defer timer.Stop()

	for {
		select {
		case env, ok := <-stream.Packets():
			if !ok {
				return fmt.Errorf("%w: stream closed during state dump", ErrHandshakeFailed)
			}
			c.ingest(env)
			if env.ConfigCompleteID != nil && *env.ConfigCompleteID == nonce {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("%w: no config-complete within %s",
				ErrHandshakeFailed, c.opts.HandshakeTimeout)
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrHandshakeFailed, ctx.Err())
		}
	}
}

// Disconnect tells the radio the host is leaving and tears the connection
// down. Safe to call when not connected.
func (c *Client) Disconnect() error {
	c.connectMu.Lock()
	defer c.connectMu.Unlock()

	c.mu.Lock()
	stream := c.stream
	loopDone := c.loopDone
	c.stream = nil
	c.connected = false
	c.mu.Unlock()

	if stream == nil {
		return nil
	}

	// Best effort: the radio drops the session either way.
	if err := stream.Send(&radio.ToRadio{Disconnect: true}); err != nil {
		c.logger.Debug("disconnect notify failed", "error", err)
	}
	stream.Close()
	if loopDone != nil {
		<-loopDone
	}

	c.setPasskey(nil)
	c.logger.Info("disconnected from radio")
	return nil
}

// IsConnected reports whether the client holds a live connection.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.stream != nil && c.stream.IsConnected()
}

// DeviceState returns a deep-copied snapshot of the cache. The caller may
// mutate it freely.
func (c *Client) DeviceState() *DeviceState {
	return c.state.snapshot()
}

// TakeReceiver diverts the raw inbound envelope stream to the caller.
//
// After this call normal ingestion stops: the cache no longer updates and
// correlation slots are no longer resolved until the connection is
// re-established. The channel closes when the connection ends. At most one
// receiver per connection; a second call returns ErrReceiverTaken.
func (c *Client) TakeReceiver() (<-chan *radio.FromRadio, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	c.divertMu.Lock()
	defer c.divertMu.Unlock()
	if c.receiverTaken {
		return nil, ErrReceiverTaken
	}
	c.receiverTaken = true
	c.divert = make(chan *radio.FromRadio, divertQueueSize)
	return c.divert, nil
}

// Stats returns current operational counters.
func (c *Client) Stats() Stats {
	return Stats{
		PacketsIngested: c.packetsIngested.Load(),
		AcksResolved:    c.acksResolved.Load(),
		RoutesResolved:  c.routesResolved.Load(),
		UnknownDropped:  c.unknownDropped.Load(),
		DivertDropped:   c.divertDropped.Load(),
		PendingAcks:     c.acks.size(),
		PendingRoutes:   c.routes.size(),
		Connected:       c.IsConnected(),
	}
}

// currentStream returns the live stream or ErrNotConnected.
func (c *Client) currentStream() (Stream, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected || c.stream == nil {
		return nil, ErrNotConnected
	}
	return c.stream, nil
}

func (c *Client) setPasskey(key []byte) {
	c.passkeyMu.Lock()
	c.passkey = append([]byte(nil), key...)
	c.passkeyMu.Unlock()
}

func (c *Client) sessionPasskey() []byte {
	c.passkeyMu.RLock()
	defer c.passkeyMu.RUnlock()
	return append([]byte(nil), c.passkey...)
}
