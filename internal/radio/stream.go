package radio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"sync/atomic"
	"time"
)

// closeOnce wraps a channel with sync.Once to prevent double-close panics.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() {
	c.once.Do(func() { close(c.ch) })
}

func (c *closeOnce) Done() <-chan struct{} {
	return c.ch
}

// Default timeouts and buffer sizes for the radio stream.
const (
	// defaultConnectTimeout is the maximum time to wait for the TCP dial.
	defaultConnectTimeout = 10 * time.Second

	// defaultReadTimeout bounds a single blocking read. Idle timeouts are
	// normal on a quiet mesh and simply restart the read.
	defaultReadTimeout = 30 * time.Second

	// defaultWriteTimeout bounds a single frame write.
	defaultWriteTimeout = 5 * time.Second

	// defaultQueueSize is the buffer of the decoded envelope channel.
	defaultQueueSize = 64
)

// StreamConfig holds radio stream connection configuration.
type StreamConfig struct {
	// Address is the radio connection URL, e.g. "tcp://192.168.1.20:4403".
	Address string

	// ConnectTimeout is the maximum time to wait for the dial.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// ReadTimeout is the timeout for individual read operations.
	// Default: 30 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for frame writes.
	// Default: 5 seconds.
	WriteTimeout time.Duration

	// QueueSize is the decoded envelope channel buffer. Default: 64.
	QueueSize int
}

// StreamStats holds operational statistics for a stream.
type StreamStats struct {
	FramesRx      uint64
	FramesTx      uint64
	FramesDropped uint64 // decoded frames dropped because the queue was full
	ResyncBytes   uint64 // bytes discarded while hunting for frame magic
	DecodeErrors  uint64
	LastActivity  time.Time
	Connected     bool
}

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// TCPStream is a framed envelope stream over a TCP connection to a radio.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
//   - Decoded envelopes are delivered on the Packets channel by a single
//     receive goroutine; the channel is closed when the connection ends.
//
// There is no automatic reconnection: when the connection drops, the
// Packets channel closes and the owner decides whether to dial again.
type TCPStream struct {
	cfg  StreamConfig
	conn net.Conn

	connMu    sync.RWMutex
	connected bool

	writeMu sync.Mutex

	packets chan *FromRadio

	done *closeOnce
	wg   sync.WaitGroup

	logger Logger

	framesRx      atomic.Uint64
	framesTx      atomic.Uint64
	framesDropped atomic.Uint64
	resyncBytes   atomic.Uint64
	decodeErrors  atomic.Uint64
	lastActivity  atomic.Int64 // Unix timestamp
}

// Dial connects to a radio and starts the receive loop.
//
// The address URL determines the transport:
//   - "tcp://host:port" → TCP socket
//
// Parameters:
//   - ctx: Context for cancellation (used for the dial)
//   - cfg: Connection configuration
//   - logger: Optional logger; may be nil
//
// Returns:
//   - *TCPStream: Connected stream ready for use
//   - error: If the dial fails
func Dial(ctx context.Context, cfg StreamConfig, logger Logger) (*TCPStream, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = defaultQueueSize
	}

	network, address, err := parseAddressURL(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	dialCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, network, address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial failed: %w", ErrConnectionFailed, err)
	}

	s := &TCPStream{
		cfg:     cfg,
		conn:    conn,
		packets: make(chan *FromRadio, cfg.QueueSize),
		done:    newCloseOnce(),
		logger:  logger,
	}
	s.connected = true
	s.lastActivity.Store(time.Now().Unix())

	s.wg.Add(1)
	go s.receiveLoop()

	return s, nil
}

// parseAddressURL parses a radio connection URL into network and address.
func parseAddressURL(raw string) (network, address string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "tcp":
		if u.Host == "" {
			return "", "", fmt.Errorf("missing host in %q", raw)
		}
		return "tcp", u.Host, nil
	default:
		return "", "", fmt.Errorf("unsupported scheme %q (use tcp)", u.Scheme)
	}
}

// Packets returns the decoded inbound envelope channel. The channel closes
// when the connection ends, whether via Close or a fatal read error.
func (s *TCPStream) Packets() <-chan *FromRadio {
	return s.packets
}

// receiveLoop reads and decodes frames until the connection ends.
func (s *TCPStream) receiveLoop() {
	defer s.wg.Done()
	defer close(s.packets)

	header := make([]byte, frameHeaderLen)
	body := make([]byte, MaxFrameBody)

	for {
		select {
		case <-s.done.Done():
			return
		default:
		}

		env, err := s.readEnvelope(header, body)
		if err != nil {
			if s.isClosed() {
				return
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue // idle mesh, keep waiting
			}
			s.logError("read failed, closing stream", err)
			s.markDisconnected()
			return
		}
		if env == nil {
			continue // recoverable decode problem, already counted
		}

		s.framesRx.Add(1)
		s.lastActivity.Store(time.Now().Unix())

		select {
		case s.packets <- env:
		default:
			// Queue full: drop rather than stall the socket.
			s.framesDropped.Add(1)
			s.logError("packet queue full, dropping envelope", nil)
		}
	}
}

// readEnvelope reads one frame and decodes its body. A nil envelope with a
// nil error means the frame was unusable but the stream is still healthy.
func (s *TCPStream) readEnvelope(header, body []byte) (*FromRadio, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	// Hunt for the two magic bytes. Serial debug output and torn frames
	// put arbitrary bytes on the wire; scanning realigns the stream.
	if err := s.seekMagic(header); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(s.conn, header[2:frameHeaderLen]); err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}

	n := int(binary.BigEndian.Uint16(header[2:frameHeaderLen]))
	if n > MaxFrameBody {
		// Length is implausible: treat the header as garbage and rescan.
		s.decodeErrors.Add(1)
		s.resyncBytes.Add(uint64(frameHeaderLen))
		return nil, nil
	}

	if _, err := io.ReadFull(s.conn, body[:n]); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	env, err := UnmarshalFromRadio(body[:n])
	if err != nil {
		s.decodeErrors.Add(1)
		s.logError("decode envelope failed", err)
		return nil, nil // recoverable, framing is still aligned
	}
	return env, nil
}

// seekMagic consumes bytes until the frame magic is found, leaving the two
// magic bytes in header[:2].
func (s *TCPStream) seekMagic(header []byte) error {
	b := header[:1]
	for {
		if _, err := io.ReadFull(s.conn, b); err != nil {
			return fmt.Errorf("read magic: %w", err)
		}
		if b[0] != frameMagic0 {
			s.resyncBytes.Add(1)
			continue
		}
		if _, err := io.ReadFull(s.conn, b); err != nil {
			return fmt.Errorf("read magic: %w", err)
		}
		if b[0] == frameMagic1 {
			header[0] = frameMagic0
			header[1] = frameMagic1
			return nil
		}
		s.resyncBytes.Add(2)
		if b[0] == frameMagic0 {
			// Could be the start of a real frame; check the next byte
			// against the second magic value.
			if _, err := io.ReadFull(s.conn, b); err != nil {
				return fmt.Errorf("read magic: %w", err)
			}
			if b[0] == frameMagic1 {
				header[0] = frameMagic0
				header[1] = frameMagic1
				return nil
			}
			s.resyncBytes.Add(1)
		}
	}
}

// Send encodes and writes one host→radio envelope.
//
// Returns:
//   - error: If the stream is closed or the write fails
func (s *TCPStream) Send(m *ToRadio) error {
	if !s.IsConnected() {
		return ErrNotConnected
	}

	frame, err := EncodeFrame(MarshalToRadio(m))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("%w: set deadline: %w", ErrSendFailed, err)
	}
	if _, err := s.conn.Write(frame); err != nil {
		return fmt.Errorf("%w: write: %w", ErrSendFailed, err)
	}

	s.framesTx.Add(1)
	s.lastActivity.Store(time.Now().Unix())
	return nil
}

func (s *TCPStream) markDisconnected() {
	s.connMu.Lock()
	s.connected = false
	s.connMu.Unlock()
}

// isClosed returns true if the stream has been closed.
func (s *TCPStream) isClosed() bool {
	select {
	case <-s.done.Done():
		return true
	default:
		return false
	}
}

// IsConnected returns true while the connection is healthy.
func (s *TCPStream) IsConnected() bool {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.connected
}

// Stats returns current operational statistics.
func (s *TCPStream) Stats() StreamStats {
	return StreamStats{
		FramesRx:      s.framesRx.Load(),
		FramesTx:      s.framesTx.Load(),
		FramesDropped: s.framesDropped.Load(),
		ResyncBytes:   s.resyncBytes.Load(),
		DecodeErrors:  s.decodeErrors.Load(),
		LastActivity:  time.Unix(s.lastActivity.Load(), 0),
		Connected:     s.IsConnected(),
	}
}

// Close shuts the stream down. Safe to call multiple times.
//
// Returns:
//   - error: nil (closing is best-effort)
func (s *TCPStream) Close() error {
	s.done.Close()
	s.markDisconnected()
	if s.conn != nil {
		s.conn.Close() // unblocks any pending read
	}
	s.wg.Wait()
	s.logInfo("stream closed")
	return nil
}

// logInfo logs an info message if a logger is set.
func (s *TCPStream) logInfo(msg string, keysAndValues ...any) {
	if s.logger != nil {
		s.logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is set.
func (s *TCPStream) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, "error", err)
	}
}
