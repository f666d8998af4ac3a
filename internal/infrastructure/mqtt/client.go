package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/rfmesh/rfmesh-core/internal/infrastructure/config"
)

// Client is the daemon's link to the MQTT broker. It wraps a paho
// connection with the behaviour the gateway needs: a retained status
// topic with a last-will fallback, subscription replay after a broker
// outage, and panic isolation around inbound handlers.
//
// All methods are safe for concurrent use.
type Client struct {
	paho pahomqtt.Client
	cfg  config.MQTTConfig

	mu           sync.RWMutex // guards connected, callbacks, logger
	connected    bool
	onConnect    func()
	onDisconnect func(err error)
	logger       Logger

	subMu sync.RWMutex
	subs  map[string]route
}

// Logger is the slice of logging.Logger this package uses. Satisfied by
// *slog.Logger as well.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// route is a tracked subscription, replayed on every reconnect.
type route struct {
	qos     byte
	handler MessageHandler
}

// MessageHandler receives inbound messages. Paho invokes handlers on its
// own goroutines; a returned error is logged, not redelivered, and must
// not be used for flow control.
type MessageHandler func(topic string, payload []byte) error

// Connect dials the broker and announces the daemon on the retained
// status topic. The connection keeps itself alive afterwards: paho
// reconnects with backoff and the client replays its subscriptions on
// every reconnect, so a broker restart is invisible to callers.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{
		cfg:  cfg,
		subs: make(map[string]route),
	}

	opts := pahoOptions(cfg)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.online() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.offline(err) })

	c.paho = pahomqtt.NewClient(opts)
	token := c.paho.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: no broker response within %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnect callback fires asynchronously and may not have run
	// yet; mark connected here so IsConnected holds as soon as Connect
	// returns.
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	return c, nil
}

// online runs on every (re)connect: replay subscriptions, publish the
// online status, then hand control to the owner's callback.
func (c *Client) online() {
	c.mu.Lock()
	c.connected = true
	cb := c.onConnect
	c.mu.Unlock()

	c.subMu.RLock()
	for topic, r := range c.subs {
		// Errors here are left to the next reconnect cycle.
		c.paho.Subscribe(topic, r.qos, c.dispatch(r.handler))
	}
	c.subMu.RUnlock()

	c.paho.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true,
		statusPayload(c.cfg.Broker.ClientID, "online", ""))

	if cb != nil {
		cb()
	}
}

// offline runs when paho loses the connection.
func (c *Client) offline(err error) {
	c.mu.Lock()
	c.connected = false
	cb := c.onDisconnect
	c.mu.Unlock()

	if cb != nil {
		cb(err)
	}
}

// Close publishes a graceful offline status, distinct from the last will
// the broker would publish on an unclean exit, then disconnects. Closing
// a never-connected client is a no-op.
func (c *Client) Close() error {
	if c.paho == nil {
		return nil
	}

	if c.IsConnected() {
		token := c.paho.Publish(Topics{}.SystemStatus(), byte(c.cfg.QoS), true,
			statusPayload(c.cfg.Broker.ClientID, "offline", "graceful_shutdown"))
		token.WaitTimeout(opTimeout)
	}

	c.paho.Disconnect(disconnectQuiesceMs)

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	return nil
}

// HealthCheck reports whether the broker link is up.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports the link state as of the last paho callback.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.paho.IsConnected()
}

// SetOnConnect registers a callback invoked on the initial connect and
// after every reconnect.
func (c *Client) SetOnConnect(callback func()) {
	c.mu.Lock()
	c.onConnect = callback
	c.mu.Unlock()
}

// SetOnDisconnect registers a callback invoked when the connection drops,
// with the error that killed it.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.mu.Lock()
	c.onDisconnect = callback
	c.mu.Unlock()
}

// SetLogger routes handler errors and panics somewhere visible. Without
// one they are swallowed.
func (c *Client) SetLogger(logger Logger) {
	c.mu.Lock()
	c.logger = logger
	c.mu.Unlock()
}

func (c *Client) log() Logger {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logger
}
