package uplink

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rfmesh/rfmesh-core/internal/infrastructure/mqtt"
	"github.com/rfmesh/rfmesh-core/internal/mesh"
	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// defaultQueueSize buffers events between the ingestion goroutine and the
// uplink worker.
const defaultQueueSize = 256

// Sentinel errors for the uplink package.
var (
	ErrNoPublisher    = errors.New("uplink: Options.Publisher is required")
	ErrAlreadyStarted = errors.New("uplink: already started")
	ErrInvalidCommand = errors.New("uplink: invalid command payload")
)

// Publisher is the MQTT surface the uplink needs. Implemented by
// *mqtt.Client; tests substitute a fake.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// MetricsWriter is the time-series surface the uplink needs. Implemented
// by *influxdb.Client. Writes are fire-and-forget.
type MetricsWriter interface {
	WriteNodeTelemetry(nodeID string, battery uint32, voltage, channelUtil, airUtilTx float64)
	WriteSignalMetric(nodeID string, snr float64, rssi int32)
	WriteEnvironmentMetric(nodeID string, metricName string, value float64)
	WritePoint(measurement string, tags map[string]string, fields map[string]interface{})
}

// TextSender sends a text message into the mesh. Implemented by
// *mesh.Client.
type TextSender interface {
	SendText(text string, dest uint32, channel uint32) error
}

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

// Options configures an Uplink.
type Options struct {
	// Publisher delivers MQTT messages. Required.
	Publisher Publisher

	// Metrics receives time-series points. Optional.
	Metrics MetricsWriter

	// Sender handles send_text commands received over MQTT. Optional;
	// without it the command topic is not subscribed.
	Sender TextSender

	// Logger receives structured log output. Optional.
	Logger Logger

	// QoS for published messages. Default: 1.
	QoS byte

	// QueueSize bounds the event queue. Default: 256.
	QueueSize int
}

// Stats holds uplink operational counters.
type Stats struct {
	Published uint64 // MQTT messages published
	Dropped   uint64 // events dropped because the queue was full
	Failed    uint64 // publishes that returned an error
}

// Uplink mirrors mesh state onto MQTT and InfluxDB. It implements
// mesh.EventSink; pass it as Options.Events when building the mesh client.
//
// Thread Safety: all methods are safe for concurrent use.
type Uplink struct {
	pub     Publisher
	metrics MetricsWriter
	sender  TextSender
	logger  Logger
	qos     byte
	topics  mqtt.Topics

	jobs   chan func()
	closed chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	started   atomic.Bool

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// New creates an uplink. Start must be called before events flow.
func New(opts Options) (*Uplink, error) {
	if opts.Publisher == nil {
		return nil, ErrNoPublisher
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	qos := opts.QoS
	if qos == 0 {
		qos = 1
	}
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	return &Uplink{
		pub:     opts.Publisher,
		metrics: opts.Metrics,
		sender:  opts.Sender,
		logger:  logger,
		qos:     qos,
		jobs:    make(chan func(), queueSize),
		closed:  make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start launches the worker and, when a sender is configured, subscribes
// to the send_text command topic.
func (u *Uplink) Start() error {
	if !u.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	if u.sender != nil {
		topic := u.topics.SendText()
		if err := u.pub.Subscribe(topic, u.qos, u.handleSendText); err != nil {
			u.started.Store(false)
			return fmt.Errorf("uplink: subscribe %s: %w", topic, err)
		}
	}

	go u.run()
	u.logger.Info("uplink started")
	return nil
}

// Close stops the worker. Events arriving after Close are discarded.
// Safe to call multiple times.
func (u *Uplink) Close() {
	u.closeOnce.Do(func() {
		close(u.closed)
		if u.started.Load() {
			<-u.done
		}
	})
}

// GetStats returns a snapshot of the operational counters.
func (u *Uplink) GetStats() Stats {
	return Stats{
		Published: u.published.Load(),
		Dropped:   u.dropped.Load(),
		Failed:    u.failed.Load(),
	}
}

// run is the worker loop. It owns all broker and database round-trips.
func (u *Uplink) run() {
	defer close(u.done)
	for {
		select {
		case <-u.closed:
			return
		case job := <-u.jobs:
			job()
		}
	}
}

// enqueue hands a job to the worker without blocking the caller.
func (u *Uplink) enqueue(job func()) {
	select {
	case <-u.closed:
	case u.jobs <- job:
	default:
		u.dropped.Add(1)
	}
}

// publish delivers a payload to the broker, tracking counters.
func (u *Uplink) publish(topic string, payload []byte, retained bool) {
	if err := u.pub.Publish(topic, payload, u.qos, retained); err != nil {
		u.failed.Add(1)
		u.logger.Warn("uplink publish failed", "topic", topic, "error", err)
		return
	}
	u.published.Add(1)
}

// parseNodeID parses the canonical "!%08x" node identifier.
func parseNodeID(id string) (uint32, error) {
	if len(id) != 9 || id[0] != '!' {
		return 0, fmt.Errorf("%w: node id %q", ErrInvalidCommand, id)
	}
	n, err := strconv.ParseUint(id[1:], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: node id %q", ErrInvalidCommand, id)
	}
	return uint32(n), nil
}

// handleSendText processes a send_text command from MQTT.
//
// Payload: {"to": "!0a0b0c0d", "channel": 0, "text": "hello"}
// An empty or missing "to" broadcasts.
func (u *Uplink) handleSendText(_ string, payload []byte) error {
	var cmd sendTextCommand
	if err := unmarshalCommand(payload, &cmd); err != nil {
		u.logger.Warn("uplink bad send_text payload", "error", err)
		return err
	}

	dest := radio.Broadcast
	if cmd.To != "" {
		num, err := parseNodeID(cmd.To)
		if err != nil {
			u.logger.Warn("uplink bad send_text destination", "to", cmd.To)
			return err
		}
		dest = num
	}

	if err := u.sender.SendText(cmd.Text, dest, cmd.Channel); err != nil {
		u.logger.Warn("uplink send_text failed", "error", err)
		return fmt.Errorf("uplink: send_text: %w", err)
	}

	u.logger.Debug("uplink relayed send_text", "to", cmd.To, "channel", cmd.Channel)
	return nil
}

// PublishStats publishes a mesh summary to the stats topic and records a
// mesh_stats point. Called periodically by the daemon; unlike the event
// callbacks this runs on the caller's goroutine.
func (u *Uplink) PublishStats(gatewayID string, stats mesh.NetworkStats) {
	payload, err := marshalStats(stats)
	if err != nil {
		u.logger.Error("uplink marshal stats", "error", err)
		return
	}
	u.publish(u.topics.MeshStats(), payload, true)

	if u.metrics != nil {
		u.metrics.WritePoint(
			"mesh_stats",
			map[string]string{"gateway": gatewayID},
			map[string]interface{}{
				"total_nodes":  stats.TotalNodes,
				"active_nodes": stats.ActiveNodes,
				"direct_nodes": stats.DirectNodes,
				"average_snr":  float64(stats.AverageSNR),
			},
		)
	}
}
