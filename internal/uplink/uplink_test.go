package uplink

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/infrastructure/mqtt"
	"github.com/rfmesh/rfmesh-core/internal/mesh"
	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// =============================================================================
// Test Fakes
// =============================================================================

type pubRecord struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// fakePublisher records publishes and subscriptions in memory.
type fakePublisher struct {
	mu         sync.Mutex
	records    []pubRecord
	subs       map[string]mqtt.MessageHandler
	publishErr error
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{subs: make(map[string]mqtt.MessageHandler)}
}

func (f *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return f.publishErr
	}
	f.records = append(f.records, pubRecord{topic, payload, qos, retained})
	return nil
}

func (f *fakePublisher) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[topic] = handler
	return nil
}

func (f *fakePublisher) published() []pubRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]pubRecord, len(f.records))
	copy(out, f.records)
	return out
}

type telemetryRecord struct {
	nodeID   string
	battery  uint32
	voltage  float64
	chanUtil float64
	airUtil  float64
}

type signalRecord struct {
	nodeID string
	snr    float64
	rssi   int32
}

type envRecord struct {
	nodeID string
	metric string
	value  float64
}

type pointRecord struct {
	measurement string
	tags        map[string]string
	fields      map[string]interface{}
}

// fakeMetrics records metric writes in memory.
type fakeMetrics struct {
	mu        sync.Mutex
	telemetry []telemetryRecord
	signals   []signalRecord
	env       []envRecord
	points    []pointRecord
}

func (f *fakeMetrics) WriteNodeTelemetry(nodeID string, battery uint32, voltage, chanUtil, airUtil float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.telemetry = append(f.telemetry, telemetryRecord{nodeID, battery, voltage, chanUtil, airUtil})
}

func (f *fakeMetrics) WriteSignalMetric(nodeID string, snr float64, rssi int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signals = append(f.signals, signalRecord{nodeID, snr, rssi})
}

func (f *fakeMetrics) WriteEnvironmentMetric(nodeID string, metric string, value float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.env = append(f.env, envRecord{nodeID, metric, value})
}

func (f *fakeMetrics) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, pointRecord{measurement, tags, fields})
}

// fakeSender records SendText calls.
type fakeSender struct {
	mu    sync.Mutex
	texts []string
	dests []uint32
	chans []uint32
	err   error
}

func (f *fakeSender) SendText(text string, dest uint32, channel uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.texts = append(f.texts, text)
	f.dests = append(f.dests, dest)
	f.chans = append(f.chans, channel)
	return nil
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func startedUplink(t *testing.T, opts Options) *Uplink {
	t.Helper()
	up, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := up.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(up.Close)
	return up
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestNewRequiresPublisher(t *testing.T) {
	_, err := New(Options{})
	if !errors.Is(err, ErrNoPublisher) {
		t.Fatalf("New() error = %v, want ErrNoPublisher", err)
	}
}

func TestStartTwice(t *testing.T) {
	up := startedUplink(t, Options{Publisher: newFakePublisher()})
	if err := up.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Start() error = %v, want ErrAlreadyStarted", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	up, err := New(Options{Publisher: newFakePublisher()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := up.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	up.Close()
	up.Close() // must not panic or block
}

func TestStartWithoutSenderSkipsCommandTopic(t *testing.T) {
	pub := newFakePublisher()
	startedUplink(t, Options{Publisher: pub})

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.subs) != 0 {
		t.Errorf("subscriptions = %d, want 0 without a sender", len(pub.subs))
	}
}

// =============================================================================
// Event Publishing Tests
// =============================================================================

func TestNodeUpdated(t *testing.T) {
	pub := newFakePublisher()
	metrics := &fakeMetrics{}
	up := startedUplink(t, Options{Publisher: pub, Metrics: metrics})

	up.NodeUpdated(&radio.NodeInfo{
		Num:       0x22222222,
		User:      &radio.User{LongName: "Ridge Repeater", ShortName: "RR", HwModel: radio.HardwareRAK4631},
		SNR:       8.5,
		LastHeard: 1700000000,
		HopsAway:  0,
	})

	waitFor(t, func() bool { return len(pub.published()) == 1 })
	rec := pub.published()[0]

	if rec.topic != "rfmesh/nodes/!22222222/info" {
		t.Errorf("topic = %q", rec.topic)
	}
	if !rec.retained {
		t.Error("node info should be retained")
	}

	var p map[string]interface{}
	if err := json.Unmarshal(rec.payload, &p); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if p["node_id"] != "!22222222" || p["long_name"] != "Ridge Repeater" {
		t.Errorf("payload = %s", rec.payload)
	}
	if p["hw_model"] != "RAK4631" {
		t.Errorf("hw_model = %v", p["hw_model"])
	}

	// SNR should also land as a signal point
	waitFor(t, func() bool {
		metrics.mu.Lock()
		defer metrics.mu.Unlock()
		return len(metrics.signals) == 1
	})
	metrics.mu.Lock()
	sig := metrics.signals[0]
	metrics.mu.Unlock()
	if sig.nodeID != "!22222222" || sig.snr != 8.5 {
		t.Errorf("signal = %+v", sig)
	}
}

func TestPositionUpdated(t *testing.T) {
	pub := newFakePublisher()
	up := startedUplink(t, Options{Publisher: pub})

	lat := int32(515074000)
	lon := int32(-1278000)
	up.PositionUpdated(0x22222222, &radio.Position{
		LatitudeI:  &lat,
		LongitudeI: &lon,
		Altitude:   35,
		Time:       1700000000,
	})

	waitFor(t, func() bool { return len(pub.published()) == 1 })
	rec := pub.published()[0]

	if rec.topic != "rfmesh/nodes/!22222222/position" {
		t.Errorf("topic = %q", rec.topic)
	}
	if !rec.retained {
		t.Error("position should be retained")
	}

	var p positionPayload
	if err := json.Unmarshal(rec.payload, &p); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if p.Latitude == nil || *p.Latitude != 51.5074 {
		t.Errorf("latitude = %v", p.Latitude)
	}
	if p.Longitude == nil || *p.Longitude != -0.1278 {
		t.Errorf("longitude = %v", p.Longitude)
	}
	if p.Altitude != 35 {
		t.Errorf("altitude = %d", p.Altitude)
	}
}

func TestPositionUpdatedNoFix(t *testing.T) {
	pub := newFakePublisher()
	up := startedUplink(t, Options{Publisher: pub})

	up.PositionUpdated(0x33333333, &radio.Position{Time: 1700000000})

	waitFor(t, func() bool { return len(pub.published()) == 1 })

	var p map[string]interface{}
	if err := json.Unmarshal(pub.published()[0].payload, &p); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if _, ok := p["latitude"]; ok {
		t.Error("latitude should be omitted without a fix")
	}
	if _, ok := p["longitude"]; ok {
		t.Error("longitude should be omitted without a fix")
	}
}

func TestTelemetryUpdated(t *testing.T) {
	pub := newFakePublisher()
	metrics := &fakeMetrics{}
	up := startedUplink(t, Options{Publisher: pub, Metrics: metrics})

	up.TelemetryUpdated(0x22222222, &radio.Telemetry{
		Time: 1700000000,
		Device: &radio.DeviceMetrics{
			BatteryLevel:       92,
			Voltage:            4.01,
			ChannelUtilization: 12.5,
			AirUtilTx:          3.2,
		},
	})

	waitFor(t, func() bool { return len(pub.published()) == 1 })
	rec := pub.published()[0]

	if rec.topic != "rfmesh/nodes/!22222222/telemetry" {
		t.Errorf("topic = %q", rec.topic)
	}
	if !rec.retained {
		t.Error("telemetry should be retained")
	}

	var p telemetryPayload
	if err := json.Unmarshal(rec.payload, &p); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if p.Device == nil || p.Device.BatteryLevel != 92 {
		t.Errorf("payload = %s", rec.payload)
	}

	waitFor(t, func() bool {
		metrics.mu.Lock()
		defer metrics.mu.Unlock()
		return len(metrics.telemetry) == 1
	})
	metrics.mu.Lock()
	tel := metrics.telemetry[0]
	metrics.mu.Unlock()
	if tel.nodeID != "!22222222" || tel.battery != 92 {
		t.Errorf("telemetry point = %+v", tel)
	}
}

func TestTelemetryUpdatedEnvironment(t *testing.T) {
	pub := newFakePublisher()
	metrics := &fakeMetrics{}
	up := startedUplink(t, Options{Publisher: pub, Metrics: metrics})

	up.TelemetryUpdated(0x33333333, &radio.Telemetry{
		Time: 1700000000,
		Environment: &radio.EnvironmentMetrics{
			Temperature:        21.5,
			BarometricPressure: 1013.2,
			// RelativeHumidity zero: sensor absent, no point written
		},
	})

	waitFor(t, func() bool {
		metrics.mu.Lock()
		defer metrics.mu.Unlock()
		return len(metrics.env) == 2
	})

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if metrics.env[0].metric != "temperature_c" || metrics.env[0].value != 21.5 {
		t.Errorf("env[0] = %+v", metrics.env[0])
	}
	if metrics.env[1].metric != "barometric_pressure" {
		t.Errorf("env[1] = %+v", metrics.env[1])
	}
}

func TestMessageReceived(t *testing.T) {
	pub := newFakePublisher()
	up := startedUplink(t, Options{Publisher: pub})

	up.MessageReceived(mesh.Message{
		From:    0x22222222,
		To:      radio.Broadcast,
		Channel: 0,
		Text:    "radio check",
		RxTime:  time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		ID:      42,
	})

	waitFor(t, func() bool { return len(pub.published()) == 1 })
	rec := pub.published()[0]

	if rec.topic != "rfmesh/messages/0" {
		t.Errorf("topic = %q", rec.topic)
	}
	if rec.retained {
		t.Error("messages must not be retained")
	}

	var p messagePayload
	if err := json.Unmarshal(rec.payload, &p); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if p.From != "!22222222" || p.Text != "radio check" || p.ID != 42 {
		t.Errorf("payload = %s", rec.payload)
	}
	if p.RxTime != "2026-08-29T12:00:00Z" {
		t.Errorf("rx_time = %q", p.RxTime)
	}
}

func TestPublishStats(t *testing.T) {
	pub := newFakePublisher()
	metrics := &fakeMetrics{}
	up := startedUplink(t, Options{Publisher: pub, Metrics: metrics})

	up.PublishStats("!0a0b0c0d", mesh.NetworkStats{
		TotalNodes:  4,
		ActiveNodes: 3,
		DirectNodes: 3,
		AverageSNR:  4.5,
		Health:      mesh.HealthGood,
	})

	recs := pub.published()
	if len(recs) != 1 {
		t.Fatalf("published = %d, want 1", len(recs))
	}
	if recs[0].topic != "rfmesh/system/stats" {
		t.Errorf("topic = %q", recs[0].topic)
	}

	var p statsPayload
	if err := json.Unmarshal(recs[0].payload, &p); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if p.TotalNodes != 4 || p.Health != "good" {
		t.Errorf("payload = %s", recs[0].payload)
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	if len(metrics.points) != 1 || metrics.points[0].measurement != "mesh_stats" {
		t.Errorf("points = %+v", metrics.points)
	}
	if metrics.points[0].tags["gateway"] != "!0a0b0c0d" {
		t.Errorf("gateway tag = %q", metrics.points[0].tags["gateway"])
	}
}

// =============================================================================
// Queue Behaviour Tests
// =============================================================================

func TestQueueDropsWhenFull(t *testing.T) {
	// Worker never starts, so the queue fills and overflow is dropped.
	up, err := New(Options{Publisher: newFakePublisher(), QueueSize: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer up.Close()

	for i := 0; i < 3; i++ {
		up.MessageReceived(mesh.Message{Text: "x", RxTime: time.Now()})
	}

	if got := up.GetStats().Dropped; got != 2 {
		t.Errorf("Dropped = %d, want 2", got)
	}
}

func TestPublishFailureCounted(t *testing.T) {
	pub := newFakePublisher()
	pub.publishErr = errors.New("broker down")
	up := startedUplink(t, Options{Publisher: pub})

	up.MessageReceived(mesh.Message{Text: "x", RxTime: time.Now()})

	waitFor(t, func() bool { return up.GetStats().Failed == 1 })
	if got := up.GetStats().Published; got != 0 {
		t.Errorf("Published = %d, want 0", got)
	}
}

// =============================================================================
// Command Handling Tests
// =============================================================================

func TestSendTextCommand(t *testing.T) {
	pub := newFakePublisher()
	sender := &fakeSender{}
	startedUplink(t, Options{Publisher: pub, Sender: sender})

	handler := pub.subs["rfmesh/command/send_text"]
	if handler == nil {
		t.Fatal("send_text topic not subscribed")
	}

	payload := []byte(`{"to":"!22222222","channel":1,"text":"on my way"}`)
	if err := handler("rfmesh/command/send_text", payload); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.texts) != 1 || sender.texts[0] != "on my way" {
		t.Fatalf("texts = %v", sender.texts)
	}
	if sender.dests[0] != 0x22222222 || sender.chans[0] != 1 {
		t.Errorf("dest = %08x channel = %d", sender.dests[0], sender.chans[0])
	}
}

func TestSendTextCommandBroadcast(t *testing.T) {
	pub := newFakePublisher()
	sender := &fakeSender{}
	startedUplink(t, Options{Publisher: pub, Sender: sender})

	handler := pub.subs["rfmesh/command/send_text"]
	if err := handler("rfmesh/command/send_text", []byte(`{"text":"all stations"}`)); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if sender.dests[0] != radio.Broadcast {
		t.Errorf("dest = %08x, want broadcast", sender.dests[0])
	}
}

func TestSendTextCommandInvalid(t *testing.T) {
	pub := newFakePublisher()
	sender := &fakeSender{}
	startedUplink(t, Options{Publisher: pub, Sender: sender})
	handler := pub.subs["rfmesh/command/send_text"]

	cases := []struct {
		name    string
		payload string
	}{
		{"not json", `{{{`},
		{"empty text", `{"to":"!22222222"}`},
		{"bad node id", `{"to":"22222222","text":"hi"}`},
		{"short node id", `{"to":"!2222","text":"hi"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := handler("rfmesh/command/send_text", []byte(tc.payload))
			if !errors.Is(err, ErrInvalidCommand) {
				t.Errorf("handler error = %v, want ErrInvalidCommand", err)
			}
		})
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.texts) != 0 {
		t.Errorf("sender called %d times, want 0", len(sender.texts))
	}
}
