package uplink

import (
	"github.com/rfmesh/rfmesh-core/internal/mesh"
	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// mesh.EventSink implementation. Callbacks run on the ingestion goroutine
// and must not block: each enqueues a job for the worker and returns. The
// values received are private copies, safe to hold across the queue.

var _ mesh.EventSink = (*Uplink)(nil)

// NodeUpdated publishes the retained node info topic and records a signal
// point for the node's reported SNR.
func (u *Uplink) NodeUpdated(node *radio.NodeInfo) {
	u.enqueue(func() {
		id := mesh.NodeID(node.Num)
		payload, err := marshalNodeInfo(node)
		if err != nil {
			u.logger.Error("uplink marshal node info", "node", id, "error", err)
			return
		}
		u.publish(u.topics.NodeInfo(id), payload, true)

		if u.metrics != nil && node.SNR != 0 {
			u.metrics.WriteSignalMetric(id, float64(node.SNR), 0)
		}
	})
}

// PositionUpdated publishes the retained position topic.
func (u *Uplink) PositionUpdated(num uint32, pos *radio.Position) {
	u.enqueue(func() {
		id := mesh.NodeID(num)
		payload, err := marshalPosition(num, pos)
		if err != nil {
			u.logger.Error("uplink marshal position", "node", id, "error", err)
			return
		}
		u.publish(u.topics.NodePosition(id), payload, true)
	})
}

// TelemetryUpdated publishes the retained telemetry topic and records the
// sample's metrics as time-series points.
func (u *Uplink) TelemetryUpdated(num uint32, tel *radio.Telemetry) {
	u.enqueue(func() {
		id := mesh.NodeID(num)
		payload, err := marshalTelemetry(num, tel)
		if err != nil {
			u.logger.Error("uplink marshal telemetry", "node", id, "error", err)
			return
		}
		u.publish(u.topics.NodeTelemetry(id), payload, true)

		if u.metrics == nil {
			return
		}
		if d := tel.Device; d != nil {
			u.metrics.WriteNodeTelemetry(id, d.BatteryLevel,
				float64(d.Voltage), float64(d.ChannelUtilization), float64(d.AirUtilTx))
		}
		if e := tel.Environment; e != nil {
			u.metrics.WriteEnvironmentMetric(id, "temperature_c", float64(e.Temperature))
			if e.RelativeHumidity != 0 {
				u.metrics.WriteEnvironmentMetric(id, "relative_humidity", float64(e.RelativeHumidity))
			}
			if e.BarometricPressure != 0 {
				u.metrics.WriteEnvironmentMetric(id, "barometric_pressure", float64(e.BarometricPressure))
			}
		}
	})
}

// MessageReceived publishes a text message event on its channel topic.
// Message events are not retained.
func (u *Uplink) MessageReceived(msg mesh.Message) {
	u.enqueue(func() {
		payload, err := marshalMessage(msg)
		if err != nil {
			u.logger.Error("uplink marshal message", "error", err)
			return
		}
		u.publish(u.topics.Message(msg.Channel), payload, false)
	})
}
