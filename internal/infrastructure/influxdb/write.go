package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement layout: node_telemetry carries battery and utilisation,
// signal carries per-neighbour link quality, environment carries sensor
// samples keyed by a metric tag. Tags stay low-cardinality (node ids
// and metric names only).

// enqueue hands one point to the batched writer. Points are dropped
// silently once the client is closed.
func (c *Client) enqueue(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writes.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

// WriteNodeTelemetry records one device-metrics sample for a node:
// battery level (percent, >100 means mains-powered) and voltage, plus
// channel and airtime-transmit utilisation.
func (c *Client) WriteNodeTelemetry(nodeID string, battery uint32, voltage, channelUtil, airUtilTx float64) {
	c.enqueue("node_telemetry",
		map[string]string{"node_id": nodeID},
		map[string]interface{}{
			"battery_level":       int64(battery),
			"voltage":             voltage,
			"channel_utilization": channelUtil,
			"air_util_tx":         airUtilTx,
		})
}

// WriteSignalMetric records link quality for a packet heard from nodeID.
// RSSI is omitted when the radio did not report one.
func (c *Client) WriteSignalMetric(nodeID string, snr float64, rssi int32) {
	fields := map[string]interface{}{"snr": snr}
	if rssi != 0 {
		fields["rssi"] = int64(rssi)
	}
	c.enqueue("signal", map[string]string{"node_id": nodeID}, fields)
}

// WriteEnvironmentMetric records one environment-sensor reading, tagged
// by metric name ("temperature_c", "relative_humidity", ...).
func (c *Client) WriteEnvironmentMetric(nodeID string, metricName string, value float64) {
	c.enqueue("environment",
		map[string]string{"node_id": nodeID, "metric": metricName},
		map[string]interface{}{"value": value})
}

// WritePoint records a custom measurement, e.g. the periodic mesh stats
// summary.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.enqueue(measurement, tags, fields)
}
