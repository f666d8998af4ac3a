package uplink

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/mesh"
	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// Wire payloads for the MQTT topics. All timestamps are RFC 3339 when the
// daemon assigns them and raw epoch seconds when the mesh reports them.

type nodeInfoPayload struct {
	NodeID    string  `json:"node_id"`
	LongName  string  `json:"long_name,omitempty"`
	ShortName string  `json:"short_name,omitempty"`
	HwModel   string  `json:"hw_model,omitempty"`
	SNR       float32 `json:"snr"`
	LastHeard uint32  `json:"last_heard"`
	HopsAway  uint32  `json:"hops_away"`
}

type positionPayload struct {
	NodeID    string   `json:"node_id"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Altitude  int32    `json:"altitude"`
	Time      uint32   `json:"time"`
}

type deviceMetricsPayload struct {
	BatteryLevel       uint32  `json:"battery_level"`
	Voltage            float32 `json:"voltage"`
	ChannelUtilization float32 `json:"channel_utilization"`
	AirUtilTx          float32 `json:"air_util_tx"`
	UptimeSeconds      uint32  `json:"uptime_seconds"`
}

type environmentMetricsPayload struct {
	Temperature        float32 `json:"temperature"`
	RelativeHumidity   float32 `json:"relative_humidity"`
	BarometricPressure float32 `json:"barometric_pressure"`
}

type telemetryPayload struct {
	NodeID      string                     `json:"node_id"`
	Time        uint32                     `json:"time"`
	Device      *deviceMetricsPayload      `json:"device,omitempty"`
	Environment *environmentMetricsPayload `json:"environment,omitempty"`
}

type messagePayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Channel uint32 `json:"channel"`
	Text    string `json:"text"`
	RxTime  string `json:"rx_time"`
	ID      uint32 `json:"message_id"`
}

type statsPayload struct {
	TotalNodes  int     `json:"total_nodes"`
	ActiveNodes int     `json:"active_nodes"`
	DirectNodes int     `json:"direct_nodes"`
	AverageSNR  float32 `json:"average_snr"`
	Health      string  `json:"health"`
}

type sendTextCommand struct {
	To      string `json:"to"`
	Channel uint32 `json:"channel"`
	Text    string `json:"text"`
}

func marshalNodeInfo(node *radio.NodeInfo) ([]byte, error) {
	p := nodeInfoPayload{
		NodeID:    mesh.NodeID(node.Num),
		SNR:       node.SNR,
		LastHeard: node.LastHeard,
		HopsAway:  node.HopsAway,
	}
	if node.User != nil {
		p.LongName = node.User.LongName
		p.ShortName = node.User.ShortName
		if node.User.HwModel != radio.HardwareUnset {
			p.HwModel = node.User.HwModel.String()
		}
	}
	return json.Marshal(p)
}

func marshalPosition(num uint32, pos *radio.Position) ([]byte, error) {
	p := positionPayload{
		NodeID:   mesh.NodeID(num),
		Altitude: pos.Altitude,
		Time:     pos.Time,
	}
	if pos.LatitudeI != nil {
		lat := float64(*pos.LatitudeI) / 1e7
		p.Latitude = &lat
	}
	if pos.LongitudeI != nil {
		lon := float64(*pos.LongitudeI) / 1e7
		p.Longitude = &lon
	}
	return json.Marshal(p)
}

func marshalTelemetry(num uint32, tel *radio.Telemetry) ([]byte, error) {
	p := telemetryPayload{
		NodeID: mesh.NodeID(num),
		Time:   tel.Time,
	}
	if tel.Device != nil {
		p.Device = &deviceMetricsPayload{
			BatteryLevel:       tel.Device.BatteryLevel,
			Voltage:            tel.Device.Voltage,
			ChannelUtilization: tel.Device.ChannelUtilization,
			AirUtilTx:          tel.Device.AirUtilTx,
			UptimeSeconds:      tel.Device.UptimeSeconds,
		}
	}
	if tel.Environment != nil {
		p.Environment = &environmentMetricsPayload{
			Temperature:        tel.Environment.Temperature,
			RelativeHumidity:   tel.Environment.RelativeHumidity,
			BarometricPressure: tel.Environment.BarometricPressure,
		}
	}
	return json.Marshal(p)
}

func marshalMessage(msg mesh.Message) ([]byte, error) {
	return json.Marshal(messagePayload{
		From:    mesh.NodeID(msg.From),
		To:      mesh.NodeID(msg.To),
		Channel: msg.Channel,
		Text:    msg.Text,
		RxTime:  msg.RxTime.UTC().Format(time.RFC3339),
		ID:      msg.ID,
	})
}

func marshalStats(stats mesh.NetworkStats) ([]byte, error) {
	return json.Marshal(statsPayload{
		TotalNodes:  stats.TotalNodes,
		ActiveNodes: stats.ActiveNodes,
		DirectNodes: stats.DirectNodes,
		AverageSNR:  stats.AverageSNR,
		Health:      string(stats.Health),
	})
}

func unmarshalCommand(payload []byte, cmd *sendTextCommand) error {
	if err := json.Unmarshal(payload, cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	if cmd.Text == "" {
		return fmt.Errorf("%w: empty text", ErrInvalidCommand)
	}
	return nil
}
