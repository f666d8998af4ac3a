package mesh

import (
	"context"
	"testing"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

func TestRequestDeviceTelemetry(t *testing.T) {
	fs := newFakeStream()
	client := newConnectedClient(t, fs)

	pushReply(fs,
		func(p *radio.MeshPacket) bool { return p.Decoded.Port == radio.PortTelemetry },
		func(id uint32) []*radio.FromRadio {
			return []*radio.FromRadio{{Packet: &radio.MeshPacket{
				From: testNodeNum,
				To:   testNodeNum,
				Decoded: &radio.Data{
					Port: radio.PortTelemetry,
					Payload: radio.MarshalTelemetry(&radio.Telemetry{
						Device: &radio.DeviceMetrics{BatteryLevel: 92, Voltage: 4.01},
					}),
				},
				ID: 9300,
			}}}
		})

	metrics, err := client.RequestDeviceTelemetry(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("RequestDeviceTelemetry() error = %v", err)
	}
	if metrics == nil || metrics.BatteryLevel != 92 {
		t.Errorf("metrics = %+v, want battery 92", metrics)
	}
}

func TestRequestDeviceTelemetryCachedFresh(t *testing.T) {
	fs := newFakeStream()
	client := newConnectedClient(t, fs)

	client.state.updateTelemetry(testNodeNum, &radio.Telemetry{
		Device: &radio.DeviceMetrics{BatteryLevel: 77},
	}, time.Now())

	sentBefore := len(fs.sentPackets())
	metrics, err := client.RequestDeviceTelemetry(context.Background(), 5*time.Second)
	if err != nil {
		t.Fatalf("RequestDeviceTelemetry() error = %v", err)
	}
	if metrics == nil || metrics.BatteryLevel != 77 {
		t.Errorf("metrics = %+v, want cached battery 77", metrics)
	}
	if len(fs.sentPackets()) != sentBefore {
		t.Error("fresh cache still caused a mesh request")
	}
}

func TestRequestDeviceTelemetryTimeout(t *testing.T) {
	fs := newFakeStream()
	client := newConnectedClient(t, fs)

	metrics, err := client.RequestDeviceTelemetry(context.Background(), 400*time.Millisecond)
	if err != nil {
		t.Fatalf("RequestDeviceTelemetry() error = %v", err)
	}
	if metrics != nil {
		t.Errorf("metrics = %+v, want nil on a silent radio", metrics)
	}
}

func TestCollectTelemetry(t *testing.T) {
	fs := newFakeStream()
	client := newConnectedClient(t, fs)

	fs.push(&radio.FromRadio{Packet: &radio.MeshPacket{
		From: 0x22222222,
		Decoded: &radio.Data{
			Port: radio.PortTelemetry,
			Payload: radio.MarshalTelemetry(&radio.Telemetry{
				Device: &radio.DeviceMetrics{BatteryLevel: 61},
			}),
		},
		ID: 9400,
	}})

	got := client.CollectTelemetry(context.Background(), 600*time.Millisecond)
	m, ok := got[0x22222222]
	if !ok || m.BatteryLevel != 61 {
		t.Errorf("collected = %+v, want repeater battery 61", got)
	}
}

func TestCollectTelemetryPicksUpLateSamples(t *testing.T) {
	fs := newFakeStream()
	client := newConnectedClient(t, fs)

	go func() {
		time.Sleep(300 * time.Millisecond)
		fs.push(&radio.FromRadio{Packet: &radio.MeshPacket{
			From: 0x33333333,
			Decoded: &radio.Data{
				Port: radio.PortTelemetry,
				Payload: radio.MarshalTelemetry(&radio.Telemetry{
					Device: &radio.DeviceMetrics{BatteryLevel: 48},
				}),
			},
			ID: 9401,
		}})
	}()

	got := client.CollectTelemetry(context.Background(), time.Second)
	m, ok := got[0x33333333]
	if !ok || m.BatteryLevel != 48 {
		t.Errorf("collected = %+v, want late sample from 33333333", got)
	}
}
