package mesh

import (
	"context"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// Telemetry returns the cached telemetry sample for a node, or nil.
func (c *Client) Telemetry(num uint32) *radio.Telemetry {
	return c.state.snapshot().Telemetry[num]
}

// RequestDeviceTelemetry asks the local radio for a fresh device-metrics
// sample and waits for the cache to converge.
//
// A cached sample younger than the freshness window short-circuits the
// request. Timeout yields (nil, nil).
//
// Parameters:
//   - ctx: Context for cancellation
//   - timeout: Convergence deadline
//
// Returns:
//   - *radio.DeviceMetrics: Battery, voltage, utilization; nil on timeout
//   - error: ErrNotConnected or a transport failure
func (c *Client) RequestDeviceTelemetry(ctx context.Context, timeout time.Duration) (*radio.DeviceMetrics, error) {
	self := c.state.myNodeNum()

	snap := c.state.snapshot()
	if at, ok := snap.TelemetryTimes[self]; ok && time.Since(at) < freshWindow {
		if tel := snap.Telemetry[self]; tel != nil && tel.Device != nil {
			return tel.Device, nil
		}
	}

	start := time.Now()
	pkt := c.newPacket(self, 0, radio.PortTelemetry, nil)
	pkt.Decoded.WantResponse = true
	if err := c.sendPacket(pkt); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok := c.waitForState(waitCtx, func(s *DeviceState) bool {
		at, ok := s.TelemetryTimes[self]
		if !ok || at.Before(start) {
			return false
		}
		tel := s.Telemetry[self]
		return tel != nil && tel.Device != nil
	})
	if !ok {
		return nil, nil
	}

	if tel := c.state.snapshot().Telemetry[self]; tel != nil {
		return tel.Device, nil
	}
	return nil, nil
}

// CollectTelemetry samples the cache over a window and returns the device
// metrics of every node that reported during or before it.
//
// Parameters:
//   - ctx: Context for cancellation; ends collection early
//   - window: Collection window
//
// Returns:
//   - map keyed by node number; nodes without device metrics are absent
func (c *Client) CollectTelemetry(ctx context.Context, window time.Duration) map[uint32]*radio.DeviceMetrics {
	out := make(map[uint32]*radio.DeviceMetrics)
	deadline := time.Now().Add(window)

	collect := func(s *DeviceState) {
		for num, tel := range s.Telemetry {
			if tel.Device != nil {
				m := *tel.Device
				out[num] = &m
			}
		}
	}

	collect(c.state.snapshot())

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return out
		case <-ticker.C:
			collect(c.state.snapshot())
		}
	}
	return out
}
