package mesh

import (
	"context"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// coordScale converts between degrees and the wire's 1e-7-degree integers.
const coordScale = 1e7

// Position returns the cached position for a node, or nil when none has
// been heard.
func (c *Client) Position(num uint32) *radio.Position {
	return c.state.snapshot().Positions[num]
}

// SetPosition broadcasts the local node's position to the mesh and seeds
// the local cache.
//
// Parameters:
//   - lat, lon: Degrees
//   - alt: Metres above sea level
func (c *Client) SetPosition(lat, lon float64, alt int32) error {
	latI := int32(lat * coordScale)
	lonI := int32(lon * coordScale)
	pos := &radio.Position{
		LatitudeI:  &latI,
		LongitudeI: &lonI,
		Altitude:   alt,
		Time:       uint32(time.Now().Unix()),
	}

	pkt := c.newPacket(radio.Broadcast, 0, radio.PortPosition, radio.MarshalPosition(pos))
	if err := c.sendPacket(pkt); err != nil {
		return err
	}

	c.state.updatePosition(c.state.myNodeNum(), pos, time.Now())
	return nil
}

// RequestPosition asks a node for its position and waits for the cache to
// converge.
//
// A cached position younger than the freshness window is returned without
// touching the mesh. Otherwise a want-response position request is sent
// and the cache sampled until a newer position lands or the timeout
// elapses. Timeout yields (nil, nil): absence of data is a result, not a
// failure.
//
// Parameters:
//   - ctx: Context for cancellation
//   - num: Target node number
//   - timeout: Convergence deadline
//
// Returns:
//   - *radio.Position: The position, or nil when the node stayed silent
//   - error: ErrNotConnected or a transport failure
func (c *Client) RequestPosition(ctx context.Context, num uint32, timeout time.Duration) (*radio.Position, error) {
	snap := c.state.snapshot()
	if at, ok := snap.PositionTimes[num]; ok && time.Since(at) < freshWindow {
		return snap.Positions[num], nil
	}

	start := time.Now()
	pkt := c.newPacket(num, 0, radio.PortPosition, nil)
	pkt.Decoded.WantResponse = true
	if err := c.sendPacket(pkt); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok := c.waitForState(waitCtx, func(s *DeviceState) bool {
		at, ok := s.PositionTimes[num]
		return ok && !at.Before(start)
	})
	if !ok {
		return nil, nil
	}
	return c.state.snapshot().Positions[num], nil
}

// TrackPositions streams position updates to fn until fn returns false,
// the connection ends, or the context is cancelled.
//
// Takes the connection's packet receiver (see TakeReceiver); normal cache
// ingestion stops for the rest of the connection.
//
// Parameters:
//   - ctx: Context for cancellation
//   - filter: Optional node filter; nil tracks every node
//   - fn: Callback per update; return false to stop
func (c *Client) TrackPositions(ctx context.Context, filter func(num uint32) bool, fn func(num uint32, pos *radio.Position) bool) error {
	packets, err := c.TakeReceiver()
	if err != nil {
		return err
	}

	for {
		select {
		case env, ok := <-packets:
			if !ok {
				return nil
			}
			p := env.Packet
			if p == nil || p.Decoded == nil || p.Decoded.Port != radio.PortPosition {
				continue
			}
			if filter != nil && !filter(p.From) {
				continue
			}
			pos, err := radio.UnmarshalPosition(p.Decoded.Payload)
			if err != nil {
				c.logger.Warn("bad position payload", "from", NodeID(p.From), "error", err)
				continue
			}
			if !fn(p.From, pos) {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
