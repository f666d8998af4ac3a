package mesh

import (
	"context"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// SendTraceroute maps the route to a node.
//
// A route request is sent toward dest; the mesh's route reply lists every
// node the request traversed. Hops are named from the node cache, with a
// placeholder for nodes never heard. Timeout yields an empty route and no
// error: an unreachable node is a result. A reply that arrives after the
// timeout is discarded.
//
// Parameters:
//   - ctx: Context for cancellation
//   - dest: Target node number
//   - timeout: How long to wait for the reply
//
// Returns:
//   - []RouteHop: Traversed nodes in order, excluding the local node;
//     empty when no reply arrived
//   - error: ErrNotConnected, a transport failure, or ctx cancellation
func (c *Client) SendTraceroute(ctx context.Context, dest uint32, timeout time.Duration) ([]RouteHop, error) {
	if _, err := c.currentStream(); err != nil {
		return nil, err
	}

	payload := radio.MarshalRouting(&radio.Routing{RouteRequest: &radio.RouteDiscovery{}})
	pkt := c.newPacket(dest, 0, radio.PortRouting, payload)
	pkt.Decoded.WantResponse = true

	ch := c.routes.register(pkt.ID)
	if err := c.sendPacket(pkt); err != nil {
		c.routes.abandon(pkt.ID)
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case hops := <-ch:
		return hops, nil
	case <-timer.C:
		return c.drainRoute(pkt.ID, ch), nil
	case <-ctx.Done():
		c.drainRoute(pkt.ID, ch)
		return nil, ctx.Err()
	}
}

// drainRoute abandons a route slot, picking up a reply that raced the
// timeout.
func (c *Client) drainRoute(id uint32, ch <-chan []RouteHop) []RouteHop {
	if c.routes.abandon(id) {
		return nil
	}
	select {
	case hops := <-ch:
		return hops
	default:
		return nil
	}
}
