package mesh

import (
	"context"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// SendText sends a text message without delivery tracking.
//
// Parameters:
//   - text: Message body (UTF-8)
//   - dest: Destination node number, or radio.Broadcast
//   - channel: Channel slot index
//
// Returns:
//   - error: ErrNotConnected or a transport failure
func (c *Client) SendText(text string, dest uint32, channel uint32) error {
	pkt := c.newPacket(dest, channel, radio.PortText, []byte(text))
	return c.sendPacket(pkt)
}

// SendTextWithAck sends a text message and waits for delivery confirmation.
//
// The result is the mesh's verdict, not an error: false means the mesh
// reported a routing failure or stayed silent until the timeout. A late
// confirmation after the timeout is discarded; it can never flip a
// returned false.
//
// Parameters:
//   - ctx: Context for cancellation
//   - text: Message body
//   - dest: Destination node number
//   - channel: Channel slot index
//   - timeout: How long to wait for the mesh's verdict
//
// Returns:
//   - bool: true only when delivery was positively confirmed
//   - error: ErrNotConnected, a transport failure, or ctx cancellation
func (c *Client) SendTextWithAck(ctx context.Context, text string, dest uint32, channel uint32, timeout time.Duration) (bool, error) {
	if _, err := c.currentStream(); err != nil {
		return false, err
	}

	pkt := c.newPacket(dest, channel, radio.PortText, []byte(text))
	pkt.WantAck = true

	ch := c.acks.register(pkt.ID)
	if err := c.sendPacket(pkt); err != nil {
		c.acks.abandon(pkt.ID)
		return false, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case delivered := <-ch:
		return delivered, nil
	case <-timer.C:
		return c.drainAck(pkt.ID, ch), nil
	case <-ctx.Done():
		c.drainAck(pkt.ID, ch)
		return false, ctx.Err()
	}
}

// drainAck abandons an ack slot, picking up a result that raced the
// timeout. The remove-if-present arbitration means exactly one of the
// timeout path and the resolve path consumes the slot.
func (c *Client) drainAck(id uint32, ch <-chan bool) bool {
	if c.acks.abandon(id) {
		return false // nothing arrived
	}
	select {
	case delivered := <-ch:
		return delivered
	default:
		return false
	}
}

// ReceiveMessages collects text messages from the raw packet stream until
// the window elapses or count messages pass the filter.
//
// This takes the connection's packet receiver (see TakeReceiver); normal
// cache ingestion stops for the rest of the connection.
//
// Parameters:
//   - ctx: Context for cancellation
//   - count: Stop after this many matches; 0 means no limit
//   - window: Collection window
//   - filter: Optional; nil accepts every message
//
// Returns:
//   - []Message: Matches, in arrival order
//   - error: ErrNotConnected or ErrReceiverTaken
func (c *Client) ReceiveMessages(ctx context.Context, count int, window time.Duration, filter func(Message) bool) ([]Message, error) {
	packets, err := c.TakeReceiver()
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(window)
	defer timer.Stop()

	var out []Message
	for {
		select {
		case env, ok := <-packets:
			if !ok {
				return out, nil
			}
			msg, ok := textMessage(env)
			if !ok || (filter != nil && !filter(msg)) {
				continue
			}
			out = append(out, msg)
			if count > 0 && len(out) >= count {
				return out, nil
			}
		case <-timer.C:
			return out, nil
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}

// MonitorMessages streams text messages to fn until fn returns false, the
// connection ends, or the context is cancelled.
//
// Takes the connection's packet receiver, like ReceiveMessages.
func (c *Client) MonitorMessages(ctx context.Context, fn func(Message) bool) error {
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
			msg, ok := textMessage(env)
			if !ok {
				continue
			}
			if !fn(msg) {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// textMessage extracts a text message from an envelope, if it carries one.
func textMessage(env *radio.FromRadio) (Message, bool) {
	p := env.Packet
	if p == nil || p.Decoded == nil || p.Decoded.Port != radio.PortText {
		return Message{}, false
	}
	return Message{
		From:    p.From,
		To:      p.To,
		Channel: p.Channel,
		Text:    string(p.Decoded.Payload),
		RxTime:  rxTime(p),
		WantAck: p.WantAck,
		ID:      p.ID,
	}, true
}
