package mesh

import (
	"time"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// run consumes the stream until it ends, either processing envelopes or
// forwarding them to a taken receiver.
func (c *Client) run(stream Stream, done chan struct{}) {
	defer close(done)

	for env := range stream.Packets() {
		if d := c.currentDivert(); d != nil {
			select {
			case d <- env:
			default:
				c.divertDropped.Add(1)
			}
			continue
		}
		c.ingest(env)
	}

	// Stream ended: peer disconnect or Close.
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.divertMu.Lock()
	if c.divert != nil {
		close(c.divert)
		c.divert = nil
	}
	c.divertMu.Unlock()

	c.logger.Info("ingestion loop ended")
}

func (c *Client) currentDivert() chan *radio.FromRadio {
	c.divertMu.Lock()
	defer c.divertMu.Unlock()
	return c.divert
}

// ingest folds one inbound envelope into the cache. Also used during the
// connect handshake to absorb the state dump.
func (c *Client) ingest(env *radio.FromRadio) {
	switch {
	case env.MyInfo != nil:
		c.state.setMyInfo(env.MyInfo)
	case env.Node != nil:
		c.state.updateNode(env.Node)
		c.emit(func(s EventSink) { s.NodeUpdated(copyNode(env.Node)) })
	case env.Channel != nil:
		c.state.updateChannel(env.Channel)
	case env.Config != nil:
		c.state.setConfig(env.Config)
	case env.Packet != nil:
		c.handlePacket(env.Packet)
	}
	// Envelopes with no recognized field fall through silently.
}

// handlePacket dispatches a mesh packet by port.
func (c *Client) handlePacket(p *radio.MeshPacket) {
	c.packetsIngested.Add(1)

	if p.From != 0 {
		c.state.touchNode(p.From, p.RxSNR, p.RxTime)
	}

	// Without the channel key the radio hands us ciphertext only; there
	// is nothing to fold into the cache.
	if p.Decoded == nil {
		return
	}
	d := p.Decoded

	switch d.Port {
	case radio.PortText:
		msg := Message{
			From:    p.From,
			To:      p.To,
			Channel: p.Channel,
			Text:    string(d.Payload),
			RxTime:  rxTime(p),
			WantAck: p.WantAck,
			ID:      p.ID,
		}
		c.state.addMessage(msg)
		c.emit(func(s EventSink) { s.MessageReceived(msg) })

	case radio.PortPosition:
		pos, err := radio.UnmarshalPosition(d.Payload)
		if err != nil {
			c.logger.Warn("bad position payload", "from", NodeID(p.From), "error", err)
			break
		}
		c.state.updatePosition(p.From, pos, time.Now())
		c.emit(func(s EventSink) { s.PositionUpdated(p.From, copyPosition(pos)) })

	case radio.PortNodeInfo:
		user, err := radio.UnmarshalUser(d.Payload)
		if err != nil {
			c.logger.Warn("bad nodeinfo payload", "from", NodeID(p.From), "error", err)
			break
		}
		c.state.updateUser(p.From, user)
		if node := c.state.snapshot().Nodes[p.From]; node != nil {
			c.emit(func(s EventSink) { s.NodeUpdated(node) })
		}

	case radio.PortTelemetry:
		tel, err := radio.UnmarshalTelemetry(d.Payload)
		if err != nil {
			c.logger.Warn("bad telemetry payload", "from", NodeID(p.From), "error", err)
			break
		}
		c.state.updateTelemetry(p.From, tel, time.Now())
		c.emit(func(s EventSink) { s.TelemetryUpdated(p.From, copyTelemetry(tel)) })

	case radio.PortRouting:
		routing, err := radio.UnmarshalRouting(d.Payload)
		if err != nil {
			c.logger.Warn("bad routing payload", "from", NodeID(p.From), "error", err)
			break
		}
		c.handleRouting(d.RequestID, routing)
		return // routing owns its own ack resolution

	case radio.PortAdmin:
		admin, err := radio.UnmarshalAdminMessage(d.Payload)
		if err != nil {
			c.logger.Warn("bad admin payload", "from", NodeID(p.From), "error", err)
			break
		}
		c.handleAdmin(admin)

	default:
		c.unknownDropped.Add(1)
		c.logger.Debug("dropping packet on unhandled port",
			"port", d.Port.String(), "from", NodeID(p.From))
	}

	// Implicit acknowledgement: any reply that references our packet id
	// proves the packet arrived, whatever its port.
	if d.RequestID != 0 {
		if c.acks.resolve(d.RequestID, true) {
			c.acksResolved.Add(1)
		}
	}
}

// handleRouting resolves traceroute and ack waiters from a routing packet.
func (c *Client) handleRouting(requestID uint32, r *radio.Routing) {
	if requestID == 0 {
		return
	}

	delivered := true
	switch {
	case r.RouteReply != nil:
		hops := c.enrichRoute(r.RouteReply.Route)
		if c.routes.resolve(requestID, hops) {
			c.routesResolved.Add(1)
		}

	case r.ErrorReason != nil:
		delivered = *r.ErrorReason == radio.RouteNone
		if !delivered {
			c.logger.Debug("routing error", "reason", r.ErrorReason.String())
		}
		// An explicit reply ends a pending traceroute either way: the
		// mesh found no route, so the waiter gets an empty hop list now
		// rather than sitting out its timeout.
		if c.routes.resolve(requestID, nil) {
			c.routesResolved.Add(1)
		}
	}

	// Any routing payload that references our packet id confirms arrival,
	// whichever variant it carries.
	if c.acks.resolve(requestID, delivered) {
		c.acksResolved.Add(1)
	}
}

// enrichRoute maps hop node numbers to display names via the node cache.
func (c *Client) enrichRoute(route []uint32) []RouteHop {
	snap := c.state.snapshot()
	hops := make([]RouteHop, len(route))
	for i, num := range route {
		hops[i] = RouteHop{Num: num, Name: snap.NodeName(num)}
	}
	return hops
}

// handleAdmin absorbs an admin reply: the session passkey and any config
// category it carries.
func (c *Client) handleAdmin(a *radio.AdminMessage) {
	if len(a.SessionPasskey) > 0 {
		c.setPasskey(a.SessionPasskey)
	}
	if a.GetConfigResponse != nil {
		c.state.setConfig(a.GetConfigResponse)
	}
}

// emit invokes the event sink, recovering panics so a broken sink cannot
// kill ingestion.
func (c *Client) emit(fn func(EventSink)) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("event sink panic", "panic", r)
		}
	}()
	fn(c.events)
}

// rxTime converts a packet's radio clock timestamp, falling back to local
// time when the radio has no clock.
func rxTime(p *radio.MeshPacket) time.Time {
	if p.RxTime == 0 {
		return time.Now()
	}
	return time.Unix(int64(p.RxTime), 0)
}
