package mesh

import (
	"fmt"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// defaultHopLimit is the hop budget for outbound packets.
const defaultHopLimit = 3

// newPacket builds an outbound mesh packet from the local node. The packet
// id doubles as the correlation key for replies.
func (c *Client) newPacket(dest uint32, channel uint32, port radio.PortNum, payload []byte) *radio.MeshPacket {
	return &radio.MeshPacket{
		From:     c.state.myNodeNum(),
		To:       dest,
		Channel:  channel,
		ID:       c.ids.Next(),
		HopLimit: defaultHopLimit,
		Decoded: &radio.Data{
			Port:    port,
			Payload: payload,
		},
	}
}

// sendPacket hands a packet to the transport.
func (c *Client) sendPacket(p *radio.MeshPacket) error {
	stream, err := c.currentStream()
	if err != nil {
		return err
	}
	if err := stream.Send(&radio.ToRadio{Packet: p}); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	c.logger.Debug("packet sent",
		"to", NodeID(p.To), "port", p.Decoded.Port.String(), "id", p.ID)
	return nil
}

// sendAdmin sends an admin message to the local radio, attaching the
// cached session passkey. Returns the packet id for correlation.
func (c *Client) sendAdmin(msg *radio.AdminMessage, wantResponse bool) (uint32, error) {
	msg.SessionPasskey = c.sessionPasskey()

	pkt := c.newPacket(c.state.myNodeNum(), 0, radio.PortAdmin, radio.MarshalAdminMessage(msg))
	pkt.Decoded.WantResponse = wantResponse
	if err := c.sendPacket(pkt); err != nil {
		return 0, err
	}
	return pkt.ID, nil
}
