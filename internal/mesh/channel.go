package mesh

import (
	"fmt"
	"sort"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// maxChannels is the radio's channel table size.
const maxChannels = 8

// Channels returns the cached channel table, ordered by slot index.
func (c *Client) Channels() []*radio.Channel {
	channels := c.state.snapshot().Channels
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].Index < channels[j].Index
	})
	return channels
}

// AddChannel creates a secondary channel in the first free slot, fire and
// forget. The cache converges when the radio echoes the new table entry.
//
// Parameters:
//   - name: Channel name
//   - psk: Pre-shared key; empty means unencrypted
//
// Returns:
//   - uint32: The slot index chosen
//   - error: ErrInvalidChannel when the table is full, ErrNotConnected,
//     or a transport failure
func (c *Client) AddChannel(name string, psk []byte) (uint32, error) {
	used := make(map[uint32]bool)
	for _, ch := range c.state.snapshot().Channels {
		if ch.Role != radio.ChannelDisabled {
			used[ch.Index] = true
		}
	}

	var index uint32
	for index = 0; index < maxChannels; index++ {
		if !used[index] {
			break
		}
	}
	if index >= maxChannels {
		return 0, fmt.Errorf("%w: all %d slots in use", ErrInvalidChannel, maxChannels)
	}

	role := radio.ChannelSecondary
	if index == 0 {
		role = radio.ChannelPrimary
	}
	return index, c.setChannel(index, name, psk, role)
}

// SetChannel reconfigures an existing slot, fire and forget.
func (c *Client) SetChannel(index uint32, name string, psk []byte) error {
	if index >= maxChannels {
		return fmt.Errorf("%w: index %d", ErrInvalidChannel, index)
	}
	role := radio.ChannelSecondary
	if index == 0 {
		role = radio.ChannelPrimary
	}
	return c.setChannel(index, name, psk, role)
}

func (c *Client) setChannel(index uint32, name string, psk []byte, role radio.ChannelRole) error {
	_, err := c.sendAdmin(&radio.AdminMessage{
		SetChannel: &radio.Channel{
			Index:    index,
			Settings: &radio.ChannelSettings{Name: name, PSK: psk},
			Role:     role,
		},
	}, false)
	return err
}

// DeleteChannel disables a channel slot, fire and forget. The primary
// channel (slot 0) cannot be deleted.
func (c *Client) DeleteChannel(index uint32) error {
	if index == 0 || index >= maxChannels {
		return fmt.Errorf("%w: index %d", ErrInvalidChannel, index)
	}
	_, err := c.sendAdmin(&radio.AdminMessage{RemoveChannel: &index}, false)
	if err != nil {
		return err
	}
	c.state.removeChannel(index)
	return nil
}
