package mesh

import "github.com/rfmesh/rfmesh-core/internal/radio"

// RebootDevice asks the radio to reboot after delaySecs seconds.
// The connection will drop when the reboot happens.
func (c *Client) RebootDevice(delaySecs int32) error {
	_, err := c.sendAdmin(&radio.AdminMessage{RebootSeconds: &delaySecs}, false)
	return err
}

// ShutdownDevice asks the radio to power off after delaySecs seconds.
func (c *Client) ShutdownDevice(delaySecs int32) error {
	_, err := c.sendAdmin(&radio.AdminMessage{ShutdownSeconds: &delaySecs}, false)
	return err
}

// FactoryReset wipes the radio's configuration back to defaults. The
// radio reboots afterwards and the connection drops.
func (c *Client) FactoryReset() error {
	one := uint32(1)
	_, err := c.sendAdmin(&radio.AdminMessage{FactoryReset: &one}, false)
	return err
}
