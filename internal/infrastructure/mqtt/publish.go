package mqtt

import "fmt"

// maxPayload caps outbound messages at 1MB, in line with typical broker
// limits. Oversized payloads are refused here rather than handed to a
// broker that will drop the connection over them.
const maxPayload = 1 << 20

// Publish pushes one message to the broker and waits for the token.
//
// Retained messages are for state topics: the broker stores the last one
// per topic and hands it to new subscribers. Text messages and commands
// are events and go out unretained.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxPayload:
		return fmt.Errorf("%w: %d byte payload exceeds %d byte limit",
			ErrPublishFailed, len(payload), maxPayload)
	case !c.IsConnected():
		return ErrNotConnected
	}

	token := c.paho.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(opTimeout) {
		return fmt.Errorf("%w: no ack within %v", ErrPublishFailed, opTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
