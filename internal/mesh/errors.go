package mesh

import "errors"

// Domain errors for the mesh client package.
var (
	// ErrNotConnected is returned when an operation requires a radio
	// connection but Connect has not succeeded.
	ErrNotConnected = errors.New("mesh: not connected to radio")

	// ErrAlreadyConnected is returned when Connect is called on a client
	// that already holds a live connection.
	ErrAlreadyConnected = errors.New("mesh: already connected")

	// ErrHandshakeFailed is returned when the radio does not complete the
	// initial state dump in time.
	ErrHandshakeFailed = errors.New("mesh: config handshake failed")

	// ErrReceiverTaken is returned when TakeReceiver is called more than
	// once per connection.
	ErrReceiverTaken = errors.New("mesh: packet receiver already taken")

	// ErrUnknownConfigCategory is returned for a config key whose
	// category the radio does not have.
	ErrUnknownConfigCategory = errors.New("mesh: unknown config category")

	// ErrUnknownConfigField is returned for a config key whose field does
	// not exist within its category.
	ErrUnknownConfigField = errors.New("mesh: unknown config field")

	// ErrInvalidConfigValue is returned when a value cannot be converted
	// to the target config field's type.
	ErrInvalidConfigValue = errors.New("mesh: invalid config value")

	// ErrInvalidChannel is returned for channel operations on an index
	// outside the radio's channel table.
	ErrInvalidChannel = errors.New("mesh: invalid channel")

	// ErrSendFailed is returned when handing a packet to the transport
	// fails.
	ErrSendFailed = errors.New("mesh: send failed")
)
