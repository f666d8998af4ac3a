package radio

import "errors"

// Domain errors for the radio transport package.
var (
	// ErrConnectionFailed is returned when dialing or the initial stream
	// setup fails.
	ErrConnectionFailed = errors.New("radio: connection failed")

	// ErrNotConnected is returned when an operation requires an open
	// stream but the stream is closed.
	ErrNotConnected = errors.New("radio: not connected")

	// ErrSendFailed is returned when writing a frame to the radio fails.
	ErrSendFailed = errors.New("radio: send failed")

	// ErrFrameTooLarge is returned when a frame body exceeds the maximum
	// permitted size.
	ErrFrameTooLarge = errors.New("radio: frame too large")

	// ErrBadFrame is returned when frame bytes do not start with the
	// protocol magic.
	ErrBadFrame = errors.New("radio: bad frame")

	// ErrTruncated is returned when an encoded message ends mid-field.
	ErrTruncated = errors.New("radio: truncated message")

	// ErrBadWireType is returned when a field carries a wire type the
	// decoder does not understand.
	ErrBadWireType = errors.New("radio: bad wire type")
)
