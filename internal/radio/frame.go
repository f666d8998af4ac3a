package radio

import (
	"encoding/binary"
	"fmt"
)

// Frame layout constants.
const (
	frameMagic0 = 0x94
	frameMagic1 = 0xC3

	// frameHeaderLen is magic(2) + big-endian body length(2).
	frameHeaderLen = 4

	// MaxFrameBody is the largest body length accepted on the wire.
	// Radios never emit frames near this size; anything larger means the
	// stream is desynchronized.
	MaxFrameBody = 512
)

// EncodeFrame wraps an envelope body in the stream framing.
func EncodeFrame(body []byte) ([]byte, error) {
	if len(body) > MaxFrameBody {
		return nil, fmt.Errorf("%w: body %d bytes", ErrFrameTooLarge, len(body))
	}
	frame := make([]byte, frameHeaderLen+len(body))
	frame[0] = frameMagic0
	frame[1] = frameMagic1
	binary.BigEndian.PutUint16(frame[2:4], uint16(len(body)))
	copy(frame[frameHeaderLen:], body)
	return frame, nil
}

// ParseFrameHeader validates a frame header and returns the body length.
func ParseFrameHeader(header []byte) (int, error) {
	if len(header) < frameHeaderLen {
		return 0, ErrTruncated
	}
	if header[0] != frameMagic0 || header[1] != frameMagic1 {
		return 0, fmt.Errorf("%w: magic %02x %02x", ErrBadFrame, header[0], header[1])
	}
	n := int(binary.BigEndian.Uint16(header[2:4]))
	if n > MaxFrameBody {
		return 0, fmt.Errorf("%w: body %d bytes", ErrFrameTooLarge, n)
	}
	return n, nil
}
