package radio

import "math/rand/v2"

// IDSource yields packet identifiers for outbound mesh packets. The radio
// uses packet IDs for deduplication and correlation, so they must be
// non-zero and unlikely to repeat within a session.
type IDSource interface {
	Next() uint32
}

// randomIDs is the default IDSource, backed by math/rand/v2.
type randomIDs struct{}

// NewIDSource returns the default random packet-ID source.
func NewIDSource() IDSource {
	return randomIDs{}
}

func (randomIDs) Next() uint32 {
	for {
		if id := rand.Uint32(); id != 0 {
			return id
		}
	}
}
