// Package radio implements the wire protocol spoken by rfmesh radios and the
// TCP stream transport used to reach them.
//
// # Architecture
//
//	┌────────────────────────────────────────────────┐
//	│                internal/mesh                   │
//	│        (state sync, correlation, ops)          │
//	└──────────────────────┬─────────────────────────┘
//	                       │ *FromRadio / *ToRadio
//	┌──────────────────────▼─────────────────────────┐
//	│                 radio.Stream                   │
//	│   receive loop ──► decode ──► Packets() chan   │
//	│   Send() ──► encode ──► framed write           │
//	└──────────────────────┬─────────────────────────┘
//	                       │ 0x94 0xC3 | len | body
//	                 tcp://host:port
//	                   (mesh radio)
//
// # Wire Format
//
// Every frame on the wire is a two-byte magic (0x94 0xC3), a big-endian
// uint16 body length, and the body. The body is a protobuf-wire-encoded
// envelope: FromRadio for radio→host traffic, ToRadio for host→radio.
// Unknown fields are skipped during decode, so firmware revisions that add
// fields remain readable.
//
// # Thread Safety
//
// Stream methods are safe for concurrent use. Decoded envelopes are
// delivered on a buffered channel owned by a single receive goroutine;
// frames that arrive while the channel is full are counted and dropped.
package radio
