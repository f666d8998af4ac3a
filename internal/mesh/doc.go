// Package mesh keeps a local cache of a mesh radio's state synchronized and
// correlates requests sent into the mesh with their eventual replies.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────┐
//	│                      Client                          │
//	│                                                      │
//	│  Connect ──► handshake ──► ingestion loop            │
//	│                               │                      │
//	│              ┌────────────────┼──────────────┐       │
//	│              ▼                ▼              ▼       │
//	│         state store     ack registry   route registry│
//	│        (deep-copy       (packet id →   (packet id →  │
//	│         snapshots)       bool slot)     hops slot)   │
//	│                                                      │
//	│  operations: messages, positions, telemetry, config, │
//	│  channels, device admin, topology, traceroute        │
//	└──────────────────────────────────────────────────────┘
//
// # Synchronization Model
//
// The radio pushes state changes as packets; the Client never holds
// authoritative state. One goroutine owns ingestion: it decodes each
// inbound envelope, folds it into the state store under a write lock, and
// resolves any correlation slot waiting on the packet's request id.
// Readers get deep-copied snapshots and can never observe or cause a
// partial update.
//
// # Correlation
//
// An operation that expects a mesh reply registers a single-use completion
// slot keyed by its outbound packet id. The slot is resolved by the
// ingestion loop or abandoned on timeout, exactly once; late replies after
// a timeout find no slot and fall through to normal ingestion.
//
// # Convergence
//
// Operations that wait for the cache to converge (position and telemetry
// pulls) sample the store every 250 ms up to the caller's deadline, and
// short-circuit when a cached value is younger than 30 s. Config reads use
// a fixed 500 ms request-to-read delay; the radio does not correlate
// config responses usefully.
package mesh
