package mesh

import "github.com/rfmesh/rfmesh-core/internal/radio"

// EventSink receives notifications as the ingestion loop folds packets
// into the cache. Implementations must not block: they run on the
// ingestion goroutine. Panics in a sink are recovered and logged; they
// never kill ingestion.
//
// All values passed to a sink are private copies.
type EventSink interface {
	// NodeUpdated fires when a node database entry is replaced.
	NodeUpdated(node *radio.NodeInfo)

	// PositionUpdated fires when a position packet is ingested.
	PositionUpdated(num uint32, pos *radio.Position)

	// TelemetryUpdated fires when a telemetry packet is ingested.
	TelemetryUpdated(num uint32, tel *radio.Telemetry)

	// MessageReceived fires for every text message observed on the mesh.
	MessageReceived(msg Message)
}

// NoopEvents is an EventSink that ignores everything. It is the default
// when no sink is configured.
type NoopEvents struct{}

func (NoopEvents) NodeUpdated(*radio.NodeInfo)               {}
func (NoopEvents) PositionUpdated(uint32, *radio.Position)   {}
func (NoopEvents) TelemetryUpdated(uint32, *radio.Telemetry) {}
func (NoopEvents) MessageReceived(Message)                   {}

var _ EventSink = NoopEvents{}
