package mesh

import (
	"fmt"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// NodeID formats a node number in the canonical "!%08x" form used across
// the mesh (user IDs, CLI output, uplink topics).
func NodeID(num uint32) string {
	return fmt.Sprintf("!%08x", num)
}

// Message is a text message observed on the mesh.
type Message struct {
	From    uint32
	To      uint32
	Channel uint32
	Text    string
	RxTime  time.Time
	WantAck bool
	ID      uint32
}

// RouteHop is one traversed node in a traceroute reply.
type RouteHop struct {
	Num uint32

	// Name is the node's long name from the node database, or a
	// placeholder when the node has never been heard.
	Name string
}

// DeviceConfigState holds the config categories the radio has reported so
// far. A nil category has never been received.
type DeviceConfigState struct {
	Device    *radio.DeviceConfig
	Position  *radio.PositionConfig
	Power     *radio.PowerConfig
	Network   *radio.NetworkConfig
	Display   *radio.DisplayConfig
	LoRa      *radio.LoRaConfig
	Bluetooth *radio.BluetoothConfig
}

// DeviceState is a point-in-time snapshot of everything known about the
// radio and its mesh. Snapshots are deep copies: mutating one never
// affects the client's cache or other snapshots.
type DeviceState struct {
	MyInfo    *radio.MyNodeInfo
	Nodes     map[uint32]*radio.NodeInfo
	Channels  []*radio.Channel
	Positions map[uint32]*radio.Position
	Messages  []Message
	Telemetry map[uint32]*radio.Telemetry
	Config    DeviceConfigState

	// PositionTimes and TelemetryTimes record local receipt times, used
	// by freshness checks. Keyed like Positions and Telemetry.
	PositionTimes  map[uint32]time.Time
	TelemetryTimes map[uint32]time.Time
}

// Node returns the node database entry for a node number, or nil.
func (s *DeviceState) Node(num uint32) *radio.NodeInfo {
	return s.Nodes[num]
}

// NodeName returns the display name for a node: its long name when known,
// otherwise a placeholder carrying the hex node number.
func (s *DeviceState) NodeName(num uint32) string {
	if n := s.Nodes[num]; n != nil && n.User != nil && n.User.LongName != "" {
		return n.User.LongName
	}
	return fmt.Sprintf("Unknown (%08x)", num)
}

// NetworkHealth classifies overall mesh health from reachability.
type NetworkHealth string

// Network health classifications.
const (
	HealthGood     NetworkHealth = "good"
	HealthDegraded NetworkHealth = "degraded"
	HealthIsolated NetworkHealth = "isolated"
)

// Neighbor is a directly reachable node with its link quality.
type Neighbor struct {
	Num       uint32
	Name      string
	SNR       float32
	LastHeard time.Time
}

// NetworkStats summarizes the mesh as seen from the local node.
type NetworkStats struct {
	TotalNodes    int
	ActiveNodes   int // heard within the last hour
	DirectNodes   int // zero hops away
	AverageSNR    float32
	Health        NetworkHealth
}

// TopologyEdge is a direct radio link inferred from the node database.
type TopologyEdge struct {
	From uint32
	To   uint32
	SNR  float32
}

// Topology is the known mesh graph: every node plus the direct links from
// the local node.
type Topology struct {
	Nodes []uint32
	Edges []TopologyEdge
}
