package mqtt

import "fmt"

// Topic layout for the rfmesh uplink. Per-node state lives under
// rfmesh/nodes/{node_id}/{aspect} with node_id in the canonical
// "!xxxxxxxx" form; everything a dashboard needs is reachable from
// these three prefixes.
const (
	TopicPrefix       = "rfmesh"
	TopicPrefixNodes  = "rfmesh/nodes"
	TopicPrefixSystem = "rfmesh/system"
)

// Topics builds the uplink's topic strings. Using the builders keeps
// publisher and subscriber sides agreeing on the layout.
type Topics struct{}

// NodeInfo is the retained node-database topic for one node.
func (Topics) NodeInfo(nodeID string) string {
	return fmt.Sprintf("%s/%s/info", TopicPrefixNodes, nodeID)
}

// NodePosition is the retained position topic for one node.
func (Topics) NodePosition(nodeID string) string {
	return fmt.Sprintf("%s/%s/position", TopicPrefixNodes, nodeID)
}

// NodeTelemetry is the retained telemetry topic for one node.
func (Topics) NodeTelemetry(nodeID string) string {
	return fmt.Sprintf("%s/%s/telemetry", TopicPrefixNodes, nodeID)
}

// Message is the topic for text heard on a channel slot. Messages are
// events, not state, and are never retained.
func (Topics) Message(channel uint32) string {
	return fmt.Sprintf("%s/messages/%d", TopicPrefix, channel)
}

// AllMessages matches text messages on every channel slot.
func (Topics) AllMessages() string {
	return fmt.Sprintf("%s/messages/+", TopicPrefix)
}

// SendText is the command topic for outbound text. The daemon subscribes
// here and relays payloads onto the mesh.
func (Topics) SendText() string {
	return fmt.Sprintf("%s/command/send_text", TopicPrefix)
}

// SystemStatus is the retained daemon status topic, shared with the
// last will.
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// MeshStats is the topic for periodic network health summaries.
func (Topics) MeshStats() string {
	return fmt.Sprintf("%s/stats", TopicPrefixSystem)
}
