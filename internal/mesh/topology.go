package mesh

import (
	"sort"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

// activeWindow is how recently a node must have been heard to count as
// active.
const activeWindow = time.Hour

// Nodes returns every known node, ordered by node number.
func (c *Client) Nodes() []*radio.NodeInfo {
	snap := c.state.snapshot()
	nodes := make([]*radio.NodeInfo, 0, len(snap.Nodes))
	for _, node := range snap.Nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Num < nodes[j].Num })
	return nodes
}

// Neighbors returns directly reachable nodes heard within the active
// window, strongest signal first.
func (c *Client) Neighbors() []Neighbor {
	snap := c.state.snapshot()
	self := uint32(0)
	if snap.MyInfo != nil {
		self = snap.MyInfo.NodeNum
	}

	cutoff := time.Now().Add(-activeWindow)
	var out []Neighbor
	for num, node := range snap.Nodes {
		if num == self || node.HopsAway != 0 {
			continue
		}
		heard := time.Unix(int64(node.LastHeard), 0)
		if heard.Before(cutoff) {
			continue
		}
		out = append(out, Neighbor{
			Num:       num,
			Name:      snap.NodeName(num),
			SNR:       node.SNR,
			LastHeard: heard,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SNR > out[j].SNR })
	return out
}

// NetworkStats summarizes mesh reachability from the node database.
//
// Health classification: isolated when no node is active, degraded when
// fewer than half the known nodes are active, good otherwise.
func (c *Client) NetworkStats() NetworkStats {
	snap := c.state.snapshot()
	self := uint32(0)
	if snap.MyInfo != nil {
		self = snap.MyInfo.NodeNum
	}

	cutoff := time.Now().Add(-activeWindow)
	stats := NetworkStats{}
	var snrSum float32
	var snrCount int

	for num, node := range snap.Nodes {
		if num == self {
			continue
		}
		stats.TotalNodes++
		if !time.Unix(int64(node.LastHeard), 0).Before(cutoff) {
			stats.ActiveNodes++
		}
		if node.HopsAway == 0 {
			stats.DirectNodes++
		}
		if node.SNR != 0 {
			snrSum += node.SNR
			snrCount++
		}
	}

	if snrCount > 0 {
		stats.AverageSNR = snrSum / float32(snrCount)
	}

	switch {
	case stats.TotalNodes == 0 || stats.ActiveNodes == 0:
		stats.Health = HealthIsolated
	case stats.ActiveNodes*2 < stats.TotalNodes:
		stats.Health = HealthDegraded
	default:
		stats.Health = HealthGood
	}
	return stats
}

// Topology returns the known mesh graph: every node and the direct links
// from the local node. Links beyond the first hop are not observable from
// the node database.
func (c *Client) Topology() Topology {
	snap := c.state.snapshot()
	self := uint32(0)
	if snap.MyInfo != nil {
		self = snap.MyInfo.NodeNum
	}

	topo := Topology{}
	for num := range snap.Nodes {
		topo.Nodes = append(topo.Nodes, num)
	}
	sort.Slice(topo.Nodes, func(i, j int) bool { return topo.Nodes[i] < topo.Nodes[j] })

	for num, node := range snap.Nodes {
		if num == self || node.HopsAway != 0 {
			continue
		}
		topo.Edges = append(topo.Edges, TopologyEdge{From: self, To: num, SNR: node.SNR})
	}
	sort.Slice(topo.Edges, func(i, j int) bool { return topo.Edges[i].To < topo.Edges[j].To })
	return topo
}
