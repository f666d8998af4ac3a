package mesh

import (
	"context"
	"testing"
	"time"

	"github.com/rfmesh/rfmesh-core/internal/radio"
)

func seedTopology(client *Client) {
	now := uint32(time.Now().Unix())
	stale := uint32(time.Now().Add(-2 * time.Hour).Unix())

	// Direct neighbors with different signal strengths.
	client.state.updateNode(&radio.NodeInfo{
		Num:       0x33333333,
		User:      &radio.User{ID: "!33333333", LongName: "Valley Scout"},
		SNR:       2.0,
		LastHeard: now,
	})
	// Two hops out.
	client.state.updateNode(&radio.NodeInfo{
		Num:       0x44444444,
		SNR:       -3.0,
		LastHeard: now,
		HopsAway:  2,
	})
	// Direct but not heard within the active window.
	client.state.updateNode(&radio.NodeInfo{
		Num:       0x55555555,
		SNR:       6.0,
		LastHeard: stale,
	})
}

func TestNodesSorted(t *testing.T) {
	fs := newFakeStream()
	client := newConnectedClient(t, fs)
	seedTopology(client)

	nodes := client.Nodes()
	if len(nodes) != 5 {
		t.Fatalf("nodes = %d, want 5", len(nodes))
	}
	for i := 1; i < len(nodes); i++ {
		if nodes[i-1].Num > nodes[i].Num {
			t.Errorf("nodes out of order: %08x before %08x", nodes[i-1].Num, nodes[i].Num)
		}
	}
}

func TestNeighbors(t *testing.T) {
	fs := newFakeStream()
	client := newConnectedClient(t, fs)
	seedTopology(client)

	neighbors := client.Neighbors()

	// The repeater (SNR 8.5) and the scout (SNR 2.0): direct and recent.
	// The two-hop node, the stale node, and the local node are excluded.
	if len(neighbors) != 2 {
		t.Fatalf("neighbors = %+v, want 2", neighbors)
	}
	if neighbors[0].Num != 0x22222222 || neighbors[1].Num != 0x33333333 {
		t.Errorf("order = %08x, %08x, want strongest first", neighbors[0].Num, neighbors[1].Num)
	}
	if neighbors[0].Name != "Ridge Repeater" {
		t.Errorf("name = %q, want Ridge Repeater", neighbors[0].Name)
	}
}

func TestNetworkStats(t *testing.T) {
	fs := newFakeStream()
	client := newConnectedClient(t, fs)
	seedTopology(client)

	stats := client.NetworkStats()
	if stats.TotalNodes != 4 {
		t.Errorf("TotalNodes = %d, want 4 (self excluded)", stats.TotalNodes)
	}
	if stats.ActiveNodes != 3 {
		t.Errorf("ActiveNodes = %d, want 3", stats.ActiveNodes)
	}
	if stats.DirectNodes != 3 {
		t.Errorf("DirectNodes = %d, want 3", stats.DirectNodes)
	}
	if stats.Health != HealthGood {
		t.Errorf("Health = %v, want good", stats.Health)
	}
}

func TestNetworkStatsDegraded(t *testing.T) {
	fs := newFakeStream()
	client := newConnectedClient(t, fs)

	stale := uint32(time.Now().Add(-2 * time.Hour).Unix())
	for num := uint32(0x60000001); num <= 0x60000003; num++ {
		client.state.updateNode(&radio.NodeInfo{Num: num, LastHeard: stale})
	}

	// One active node out of four known: fewer than half.
	stats := client.NetworkStats()
	if stats.Health != HealthDegraded {
		t.Errorf("Health = %v, want degraded (%d/%d active)",
			stats.Health, stats.ActiveNodes, stats.TotalNodes)
	}
}

func TestNetworkStatsIsolated(t *testing.T) {
	fs := newFakeStream()
	respondHandshake(fs, []*radio.FromRadio{
		{MyInfo: &radio.MyNodeInfo{NodeNum: testNodeNum}},
	})
	client, err := NewClient(Options{
		Dial: func(context.Context) (Stream, error) { return fs, nil },
		IDs:  &seqIDs{},
	})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Disconnect() })

	if stats := client.NetworkStats(); stats.Health != HealthIsolated {
		t.Errorf("Health = %v, want isolated with an empty node database", stats.Health)
	}
}

func TestTopology(t *testing.T) {
	fs := newFakeStream()
	client := newConnectedClient(t, fs)
	seedTopology(client)

	topo := client.Topology()
	if len(topo.Nodes) != 5 {
		t.Errorf("Nodes = %d, want 5", len(topo.Nodes))
	}

	// Edges run from the local node to every direct peer, recent or not.
	want := []uint32{0x22222222, 0x33333333, 0x55555555}
	if len(topo.Edges) != len(want) {
		t.Fatalf("Edges = %+v, want %d direct links", topo.Edges, len(want))
	}
	for i, edge := range topo.Edges {
		if edge.From != testNodeNum || edge.To != want[i] {
			t.Errorf("edge[%d] = %08x->%08x, want ->%08x", i, edge.From, edge.To, want[i])
		}
	}
}
