package dht

import (
	"sync"
	"testing"
)

// newTestDHT creates a DHT with self at ID 0. IDs 1024..2047 all fall into bucket 10.
func newTestDHT(alive map[NodeID]bool) (dht *DHT, probes *[]NodeID) {
	var mutex sync.Mutex
	probes = &[]NodeID{}

	dht = NewDHT(&Node{ID: NodeID{}}, 8)
	dht.IsAlive = func(node *Node) bool {
		mutex.Lock()
		*probes = append(*probes, node.ID)
		mutex.Unlock()
		return alive[node.ID]
	}
	return dht, probes
}

func bucketIDs(dht *DHT, index int) (ids []uint64) {
	for _, node := range dht.BucketNodes(index) {
		ids = append(ids, node.ID.Lo)
	}
	return ids
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for n := range a {
		if a[n] != b[n] {
			return false
		}
	}
	return true
}

func fillBucket(t *testing.T, dht *DHT) {
	for n := uint64(0); n < 8; n++ {
		if action, _, err := dht.ImportNode(&Node{ID: NodeID{0, 1024 + n}}, false); action != ImportAdded || err != nil {
			t.Fatalf("import %d: %s %v", n, action, err)
		}
	}
}

func TestImportIdempotent(t *testing.T) {
	dht, _ := newTestDHT(nil)

	dht.ImportNode(&Node{ID: NodeID{0, 1024}}, false)
	dht.ImportNode(&Node{ID: NodeID{0, 1025}}, false)

	action, _, _ := dht.ImportNode(&Node{ID: NodeID{0, 1024}}, false)
	if action != ImportRefreshed {
		t.Fatalf("expected refresh, got %s", action)
	}

	if dht.NumNodes() != 2 {
		t.Fatalf("expected 2 nodes, got %d", dht.NumNodes())
	}
	if ids := bucketIDs(dht, 10); !equalIDs(ids, []uint64{1025, 1024}) {
		t.Fatalf("unexpected bucket order %v", ids)
	}
}

func TestImportSelf(t *testing.T) {
	dht, probes := newTestDHT(nil)

	action, _, err := dht.ImportNode(&Node{ID: NodeID{}}, true)
	if action != ImportRejected || err != ErrImportSelf {
		t.Fatalf("self import not rejected: %s %v", action, err)
	}
	if dht.NumNodes() != 0 || len(*probes) != 0 {
		t.Fatalf("self import touched the table or the network")
	}
}

func TestImportVerifyLive(t *testing.T) {
	dht, _ := newTestDHT(map[NodeID]bool{{0, 5}: true})

	if _, _, err := dht.ImportNode(&Node{ID: NodeID{0, 6}}, true); err != ErrNotAlive {
		t.Fatalf("expected ErrNotAlive, got %v", err)
	}
	if action, _, _ := dht.ImportNode(&Node{ID: NodeID{0, 5}}, true); action != ImportAdded {
		t.Fatalf("live node not added: %s", action)
	}
	if dht.NumNodes() != 1 {
		t.Fatalf("expected 1 node, got %d", dht.NumNodes())
	}
}

func TestEvictionHeadAlive(t *testing.T) {
	dht, probes := newTestDHT(map[NodeID]bool{{0, 1024}: true})
	fillBucket(t, dht)

	action, evicted, _ := dht.ImportNode(&Node{ID: NodeID{0, 1032}}, false)
	if action != ImportRejected || evicted != nil {
		t.Fatalf("expected rejection, got %s", action)
	}

	expected := []uint64{1025, 1026, 1027, 1028, 1029, 1030, 1031, 1024}
	if ids := bucketIDs(dht, 10); !equalIDs(ids, expected) {
		t.Fatalf("unexpected bucket %v", ids)
	}
	if len(*probes) != 1 || (*probes)[0] != (NodeID{0, 1024}) {
		t.Fatalf("expected exactly one probe of the head, got %v", *probes)
	}
}

func TestEvictionHeadDead(t *testing.T) {
	dht, _ := newTestDHT(nil)
	fillBucket(t, dht)

	action, evicted, _ := dht.ImportNode(&Node{ID: NodeID{0, 1032}}, false)
	if action != ImportReplaced || evicted == nil || evicted.ID != (NodeID{0, 1024}) {
		t.Fatalf("expected replacement of the head, got %s", action)
	}

	expected := []uint64{1025, 1026, 1027, 1028, 1029, 1030, 1031, 1032}
	if ids := bucketIDs(dht, 10); !equalIDs(ids, expected) {
		t.Fatalf("unexpected bucket %v", ids)
	}
	if dht.IsNodeContact(NodeID{0, 1024}) != nil {
		t.Fatalf("evicted node still in table")
	}
}

func TestRemoveNode(t *testing.T) {
	dht, _ := newTestDHT(nil)
	fillBucket(t, dht)

	if dht.RemoveNode(NodeID{0, 1027}) == nil {
		t.Fatalf("node not removed")
	}
	if dht.RemoveNode(NodeID{0, 1027}) != nil {
		t.Fatalf("node removed twice")
	}
	if dht.NumNodes() != 7 || dht.NodesPerBucket()[10] != 7 {
		t.Fatalf("unexpected count %d", dht.NumNodes())
	}
}

func TestNodesBucketOrder(t *testing.T) {
	dht, _ := newTestDHT(nil)

	for _, lo := range []uint64{1 << 40, 3, 1 << 20} {
		dht.ImportNode(&Node{ID: NodeID{0, lo}}, false)
	}
	dht.ImportNode(&Node{ID: NodeID{1, 0}}, false)

	nodes := dht.Nodes()
	if len(nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(nodes))
	}
	for n := 1; n < len(nodes); n++ {
		if !nodes[n-1].ID.Less(nodes[n].ID) {
			t.Fatalf("nodes not returned in bucket order")
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	dht, _ := newTestDHT(nil)
	fillBucket(t, dht)

	snapshot := dht.BucketNodes(10)
	before := snapshot[0].LastSeen

	dht.ImportNode(&Node{ID: NodeID{0, 1024}}, false)

	if snapshot[0].ID != (NodeID{0, 1024}) || !snapshot[0].LastSeen.Equal(before) {
		t.Fatalf("snapshot changed by a later refresh")
	}
}

func TestConcurrentImport(t *testing.T) {
	dht, _ := newTestDHT(nil)

	var wg sync.WaitGroup
	for worker := 0; worker < 8; worker++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := uint64(0); n < 64; n++ {
				dht.ImportNode(&Node{ID: NodeID{0, 1024 + n%8}}, false)
				dht.Nodes()
			}
		}()
	}
	wg.Wait()

	if dht.NumNodes() != 8 {
		t.Fatalf("expected 8 unique nodes, got %d", dht.NumNodes())
	}
}
