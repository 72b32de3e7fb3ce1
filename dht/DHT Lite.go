/*
File Name:  DHT Lite.go
Copyright:  2021 Peernet s.r.o.

A "lite" DHT implementation without any direct network code. The caller provides the liveness check.
*/

package dht

import (
	"github.com/pkg/errors"
)

// Import errors. Both are regular outcomes and do not indicate a fault.
var (
	ErrImportSelf = errors.New("node is self")
	ErrNotAlive   = errors.New("node failed liveness check")
)

// DHT represents the state of the local node in the distributed hash table
type DHT struct {
	ht *hashTable

	// Functions below must be set and provided by the caller.

	// IsAlive checks if the node responds. It is called for new nodes imported with verification and for the head of a full bucket.
	// It may block for the duration of a network round trip.
	IsAlive func(node *Node) bool
}

// NewDHT initializes a new DHT node with default values.
func NewDHT(self *Node, bucketSize int) *DHT {
	return &DHT{
		ht: newHashTable(self, bucketSize),
	}
}

// Self returns the local node
func (dht *DHT) Self() *Node {
	return dht.ht.Self
}

// NumNodes returns the total number of nodes stored in the local routing table
func (dht *DHT) NumNodes() int {
	return dht.ht.totalNodes()
}

// Nodes returns the nodes stored in the routing table, in bucket order.
func (dht *DHT) Nodes() []*Node {
	return dht.ht.Nodes()
}

// BucketNodes returns a snapshot of a single bucket. The returned slice is not affected by later changes to the table.
func (dht *DHT) BucketNodes(index int) []*Node {
	return dht.ht.bucketNodes(index)
}

// NodesPerBucket returns the count of nodes for every bucket
func (dht *DHT) NodesPerBucket() []int {
	return dht.ht.getTotalNodesPerBucket()
}

// BucketIndex returns the bucket the ID belongs to
func (dht *DHT) BucketIndex(ID NodeID) (int, error) {
	return dht.ht.getBucketIndex(ID)
}

// ImportNode adds the node to the routing table.
// If verifyLive is set, the node must pass the liveness check first. A node that is already known is moved to the tail of its bucket.
// If the bucket is full, the least recently seen node is checked and evicted if it does not respond. Evicted is the removed node in that case.
func (dht *DHT) ImportNode(node *Node, verifyLive bool) (action ImportAction, evicted *Node, err error) {
	if node.ID == dht.ht.Self.ID {
		return ImportRejected, nil, ErrImportSelf
	}

	if verifyLive && dht.IsAlive != nil && !dht.IsAlive(node) {
		return ImportRejected, nil, ErrNotAlive
	}

	return dht.ht.insertNode(node, dht.IsAlive)
}

// RemoveNode removes a node. It returns the removed node or nil if it was not in the table.
func (dht *DHT) RemoveNode(ID NodeID) *Node {
	return dht.ht.removeNode(ID)
}

// IsNodeContact checks if the given node is in the local routing table and returns it.
func (dht *DHT) IsNodeContact(ID NodeID) (node *Node) {
	return dht.ht.doesNodeExist(ID)
}

// NodesFiltered returns all nodes accepted by the filter function.
func (dht *DHT) NodesFiltered(filterFunc NodeFilterFunc) (nodes []*Node) {
	for _, node := range dht.ht.Nodes() {
		if filterFunc == nil || filterFunc(node) {
			nodes = append(nodes, node)
		}
	}
	return nodes
}
