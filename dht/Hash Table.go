/*
File Name:  Hash Table.go
Copyright:  2021 Peernet s.r.o.
*/

package dht

import (
	"sync"
	"time"
)

// bucket is a recency-ordered list of nodes at a given distance range from the local node.
type bucket struct {
	// importMutex serializes the full import sequence including the liveness check of the head.
	importMutex sync.Mutex

	// mutex guards nodes. It is never held during network activity.
	mutex sync.RWMutex

	// Nodes are sorted by least recently seen e.g.
	// [ ][ ][ ][ ][ ][ ][ ][ ]
	//  ^                    ^
	//  └ Least recently seen └ Most recently seen
	nodes []*Node
}

// hashTable represents the hashtable state
type hashTable struct {
	// The local node
	Self *Node

	// the maximum number of contacts stored in a bucket
	bSize int

	// Routing table, one bucket per bit of the node ID
	buckets [Bits]*bucket
}

func newHashTable(self *Node, bucketSize int) *hashTable {
	ht := &hashTable{
		bSize: bucketSize,
		Self:  self,
	}

	for n := range ht.buckets {
		ht.buckets[n] = &bucket{}
	}

	return ht
}

// getBucketIndex returns the bucket index for the ID relative to self.
func (ht *hashTable) getBucketIndex(ID NodeID) (int, error) {
	return BucketIndex(Distance(ht.Self.ID, ID))
}

// find returns the position of the node in the bucket or -1. Caller must hold the lock.
func (b *bucket) find(ID NodeID) int {
	for i, v := range b.nodes {
		if v.ID == ID {
			return i
		}
	}
	return -1
}

// moveToTail moves the node at the position to the tail and refreshes it. Caller must hold the write lock.
// The entry is replaced by a copy so that snapshots handed out earlier are never written to.
func (b *bucket) moveToTail(index int) {
	n := *b.nodes[index]
	n.LastSeen = time.Now().UTC()

	b.nodes = append(b.nodes[:index], b.nodes[index+1:]...)
	b.nodes = append(b.nodes, &n)
}

// refresh moves the node with the ID to the tail if it is still present.
func (b *bucket) refresh(ID NodeID) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if index := b.find(ID); index >= 0 {
		b.moveToTail(index)
		return true
	}
	return false
}

// insertNode inserts the node into its bucket. If the bucket is full, isAlive is called for the least recently seen node to decide on eviction.
// The whole sequence runs under the bucket's import lock. Readers only wait for the individual modifications.
func (ht *hashTable) insertNode(node *Node, isAlive func(node *Node) bool) (action ImportAction, evicted *Node, err error) {
	index, err := ht.getBucketIndex(node.ID)
	if err != nil {
		return ImportRejected, nil, err
	}

	b := ht.buckets[index]

	b.importMutex.Lock()
	defer b.importMutex.Unlock()

	// If the node already exists, mark it as seen
	if b.refresh(node.ID) {
		return ImportRefreshed, nil, nil
	}

	entry := *node
	entry.LastSeen = time.Now().UTC()
	node = &entry

	b.mutex.Lock()
	if len(b.nodes) < ht.bSize {
		b.nodes = append(b.nodes, node)
		b.mutex.Unlock()
		return ImportAdded, nil, nil
	}
	head := b.nodes[0]
	b.mutex.Unlock()

	// Bucket is full. The head gets a chance to prove it is still alive.
	if isAlive != nil && isAlive(head) {
		b.refresh(head.ID)
		return ImportRejected, nil, nil
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if i := b.find(head.ID); i >= 0 {
		b.nodes = append(b.nodes[:i], b.nodes[i+1:]...)
	}
	b.nodes = append(b.nodes, node)

	return ImportReplaced, head, nil
}

// removeNode removes the node and returns it, or nil if not found.
func (ht *hashTable) removeNode(ID NodeID) (removed *Node) {
	index, err := ht.getBucketIndex(ID)
	if err != nil {
		return nil
	}

	b := ht.buckets[index]
	b.importMutex.Lock()
	defer b.importMutex.Unlock()
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if i := b.find(ID); i >= 0 {
		removed = b.nodes[i]
		b.nodes = append(b.nodes[:i], b.nodes[i+1:]...)
	}

	return removed
}

func (ht *hashTable) doesNodeExist(ID NodeID) (node *Node) {
	index, err := ht.getBucketIndex(ID)
	if err != nil {
		return nil
	}

	b := ht.buckets[index]
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	if i := b.find(ID); i >= 0 {
		return b.nodes[i]
	}
	return nil
}

// bucketNodes returns a copy of the bucket contents.
func (ht *hashTable) bucketNodes(index int) (nodes []*Node) {
	if index < 0 || index >= Bits {
		return nil
	}

	b := ht.buckets[index]
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	nodes = make([]*Node, len(b.nodes))
	copy(nodes, b.nodes)
	return nodes
}

// Nodes returns all nodes in bucket order. Each bucket is copied atomically.
func (ht *hashTable) Nodes() (nodes []*Node) {
	nodes = make([]*Node, 0, ht.bSize)
	for n := range ht.buckets {
		nodes = append(nodes, ht.bucketNodes(n)...)
	}
	return nodes
}

func (ht *hashTable) totalNodes() (total int) {
	for _, b := range ht.buckets {
		b.mutex.RLock()
		total += len(b.nodes)
		b.mutex.RUnlock()
	}
	return total
}

// getTotalNodesPerBucket returns the count of nodes in all buckets
func (ht *hashTable) getTotalNodesPerBucket() (total []int) {
	total = make([]int, Bits)
	for n, b := range ht.buckets {
		b.mutex.RLock()
		total[n] = len(b.nodes)
		b.mutex.RUnlock()
	}
	return total
}
