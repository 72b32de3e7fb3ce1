/*
File Name:  Node.go
Copyright:  2021 Peernet s.r.o.
*/

package dht

import (
	"time"
)

// Node is an entry in the routing table
type Node struct {
	// ID is the unique identifier
	ID NodeID

	// LastSeen when was this node last confirmed alive or imported
	LastSeen time.Time

	// Info is an arbitrary pointer specified by the caller. The network layer stores the peer address here.
	Info interface{}
}

// NodeFilterFunc is called to filter nodes based on the callers choice
type NodeFilterFunc func(node *Node) (accept bool)

// ImportAction is the outcome of importing a node into the routing table
type ImportAction int

// List of import outcomes
const (
	ImportRejected  ImportAction = iota // Self, distance 0, bucket full with a live head, or failed liveness check.
	ImportRefreshed                     // Already known. Moved to the tail of its bucket.
	ImportAdded                         // Appended to a bucket with free space.
	ImportReplaced                      // Appended after evicting the unresponsive head.
)

func (action ImportAction) String() string {
	switch action {
	case ImportRejected:
		return "rejected"
	case ImportRefreshed:
		return "refreshed"
	case ImportAdded:
		return "added"
	case ImportReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}
