/*
File Name:  Node ID.go
Copyright:  2021 Peernet s.r.o.

Node identifiers are 128-bit unsigned integers. The distance between two nodes is the absolute difference of their identifiers (not the XOR metric of classic Kademlia).
*/

package dht

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/pkg/errors"
)

// Bits is the size of a node ID in bits. It is also the number of buckets in the routing table.
const Bits = 128

// ErrNoBucketFit is returned if a distance does not fall into any bucket. It cannot happen for 128-bit distances.
var ErrNoBucketFit = errors.New("distance does not fit into any bucket")

// NodeID is a 128-bit unsigned integer. Hi holds the most significant 64 bits.
type NodeID struct {
	Hi, Lo uint64
}

// NodeIDFromBytes reads a 16-byte big-endian buffer.
func NodeIDFromBytes(b []byte) (id NodeID) {
	if len(b) != 16 {
		return id
	}
	return NodeID{Hi: binary.BigEndian.Uint64(b[0:8]), Lo: binary.BigEndian.Uint64(b[8:16])}
}

// Bytes returns the big-endian representation.
func (id NodeID) Bytes() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], id.Hi)
	binary.BigEndian.PutUint64(b[8:16], id.Lo)
	return b
}

// IsZero checks if the ID is 0
func (id NodeID) IsZero() bool {
	return id.Hi == 0 && id.Lo == 0
}

// Less returns true if id < other.
func (id NodeID) Less(other NodeID) bool {
	if id.Hi != other.Hi {
		return id.Hi < other.Hi
	}
	return id.Lo < other.Lo
}

// BitLen returns the minimum number of bits required to represent the ID. 0 for the zero ID.
func (id NodeID) BitLen() int {
	if id.Hi != 0 {
		return 64 + bits.Len64(id.Hi)
	}
	return bits.Len64(id.Lo)
}

func (id NodeID) String() string {
	return fmt.Sprintf("%016x%016x", id.Hi, id.Lo)
}

// sub returns a - b. The caller guarantees a >= b.
func sub(a, b NodeID) (result NodeID) {
	var borrow uint64
	result.Lo, borrow = bits.Sub64(a.Lo, b.Lo, 0)
	result.Hi, _ = bits.Sub64(a.Hi, b.Hi, borrow)
	return result
}

// Distance returns the absolute difference |a - b|. It is symmetric and 0 only for equal IDs.
func Distance(a, b NodeID) NodeID {
	if a.Less(b) {
		return sub(b, a)
	}
	return sub(a, b)
}

// BucketIndex returns the bucket for the given distance: the index i with 2^i <= distance < 2^(i+1).
// A distance of 0 maps to bucket 0.
func BucketIndex(distance NodeID) (index int, err error) {
	if distance.IsZero() {
		return 0, nil
	}

	index = distance.BitLen() - 1
	if index < 0 || index >= Bits {
		return 0, ErrNoBucketFit
	}

	return index, nil
}
