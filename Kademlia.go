/*
File Name:  Kademlia.go
Copyright:  2021 Peernet s.r.o.
*/

package nebula

import (
	"time"

	"github.com/PeernetOfficial/nebula/dht"
	"github.com/PeernetOfficial/nebula/protocol"
	"github.com/pkg/errors"
)

const bucketSize = 8 // Count of nodes per bucket

func (backend *Backend) initKademlia() {
	backend.nodesDHT = dht.NewDHT(&dht.Node{ID: backend.Self.ID, Info: &backend.Self}, bucketSize)

	// IsAlive is called for verified imports and for the head of a full bucket
	backend.nodesDHT.IsAlive = func(node *dht.Node) bool {
		return backend.Ping(nodeToPeer(node))
	}
}

// nodeToPeer returns the peer address stored in the node
func nodeToPeer(node *dht.Node) *protocol.PeerAddress {
	return node.Info.(*protocol.PeerAddress)
}

// ImportPeer imports the peer into the routing table. If verifyLive is set, the peer must respond to a ping first.
// Blacklisted peers are rejected.
func (backend *Backend) ImportPeer(peer protocol.PeerAddress, verifyLive bool) (action dht.ImportAction) {
	if reason, blacklisted := backend.Blacklist.IsBlacklisted(peer.IP); blacklisted {
		backend.LogStatus("ImportPeer", "peer %s is blacklisted: %s", peer.Address(), reason)
		return dht.ImportRejected
	}

	info := peer
	action, evicted, err := backend.nodesDHT.ImportNode(&dht.Node{ID: peer.ID, Info: &info}, verifyLive)

	if errors.Is(err, dht.ErrImportSelf) || errors.Is(err, dht.ErrNotAlive) {
		backend.LogStatus("ImportPeer", "peer %s not imported: %v", peer.Address(), err)
		return action
	} else if err != nil {
		backend.LogError("ImportPeer", "peer %s: %v", peer.Address(), err)
		return action
	}

	if action == dht.ImportRejected {
		return action
	}

	bucket, _ := backend.nodesDHT.BucketIndex(peer.ID)
	event := PeerEvent{Action: action, Peer: peer, Bucket: bucket}

	switch action {
	case dht.ImportAdded:
		backend.Filters.NewPeer(&info, bucket)

	case dht.ImportReplaced:
		event.Evicted = nodeToPeer(evicted)
		backend.LogStatus("ImportPeer", "peer %s evicted in favor of %s", event.Evicted.Address(), peer.Address())
		backend.Filters.PeerEvicted(event.Evicted)
		backend.Filters.NewPeer(&info, bucket)
	}

	backend.sendPeerEvent(event)

	return action
}

// RemovePeer removes the peer from the routing table
func (backend *Backend) RemovePeer(peer *protocol.PeerAddress) (removed bool) {
	return backend.nodesDHT.RemoveNode(peer.ID) != nil
}

// AllPeers returns all peers in the routing table, ordered by bucket index.
func (backend *Backend) AllPeers() (peers []protocol.PeerAddress) {
	nodes := backend.nodesDHT.Nodes()
	peers = make([]protocol.PeerAddress, 0, len(nodes))
	for _, node := range nodes {
		peers = append(peers, *nodeToPeer(node))
	}
	return peers
}

// PeerCount returns the count of peers in the routing table
func (backend *Backend) PeerCount() int {
	return backend.nodesDHT.NumNodes()
}

// PeersPerBucket returns the count of peers for every bucket
func (backend *Backend) PeersPerBucket() []int {
	return backend.nodesDHT.NodesPerBucket()
}

// IsKnownPeer checks if a peer with the same IP and port is in the routing table.
func (backend *Backend) IsKnownPeer(peer *protocol.PeerAddress) bool {
	index, err := backend.nodesDHT.BucketIndex(peer.ID)
	if err != nil {
		return false
	}

	for _, node := range backend.nodesDHT.BucketNodes(index) {
		if nodeToPeer(node).Equal(peer) {
			return true
		}
	}
	return false
}

// PeerInfo is a peer in the routing table
type PeerInfo struct {
	protocol.PeerAddress
	Bucket   int       // Bucket index
	LastSeen time.Time // Last time the peer was imported or confirmed alive
}

// PeerList returns all peers with their bucket information. Peers are ordered by bucket and within a bucket from least to most recently seen.
func (backend *Backend) PeerList() (peers []PeerInfo) {
	for index := 0; index < dht.Bits; index++ {
		for _, node := range backend.nodesDHT.BucketNodes(index) {
			peers = append(peers, PeerInfo{PeerAddress: *nodeToPeer(node), Bucket: index, LastSeen: node.LastSeen})
		}
	}
	return peers
}

// PeersFamily returns the peers of one address family
func (backend *Backend) PeersFamily(ipv6 bool) (peers []protocol.PeerAddress) {
	nodes := backend.nodesDHT.NodesFiltered(func(node *dht.Node) bool {
		return nodeToPeer(node).IsIPv6() == ipv6
	})
	for _, node := range nodes {
		peers = append(peers, *nodeToPeer(node))
	}
	return peers
}
