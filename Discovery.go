/*
File Name:  Discovery.go
Copyright:  2021 Peernet s.r.o.

The discovery sweep asks every known peer for its peer list and imports new peers after a successful ping.
Boot nodes may disable the sweep and only answer incoming requests.
*/

package nebula

import (
	"io"
	"time"

	"github.com/PeernetOfficial/nebula/dht"
	"github.com/PeernetOfficial/nebula/protocol"
	"github.com/google/uuid"
)

// RequestPeers requests the peer list of the remote peer. Any network failure returns an empty list.
// If the connection breaks during the response, the peers received so far are returned.
func (backend *Backend) RequestPeers(peer *protocol.PeerAddress) (peers []protocol.PeerAddress) {
	stream, err := backend.exchange(peer, protocol.EncodeRequestPeers(backend.Self.Port))
	if err != nil {
		backend.LogStatus("RequestPeers", "peer %s: %v", peer.Address(), err)
		return nil
	}
	defer stream.Close()

	// The response ends when the remote peer closes the connection.
	data, err := io.ReadAll(io.LimitReader(stream, protocol.MaxResponseSize))
	if err != nil {
		if len(data) == 0 {
			backend.LogStatus("RequestPeers", "peer %s read: %v", peer.Address(), err)
			return nil
		}
		backend.LogStatus("RequestPeers", "peer %s response incomplete after %d bytes: %v", peer.Address(), len(data), err)
	}

	msg, err := protocol.DecodeMessage(data)
	if err != nil {
		backend.LogStatus("RequestPeers", "peer %s invalid response: %v", peer.Address(), err)
		return nil
	}

	response, ok := msg.(*protocol.MessageRespondPeers)
	if !ok {
		backend.LogStatus("RequestPeers", "peer %s responded with %s", peer.Address(), protocol.CommandName(msg.Header().Command))
		return nil
	}

	return response.Peers
}

// DiscoveryResult is the statistic of a single sweep
type DiscoveryResult struct {
	Sweep     uuid.UUID // Sweep ID for correlating log entries
	Contacted int       // Count of peers asked for their peer list
	Received  int       // Count of peer records received
	Imported  int       // Count of new peers imported
}

// DiscoverPeers asks every peer in the routing table for its peer list and imports unknown peers that respond to a ping.
// Each bucket is copied before it is processed, changes to the table during the sweep do not affect it.
func (backend *Backend) DiscoverPeers() (result DiscoveryResult) {
	result.Sweep = uuid.New()

	for index := 0; index < dht.Bits; index++ {
		for _, node := range backend.nodesDHT.BucketNodes(index) {
			if backend.isTerminated() {
				return result
			}

			peer := nodeToPeer(node)
			candidates := backend.RequestPeers(peer)

			result.Contacted++
			result.Received += len(candidates)

			for n := range candidates {
				candidate := &candidates[n]

				if candidate.Equal(&backend.Self) || candidate.ID == backend.Self.ID || backend.IsKnownPeer(candidate) {
					continue
				}

				switch backend.ImportPeer(*candidate, true) {
				case dht.ImportAdded, dht.ImportReplaced:
					result.Imported++
				}
			}
		}
	}

	backend.LogStatus("DiscoverPeers", "sweep %s: contacted %d peers, received %d records, imported %d new peers", result.Sweep.String(), result.Contacted, result.Received, result.Imported)

	return result
}

// autoDiscovery runs the discovery sweep until the backend is terminated.
func (backend *Backend) autoDiscovery() {
	interval := backend.Config.DiscoveryInterval
	if interval <= 0 {
		interval = time.Second
	}

	for {
		select {
		case <-backend.terminateSignal:
			return
		case <-time.After(interval):
		}

		backend.DiscoverPeers()
	}
}
