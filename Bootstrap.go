/*
File Name:  Bootstrap.go
Copyright:  2021 Peernet s.r.o.

Strategy for contacting the seed peers:
* Immediately at the beginning.
* Every 10 seconds as long as the routing table is empty.
Seed peers are pinged before they are imported.
*/

package nebula

import (
	"time"

	"github.com/PeernetOfficial/nebula/dht"
	"github.com/PeernetOfficial/nebula/protocol"
)

// parseSeedList parses the seed list from the config. Invalid entries and self are skipped.
func (backend *Backend) parseSeedList() (seeds []protocol.PeerAddress) {
	for _, address := range backend.Config.SeedList {
		peer, err := ParseAddress(address)
		if err != nil {
			backend.LogError("parseSeedList", "seed '%s': %v", address, err)
			continue
		}

		if peer.Equal(&backend.Self) { // skip if self
			continue
		}

		seeds = append(seeds, peer)
	}

	return seeds
}

// ContactSeeds imports all seed peers that respond to a ping. It returns the count of imported peers.
func (backend *Backend) ContactSeeds(seeds []protocol.PeerAddress) (imported int) {
	for _, peer := range seeds {
		switch backend.ImportPeer(peer, true) {
		case dht.ImportAdded, dht.ImportReplaced, dht.ImportRefreshed:
			imported++
		}
	}
	return imported
}

// bootstrap contacts the seed peers until at least one peer is known.
func (backend *Backend) bootstrap() {
	seeds := backend.parseSeedList()
	if len(seeds) == 0 {
		backend.LogError("bootstrap", "warning: Empty list of seed peers. Connectivity relies on incoming connections.")
		return
	}

	for {
		if imported := backend.ContactSeeds(seeds); imported > 0 || backend.PeerCount() > 0 {
			return
		}

		select {
		case <-backend.terminateSignal:
			return
		case <-time.After(time.Second * 10):
		}
	}
}
