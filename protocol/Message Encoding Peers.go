/*
File Name:  Message Encoding Peers.go
Copyright:  2021 Peernet s.r.o.

Payload of RESPOND_PEERS is a list of peer records:
Offset  Size   Info
0       1      Flag: 0x01 = IPv6, 0xFF = IPv4
1       14/4   IPv6 address without the 2001 prefix, or IPv4 address
15/5    2      Port (little endian)
*/

package protocol

import (
	"encoding/binary"
	"net"

	"github.com/PeernetOfficial/nebula/dht"
)

// Peer record flags
const (
	peerFlagIPv6 = 0x01
	peerFlagIPv4 = 0xFF
)

const (
	peerRecordSizeIPv4 = 1 + 4 + 2
	peerRecordSizeIPv6 = 1 + 14 + 2
)

// ipv6Prefix is implied for all IPv6 records
var ipv6Prefix = [2]byte{0x20, 0x01}

// isIPv6Representable checks if the IPv6 address has the implied prefix
func isIPv6Representable(ip net.IP) bool {
	return len(ip) == net.IPv6len && ip[0] == ipv6Prefix[0] && ip[1] == ipv6Prefix[1]
}

func encodePeerRecords(peers []PeerAddress) (raw []byte) {
	for n := range peers {
		peer := &peers[n]
		var record []byte

		if peer.IsIPv4() {
			record = make([]byte, peerRecordSizeIPv4)
			record[0] = peerFlagIPv4
			copy(record[1:5], peer.IP)
		} else if isIPv6Representable(peer.IP) {
			record = make([]byte, peerRecordSizeIPv6)
			record[0] = peerFlagIPv6
			copy(record[1:15], peer.IP[2:16])
		} else {
			continue
		}

		binary.LittleEndian.PutUint16(record[len(record)-2:], peer.Port)
		raw = append(raw, record...)
	}

	return raw
}

// decodePeerRecords decodes as many records as possible. A malformed record ends the list.
// Duplicates by node ID are removed, keeping the first one.
func decodePeerRecords(data []byte) (peers []PeerAddress) {
	seen := make(map[dht.NodeID]struct{})

	for index := 0; len(data)-index >= peerRecordSizeIPv4; {
		var ip net.IP
		var size int

		switch data[index] {
		case peerFlagIPv4:
			size = peerRecordSizeIPv4
			ip = net.IP(data[index+1 : index+5])

		case peerFlagIPv6:
			size = peerRecordSizeIPv6
			if len(data)-index < size {
				return peers
			}
			ip = make(net.IP, net.IPv6len)
			copy(ip[0:2], ipv6Prefix[:])
			copy(ip[2:16], data[index+1:index+15])

		default:
			return peers
		}

		port := binary.LittleEndian.Uint16(data[index+size-2 : index+size])
		index += size

		peer, err := NewPeerAddress(ip, port)
		if err != nil {
			continue
		}

		if _, ok := seen[peer.ID]; ok {
			continue
		}
		seen[peer.ID] = struct{}{}
		peers = append(peers, peer)
	}

	return peers
}
