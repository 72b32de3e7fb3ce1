/*
File Name:  Peer Address.go
Copyright:  2021 Peernet s.r.o.

The node ID is derived from the address and port:
IPv6: upper 64 bits = address bytes 2..9 (little endian), lower 64 bits = address bytes 10..15 followed by the port (little endian).
IPv4: Keccak-256 of each octet, truncated to 4/4/4/2 bytes, followed by the big-endian port, read as a big-endian 128-bit number.
*/

package protocol

import (
	"encoding/binary"
	"net"
	"strconv"

	"github.com/PeernetOfficial/nebula/dht"
	"github.com/pkg/errors"
)

// ErrInvalidAddressFamily is returned for addresses that are neither IPv4 nor IPv6
var ErrInvalidAddressFamily = errors.New("invalid address family")

// PeerAddress is the address of a peer and its derived ID. It is immutable once created by NewPeerAddress.
type PeerAddress struct {
	IP   net.IP     // 4 bytes for IPv4, 16 bytes for IPv6.
	Port uint16     // Listening port.
	ID   dht.NodeID // Derived from IP and port.
}

// NewPeerAddress creates a new peer address. IPv4-mapped IPv6 addresses are treated as IPv4.
func NewPeerAddress(ip net.IP, port uint16) (peer PeerAddress, err error) {
	if ipv4 := ip.To4(); ipv4 != nil {
		peer.IP = make(net.IP, net.IPv4len)
		copy(peer.IP, ipv4)
	} else if len(ip) == net.IPv6len {
		peer.IP = make(net.IP, net.IPv6len)
		copy(peer.IP, ip)
	} else {
		return peer, ErrInvalidAddressFamily
	}

	peer.Port = port
	peer.ID, err = DeriveNodeID(peer.IP, port)

	return peer, err
}

// DeriveNodeID derives the node ID from the IP and port. The result is deterministic.
func DeriveNodeID(ip net.IP, port uint16) (id dht.NodeID, err error) {
	if ipv4 := ip.To4(); ipv4 != nil {
		var buffer [16]byte
		copy(buffer[0:4], HashData(ipv4[0:1])[:4])
		copy(buffer[4:8], HashData(ipv4[1:2])[:4])
		copy(buffer[8:12], HashData(ipv4[2:3])[:4])
		copy(buffer[12:14], HashData(ipv4[3:4])[:2])
		binary.BigEndian.PutUint16(buffer[14:16], port)

		return dht.NodeIDFromBytes(buffer[:]), nil
	} else if len(ip) == net.IPv6len {
		var low [8]byte
		copy(low[0:6], ip[10:16])
		binary.LittleEndian.PutUint16(low[6:8], port)

		id.Hi = binary.LittleEndian.Uint64(ip[2:10])
		id.Lo = binary.LittleEndian.Uint64(low[:])
		return id, nil
	}

	return id, ErrInvalidAddressFamily
}

// IsIPv4 checks if the address is IPv4
func (peer *PeerAddress) IsIPv4() bool {
	return len(peer.IP) == net.IPv4len
}

// IsIPv6 checks if the address is IPv6
func (peer *PeerAddress) IsIPv6() bool {
	return len(peer.IP) == net.IPv6len
}

// Equal compares IP and port. Use the ID for routing table membership.
func (peer *PeerAddress) Equal(other *PeerAddress) bool {
	return peer.Port == other.Port && peer.IP.Equal(other.IP)
}

// Address returns the address in IP:Port format suitable for dialing.
func (peer *PeerAddress) Address() string {
	return net.JoinHostPort(peer.IP.String(), strconv.Itoa(int(peer.Port)))
}

func (peer *PeerAddress) String() string {
	return peer.Address() + " " + peer.ID.String()
}
