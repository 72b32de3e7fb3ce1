/*
File Name:  Peer ID.go
Copyright:  2021 Peernet s.r.o.

The own node ID is derived from the external IP (or the listening IP) and the actual listening port.
*/

package nebula

import (
	"net"
	"strconv"

	"github.com/PeernetOfficial/nebula/protocol"
	"github.com/pkg/errors"
)

func (backend *Backend) initPeerID() (err error) {
	ip := backend.Network.GetListen().IP

	if backend.Config.ExternalIP != "" {
		if ip = net.ParseIP(backend.Config.ExternalIP); ip == nil {
			return errors.Errorf("invalid external IP '%s'", backend.Config.ExternalIP)
		}
	} else if ip == nil || ip.IsUnspecified() {
		// Peers cannot reach an unspecified address. Use an interface IP, or loopback which keeps the node usable locally.
		IPs, err := listInterfaceIPs()
		if err != nil {
			backend.LogError("initPeerID", "listing interface IPs: %v", err)
		}
		if selected := announceIP(IPs, ip != nil && ip.To4() == nil); selected != nil {
			backend.LogStatus("initPeerID", "listening on unspecified address, announcing interface IP %s", selected.String())
			ip = selected
		} else {
			backend.LogError("initPeerID", "listening on unspecified address without external IP, using loopback as own address")
			ip = net.IPv4(127, 0, 0, 1)
		}
	}

	backend.Self, err = protocol.NewPeerAddress(ip, uint16(backend.Network.GetListen().Port))
	if err != nil {
		return errors.Wrap(err, "deriving own node ID")
	}

	backend.LogStatus("initPeerID", "node ID %s at %s", backend.Self.ID.String(), backend.Self.Address())

	return nil
}

// ParseAddress parses an input peer address in the form "IP:Port".
func ParseAddress(address string) (peer protocol.PeerAddress, err error) {
	host, portA, err := net.SplitHostPort(address)
	if err != nil {
		return peer, err
	}

	portI, err := strconv.Atoi(portA)
	if err != nil {
		return peer, err
	} else if portI <= 0 || portI > 65535 {
		return peer, errors.New("invalid port number")
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return peer, errors.New("invalid input IP")
	}

	return protocol.NewPeerAddress(ip, uint16(portI))
}
