/*
File Name:  Commands.go
Copyright:  2021 Peernet s.r.o.

Incoming requests are read in a single read of up to MaxRequestSize bytes. Larger or fragmented requests are not supported.
*/

package nebula

import (
	"time"

	"github.com/PeernetOfficial/nebula/protocol"
)

// HandleConnection handles a single incoming connection. It replies to PING and REQUEST_PEERS and then imports the remote peer without verification.
// The stream is always closed. Invalid and unsolicited messages are ignored.
func (backend *Backend) HandleConnection(stream Stream) {
	remote, ok := backend.handleRequest(stream)
	stream.Close()

	// The exchange itself proves the remote peer is alive.
	// The import happens after closing so the remote does not wait for a possible eviction check.
	if ok {
		backend.ImportPeer(remote, false)
	}
}

// handleRequest reads and answers the request. It returns the remote peer's address (observed IP, claimed port) if the exchange succeeded.
func (backend *Backend) handleRequest(stream Stream) (remote protocol.PeerAddress, ok bool) {
	ip := remoteIP(stream)
	if ip == nil {
		backend.LogError("HandleConnection", "unknown remote address '%v'", stream.RemoteAddr())
		return remote, false
	}

	if reason, blacklisted := backend.Blacklist.IsBlacklisted(ip); blacklisted {
		backend.LogStatus("HandleConnection", "refused blacklisted %s: %s", ip.String(), reason)
		return remote, false
	}

	stream.SetDeadline(time.Now().Add(backend.Config.TimeoutRead))

	buffer := make([]byte, protocol.MaxRequestSize)
	length, err := stream.Read(buffer)
	if err != nil {
		backend.LogStatus("HandleConnection", "read from %s: %v", ip.String(), err)
		return remote, false
	}

	msg, err := protocol.DecodeMessage(buffer[:length])
	if err != nil {
		backend.LogStatus("HandleConnection", "invalid message from %s: %v", ip.String(), err)
		return remote, false
	}

	if remote, err = protocol.NewPeerAddress(ip, msg.Header().Port); err != nil {
		backend.LogError("HandleConnection", "remote %s: %v", ip.String(), err)
		return remote, false
	}

	backend.Filters.IncomingRequest(&remote, msg)

	var response []byte

	switch v := msg.(type) {
	case *protocol.MessagePing:
		response = protocol.EncodePong(backend.Self.Port, protocol.PongDigest(v.Entropy))

	case *protocol.MessageRequestPeers:
		response = protocol.EncodeRespondPeers(backend.Self.Port, backend.AllPeers())

	default:
		backend.LogStatus("HandleConnection", "ignoring unsolicited %s from %s", protocol.CommandName(msg.Header().Command), remote.Address())
		return remote, false
	}

	if _, err = stream.Write(response); err != nil {
		backend.LogStatus("HandleConnection", "reply to %s: %v", remote.Address(), err)
		return remote, false
	}

	return remote, true
}
