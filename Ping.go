/*
File Name:  Ping.go
Copyright:  2021 Peernet s.r.o.
*/

package nebula

import (
	"crypto/rand"
	"io"

	"github.com/PeernetOfficial/nebula/protocol"
)

// Ping checks if the peer is alive. It sends random entropy and expects its hash back.
// Any failure including timeout, short read, or a wrong hash returns false.
func (backend *Backend) Ping(peer *protocol.PeerAddress) (alive bool) {
	var entropy [protocol.EntropySize]byte
	if _, err := rand.Read(entropy[:]); err != nil {
		backend.LogError("Ping", "generating entropy: %v", err)
		return false
	}

	stream, err := backend.exchange(peer, protocol.EncodePing(backend.Self.Port, entropy))
	if err != nil {
		backend.LogStatus("Ping", "peer %s: %v", peer.Address(), err)
		return false
	}
	defer stream.Close()

	buffer := make([]byte, protocol.MaxRequestSize)
	if _, err = io.ReadAtLeast(stream, buffer, protocol.HeaderSize+protocol.HashSize); err != nil {
		backend.LogStatus("Ping", "peer %s read: %v", peer.Address(), err)
		return false
	}

	msg, err := protocol.DecodeMessage(buffer[:protocol.HeaderSize+protocol.HashSize])
	if err != nil {
		backend.LogStatus("Ping", "peer %s invalid response: %v", peer.Address(), err)
		return false
	}

	pong, ok := msg.(*protocol.MessagePong)
	if !ok {
		backend.LogStatus("Ping", "peer %s responded with %s", peer.Address(), protocol.CommandName(msg.Header().Command))
		return false
	}

	if pong.Digest != protocol.PongDigest(entropy) {
		backend.LogStatus("Ping", "peer %s returned an invalid hash", peer.Address())
		return false
	}

	return true
}
