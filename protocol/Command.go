/*
File Name:  Command.go
Copyright:  2021 Peernet s.r.o.
*/

package protocol

// Commands between peers
const (
	CommandPing         = 0x01 // Liveness probe with 32 bytes of entropy.
	CommandPong         = 0x02 // Response to ping, hash of the entropy.
	CommandRequestPeers = 0x03 // Request the peer list (no payload).
	CommandRespondPeers = 0x04 // Response with the peer list.
)

// CommandName returns a readable name for logging
func CommandName(command uint8) string {
	switch command {
	case CommandPing:
		return "PING"
	case CommandPong:
		return "PONG"
	case CommandRequestPeers:
		return "REQUEST_PEERS"
	case CommandRespondPeers:
		return "RESPOND_PEERS"
	default:
		return "UNKNOWN"
	}
}
