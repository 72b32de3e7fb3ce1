/*
File Name:  Filter.go
Copyright:  2021 Peernet s.r.o.

Filters allow the caller to intercept events to log, modify, or prevent.
*/

package nebula

import (
	"fmt"

	"github.com/PeernetOfficial/nebula/dht"
	"github.com/PeernetOfficial/nebula/protocol"
)

// Filters contains all functions to install the hook. Use nil for unused.
// The functions are called sequentially and block execution; if the filter takes a long time it should start a Go routine.
type Filters struct {
	// NewPeer is called every time a peer is added to the routing table.
	// Note that peers might be evicted and reappear later, i.e. this function may be called multiple times for the same peer.
	NewPeer func(peer *protocol.PeerAddress, bucket int)

	// PeerEvicted is called when the least recently seen peer of a full bucket did not respond and was replaced.
	PeerEvicted func(peer *protocol.PeerAddress)

	// LogError is called for any error. If this function is overwritten by the caller, the caller must write errors into the log file if desired, or call DefaultLogError.
	LogError func(function, format string, v ...interface{})

	// LogStatus is called for regular status information, for example failed liveness checks.
	LogStatus func(function, format string, v ...interface{})

	// IncomingRequest receives all valid incoming messages before they are processed.
	IncomingRequest func(remote *protocol.PeerAddress, message protocol.Message)
}

func (backend *Backend) initFilters() {
	// Set default filters to blank functions so they can be safely called without constant nil checks.
	// Only if not already set before init.

	if backend.Filters.NewPeer == nil {
		backend.Filters.NewPeer = func(peer *protocol.PeerAddress, bucket int) {}
	}
	if backend.Filters.PeerEvicted == nil {
		backend.Filters.PeerEvicted = func(peer *protocol.PeerAddress) {}
	}
	if backend.Filters.LogError == nil {
		backend.Filters.LogError = backend.DefaultLogError
	}
	if backend.Filters.LogStatus == nil {
		backend.Filters.LogStatus = backend.DefaultLogStatus
	}
	if backend.Filters.IncomingRequest == nil {
		backend.Filters.IncomingRequest = func(remote *protocol.PeerAddress, message protocol.Message) {}
	}
}

// DefaultLogError is the default error logging function
func (backend *Backend) DefaultLogError(function, format string, v ...interface{}) {
	backend.logger.Warn("[" + function + "] " + fmt.Sprintf(format, v...))
}

// DefaultLogStatus is the default status logging function
func (backend *Backend) DefaultLogStatus(function, format string, v ...interface{}) {
	backend.logger.Debug("[" + function + "] " + fmt.Sprintf(format, v...))
}

// LogError logs an error via the filter
func (backend *Backend) LogError(function, format string, v ...interface{}) {
	backend.Filters.LogError(function, format, v...)
}

// LogStatus logs status information via the filter
func (backend *Backend) LogStatus(function, format string, v ...interface{}) {
	backend.Filters.LogStatus(function, format, v...)
}

// PeerEvent is sent to peer monitors for every change of the routing table caused by an import.
type PeerEvent struct {
	Action  dht.ImportAction      // Added, refreshed or replaced
	Peer    protocol.PeerAddress  // The imported peer
	Bucket  int                   // Bucket index
	Evicted *protocol.PeerAddress // Only for ImportReplaced
}

// RegisterPeerMonitor registers a channel to receive peer events. Events are dropped if the channel is not ready.
func (backend *Backend) RegisterPeerMonitor(channel chan<- PeerEvent) {
	backend.peerMonitorMutex.Lock()
	backend.peerMonitor = append(backend.peerMonitor, channel)
	backend.peerMonitorMutex.Unlock()
}

// UnregisterPeerMonitor unregisters a channel. It does not close the channel.
func (backend *Backend) UnregisterPeerMonitor(channel chan<- PeerEvent) {
	backend.peerMonitorMutex.Lock()
	defer backend.peerMonitorMutex.Unlock()

	for n, monitor := range backend.peerMonitor {
		if monitor == channel {
			backend.peerMonitor = append(backend.peerMonitor[:n], backend.peerMonitor[n+1:]...)
			return
		}
	}
}

func (backend *Backend) sendPeerEvent(event PeerEvent) {
	backend.peerMonitorMutex.RLock()
	defer backend.peerMonitorMutex.RUnlock()

	for _, monitor := range backend.peerMonitor {
		select {
		case monitor <- event:
		default:
		}
	}
}
