/*
File Name:  Nebula.go
Copyright:  2021 Peernet s.r.o.
*/

package nebula

import (
	"sync"

	"github.com/PeernetOfficial/nebula/dht"
	"github.com/PeernetOfficial/nebula/protocol"
	"go.uber.org/zap"
)

// Backend represents an instance of a node. All state of the node is held here; multiple instances may run in the same process.
type Backend struct {
	Config  *Config // Config
	Filters Filters // Filters allow to install hooks.

	// Self is the own address and node ID as announced to others.
	Self protocol.PeerAddress

	// Dial opens an outgoing stream. Defaults to a TCP connection.
	Dial DialFunc

	Blacklist *Blacklist // Blacklisted peers
	Network   *Network   // Listener, nil if not listening

	nodesDHT *dht.DHT
	logger   *zap.Logger

	peerMonitor      []chan<- PeerEvent
	peerMonitorMutex sync.RWMutex

	terminateSignal chan struct{}
	terminateOnce   sync.Once
}

// Init initializes the node. The config must be loaded first.
// Filters may be nil. If the returned status is not ExitSuccess, the node is not usable and the application shall exit with the status.
func Init(config *Config, filters *Filters) (backend *Backend, status int, err error) {
	backend = &Backend{
		Config:          config,
		Dial:            DialTCP,
		terminateSignal: make(chan struct{}),
	}
	if filters != nil {
		backend.Filters = *filters
	}

	if backend.logger, err = InitLog(config); err != nil {
		return nil, ExitErrorLogInit, err
	}

	backend.initFilters()

	if backend.Network, err = backend.initNetwork(); err != nil {
		return nil, ExitErrorListen, err
	}

	if err = backend.initPeerID(); err != nil {
		backend.Network.Terminate()
		return nil, ExitErrorSelfAddress, err
	}

	if backend.Blacklist, err = initBlacklist(config.BlacklistDatabase); err != nil {
		backend.Network.Terminate()
		return nil, ExitErrorBlacklist, err
	}

	backend.initKademlia()

	return backend, ExitSuccess, nil
}

// Connect starts listening, bootstrapping and the discovery sweep.
func (backend *Backend) Connect() {
	go backend.Network.Listen()
	go backend.bootstrap()

	if !backend.Config.DiscoveryDisable {
		go backend.autoDiscovery()
	}
}

// Terminate stops all loops, closes the listener and the blacklist database. Exchanges already in progress finish on their own timeout.
func (backend *Backend) Terminate() {
	backend.terminateOnce.Do(func() {
		close(backend.terminateSignal)

		if backend.Network != nil {
			backend.Network.Terminate()
		}
		if backend.Blacklist != nil {
			backend.Blacklist.Close()
		}

		backend.logger.Sync()
	})
}

// isTerminated checks if the backend was terminated
func (backend *Backend) isTerminated() bool {
	select {
	case <-backend.terminateSignal:
		return true
	default:
		return false
	}
}
