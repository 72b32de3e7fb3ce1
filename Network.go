/*
File Name:  Network.go
Copyright:  2021 Peernet s.r.o.
*/

package nebula

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/PeernetOfficial/nebula/reuseport"
	"github.com/pkg/errors"
	"golang.org/x/net/netutil"
)

// Network is the TCP listener accepting incoming connections. Each connection carries a single request.
type Network struct {
	backend         *Backend
	address         *net.TCPAddr  // IP:Port where the server listens
	listener        net.Listener  // active listener
	isTerminated    bool          // If true, the network was signaled for termination
	terminateSignal chan struct{} // gets closed on termination signal
	sync.RWMutex                  // for sychronized closing
}

// initNetwork starts listening on the configured address. The listener only accepts connections once Listen is called.
func (backend *Backend) initNetwork() (network *Network, err error) {
	listenConfig := net.ListenConfig{Control: reuseport.Control}

	listener, err := listenConfig.Listen(context.Background(), "tcp", backend.Config.Listen)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on '%s'", backend.Config.Listen)
	}

	address, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		listener.Close()
		return nil, errors.New("invalid listening address")
	}

	if backend.Config.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, backend.Config.MaxConnections)
	}

	return &Network{
		backend:         backend,
		address:         address,
		listener:        listener,
		terminateSignal: make(chan struct{}),
	}, nil
}

// GetListen returns the listening address
func (network *Network) GetListen() (listen *net.TCPAddr) {
	return network.address
}

// Listen accepts incoming connections until the network is terminated. Each connection is handled in its own Go routine.
func (network *Network) Listen() {
	for {
		conn, err := network.listener.Accept()
		if err != nil {
			// Exit on closed socket. Error will be "use of closed network connection".
			if network.IsTerminated() {
				return
			}

			network.backend.LogError("Listen", "accepting connection on '%s': %v", network.address.String(), err)
			time.Sleep(time.Millisecond * 50) // In case of endless errors, prevent ddos of CPU.
			continue
		}

		go network.handle(conn)
	}
}

// handle processes a single connection. A panic only affects this connection.
func (network *Network) handle(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			network.backend.LogError("Listen", "handling connection from '%s': %v", conn.RemoteAddr().String(), r)
			conn.Close()
		}
	}()

	network.backend.HandleConnection(conn)
}

// IsTerminated checks if the network was terminated
func (network *Network) IsTerminated() bool {
	network.RLock()
	defer network.RUnlock()
	return network.isTerminated
}

// Terminate sends the termination signal and closes the listener.
func (network *Network) Terminate() {
	network.Lock()
	defer network.Unlock()

	if network.isTerminated {
		return
	}

	network.isTerminated = true
	close(network.terminateSignal)
	network.listener.Close()
}
