/*
File Name:  Connection.go
Copyright:  2021 Peernet s.r.o.

Every exchange uses a short-lived connection: connect, write one request, read the response, close.
*/

package nebula

import (
	"io"
	"net"
	"time"

	"github.com/PeernetOfficial/nebula/protocol"
	"github.com/pkg/errors"
)

// Stream is a connection to a remote peer. It is implemented by net.Conn.
type Stream interface {
	io.ReadWriteCloser

	// SetDeadline sets the read and write deadline
	SetDeadline(t time.Time) error

	// RemoteAddr returns the address of the remote peer
	RemoteAddr() net.Addr
}

// DialFunc opens a stream to the address (IP:Port).
type DialFunc func(address string, timeout time.Duration) (Stream, error)

// DialTCP opens a TCP connection
func DialTCP(address string, timeout time.Duration) (Stream, error) {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// exchange connects to the peer and sends the request. The caller reads the response and must close the stream.
// The whole exchange including the response must finish within the read timeout.
func (backend *Backend) exchange(peer *protocol.PeerAddress, request []byte) (stream Stream, err error) {
	stream, err = backend.Dial(peer.Address(), backend.Config.TimeoutConnect)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}

	stream.SetDeadline(time.Now().Add(backend.Config.TimeoutRead))

	if _, err = stream.Write(request); err != nil {
		stream.Close()
		return nil, errors.Wrap(err, "write")
	}

	return stream, nil
}

// remoteIP returns the IP of the remote end of the stream
func remoteIP(stream Stream) net.IP {
	switch address := stream.RemoteAddr().(type) {
	case *net.TCPAddr:
		return address.IP
	case nil:
		return nil
	default:
		host, _, err := net.SplitHostPort(address.String())
		if err != nil {
			return nil
		}
		return net.ParseIP(host)
	}
}
