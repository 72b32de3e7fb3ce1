//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

/*
File Name:  Control Unix.go
Copyright:  2021 Peernet s.r.o.
*/

package reuseport

import (
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Control sets SO_REUSEADDR on the socket. It is used as net.ListenConfig.Control.
// A restarted node can bind its port immediately even if connections of the previous process are still in TIME_WAIT.
// SO_REUSEPORT is not set: a second process on the same address must fail instead of sharing the incoming connections.
func Control(network, address string, c syscall.RawConn) (err error) {
	controlErr := c.Control(func(fd uintptr) {
		if err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			err = errors.Wrap(err, "SO_REUSEADDR")
		}
	})
	if controlErr != nil {
		return controlErr
	}
	return err
}
