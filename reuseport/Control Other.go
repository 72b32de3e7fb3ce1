//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

/*
File Name:  Control Other.go
Copyright:  2021 Peernet s.r.o.
*/

package reuseport

import (
	"syscall"
)

// Control is a no-op on other platforms.
func Control(network, address string, c syscall.RawConn) error {
	return nil
}
