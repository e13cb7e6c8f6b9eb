/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package netutil contains network helpers shared by the action server front-ends.
package netutil

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// ErrBindFailure is returned when the listening socket cannot be opened.
var ErrBindFailure = errors.New("bind failure")

// Listen announces on the local network address.
// All failures are wrapped with ErrBindFailure.
func Listen(network, address string) (net.Listener, error) {
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, fmt.Errorf("%w: listen %s %s: %v", ErrBindFailure, network, address, err)
	}
	return ln, nil
}

// ListenPort announces on all interfaces on the given TCP port (0 means an ephemeral port).
func ListenPort(port int) (net.Listener, error) {
	return Listen("tcp", net.JoinHostPort("", strconv.Itoa(port)))
}

// ListenerPort returns the TCP port of the listener or 0 if it is not a TCP listener.
func ListenerPort(ln net.Listener) int {
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return 0
}
