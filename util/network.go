package util

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// FormatAddr returns "host:port", bracketing IPv6 literals.
func FormatAddr(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// TCPNetwork returns "tcp4" or "tcp6" for a resolved candidate, so the
// dialer opens a socket of exactly that family.
func TCPNetwork(ap netip.AddrPort) string {
	if ap.Addr().Unmap().Is4() {
		return "tcp4"
	}
	return "tcp6"
}

// FindFreePort returns an available TCP port on 127.0.0.1.
func FindFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("finding free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
