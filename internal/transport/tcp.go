package transport

import (
	"context"
	"net"
	"net/netip"
	"time"

	ncerr "scanlink/internal/errors"
	"scanlink/util"
)

// TCPDialer establishes plain TCP connections, opening a socket of the
// candidate's own address family.
type TCPDialer struct {
	Timeout time.Duration // 0 leaves the connect timeout to the OS
}

// Dial connects to addr over TCP.  Socket creation failures (for
// example IPv6 disabled on the host) come back as *ncerr.SocketError.
func (d *TCPDialer) Dial(ctx context.Context, addr netip.AddrPort) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout}

	conn, err := dialer.DialContext(ctx, util.TCPNetwork(addr), addr.String())
	if err != nil {
		if ncerr.IsSocketCreation(err) {
			return nil, &ncerr.SocketError{Addr: addr.String(), Err: err}
		}
		return nil, ncerr.Wrap("connect", addr.String(), err)
	}
	return conn, nil
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }
