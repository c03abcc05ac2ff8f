// Package transport provides the two halves of a connect attempt:
// resolving the device host into an ordered candidate list, and dialing
// a single candidate.  The connection manager drives the iteration; a
// transport only has to report which kind of failure happened.
package transport

import (
	"context"
	"net"
	"net/netip"
)

// Resolver turns a host and port into an ordered list of candidate
// endpoints.  Implementations must not cache: every call reflects the
// resolver's current answer.
type Resolver interface {
	Resolve(ctx context.Context, host string, port int) ([]netip.AddrPort, error)
}

// Dialer opens a connection to one resolved candidate.
//
// A failure to create the socket must be reported as an
// *errors.SocketError (scanlink/internal/errors) so the caller can move
// on to the next candidate; any other error is a connect failure.
type Dialer interface {
	Dial(ctx context.Context, addr netip.AddrPort) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}
