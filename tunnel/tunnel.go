// Package tunnel provides an SSH jump host through which the device
// network can be reached when the scanner is not directly routable
// from the machine running scanlink.
package tunnel

import (
	"context"
	"net"
)

// Tunnel abstracts an encrypted channel through which TCP connections
// to the device can be opened.
type Tunnel interface {
	// Connect establishes the tunnel to the gateway.
	Connect(ctx context.Context) error

	// Dial opens a connection to address through the tunnel.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close tears down the tunnel and frees resources.  It is safe to
	// call on a tunnel that never connected.
	Close() error

	// IsAlive reports whether the underlying connection is still up.
	IsAlive() bool
}
