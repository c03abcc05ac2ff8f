package transport

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"sync"

	ncerr "scanlink/internal/errors"
	"scanlink/tunnel"
	"scanlink/util"
)

// SSHDialer reaches the device through an SSH jump host.  The tunnel is
// connected lazily on the first Dial and re-established on a later Dial
// if the gateway dropped it, so a gateway restart is just another failed
// connect attempt for the retry loop.
type SSHDialer struct {
	tunnel tunnel.Tunnel
	config *tunnel.SSHConfig
	logger *util.Logger
	mu     sync.Mutex
}

// NewSSHDialer creates a dialer that forwards connections through an
// SSH tunnel.  The tunnel is not connected until the first Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, logger *util.Logger) *SSHDialer {
	return &SSHDialer{
		tunnel: tunnel.NewSSHTunnel(cfg, logger),
		config: cfg,
		logger: logger,
	}
}

// ensure connects the SSH tunnel if it is not currently alive.
func (d *SSHDialer) ensure(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.tunnel.IsAlive() {
		return nil
	}
	// Drop whatever is left of a previous session before redialing.
	d.tunnel.Close() //nolint:errcheck

	d.logger.Verbose("establishing SSH tunnel to %s@%s:%d",
		d.config.User, d.config.Host, d.config.Port)

	if err := d.tunnel.Connect(ctx); err != nil {
		return fmt.Errorf("tunnel: %w", err)
	}
	d.logger.Verbose("SSH tunnel established")
	return nil
}

// Dial connects to addr from the gateway's side of the tunnel.  There is
// no local socket per candidate, so every failure is a connect failure.
func (d *SSHDialer) Dial(ctx context.Context, addr netip.AddrPort) (net.Conn, error) {
	if err := d.ensure(ctx); err != nil {
		return nil, ncerr.Wrap("connect", addr.String(), err)
	}
	conn, err := d.tunnel.Dial(ctx, "tcp", addr.String())
	if err != nil {
		return nil, ncerr.Wrap("connect", addr.String(), err)
	}
	return conn, nil
}

// Close tears down the underlying SSH tunnel.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tunnel.Close()
}
