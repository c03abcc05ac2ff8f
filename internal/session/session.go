// Package session represents one live device connection.
//
// A Handle owns exactly one net.Conn.  The connection manager creates it
// on a successful connect and is its only owner; it is closed before a
// reconnect replaces it, on the fatal path and on shutdown.
package session

import (
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle binds a connection to the candidate it was opened on.
type Handle struct {
	ID     uuid.UUID
	Conn   net.Conn
	Addr   netip.AddrPort
	Opened time.Time

	closeOnce sync.Once
	closeErr  error
}

// New wraps conn in a Handle with a fresh identifier.
func New(conn net.Conn, addr netip.AddrPort) *Handle {
	return &Handle{
		ID:     uuid.New(),
		Conn:   conn,
		Addr:   addr,
		Opened: time.Now(),
	}
}

// Read reads from the underlying connection.
func (h *Handle) Read(p []byte) (int, error) { return h.Conn.Read(p) }

// Close releases the connection.  Only the first call closes it; later
// calls return the same result.  Safe on a nil Handle.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	h.closeOnce.Do(func() {
		if h.Conn != nil {
			h.closeErr = h.Conn.Close()
		}
	})
	return h.closeErr
}

// Age reports how long the handle has been open.
func (h *Handle) Age() time.Duration { return time.Since(h.Opened) }

// String identifies the handle in diagnostics, e.g. "3f2a9c1e@192.168.187.31:51000".
func (h *Handle) String() string {
	if h == nil {
		return "<nil>"
	}
	return h.ID.String()[:8] + "@" + h.Addr.String()
}
