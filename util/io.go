package util

import (
	"errors"
	"io"
	"net"
)

// DefaultReadSize is the largest chunk a single receive may return
// unless configured otherwise.
const DefaultReadSize = 100

// IsPeerClose reports whether err is the orderly end of a stream, i.e.
// the remote side closed its half of the connection.
func IsPeerClose(err error) bool {
	return errors.Is(err, io.EOF)
}

// IsLocalClose reports whether err came from using a connection that
// this process already closed.
func IsLocalClose(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
