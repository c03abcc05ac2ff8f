package core

import (
	"context"
	"fmt"

	ncerr "scanlink/internal/errors"
	"scanlink/internal/session"
	"scanlink/util"
)

// ReadLoop copies the device stream from h to Sink until the stream
// ends.  Every non-empty receive is written out immediately and in
// order; nothing is buffered or interpreted.
//
// Bytes that arrive together with the end of the stream are written
// before PeerClosed is reported.  After ReadFailed no further receive
// is attempted.  Cancelling ctx closes h to unblock the pending read
// and yields Stopped, as does h being closed by someone else.
func (m *Manager) ReadLoop(ctx context.Context, h *session.Handle) (Outcome, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			h.Close()
		case <-done:
		}
	}()

	buf := make([]byte, m.readSize())
	for {
		n, err := h.Read(buf)
		if n > 0 {
			if _, werr := m.Sink.Write(buf[:n]); werr != nil {
				return ReadFailed, fmt.Errorf("write output: %w", werr)
			}
			m.Metrics.ChunkForwarded(n)
			m.Logger.Debug("%s: %d bytes", h, n)
		}
		if err == nil {
			continue
		}

		switch {
		case ctx.Err() != nil:
			return Stopped, ctx.Err()
		case util.IsLocalClose(err):
			return Stopped, err
		case util.IsPeerClose(err):
			return PeerClosed, nil
		default:
			return ReadFailed, ncerr.Wrap("recv", h.Addr.String(), err)
		}
	}
}
