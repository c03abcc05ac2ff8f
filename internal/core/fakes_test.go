package core

import (
	"context"
	"io"
	"net"
	"net/netip"
	"os"
	"sync"
	"syscall"
	"time"

	ncerr "scanlink/internal/errors"
)

// readStep is one scripted return value of Read.
type readStep struct {
	data string
	err  error
}

// scriptConn replays readSteps.  Once the script is exhausted it
// reports io.EOF.
type scriptConn struct {
	net.Conn // nil; only Read and Close are used

	mu     sync.Mutex
	steps  []readStep
	reads  int
	closed bool
}

func newScriptConn(steps ...readStep) *scriptConn {
	return &scriptConn{steps: steps}
}

func (c *scriptConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	c.reads++
	if c.reads > len(c.steps) {
		return 0, io.EOF
	}
	s := c.steps[c.reads-1]
	return copy(p, s.data), s.err
}

func (c *scriptConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *scriptConn) readCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}

func (c *scriptConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// resolverFunc adapts a function to transport.Resolver.
type resolverFunc func(ctx context.Context, host string, port int) ([]netip.AddrPort, error)

func (f resolverFunc) Resolve(ctx context.Context, host string, port int) ([]netip.AddrPort, error) {
	return f(ctx, host, port)
}

// staticCandidates resolves to the given addresses.
func staticCandidates(addrs ...string) resolverFunc {
	return func(context.Context, string, int) ([]netip.AddrPort, error) {
		out := make([]netip.AddrPort, len(addrs))
		for i, a := range addrs {
			out[i] = netip.MustParseAddrPort(a)
		}
		return out, nil
	}
}

// fakeDialer delegates to dial and records every candidate it is given.
type fakeDialer struct {
	mu     sync.Mutex
	dial   func(call int, addr netip.AddrPort) (net.Conn, error)
	calls  []netip.AddrPort
	closed bool
}

func (d *fakeDialer) Dial(_ context.Context, addr netip.AddrPort) (net.Conn, error) {
	d.mu.Lock()
	d.calls = append(d.calls, addr)
	n := len(d.calls)
	d.mu.Unlock()
	return d.dial(n, addr)
}

func (d *fakeDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDialer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func socketFailure(addr netip.AddrPort) error {
	return &ncerr.SocketError{Addr: addr.String(), Err: os.NewSyscallError("socket", syscall.EAFNOSUPPORT)}
}

func connectFailure(addr netip.AddrPort) error {
	return ncerr.Wrap("connect", addr.String(),
		&net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)})
}

// sleepCounter replaces the retry timer.
type sleepCounter struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *sleepCounter) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepCounter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waits)
}

// syncBuffer is a goroutine-safe output sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
