// Package errors provides domain-specific error types for scanlink.
//
// These types carry structured context (operation, address, candidate
// count) that lets the connection manager tell a recoverable connect
// failure from a skipped candidate, and gives -v output something more
// useful than a bare string.
package errors

import (
	"errors"
	"fmt"
	"net"
	"os"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrNoCandidates    = errors.New("resolver returned no candidates")
	ErrCandidatesSpent = errors.New("no candidate accepted a socket")
	ErrFatalRead       = errors.New("receive failed")
	ErrNotConnected    = errors.New("not connected")
	ErrTunnelClosed    = errors.New("tunnel is closed")
	ErrNoRows          = errors.New("zero rows fetched")
)

// ── Structured error types ───────────────────────────────────────────

// NetworkError represents a failure in a network operation.
type NetworkError struct {
	Op        string // operation: "resolve", "socket", "connect", "recv"
	Addr      string // network address involved
	Err       error  // underlying error
	Retryable bool   // whether the caller should retry
}

func (e *NetworkError) Error() string {
	s := fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
	if e.Retryable {
		s += " (retryable)"
	}
	return s
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SocketError reports that a socket could not be created for one
// candidate endpoint.  Unlike a connect failure it only disqualifies
// that candidate; the attempt moves on to the next one.
type SocketError struct {
	Addr string
	Err  error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("socket %s: %v", e.Addr, e.Err)
}

func (e *SocketError) Unwrap() error { return e.Err }

// ConnectError is the single failure type of a connect attempt.  The
// retry loop consumes it; it never terminates the process.
type ConnectError struct {
	Addr       string // configured host:port
	Candidates int    // number of resolved candidates
	Err        error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %s (%d candidates): %v", e.Addr, e.Candidates, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey", "dial"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

// ExitError carries a process exit status up to main.  Silent errors
// are not printed; the diagnostic channel has already reported them.
type ExitError struct {
	Code   int
	Err    error
	Silent bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a NetworkError, automatically detecting retryability
// from the underlying error.
func Wrap(op, addr string, err error) *NetworkError {
	return &NetworkError{
		Op:        op,
		Addr:      addr,
		Err:       err,
		Retryable: classifyRetryable(err),
	}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsSocketCreation reports whether err happened while creating the
// socket rather than while connecting it.  The standard library
// surfaces this as an *os.SyscallError for the "socket" call.
func IsSocketCreation(err error) bool {
	if err == nil {
		return false
	}
	var se *SocketError
	if errors.As(err, &se) {
		return true
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return sysErr.Syscall == "socket"
	}
	return false
}

// classifyRetryable inspects standard library error types.
func classifyRetryable(err error) bool {
	if err == nil {
		return false
	}
	// net.OpError with Temporary() hint
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	// DNS errors
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.Temporary() //nolint:staticcheck
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use scanlink/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
