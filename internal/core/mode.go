// Package core is the orchestration layer.  It owns the lifecycle of the
// single device connection (resolve, connect, read, reconnect) and
// provides a builder that assembles a Manager from a Config.
//
// Architecture layers (bottom → top):
//
//	transport  →  session  →  core  →  cmd (CLI)
package core

import "context"

// Mode is a runnable top-level operation.  Run blocks until the work is
// finished, fails fatally, or ctx is cancelled.
type Mode interface {
	Run(ctx context.Context) error
}

// State is a position in the connection state machine.
type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateReconnecting
	StateFatal
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateFatal:
		return "fatal"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Outcome is how a read loop ended.
type Outcome int

const (
	// PeerClosed means the device shut the connection down in an
	// orderly way.  The manager reconnects.
	PeerClosed Outcome = iota + 1
	// ReadFailed means a receive (or the write to the output) returned
	// an error.  The manager gives up.
	ReadFailed
	// Stopped means the context was cancelled.
	Stopped
)

func (o Outcome) String() string {
	switch o {
	case PeerClosed:
		return "peer_closed"
	case ReadFailed:
		return "read_failed"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}
