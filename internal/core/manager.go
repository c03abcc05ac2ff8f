package core

import (
	"context"
	"fmt"
	"io"
	"time"

	ncerr "scanlink/internal/errors"
	"scanlink/internal/metrics"
	"scanlink/internal/retry"
	"scanlink/internal/session"
	"scanlink/internal/transport"
	"scanlink/util"
)

// Config is the part of the configuration the manager needs.  It is a
// value: the manager never changes it.
type Config struct {
	Host          string
	Port          int
	ReadBuffer    int           // bytes per receive; 0 means util.DefaultReadSize
	RetryInterval time.Duration // delay between connect attempts; 0 means 5s
}

// Manager keeps one long-lived connection to the device and copies
// everything it sends to Sink, reconnecting whenever the device closes
// the connection.
type Manager struct {
	Config   Config
	Resolver transport.Resolver
	Dialer   transport.Dialer
	Sink     io.Writer
	Logger   *util.Logger
	Metrics  *metrics.Collector // optional

	// Sleep replaces the retry timer.  Tests inject a counter.
	Sleep retry.SleepFunc

	// OnState, when set, observes every state transition.
	OnState func(State)

	state State
}

// State returns the current state.  It is only meaningful from the
// goroutine running Run, or after Run has returned.
func (m *Manager) State() State { return m.state }

func (m *Manager) setState(s State) {
	m.state = s
	m.Metrics.SetState(s.String())
	if m.OnState != nil {
		m.OnState(s)
	}
}

func (m *Manager) addr() string {
	return util.FormatAddr(m.Config.Host, m.Config.Port)
}

func (m *Manager) readSize() int {
	if m.Config.ReadBuffer > 0 {
		return m.Config.ReadBuffer
	}
	return util.DefaultReadSize
}

func (m *Manager) interval() time.Duration {
	if m.Config.RetryInterval > 0 {
		return m.Config.RetryInterval
	}
	return retry.DefaultInterval
}

// ── connect ──────────────────────────────────────────────────────────

// Connect makes one attempt to reach the device.
//
// Candidates are tried in resolver order.  A candidate whose socket
// cannot be created is skipped; the first candidate that fails to
// connect ends the attempt without trying the rest.
func (m *Manager) Connect(ctx context.Context) (*session.Handle, error) {
	addr := m.addr()
	m.Metrics.ConnectAttempt()
	m.Logger.Info("client: connecting...")

	candidates, err := m.Resolver.Resolve(ctx, m.Config.Host, m.Config.Port)
	if err != nil {
		m.Metrics.ConnectFailed("resolve")
		m.Logger.Error("resolve: %v", err)
		return nil, &ncerr.ConnectError{Addr: addr, Err: err}
	}
	if len(candidates) == 0 {
		m.Metrics.ConnectFailed("no_candidates")
		m.Logger.Error("client: failed to connect: %v", ncerr.ErrNoCandidates)
		return nil, &ncerr.ConnectError{Addr: addr, Err: ncerr.ErrNoCandidates}
	}
	m.Logger.Verbose("%s resolved to %v", addr, candidates)

	for _, c := range candidates {
		conn, err := m.Dialer.Dial(ctx, c)
		if err == nil {
			h := session.New(conn, c)
			m.Metrics.ConnectionOpened()
			m.Logger.Verbose("connected %s", h)
			return h, nil
		}
		if ncerr.IsSocketCreation(err) {
			m.Metrics.SocketSkipped()
			m.Logger.Error("client: socket: %v", err)
			continue
		}
		m.Metrics.ConnectFailed("connect")
		m.Logger.Error("client: connect: %v", err)
		return nil, &ncerr.ConnectError{Addr: addr, Candidates: len(candidates), Err: err}
	}

	m.Metrics.ConnectFailed("exhausted")
	m.Logger.Error("client: failed to connect")
	return nil, &ncerr.ConnectError{Addr: addr, Candidates: len(candidates), Err: ncerr.ErrCandidatesSpent}
}

// Reconnect calls Connect until it succeeds, waiting the retry interval
// after every failure.  It only returns an error once ctx is done.
func (m *Manager) Reconnect(ctx context.Context) (*session.Handle, error) {
	policy := retry.Forever()
	policy.Interval = m.interval()
	policy.Sleep = m.Sleep
	policy.OnRetry = func(attempt int, err error, wait time.Duration) {
		m.Logger.Debug("attempt %d: %v", attempt, err)
		m.Logger.Info("client: retrying in %s...", humanInterval(wait))
	}

	var h *session.Handle
	err := policy.Do(ctx, func(int) error {
		var err error
		h, err = m.Connect(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// humanInterval renders whole-second intervals as "5 seconds".
func humanInterval(d time.Duration) string {
	if d >= time.Second && d%time.Second == 0 {
		n := int(d / time.Second)
		if n == 1 {
			return "1 second"
		}
		return fmt.Sprintf("%d seconds", n)
	}
	return d.String()
}

// ── run ──────────────────────────────────────────────────────────────

// Run connects and streams until a receive fails or ctx is cancelled.
//
// A device that closes the connection is reconnected transparently.  A
// failed receive returns an error wrapping ncerr.ErrFatalRead.
// Cancellation returns ctx.Err().  The handle is closed on every path.
func (m *Manager) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	m.setState(StateDisconnected)

	h, err := m.Connect(ctx)
	if err != nil {
		// The failed first attempt already counts: wait before retrying.
		if h, err = m.reconnect(ctx, true); err != nil {
			return err
		}
	}

	for {
		m.setState(StateConnected)

		outcome, readErr := m.ReadLoop(ctx, h)
		h.Close()
		m.Metrics.ConnectionClosed()
		m.Metrics.ReadOutcome(outcome.String())
		m.Logger.Debug("%s closed after %s: %s", h, h.Age().Round(time.Millisecond), outcome)

		switch outcome {
		case PeerClosed:
			m.Logger.Info("server: connection closed")
			if h, err = m.reconnect(ctx, false); err != nil {
				return err
			}

		case ReadFailed:
			m.setState(StateFatal)
			m.Logger.Error("recv: %v", readErr)
			return fmt.Errorf("%w: %w", ncerr.ErrFatalRead, readErr)

		default:
			m.setState(StateStopped)
			if err := ctx.Err(); err != nil {
				return err
			}
			return readErr
		}
	}
}

// reconnect runs the retry loop for Run and reports the transitions.
// With wait set, one retry interval passes before the first attempt.
func (m *Manager) reconnect(ctx context.Context, wait bool) (*session.Handle, error) {
	m.setState(StateReconnecting)
	m.Metrics.Reconnect()

	if wait {
		m.Logger.Info("client: retrying in %s...", humanInterval(m.interval()))
		if err := m.sleep(ctx, m.interval()); err != nil {
			m.setState(StateStopped)
			return nil, ctx.Err()
		}
	}

	h, err := m.Reconnect(ctx)
	if err != nil {
		m.setState(StateStopped)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	m.Logger.Info("client: connection re-established")
	return h, nil
}

func (m *Manager) sleep(ctx context.Context, d time.Duration) error {
	if m.Sleep != nil {
		return m.Sleep(ctx, d)
	}
	return retry.Sleep(ctx, d)
}
