package cmd

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"scanlink/config"
	ncerr "scanlink/internal/errors"
)

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"--version"}, &out, &bytes.Buffer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "scanlink ") {
		t.Errorf("version output = %q", out.String())
	}
}

// TestExecute_Help verifies --help prints usage to stderr, not stdout.
func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"-h"}} {
		t.Run(args[0], func(t *testing.T) {
			var out, errOut bytes.Buffer
			if err := run(context.Background(), args, &out, &errOut); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.Len() != 0 {
				t.Errorf("help leaked to stdout: %q", out.String())
			}
			if !strings.Contains(errOut.String(), "--retry-interval") {
				t.Errorf("usage missing flags:\n%s", errOut.String())
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	err := Execute(context.Background(), []string{"--host", "10.1.4.20", "-p", "51000", "--dry-run"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"port zero", []string{"-p", "0"}, "port"},
		{"empty host", []string{"--host", ""}, "host"},
		{"zero interval", []string{"--retry-interval", "0s"}, "retry-interval"},
		{"huge buffer", []string{"--read-buffer", "1000000"}, "read-buffer"},
		{"key without tunnel", []string{"--ssh-key", "/tmp/id"}, "ssh-key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), append(tt.args, "--dry-run"), &bytes.Buffer{}, &bytes.Buffer{})
			var ce *ncerr.ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	err := run(context.Background(), []string{"--nonexistent-flag"}, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

// TestExecute_PositionalRejected verifies stray arguments are errors.
func TestExecute_PositionalRejected(t *testing.T) {
	err := run(context.Background(), []string{"scanner.local"}, &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "unexpected argument") {
		t.Fatalf("err = %v", err)
	}
}

// TestApplyFlags_Precedence verifies flag > env > file > default.
func TestApplyFlags_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanlink.yaml")
	yaml := "device:\n  host: 10.0.0.5\n  port: 4000\n  retry_interval: 2s\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCANLINK_DEVICE_PORT", "4001")

	var fv flagValues
	fs := newFlagSet(&fv, &bytes.Buffer{})
	if err := fs.Parse([]string{"--config", path, "--retry-interval", "750ms", "-vv"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(fv.configPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := applyFlags(cfg, fs, &fv); err != nil {
		t.Fatal(err)
	}

	if cfg.Device.Host != "10.0.0.5" {
		t.Errorf("host = %q, want file value", cfg.Device.Host)
	}
	if cfg.Device.Port != 4001 {
		t.Errorf("port = %d, want env value", cfg.Device.Port)
	}
	if cfg.Device.RetryInterval != 750*time.Millisecond {
		t.Errorf("retry interval = %v, want flag value", cfg.Device.RetryInterval)
	}
	if cfg.Log.Verbose != 2 {
		t.Errorf("verbose = %d", cfg.Log.Verbose)
	}
	if cfg.Device.ReadBuffer != config.DefaultReadBuffer {
		t.Errorf("read buffer = %d, want default", cfg.Device.ReadBuffer)
	}
}

// TestApplyFlags_Tunnel verifies --tunnel is parsed into its parts.
func TestApplyFlags_Tunnel(t *testing.T) {
	var fv flagValues
	fs := newFlagSet(&fv, &bytes.Buffer{})
	if err := fs.Parse([]string{"-T", "ops@bastion:2222", "--ssh-agent"}); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	if err := applyFlags(&cfg, fs, &fv); err != nil {
		t.Fatal(err)
	}
	tun := cfg.Tunnel
	if !tun.Enabled || tun.User != "ops" || tun.Host != "bastion" || tun.Port != 2222 || !tun.SSHAgent {
		t.Errorf("tunnel = %+v", tun)
	}
}

func TestExitStatus(t *testing.T) {
	if exitStatus(nil) != nil || exitStatus(context.Canceled) != nil {
		t.Error("clean stop must exit 0")
	}
	err := exitStatus(ncerr.ErrFatalRead)
	var ee *ncerr.ExitError
	if !errors.As(err, &ee) || ee.Code != 1 || !ee.Silent {
		t.Errorf("fatal read = %#v, want silent exit 1", err)
	}
	other := errors.New("boom")
	if exitStatus(other) != other {
		t.Error("other errors pass through")
	}
}

// firstWrite signals after the first chunk reaches stdout.
type firstWrite struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	seen chan struct{}
}

func (w *firstWrite) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() == 0 {
		defer close(w.seen)
	}
	return w.buf.Write(p)
}

// TestExecute_FatalReadExitsOne runs the whole client against a device
// that sends one chunk and then resets the connection.
func TestExecute_FatalReadExitsOne(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	stdout := &firstWrite{seen: make(chan struct{})}
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		c.Write([]byte("A1B2\n")) //nolint:errcheck
		<-stdout.seen
		c.(*net.TCPConn).SetLinger(0) //nolint:errcheck
		c.Close()
	}()

	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	var stderr bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = run(ctx, []string{"--host", "127.0.0.1", "-p", port}, stdout, &stderr)
	var ee *ncerr.ExitError
	if !errors.As(err, &ee) || ee.Code != 1 || !ee.Silent {
		t.Fatalf("err = %v, want silent exit 1", err)
	}
	if stdout.buf.String() != "A1B2\n" {
		t.Errorf("stdout = %q", stdout.buf.String())
	}
	if stderr.Len() != 0 {
		t.Errorf("quiet run wrote diagnostics: %q", stderr.String())
	}
}

// TestExecute_CancelIsClean verifies SIGINT-style cancellation exits 0.
func TestExecute_CancelIsClean(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		if c, err := ln.Accept(); err == nil {
			accepted <- c
		}
	}()

	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() {
		errc <- run(ctx, []string{"--host", "127.0.0.1", "-p", port}, &bytes.Buffer{}, &bytes.Buffer{})
	}()

	select {
	case c := <-accepted:
		defer c.Close()
	case <-time.After(5 * time.Second):
		t.Fatal("client never connected")
	}
	cancel()

	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("run = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop")
	}
}
