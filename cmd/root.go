// Package cmd wires up the CLI flags and runs the connection manager.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"scanlink/config"
	"scanlink/internal/core"
	ncerr "scanlink/internal/errors"
	"scanlink/internal/metrics"
	"scanlink/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X scanlink/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// flagValues holds raw flag values.  Only flags the user actually set
// are copied over the loaded configuration.
type flagValues struct {
	configPath    string
	verbose       int
	host          string
	port          int
	readBuffer    int
	retryInterval time.Duration
	dialTimeout   time.Duration
	tunnel        string
	sshKey        string
	sshAgent      bool
	sshPassword   bool
	strictHostKey bool
	knownHosts    string
	metricsAddr   string
	showVersion   bool
	showHelp      bool
	dryRun        bool
}

// Execute parses args, builds the manager and streams device data to
// stdout until a fatal read or ctx is cancelled.
//
// A fatal read is returned as a silent *errors.ExitError with code 1;
// cancellation is a clean exit.
func Execute(ctx context.Context, args []string) error {
	return run(ctx, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var fv flagValues
	fs := newFlagSet(&fv, stderr)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fv.showHelp {
		printUsage(fs, stderr)
		return nil
	}
	if fv.showVersion {
		fmt.Fprintf(stdout, "scanlink %s\n", version)
		return nil
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}

	// ── configuration ────────────────────────────────────────────
	cfg, err := config.Load(fv.configPath)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, fs, &fv); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Log.Verbose)
	logger.SetOutput(stderr)

	if fv.dryRun {
		logger.Info("configuration valid: device %s", cfg.Device.Addr())
		return nil
	}

	// ── run ──────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)

	var mc *metrics.Collector
	if cfg.Metrics.Addr != "" {
		mc = metrics.New()
		srv, err := metrics.NewServer(cfg.Metrics.Addr, mc, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return srv.Serve(gctx) })
	}

	m := core.Build(cfg, stdout, logger, mc)
	logger.Verbose("device %s, retry every %s, %d-byte reads",
		cfg.Device.Addr(), cfg.Device.RetryInterval, cfg.Device.ReadBuffer)

	// The manager always returns an error, which also stops the
	// metrics server.
	g.Go(func() error { return m.Run(gctx) })

	return exitStatus(g.Wait())
}

// exitStatus maps the manager's result onto the process exit contract.
func exitStatus(err error) error {
	switch {
	case err == nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil
	case errors.Is(err, ncerr.ErrFatalRead):
		return &ncerr.ExitError{Code: 1, Err: err, Silent: true}
	default:
		return err
	}
}

// ── flags ────────────────────────────────────────────────────────────

func newFlagSet(fv *flagValues, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("scanlink", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// ── device ───────────────────────────────────────────────────
	fs.StringVar(&fv.host, "host", config.DefaultHost, "Scanner host name or IP address")
	fs.IntVarP(&fv.port, "port", "p", config.DefaultPort, "Scanner TCP port")
	fs.IntVar(&fv.readBuffer, "read-buffer", config.DefaultReadBuffer, "Maximum bytes per receive")
	fs.DurationVar(&fv.retryInterval, "retry-interval", config.DefaultRetryInterval, "Fixed delay between connect attempts")
	fs.DurationVar(&fv.dialTimeout, "dial-timeout", config.DefaultDialTimeout, "Per-candidate connect timeout (0 = OS default)")
	fs.StringVarP(&fv.configPath, "config", "c", "", "YAML configuration file")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&fv.tunnel, "tunnel", "T", "", "Reach the scanner through SSH jump host [user@]host[:port]")
	fs.StringVar(&fv.sshKey, "ssh-key", "", "SSH private key file")
	fs.BoolVar(&fv.sshPassword, "ssh-password", false, "Prompt for SSH password")
	fs.BoolVar(&fv.sshAgent, "ssh-agent", false, "Use SSH agent")
	fs.BoolVar(&fv.strictHostKey, "strict-hostkey", false, "Verify SSH host keys")
	fs.StringVar(&fv.knownHosts, "known-hosts", "", "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.CountVarP(&fv.verbose, "verbose", "v", "Print connection status to stderr (repeat for more detail)")
	fs.StringVar(&fv.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9464")

	fs.BoolVar(&fv.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&fv.showHelp, "help", "h", false, "Show this help")
	fs.BoolVar(&fv.dryRun, "dry-run", false, "Validate configuration and exit")

	fs.Usage = func() { printUsage(fs, stderr) }
	return fs
}

// applyFlags copies every explicitly set flag over cfg.
func applyFlags(cfg *config.Config, fs *flag.FlagSet, fv *flagValues) error {
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("host", func() { cfg.Device.Host = fv.host })
	set("port", func() { cfg.Device.Port = fv.port })
	set("read-buffer", func() { cfg.Device.ReadBuffer = fv.readBuffer })
	set("retry-interval", func() { cfg.Device.RetryInterval = fv.retryInterval })
	set("dial-timeout", func() { cfg.Device.DialTimeout = fv.dialTimeout })
	set("verbose", func() { cfg.Log.Verbose = fv.verbose })
	set("tunnel", func() { cfg.Tunnel.Spec = fv.tunnel })
	set("ssh-key", func() { cfg.Tunnel.SSHKey = fv.sshKey })
	set("ssh-agent", func() { cfg.Tunnel.SSHAgent = fv.sshAgent })
	set("ssh-password", func() { cfg.Tunnel.SSHPassword = fv.sshPassword })
	set("strict-hostkey", func() { cfg.Tunnel.StrictHostKey = fv.strictHostKey })
	set("known-hosts", func() { cfg.Tunnel.KnownHosts = fv.knownHosts })
	set("metrics-addr", func() { cfg.Metrics.Addr = fv.metricsAddr })

	// The tunnel spec may have changed.
	return cfg.Resolve()
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintf(w, `scanlink – barcode scanner stream client v%s

Keeps a TCP connection to the scanner open, copies every byte it sends
to stdout and reconnects whenever the scanner drops the connection.

Usage:
  scanlink [options]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(w, `
Environment:
  SCANLINK_DEVICE_HOST, SCANLINK_DEVICE_PORT, SCANLINK_DEVICE_RETRY_INTERVAL,
  SCANLINK_LOG_VERBOSE, SCANLINK_TUNNEL_SPEC, SCANLINK_METRICS_ADDR, ...

Examples:
  scanlink                                    Default scanner, quiet
  scanlink -v                                 Show connection status
  scanlink --host 10.1.4.20 -p 51000          Another scanner
  scanlink -T ops@bastion -v                  Through an SSH jump host
  scanlink --metrics-addr :9464 >> scans.log  Append scans, expose metrics
`)
}
