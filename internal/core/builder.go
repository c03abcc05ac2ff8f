package core

import (
	"io"

	"scanlink/config"
	"scanlink/internal/metrics"
	"scanlink/internal/transport"
	"scanlink/tunnel"
	"scanlink/util"
)

// Build assembles a Manager from a loaded, validated configuration.
// Device data is written to sink; mc may be nil.
func Build(cfg *config.Config, sink io.Writer, logger *util.Logger, mc *metrics.Collector) *Manager {
	return &Manager{
		Config: Config{
			Host:          cfg.Device.Host,
			Port:          cfg.Device.Port,
			ReadBuffer:    cfg.Device.ReadBuffer,
			RetryInterval: cfg.Device.RetryInterval,
		},
		Resolver: &transport.NetResolver{},
		Dialer:   buildDialer(cfg, logger),
		Sink:     sink,
		Logger:   logger,
		Metrics:  mc,
	}
}

// buildDialer picks the SSH gateway dialer when a tunnel is configured
// and plain TCP otherwise.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	if cfg.Tunnel.Enabled {
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.Tunnel.User,
			Host:          cfg.Tunnel.Host,
			Port:          cfg.Tunnel.Port,
			KeyPath:       cfg.Tunnel.SSHKey,
			PromptPass:    cfg.Tunnel.SSHPassword,
			UseAgent:      cfg.Tunnel.SSHAgent,
			StrictHostKey: cfg.Tunnel.StrictHostKey,
			KnownHosts:    cfg.Tunnel.KnownHosts,
			ConnTimeout:   cfg.Device.DialTimeout,
		}, logger)
	}
	return &transport.TCPDialer{Timeout: cfg.Device.DialTimeout}
}
