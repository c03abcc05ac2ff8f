// Package config defines the runtime configuration for scanlink and the
// loader that assembles it from defaults, a YAML file and the
// environment.  CLI flags are applied on top by the cmd package.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	ncerr "scanlink/internal/errors"
)

// Config holds every tuneable for a scanlink process.  It is read once
// at startup and never reloaded.
type Config struct {
	Device   DeviceConfig   `koanf:"device"`
	Log      LogConfig      `koanf:"log"`
	Tunnel   TunnelConfig   `koanf:"tunnel"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Database DatabaseConfig `koanf:"database"`
}

// DeviceConfig describes the scanner endpoint and the connection
// policy used against it.
type DeviceConfig struct {
	Host          string        `koanf:"host"`
	Port          int           `koanf:"port"`
	ReadBuffer    int           `koanf:"read_buffer"`
	RetryInterval time.Duration `koanf:"retry_interval"`
	DialTimeout   time.Duration `koanf:"dial_timeout"`
}

// LogConfig controls the diagnostic channel.
type LogConfig struct {
	Verbose int `koanf:"verbose"`
}

// TunnelConfig describes an optional SSH jump host in front of the
// device network.
type TunnelConfig struct {
	Spec          string `koanf:"spec"` // raw [user@]host[:port]
	SSHKey        string `koanf:"ssh_key"`
	SSHAgent      bool   `koanf:"ssh_agent"`
	SSHPassword   bool   `koanf:"ssh_password"` // true → prompt interactively
	StrictHostKey bool   `koanf:"strict_hostkey"`
	KnownHosts    string `koanf:"known_hosts"`

	// Filled in by Resolve from Spec.
	Enabled bool   `koanf:"-"`
	User    string `koanf:"-"`
	Host    string `koanf:"-"`
	Port    int    `koanf:"-"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig is used by the logquery utility only.
type DatabaseConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
}

// Addr returns the device address as host:port.
func (d DeviceConfig) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "ops@bastion.plant.local:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q – expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	if host == "" {
		return "", "", 0, fmt.Errorf("tunnel host is required")
	}
	return user, host, port, nil
}

// Resolve expands derived fields (currently the tunnel spec).
func (c *Config) Resolve() error {
	if c.Tunnel.Spec == "" {
		c.Tunnel.Enabled = false
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.Tunnel.Spec)
	if err != nil {
		return &ncerr.ConfigError{
			Field:   "tunnel",
			Value:   c.Tunnel.Spec,
			Message: err.Error(),
			Hint:    "use --tunnel ops@bastion[:port]",
		}
	}
	c.Tunnel.Enabled = true
	c.Tunnel.User = user
	c.Tunnel.Host = host
	c.Tunnel.Port = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the device-side configuration is usable.
func (c *Config) Validate() error {
	d := c.Device
	if d.Host == "" {
		return &ncerr.ConfigError{
			Field:   "host",
			Message: "device host is required",
			Hint:    fmt.Sprintf("the scanner ships with %s", DefaultHost),
		}
	}
	if d.Port < 1 || d.Port > 65535 {
		return &ncerr.ConfigError{
			Field:   "port",
			Value:   d.Port,
			Message: "out of range 1-65535",
			Hint:    fmt.Sprintf("the scanner listens on %d by default", DefaultPort),
		}
	}
	if d.ReadBuffer < 1 || d.ReadBuffer > MaxReadBuffer {
		return &ncerr.ConfigError{
			Field:   "read-buffer",
			Value:   d.ReadBuffer,
			Message: fmt.Sprintf("must be between 1 and %d bytes", MaxReadBuffer),
		}
	}
	if d.RetryInterval <= 0 {
		return &ncerr.ConfigError{
			Field:   "retry-interval",
			Value:   d.RetryInterval,
			Message: "must be positive",
			Hint:    "e.g. --retry-interval 5s",
		}
	}
	if d.DialTimeout < 0 {
		return &ncerr.ConfigError{
			Field:   "dial-timeout",
			Value:   d.DialTimeout,
			Message: "must not be negative",
		}
	}
	if c.Log.Verbose < 0 {
		return &ncerr.ConfigError{Field: "verbose", Value: c.Log.Verbose, Message: "must not be negative"}
	}
	if c.Tunnel.Enabled && c.Tunnel.Host == "" {
		return &ncerr.ConfigError{Field: "tunnel", Message: "tunnel host is required"}
	}
	if c.Tunnel.SSHKey != "" && !c.Tunnel.Enabled {
		return &ncerr.ConfigError{
			Field:   "ssh-key",
			Value:   c.Tunnel.SSHKey,
			Message: "only meaningful with --tunnel",
		}
	}
	return nil
}

// ValidateDatabase checks the settings used by the logquery utility.
func (c *Config) ValidateDatabase() error {
	db := c.Database
	if db.Host == "" {
		return &ncerr.ConfigError{Field: "database.host", Message: "required"}
	}
	if db.Port < 1 || db.Port > 65535 {
		return &ncerr.ConfigError{Field: "database.port", Value: db.Port, Message: "out of range 1-65535"}
	}
	if db.User == "" {
		return &ncerr.ConfigError{Field: "database.user", Message: "required"}
	}
	if db.Name == "" {
		return &ncerr.ConfigError{Field: "database.name", Message: "required"}
	}
	return nil
}
