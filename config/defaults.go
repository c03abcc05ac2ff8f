package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, the YAML file and environment variable loading.

const (
	// DefaultHost is the factory IP address of the BC9180 scanner.
	DefaultHost = "192.168.187.31"

	// DefaultPort is the scanner's TCP data port.
	DefaultPort = 51000

	// DefaultReadBuffer is the largest chunk forwarded per receive.
	DefaultReadBuffer = 100

	// MaxReadBuffer caps the receive size.
	MaxReadBuffer = 64 * 1024

	// DefaultRetryInterval is the fixed wait between connect attempts.
	DefaultRetryInterval = 5 * time.Second

	// DefaultDialTimeout bounds a single candidate connect.  Zero
	// leaves it to the operating system.
	DefaultDialTimeout = 0

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22

	// DefaultDatabaseHost is the plant log server.
	DefaultDatabaseHost = "192.168.145.68"

	// DefaultDatabasePort is the standard MySQL port.
	DefaultDatabasePort = 3306

	// DefaultDatabaseUser is the read-only reporting account.
	DefaultDatabaseUser = "process_user"

	// DefaultDatabaseName holds the log_1 table.
	DefaultDatabaseName = "user_data"

	// EnvPrefix prefixes every supported environment variable.
	EnvPrefix = "SCANLINK_"
)

// Default returns a Config populated with every default value.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			Host:          DefaultHost,
			Port:          DefaultPort,
			ReadBuffer:    DefaultReadBuffer,
			RetryInterval: DefaultRetryInterval,
			DialTimeout:   DefaultDialTimeout,
		},
		Database: DatabaseConfig{
			Host: DefaultDatabaseHost,
			Port: DefaultDatabasePort,
			User: DefaultDatabaseUser,
			Name: DefaultDatabaseName,
		},
	}
}

// defaultMap is Default() shaped the way koanf stores it.  Durations
// are strings so they decode through the same hook as file values.
func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"device": map[string]any{
			"host":           d.Device.Host,
			"port":           d.Device.Port,
			"read_buffer":    d.Device.ReadBuffer,
			"retry_interval": d.Device.RetryInterval.String(),
			"dial_timeout":   d.Device.DialTimeout.String(),
		},
		"database": map[string]any{
			"host": d.Database.Host,
			"port": d.Database.Port,
			"user": d.Database.User,
			"name": d.Database.Name,
		},
	}
}
