package util

import (
	"net/netip"
	"testing"
)

func TestFormatAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"192.168.187.31", 51000, "192.168.187.31:51000"},
		{"::1", 443, "[::1]:443"},
		{"scanner.local", 80, "scanner.local:80"},
	}
	for _, tt := range tests {
		if got := FormatAddr(tt.host, tt.port); got != tt.want {
			t.Errorf("FormatAddr(%q,%d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestTCPNetwork(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"127.0.0.1:1", "tcp4"},
		{"[::1]:1", "tcp6"},
		{"[::ffff:10.0.0.1]:1", "tcp4"},
	}
	for _, tt := range tests {
		ap := netip.MustParseAddrPort(tt.addr)
		if got := TCPNetwork(ap); got != tt.want {
			t.Errorf("TCPNetwork(%s) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestFindFreePort(t *testing.T) {
	port, err := FindFreePort()
	if err != nil {
		t.Fatal(err)
	}
	if port < 1 || port > 65535 {
		t.Errorf("port %d out of range", port)
	}
}
