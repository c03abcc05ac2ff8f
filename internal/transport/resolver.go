package transport

import (
	"context"
	"fmt"
	"net"
	"net/netip"
)

// NetResolver resolves through the system resolver, accepting both
// IPv4 and IPv6 answers in the order the resolver returns them.
type NetResolver struct {
	// Resolver defaults to net.DefaultResolver.
	Resolver *net.Resolver
}

// Resolve looks up host and attaches port to every address.  An IP
// literal resolves to itself without touching DNS.
func (r *NetResolver) Resolve(ctx context.Context, host string, port int) ([]netip.AddrPort, error) {
	if port < 0 || port > 65535 {
		return nil, fmt.Errorf("port %d out of range", port)
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return []netip.AddrPort{netip.AddrPortFrom(ip, uint16(port))}, nil
	}

	res := r.Resolver
	if res == nil {
		res = net.DefaultResolver
	}
	ips, err := res.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("lookup %q: %w", host, err)
	}

	out := make([]netip.AddrPort, 0, len(ips))
	for _, ip := range ips {
		out = append(out, netip.AddrPortFrom(ip.Unmap(), uint16(port)))
	}
	return out, nil
}

// StaticResolver always returns the same candidates.  Useful when the
// device address is pinned, and in tests.
type StaticResolver []netip.AddrPort

// Resolve returns a copy of the static list, ignoring host and port.
func (s StaticResolver) Resolve(ctx context.Context, _ string, _ int) ([]netip.AddrPort, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]netip.AddrPort(nil), s...), nil
}
