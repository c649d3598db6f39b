// Package netprobe checks that the artifact's host is reachable before any
// download is attempted. A probe is a single round trip; there is no retry.
package netprobe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Probe modes.
const (
	ModeICMP = "icmp"
	ModeTCP  = "tcp"
)

// DefaultTimeout bounds one probe.
const DefaultTimeout = 5 * time.Second

// ErrUnreachable is wrapped by every failed probe.
var ErrUnreachable = errors.New("host unreachable")

// Prober checks reachability of a host.
type Prober interface {
	Probe(ctx context.Context, host string) error
}

// New returns the prober for mode.
func New(mode string, timeout time.Duration) (Prober, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch mode {
	case ModeICMP, "":
		return &ICMPProber{Timeout: timeout}, nil
	case ModeTCP:
		return &TCPProber{Timeout: timeout, Port: "443"}, nil
	default:
		return nil, fmt.Errorf("unknown probe mode %q", mode)
	}
}

// TCPProber dials host:Port once.
type TCPProber struct {
	Timeout time.Duration
	Port    string
}

// Probe implements Prober.
func (p *TCPProber) Probe(ctx context.Context, host string) error {
	d := net.Dialer{Timeout: p.Timeout}

	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, p.Port))
	if err != nil {
		return fmt.Errorf("%w: dial %s:%s: %v", ErrUnreachable, host, p.Port, err)
	}
	return conn.Close()
}

// resolveIPv4 returns the first IPv4 address of host.
func resolveIPv4(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, fmt.Errorf("%s is not an IPv4 address", host)
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, a := range addrs {
		if v4 := a.IP.To4(); v4 != nil {
			return v4, nil
		}
	}
	return nil, fmt.Errorf("resolve %s: no IPv4 address", host)
}
