package netprobe

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// protocolICMP is the IANA protocol number of ICMP for IPv4.
const protocolICMP = 1

// ICMPProber sends one ICMP echo request and waits for the matching reply.
// It opens a raw socket and therefore needs administrative privilege.
type ICMPProber struct {
	Timeout time.Duration
}

// Probe implements Prober.
func (p *ICMPProber) Probe(ctx context.Context, host string) error {
	ip, err := resolveIPv4(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return fmt.Errorf("open icmp socket: %w", err)
	}
	defer conn.Close()

	id := os.Getpid() & 0xffff
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{ID: id, Seq: 1, Data: []byte("handoff-probe")},
	}
	wire, err := msg.Marshal(nil)
	if err != nil {
		return fmt.Errorf("marshal echo: %w", err)
	}

	deadline := time.Now().Add(p.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	if _, err := conn.WriteTo(wire, &net.IPAddr{IP: ip}); err != nil {
		return fmt.Errorf("%w: send echo to %s: %v", ErrUnreachable, ip, err)
	}

	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			return fmt.Errorf("%w: no echo reply from %s: %v", ErrUnreachable, ip, err)
		}
		if isEchoReply(buf[:n], id) && peerIP(peer).Equal(ip) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// isEchoReply reports whether b is an echo reply carrying id.
func isEchoReply(b []byte, id int) bool {
	reply, err := icmp.ParseMessage(protocolICMP, b)
	if err != nil || reply.Type != ipv4.ICMPTypeEchoReply {
		return false
	}
	echo, ok := reply.Body.(*icmp.Echo)
	return ok && echo.ID == id
}

func peerIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	default:
		return nil
	}
}
