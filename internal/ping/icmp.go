package ping

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// ICMPPinger sends echo requests itself. Unprivileged mode uses a datagram
// ICMP socket (Linux net.ipv4.ping_group_range, macOS); privileged mode
// needs a raw socket.
type ICMPPinger struct {
	Privileged bool
	Interval   time.Duration
	// ReplyTimeout bounds the wait for each individual reply.
	ReplyTimeout time.Duration
	Resolver     Resolver
}

func (p *ICMPPinger) network() string {
	if p.Privileged {
		return "ip4:icmp"
	}
	return "udp4"
}

// Check opens and closes a socket to verify ICMP is usable.
func (p *ICMPPinger) Check() error {
	conn, err := icmp.ListenPacket(p.network(), "0.0.0.0")
	if err != nil {
		return fmt.Errorf("open %s socket: %w", p.network(), err)
	}
	return conn.Close()
}

// Ping implements Pinger.
func (p *ICMPPinger) Ping(ctx context.Context, host string, count int) (Result, error) {
	ip, err := resolve(ctx, p.Resolver, host)
	if err != nil {
		return Result{}, fmt.Errorf("resolve %s: %w", host, err)
	}
	if ip.To4() == nil {
		return Result{}, fmt.Errorf("%s is not an IPv4 address", ip)
	}
	conn, err := icmp.ListenPacket(p.network(), "0.0.0.0")
	if err != nil {
		return Result{}, fmt.Errorf("open %s socket: %w", p.network(), err)
	}
	defer conn.Close()

	var dst net.Addr = &net.UDPAddr{IP: ip}
	if p.Privileged {
		dst = &net.IPAddr{IP: ip}
	}
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}
	replyTimeout := p.ReplyTimeout
	if replyTimeout <= 0 {
		replyTimeout = 2 * time.Second
	}

	id := os.Getpid() & 0xffff
	sent := 0
	var rtts []time.Duration
	for seq := 0; seq < count; seq++ {
		if ctx.Err() != nil {
			break
		}
		msg := icmp.Message{
			Type: ipv4.ICMPTypeEcho,
			Body: &icmp.Echo{ID: id, Seq: seq, Data: []byte("realityscout-ping")},
		}
		b, err := msg.Marshal(nil)
		if err != nil {
			return Result{}, err
		}
		start := time.Now()
		if _, err := conn.WriteTo(b, dst); err != nil {
			return Result{}, fmt.Errorf("send echo: %w", err)
		}
		sent++
		if rtt, ok := awaitReply(ctx, conn, seq, start, replyTimeout); ok {
			rtts = append(rtts, rtt)
		}
		if seq < count-1 {
			select {
			case <-ctx.Done():
			case <-time.After(time.Until(start.Add(interval))):
			}
		}
	}
	return summarize(sent, rtts)
}

func awaitReply(ctx context.Context, conn *icmp.PacketConn, seq int, start time.Time, timeout time.Duration) (time.Duration, bool) {
	deadline := start.Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	_ = conn.SetReadDeadline(deadline)
	buf := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			return 0, false
		}
		rtt := time.Since(start)
		m, err := icmp.ParseMessage(ipv4.ICMPTypeEchoReply.Protocol(), buf[:n])
		if err != nil || m.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		// datagram sockets rewrite the echo ID, so only the sequence is checked
		if echo, ok := m.Body.(*icmp.Echo); ok && echo.Seq == seq {
			return rtt, true
		}
	}
}
