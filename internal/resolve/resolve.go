// Package resolve looks up A records for probe targets.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// ErrNoAddress is returned when a name has no A record.
var ErrNoAddress = errors.New("no IPv4 address")

// DefaultConfigPath is where the system resolver configuration lives.
const DefaultConfigPath = "/etc/resolv.conf"

// Resolver queries DNS servers directly for A records.
type Resolver struct {
	servers []string
	client  *dns.Client
}

// New builds a Resolver for the given servers ("ip" or "ip:port").
func New(servers []string, timeout time.Duration) (*Resolver, error) {
	if len(servers) == 0 {
		return nil, errors.New("no DNS servers configured")
	}
	norm := make([]string, 0, len(servers))
	for _, s := range servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		norm = append(norm, s)
	}
	return &Resolver{servers: norm, client: &dns.Client{Timeout: timeout}}, nil
}

// FromSystem builds a Resolver from a resolv.conf style file.
func FromSystem(path string, timeout time.Duration) (*Resolver, error) {
	cc, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resolver config: %w", err)
	}
	servers := make([]string, 0, len(cc.Servers))
	for _, s := range cc.Servers {
		servers = append(servers, net.JoinHostPort(s, cc.Port))
	}
	return New(servers, timeout)
}

// Servers returns the servers queried, in order.
func (r *Resolver) Servers() []string { return append([]string(nil), r.servers...) }

// LookupA returns the first A record of host. IP literals are returned as is.
func (r *Resolver) LookupA(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), dns.TypeA)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		in, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil {
			lastErr = err
			continue
		}
		if in.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("%s: %s", server, dns.RcodeToString[in.Rcode])
			continue
		}
		for _, rr := range in.Answer {
			if a, ok := rr.(*dns.A); ok {
				return a.A, nil
			}
		}
		return nil, fmt.Errorf("%w for %s", ErrNoAddress, host)
	}
	return nil, fmt.Errorf("resolve %s: %w", host, lastErr)
}
