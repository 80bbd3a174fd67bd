// Package capability verifies at startup that every client a run depends on
// can be built, and fails fast with a hint when one cannot.
package capability

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/selimozcann/RealityScout/internal/config"
	"github.com/selimozcann/RealityScout/internal/httpclient"
	"github.com/selimozcann/RealityScout/internal/model"
	"github.com/selimozcann/RealityScout/internal/ping"
	"github.com/selimozcann/RealityScout/internal/resolve"
)

// ErrCapabilityMissing wraps every failed check.
var ErrCapabilityMissing = errors.New("required capability missing")

// Names of the checked capabilities.
const (
	TLS   = "tls"
	HTTP  = "http"
	DNS   = "dns"
	WHOIS = "whois"
	ICMP  = "icmp"
)

var hints = map[string]string{
	TLS:   "the Go TLS stack reports no cipher suites; rebuild without restricting crypto/tls",
	HTTP:  "check user_agent and HTTP timeouts in the config file",
	DNS:   "set dns_servers in the config file or make " + resolve.DefaultConfigPath + " readable",
	WHOIS: "set cdn.whois_server to host:port, e.g. whois.cymru.com:43",
	ICMP:  "run with --privileged as root, allow unprivileged ICMP (net.ipv4.ping_group_range) or install ping",
}

// Provisioned holds the clients built while checking.
type Provisioned struct {
	Resolver *resolve.Resolver
	// Pinger is nil for the sni variant.
	Pinger ping.Pinger
}

// Options adjust where checks look.
type Options struct {
	// ResolvConf is read when the config names no DNS servers.
	ResolvConf string
	Log        *logrus.Entry
}

var detectPinger = ping.Detect

// Ensure checks every capability variant v needs, in order, and stops at
// the first one missing.
func Ensure(cfg *config.Config, v model.Variant, opts Options) (*Provisioned, error) {
	if opts.ResolvConf == "" {
		opts.ResolvConf = resolve.DefaultConfigPath
	}
	if opts.Log == nil {
		opts.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	out := &Provisioned{}

	checks := []struct {
		name string
		run  func() error
	}{
		{TLS, checkTLS},
		{HTTP, func() error { return checkHTTP(cfg) }},
		{DNS, func() (err error) {
			out.Resolver, err = buildResolver(cfg, opts.ResolvConf)
			return err
		}},
		{WHOIS, func() error { return checkWhois(cfg.CDN.WhoisServer) }},
	}
	if v == model.VariantDest {
		checks = append(checks, struct {
			name string
			run  func() error
		}{ICMP, func() (err error) {
			out.Pinger, err = detectPinger(cfg.Ping.Privileged, out.Resolver)
			return err
		}})
	}

	for _, c := range checks {
		if err := c.run(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v (hint: %s)", ErrCapabilityMissing, c.name, err, hints[c.name])
		}
		opts.Log.WithField("capability", c.name).Debug("capability available")
	}
	return out, nil
}

func checkTLS() error {
	for _, s := range tls.CipherSuites() {
		for _, v := range s.SupportedVersions {
			if v == tls.VersionTLS13 {
				return nil
			}
		}
	}
	return errors.New("no TLS 1.3 cipher suites available")
}

func checkHTTP(cfg *config.Config) error {
	c := httpclient.New(httpclient.Config{Timeout: cfg.Timeouts.HTTP, UserAgent: cfg.UserAgent, Protocol: httpclient.ProtocolHTTP2})
	if c.Transport == nil {
		return errors.New("no HTTP transport")
	}
	return nil
}

func buildResolver(cfg *config.Config, resolvConf string) (*resolve.Resolver, error) {
	if len(cfg.DNSServers) > 0 {
		return resolve.New(cfg.DNSServers, cfg.Timeouts.DNS)
	}
	return resolve.FromSystem(resolvConf, cfg.Timeouts.DNS)
}

func checkWhois(server string) error {
	if server == "" {
		return errors.New("no WHOIS server configured")
	}
	host, port, err := net.SplitHostPort(server)
	if err != nil {
		return err
	}
	if host == "" || port == "" {
		return fmt.Errorf("incomplete WHOIS address %q", server)
	}
	return nil
}
