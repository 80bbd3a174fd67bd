package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/selimozcann/RealityScout/internal/model"
)

// Signature maps a case-insensitive fragment to a CDN display name.
type Signature struct {
	Fragment string `yaml:"fragment"`
	Name     string `yaml:"name"`
}

// Timeouts bounds every network operation of a run.
type Timeouts struct {
	PortCheck time.Duration `yaml:"port_check"`
	TLSDest   time.Duration `yaml:"tls_dest"`
	TLSSNI    time.Duration `yaml:"tls_sni"`
	HTTP      time.Duration `yaml:"http"`
	CDN       time.Duration `yaml:"cdn"`
	Whois     time.Duration `yaml:"whois"`
	DNS       time.Duration `yaml:"dns"`
	Ping      time.Duration `yaml:"ping"`
}

// Config holds everything tunable about a run.
type Config struct {
	Timeouts     Timeouts      `yaml:"timeouts"`
	DefaultPorts []uint16      `yaml:"default_ports"`
	Stagger      time.Duration `yaml:"stagger"`

	Ping struct {
		Count      int  `yaml:"count"`
		Privileged bool `yaml:"privileged"`
	} `yaml:"ping"`

	CDN struct {
		WhoisServer     string      `yaml:"whois_server"`
		IPInfoURL       string      `yaml:"ipinfo_url"`
		IPInfoToken     string      `yaml:"ipinfo_token"`
		GeoLiteASNPath  string      `yaml:"geolite_asn_path"`
		ExtraSignatures []Signature `yaml:"extra_signatures"`
	} `yaml:"cdn"`

	DNSServers      []string `yaml:"dns_servers"`
	StrictRedirects bool     `yaml:"strict_redirects"`
	UserAgent       string   `yaml:"user_agent"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Timeouts: Timeouts{
			PortCheck: 5 * time.Second,
			TLSDest:   10 * time.Second,
			TLSSNI:    5 * time.Second,
			HTTP:      5 * time.Second,
			CDN:       5 * time.Second,
			Whois:     5 * time.Second,
			DNS:       3 * time.Second,
			Ping:      10 * time.Second,
		},
		DefaultPorts: []uint16{443, 80},
		Stagger:      100 * time.Millisecond,
		UserAgent:    "curl/8.5.0",
	}
	cfg.Ping.Count = 5
	cfg.CDN.WhoisServer = "whois.cymru.com:43"
	cfg.CDN.IPInfoURL = "https://ipinfo.io"
	return cfg
}

// Load reads a YAML file on top of the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values that would make a run meaningless.
func (c *Config) Validate() error {
	t := c.Timeouts
	for name, d := range map[string]time.Duration{
		"port_check": t.PortCheck, "tls_dest": t.TLSDest, "tls_sni": t.TLSSNI,
		"http": t.HTTP, "cdn": t.CDN, "whois": t.Whois, "dns": t.DNS, "ping": t.Ping,
	} {
		if d <= 0 {
			return fmt.Errorf("timeouts.%s must be > 0 (got %s)", name, d)
		}
	}
	if len(c.DefaultPorts) == 0 {
		return errors.New("default_ports must not be empty")
	}
	for _, p := range c.DefaultPorts {
		if p == 0 {
			return errors.New("default_ports must not contain 0")
		}
	}
	if c.Ping.Count < 1 {
		return fmt.Errorf("ping.count must be >= 1 (got %d)", c.Ping.Count)
	}
	if c.Stagger < 0 {
		return fmt.Errorf("stagger must be >= 0 (got %s)", c.Stagger)
	}
	for _, s := range c.CDN.ExtraSignatures {
		if s.Fragment == "" || s.Name == "" {
			return errors.New("cdn.extra_signatures entries need fragment and name")
		}
	}
	return nil
}

// OverrideTimeouts sets every probe timeout to d.
func (c *Config) OverrideTimeouts(d time.Duration) {
	c.Timeouts = Timeouts{
		PortCheck: d, TLSDest: d, TLSSNI: d, HTTP: d,
		CDN: d, Whois: d, DNS: d, Ping: d,
	}
}

// TLSTimeout returns the TLS handshake bound for a variant.
func (c *Config) TLSTimeout(v model.Variant) time.Duration {
	if v == model.VariantSNI {
		return c.Timeouts.TLSSNI
	}
	return c.Timeouts.TLSDest
}
