package runner

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/selimozcann/RealityScout/internal/cdn"
	"github.com/selimozcann/RealityScout/internal/config"
	"github.com/selimozcann/RealityScout/internal/httpclient"
	"github.com/selimozcann/RealityScout/internal/ipintel"
	"github.com/selimozcann/RealityScout/internal/model"
	"github.com/selimozcann/RealityScout/internal/ping"
	"github.com/selimozcann/RealityScout/internal/probe"
	"github.com/selimozcann/RealityScout/internal/whois"
)

// Deps are the shared collaborators a probe set is built from.
type Deps struct {
	Resolver cdn.Resolver
	// Pinger is required for the dest variant only.
	Pinger ping.Pinger
	Log    *logrus.Entry
}

// ProbeSet is the ordered list of probers for one variant plus the
// resources they hold open.
type ProbeSet struct {
	Probers []probe.Prober
	closers []io.Closer
}

// Close releases resources held by the probers.
func (s *ProbeSet) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Assemble builds the probers for variant v from cfg, in report order.
func Assemble(cfg *config.Config, v model.Variant, deps Deps) (*ProbeSet, error) {
	if deps.Log == nil {
		deps.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	set := &ProbeSet{}
	client := func(timeout time.Duration, proto httpclient.Protocol) httpclient.Config {
		return httpclient.Config{Timeout: timeout, UserAgent: cfg.UserAgent, Insecure: true, Protocol: proto}
	}

	for _, kind := range model.Kinds(v) {
		var p probe.Prober
		switch kind {
		case model.KindTLS13:
			p = &probe.TLS13{Timeout: cfg.TLSTimeout(v)}
		case model.KindHTTP2:
			p = &probe.HTTP2{
				Timeout: cfg.Timeouts.HTTP,
				H2:      httpclient.New(client(cfg.Timeouts.HTTP, httpclient.ProtocolHTTP2)),
				H1:      httpclient.New(client(cfg.Timeouts.HTTP, httpclient.ProtocolHTTP1)),
			}
		case model.KindHTTP3:
			p = &probe.HTTP3{Timeout: cfg.Timeouts.HTTP}
		case model.KindRedirect:
			rd := &probe.Redirect{
				Client:     httpclient.New(client(cfg.Timeouts.HTTP, httpclient.ProtocolAuto)),
				Timeout:    cfg.Timeouts.HTTP,
				Rule:       probe.StatusRedirect,
				NoRedirect: "No redirects found",
				Strict:     cfg.StrictRedirects,
			}
			if v == model.VariantSNI {
				rd.Rule = probe.LocationRedirect
				rd.NoRedirect = "No redirect"
			}
			p = rd
		case model.KindCDN:
			m, err := set.matcher(cfg, deps, client(cfg.Timeouts.CDN, httpclient.ProtocolAuto))
			if err != nil {
				_ = set.Close()
				return nil, err
			}
			noCDN := "CDN not used"
			if v == model.VariantSNI {
				noCDN = "No CDN used"
			}
			p = &probe.CDN{Matcher: m, NoCDN: noCDN}
		case model.KindLatency:
			if deps.Pinger == nil {
				_ = set.Close()
				return nil, fmt.Errorf("latency probe: %w", ping.ErrUnavailable)
			}
			p = &probe.Latency{Pinger: deps.Pinger, Count: cfg.Ping.Count, Timeout: cfg.Timeouts.Ping}
		}
		set.Probers = append(set.Probers, p)
	}
	return set, nil
}

func (s *ProbeSet) matcher(cfg *config.Config, deps Deps, hc httpclient.Config) (*cdn.Matcher, error) {
	extra := make([]cdn.Signature, 0, len(cfg.CDN.ExtraSignatures))
	for _, sig := range cfg.CDN.ExtraSignatures {
		extra = append(extra, cdn.Signature{Fragment: sig.Fragment, Name: sig.Name})
	}

	var intel ipintel.Chain
	if cfg.CDN.GeoLiteASNPath != "" {
		db, err := ipintel.OpenGeoLiteASN(cfg.CDN.GeoLiteASNPath)
		if err != nil {
			return nil, fmt.Errorf("geolite asn database: %w", err)
		}
		s.closers = append(s.closers, db)
		intel = append(intel, db)
	}
	if cfg.CDN.IPInfoURL != "" {
		intel = append(intel, &ipintel.IPInfo{
			BaseURL: cfg.CDN.IPInfoURL,
			Token:   cfg.CDN.IPInfoToken,
			Client:  httpclient.New(hc),
		})
	}

	m := &cdn.Matcher{
		Table:    cdn.DefaultTable().With(extra...),
		Headers:  &cdn.HTTPHeaders{Client: httpclient.New(hc)},
		Resolver: deps.Resolver,
		Certs:    &cdn.TLSCertificates{Timeout: cfg.Timeouts.CDN},
		Log:      deps.Log.WithField("probe", model.KindCDN),
	}
	if cfg.CDN.WhoisServer != "" {
		m.ASN = whois.New(cfg.CDN.WhoisServer, cfg.Timeouts.Whois)
	}
	if len(intel) > 0 {
		m.IPIntel = intel
	}
	return m, nil
}
