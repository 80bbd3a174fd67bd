// Package cdn detects whether a target is fronted by a content delivery
// network. Detection runs an ordered cascade of stages and stops at the
// first provider found:
//
//  1. response headers
//  2. ASN owner of the resolved address (WHOIS)
//  3. IP intelligence lookup of the resolved address
//  4. TLS certificate contents
//
// A stage that fails counts as "no match" and the cascade moves on.
package cdn

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/selimozcann/RealityScout/internal/model"
	"github.com/selimozcann/RealityScout/internal/util"
	"github.com/selimozcann/RealityScout/internal/whois"
)

// HeaderFetcher returns the response headers served by the target.
type HeaderFetcher interface {
	Headers(ctx context.Context, target model.Target) (http.Header, error)
}

// Resolver resolves a host to an IPv4 address.
type Resolver interface {
	LookupA(ctx context.Context, host string) (net.IP, error)
}

// ASNSource maps an address to the announcing AS.
type ASNSource interface {
	LookupASN(ctx context.Context, ip net.IP) (whois.ASNRecord, error)
}

// OrgSource maps an address to its owning organization.
type OrgSource interface {
	Org(ctx context.Context, ip net.IP) (string, error)
}

// CertFetcher returns a text rendering of the target's certificate chain.
type CertFetcher interface {
	Transcript(ctx context.Context, target model.Target) (string, error)
}

var (
	// ErrInvalidTarget is returned when detection cannot start at all.
	ErrInvalidTarget = errors.New("invalid CDN target")
	// ErrInternalAddress marks a private address that registries cannot attribute.
	ErrInternalAddress = errors.New("address is internal")
)

// Matcher runs the detection cascade. Nil stage sources are skipped.
type Matcher struct {
	Table    Table
	Headers  HeaderFetcher
	Resolver Resolver
	ASN      ASNSource
	IPIntel  OrgSource
	Certs    CertFetcher
	Log      *logrus.Entry
	// OnStage, when set, is called as each stage starts.
	OnStage func(model.CDNMethod)
}

type stage struct {
	method model.CDNMethod
	run    func(ctx context.Context, target model.Target) (string, bool, error)
}

// Detect runs the cascade against target.
func (m *Matcher) Detect(ctx context.Context, target model.Target) (model.CDNFinding, error) {
	if target.Host == "" {
		return model.CDNFinding{}, ErrInvalidTarget
	}
	log := m.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	table := m.Table
	if len(table) == 0 {
		table = DefaultTable()
	}

	// the address is resolved at most once and shared by the ASN and
	// IP intelligence stages
	var (
		ip         net.IP
		resolveErr error
		resolved   bool
	)
	resolve := func(ctx context.Context) (net.IP, error) {
		if resolved {
			return ip, resolveErr
		}
		resolved = true
		if m.Resolver == nil {
			resolveErr = errors.New("no resolver configured")
			return nil, resolveErr
		}
		ip, resolveErr = m.Resolver.LookupA(ctx, target.Host)
		if resolveErr == nil && util.IsInternalIP(ip) {
			resolveErr = fmt.Errorf("%w: %s", ErrInternalAddress, ip)
		}
		return ip, resolveErr
	}

	stages := []stage{
		{model.CDNMethodHeaders, func(ctx context.Context, t model.Target) (string, bool, error) {
			if m.Headers == nil {
				return "", false, nil
			}
			h, err := m.Headers.Headers(ctx, t)
			if err != nil {
				return "", false, err
			}
			name, ok := table.MatchHeaders(h)
			return name, ok, nil
		}},
		{model.CDNMethodASN, func(ctx context.Context, t model.Target) (string, bool, error) {
			if m.ASN == nil {
				return "", false, nil
			}
			addr, err := resolve(ctx)
			if err != nil {
				return "", false, err
			}
			rec, err := m.ASN.LookupASN(ctx, addr)
			if err != nil {
				return "", false, err
			}
			name, ok := table.Match(rec.Name)
			return name, ok, nil
		}},
		{model.CDNMethodIPIntel, func(ctx context.Context, t model.Target) (string, bool, error) {
			if m.IPIntel == nil {
				return "", false, nil
			}
			addr, err := resolve(ctx)
			if err != nil {
				return "", false, err
			}
			org, err := m.IPIntel.Org(ctx, addr)
			if err != nil {
				return "", false, err
			}
			name, ok := table.Match(org)
			return name, ok, nil
		}},
		{model.CDNMethodCertificate, func(ctx context.Context, t model.Target) (string, bool, error) {
			if m.Certs == nil {
				return "", false, nil
			}
			text, err := m.Certs.Transcript(ctx, t)
			if err != nil {
				return "", false, err
			}
			name, ok := table.Match(text)
			return name, ok, nil
		}},
	}

	for _, st := range stages {
		if m.OnStage != nil {
			m.OnStage(st.method)
		}
		name, ok, err := st.run(ctx, target)
		if err != nil {
			log.WithError(err).WithField("stage", st.method).Debug("cdn stage failed")
			continue
		}
		if ok {
			log.WithFields(logrus.Fields{"stage": st.method, "provider": name}).Debug("cdn detected")
			return model.CDNFinding{
				Detected:  true,
				Providers: []model.CDNMatch{{Name: name, Method: st.method}},
			}, nil
		}
	}
	return model.CDNFinding{}, nil
}
