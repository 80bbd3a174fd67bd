package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/selimozcann/RealityScout/internal/model"
)

// TLS13 checks whether the target completes a TLS 1.3 handshake.
type TLS13 struct {
	Timeout time.Duration
}

// Kind implements Prober.
func (p *TLS13) Kind() model.ProbeKind { return model.KindTLS13 }

// Probe implements Prober.
func (p *TLS13) Probe(ctx context.Context, target model.Target, progress Progress) model.Outcome {
	if progress == nil {
		progress = noProgress
	}
	progress("Checking TLS 1.3 support...")

	restricted, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	state, err := handshake(restricted, target, &tls.Config{
		ServerName:         target.Host,
		MinVersion:         tls.VersionTLS13,
		MaxVersion:         tls.VersionTLS13,
		InsecureSkipVerify: true, // #nosec G402
	})
	if err == nil && state.Version == tls.VersionTLS13 {
		o := positive(model.KindTLS13, model.FindingSupported, "TLS 1.3 supported")
		o.Detail = map[string]string{"version": VersionName(state.Version), "cipher": tls.CipherSuiteName(state.CipherSuite)}
		return o
	}
	if isTransportFailure(err) {
		return model.ErrorOutcome(model.KindTLS13, fmt.Sprintf("Error during TLS check: %v", err))
	}

	progress("TLS 1.3 refused, checking negotiated version...")
	fallback, cancel2 := context.WithTimeout(ctx, p.Timeout)
	defer cancel2()
	state, ferr := handshake(fallback, target, &tls.Config{
		ServerName:         target.Host,
		MinVersion:         tls.VersionTLS10,
		InsecureSkipVerify: true, // #nosec G402
	})
	if ferr != nil {
		o := negative(model.KindTLS13, model.FindingIndeterminate, "Could not determine TLS version")
		o.Detail = map[string]string{"error": ferr.Error()}
		return o
	}
	version := VersionName(state.Version)
	o := negative(model.KindTLS13, model.FindingUnsupported, fmt.Sprintf("TLS 1.3 not supported (using %s)", version))
	o.Detail = map[string]string{"version": version}
	return o
}
