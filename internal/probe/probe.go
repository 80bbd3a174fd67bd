// Package probe implements the individual checks run against a target.
//
// Every Prober returns a model.Outcome and never an error: failures inside a
// probe are converted to an Error finding with a negative signal so that one
// broken check cannot abort its siblings.
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/selimozcann/RealityScout/internal/model"
)

// Progress receives human readable progress messages from a running probe.
type Progress func(msg string)

// Prober checks one property of a target.
type Prober interface {
	Kind() model.ProbeKind
	Probe(ctx context.Context, target model.Target, progress Progress) model.Outcome
}

func noProgress(string) {}

func positive(kind model.ProbeKind, finding model.Finding, evidence string) model.Outcome {
	return model.Outcome{Kind: kind, Finding: finding, Evidence: evidence, Signal: model.SignalPositive}
}

func negative(kind model.ProbeKind, finding model.Finding, evidence string) model.Outcome {
	return model.Outcome{Kind: kind, Finding: finding, Evidence: evidence, Signal: model.SignalNegative}
}

// VersionName renders a TLS protocol version for display.
func VersionName(v uint16) string {
	switch v {
	case tls.VersionTLS13:
		return "TLS 1.3"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS10:
		return "TLS 1.0"
	}
	return fmt.Sprintf("0x%04x", v)
}

// handshake dials target and runs a TLS handshake with cfg. Dial failures
// are returned as *DialError so callers can tell them apart from protocol
// rejections.
func handshake(ctx context.Context, target model.Target, cfg *tls.Config) (tls.ConnectionState, error) {
	d := &net.Dialer{}
	raw, err := d.DialContext(ctx, "tcp", target.Addr())
	if err != nil {
		return tls.ConnectionState{}, &DialError{Err: err}
	}
	defer raw.Close()
	if dl, ok := ctx.Deadline(); ok {
		_ = raw.SetDeadline(dl)
	}
	conn := tls.Client(raw, cfg)
	if err := conn.HandshakeContext(ctx); err != nil {
		return tls.ConnectionState{}, err
	}
	return conn.ConnectionState(), nil
}

// DialError wraps a TCP connect failure.
type DialError struct {
	Err error
}

func (e *DialError) Error() string { return "connect: " + e.Err.Error() }
func (e *DialError) Unwrap() error { return e.Err }

// isTransportFailure reports errors that say nothing about the server's
// TLS capabilities: connect failures and timeouts.
func isTransportFailure(err error) bool {
	var de *DialError
	if errors.As(err, &de) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// negotiateALPN performs a handshake offering protos and returns the
// protocol the server selected ("" when none).
func negotiateALPN(ctx context.Context, target model.Target, protos []string, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	state, err := handshake(ctx, target, &tls.Config{
		ServerName:         target.Host,
		NextProtos:         protos,
		InsecureSkipVerify: true, // #nosec G402
	})
	if err != nil {
		return "", err
	}
	return state.NegotiatedProtocol, nil
}
