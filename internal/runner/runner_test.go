package runner

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/selimozcann/RealityScout/internal/model"
	"github.com/selimozcann/RealityScout/internal/portselect"
	"github.com/selimozcann/RealityScout/internal/probe"
)

type fakeProber struct {
	kind    model.ProbeKind
	outcome model.Outcome
	delay   time.Duration
	panics  bool
	calls   atomic.Int32
	seen    model.Target
	during  func()
}

func (f *fakeProber) Kind() model.ProbeKind { return f.kind }

func (f *fakeProber) Probe(_ context.Context, target model.Target, progress probe.Progress) model.Outcome {
	f.calls.Add(1)
	f.seen = target
	progress("working")
	if f.during != nil {
		f.during()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panics {
		panic("boom")
	}
	return f.outcome
}

func ok(kind model.ProbeKind, evidence string) *fakeProber {
	return &fakeProber{kind: kind, outcome: model.Outcome{Kind: kind, Finding: model.FindingSupported, Signal: model.SignalPositive, Evidence: evidence}}
}

func bad(kind model.ProbeKind, evidence string, detail map[string]string) *fakeProber {
	return &fakeProber{kind: kind, outcome: model.Outcome{Kind: kind, Finding: model.FindingSupported, Signal: model.SignalNegative, Evidence: evidence, Detail: detail}}
}

func fastPing() *fakeProber {
	p := ok(model.KindLatency, "Average ping: 1.5 ms (Rating: 5/5)")
	p.outcome.Detail = map[string]string{"rating": "5", "avg_ms": "1.5"}
	return p
}

func destSet(overrides ...*fakeProber) []*fakeProber {
	set := []*fakeProber{
		ok(model.KindTLS13, "TLS 1.3 supported"),
		ok(model.KindHTTP2, "HTTP/2 supported (HTTP/2.0 200)"),
		ok(model.KindCDN, "CDN not used"),
		ok(model.KindRedirect, "No redirects found"),
		fastPing(),
	}
	return override(set, overrides)
}

func sniSet(overrides ...*fakeProber) []*fakeProber {
	set := []*fakeProber{
		ok(model.KindTLS13, "TLS 1.3 supported"),
		ok(model.KindHTTP2, "HTTP/2 supported (HTTP/2.0 200)"),
		ok(model.KindHTTP3, "HTTP/3 supported"),
		ok(model.KindRedirect, "No redirect"),
		ok(model.KindCDN, "No CDN used"),
	}
	return override(set, overrides)
}

func override(set, overrides []*fakeProber) []*fakeProber {
	for _, o := range overrides {
		for i := range set {
			if set[i].kind == o.kind {
				set[i] = o
			}
		}
	}
	return set
}

func probers(fs []*fakeProber) []probe.Prober {
	out := make([]probe.Prober, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out
}

func newRunner(v model.Variant, fs []*fakeProber, events chan<- model.Status) *Runner {
	r := New(Config{Variant: v, Ports: []uint16{443, 80}}, probers(fs), events)
	r.selectPort = func(context.Context, string, []uint16, time.Duration, func(portselect.Attempt)) (uint16, error) {
		return 443, nil
	}
	return r
}

func cloudflare() *fakeProber {
	return bad(model.KindCDN, "CDN used: Cloudflare (via headers)",
		map[string]string{"detected": "true", "provider": "Cloudflare", "method": "headers"})
}

func TestCleanHostDest(t *testing.T) {
	fs := destSet()
	r := newRunner(model.VariantDest, fs, nil)
	rep, err := r.Run(context.Background(), model.Target{Host: "example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rep.Verdict.Acceptable || len(rep.Verdict.Negatives) != 0 {
		t.Fatalf("expected acceptable with zero negatives: %+v", rep.Verdict)
	}
	if r.State() != StateDone {
		t.Fatalf("state = %s", r.State())
	}
	for _, f := range fs {
		if n := f.calls.Load(); n != 1 {
			t.Fatalf("%s called %d times", f.kind, n)
		}
		if f.seen.Port != 443 {
			t.Fatalf("%s saw port %d, want selected 443", f.kind, f.seen.Port)
		}
	}
	var kinds []model.ProbeKind
	for _, o := range rep.Outcomes {
		kinds = append(kinds, o.Kind)
	}
	if diff := cmp.Diff(model.Kinds(model.VariantDest), kinds); diff != "" {
		t.Fatalf("outcome kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestCDNOnlyAsymmetry(t *testing.T) {
	dest, err := newRunner(model.VariantDest, destSet(cloudflare()), nil).Run(context.Background(), model.Target{Host: "example.com"})
	if err != nil {
		t.Fatalf("dest: %v", err)
	}
	if !dest.Verdict.Acceptable {
		t.Fatalf("dest should tolerate a CDN-only negative: %+v", dest.Verdict)
	}
	if dest.CDN == nil || !dest.CDN.Detected || dest.CDN.Providers[0].Method != model.CDNMethodHeaders {
		t.Fatalf("unexpected cdn finding %+v", dest.CDN)
	}

	sni, err := newRunner(model.VariantSNI, sniSet(cloudflare()), nil).Run(context.Background(), model.Target{Host: "example.com", Port: 443})
	if err != nil {
		t.Fatalf("sni: %v", err)
	}
	if sni.Verdict.Acceptable {
		t.Fatalf("sni should reject any negative: %+v", sni.Verdict)
	}
}

func TestRedirectRejectsBoth(t *testing.T) {
	const ev = "Redirect found: https://www.example.org/"
	for _, tc := range []struct {
		v  model.Variant
		fs []*fakeProber
	}{
		{model.VariantDest, destSet(bad(model.KindRedirect, ev, nil))},
		{model.VariantSNI, sniSet(bad(model.KindRedirect, ev, nil))},
	} {
		rep, err := newRunner(tc.v, tc.fs, nil).Run(context.Background(), model.Target{Host: "example.com", Port: 443})
		if err != nil {
			t.Fatalf("%s: %v", tc.v, err)
		}
		if rep.Verdict.Acceptable {
			t.Fatalf("%s: redirect should reject", tc.v)
		}
		if diff := cmp.Diff([]string{ev}, rep.Verdict.Negatives); diff != "" {
			t.Fatalf("%s negatives (-want +got):\n%s", tc.v, diff)
		}
	}
}

func TestPanickingProbe(t *testing.T) {
	boom := &fakeProber{kind: model.KindHTTP2, panics: true}
	fs := destSet(boom)
	rep, err := newRunner(model.VariantDest, fs, nil).Run(context.Background(), model.Target{Host: "example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Outcomes) != len(fs) {
		t.Fatalf("expected %d outcomes, got %d", len(fs), len(rep.Outcomes))
	}
	o := rep.Outcomes[1]
	if o.Kind != model.KindHTTP2 || o.Finding != model.FindingError || !o.Negative() {
		t.Fatalf("panic should become an error outcome, got %+v", o)
	}
	if !strings.Contains(o.Evidence, "boom") {
		t.Fatalf("evidence should carry the panic value: %q", o.Evidence)
	}
	if rep.Verdict.Acceptable {
		t.Fatalf("error outcome must count against the target")
	}
}

func TestMissingProberFilled(t *testing.T) {
	fs := destSet()[:4]
	rep, err := newRunner(model.VariantDest, fs, nil).Run(context.Background(), model.Target{Host: "example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Outcomes) != 5 {
		t.Fatalf("every slot should be filled, got %d", len(rep.Outcomes))
	}
	if last := rep.Outcomes[4]; last.Kind != model.KindLatency || last.Finding != model.FindingError {
		t.Fatalf("missing latency should be an error outcome, got %+v", last)
	}
}

func TestDuplicateProberIgnored(t *testing.T) {
	fs := append(sniSet(), bad(model.KindTLS13, "TLS 1.3 not supported (using TLS 1.2)", nil))
	rep, err := newRunner(model.VariantSNI, fs, nil).Run(context.Background(), model.Target{Host: "example.com", Port: 443})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Outcomes) != 5 {
		t.Fatalf("expected exactly one outcome per kind, got %d", len(rep.Outcomes))
	}
}

func TestProbesRunConcurrently(t *testing.T) {
	fs := sniSet()
	for _, f := range fs {
		f.delay = 200 * time.Millisecond
	}
	start := time.Now()
	if _, err := newRunner(model.VariantSNI, fs, nil).Run(context.Background(), model.Target{Host: "example.com", Port: 443}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if took := time.Since(start); took > 800*time.Millisecond {
		t.Fatalf("probes look sequential: took %s", took)
	}
}

func TestUnreachableHost(t *testing.T) {
	fs := destSet()
	r := newRunner(model.VariantDest, fs, nil)
	r.selectPort = func(_ context.Context, host string, ports []uint16, _ time.Duration, _ func(portselect.Attempt)) (uint16, error) {
		return 0, portselect.ErrHostUnreachable
	}
	rep, err := r.Run(context.Background(), model.Target{Host: "example.invalid"})
	if !errors.Is(err, portselect.ErrHostUnreachable) {
		t.Fatalf("expected ErrHostUnreachable, got %v", err)
	}
	if rep != nil {
		t.Fatalf("no report expected on failure")
	}
	if r.State() != StateFailed {
		t.Fatalf("state = %s, want failed", r.State())
	}
	for _, f := range fs {
		if f.calls.Load() != 0 {
			t.Fatalf("%s ran despite unreachable host", f.kind)
		}
	}
}

func TestExplicitPortIsOnlyCandidate(t *testing.T) {
	r := newRunner(model.VariantDest, destSet(), nil)
	var got []uint16
	r.selectPort = func(_ context.Context, _ string, ports []uint16, _ time.Duration, _ func(portselect.Attempt)) (uint16, error) {
		got = ports
		return ports[0], nil
	}
	rep, err := r.Run(context.Background(), model.Target{Host: "example.com", Port: 8443, PortSet: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]uint16{8443}, got); diff != "" {
		t.Fatalf("candidates (-want +got):\n%s", diff)
	}
	if rep.Target.Port != 8443 {
		t.Fatalf("report port = %d", rep.Target.Port)
	}
}

func TestSNISkipsPortSelection(t *testing.T) {
	r := newRunner(model.VariantSNI, sniSet(), nil)
	r.selectPort = func(context.Context, string, []uint16, time.Duration, func(portselect.Attempt)) (uint16, error) {
		t.Fatalf("sni must not select a port")
		return 0, nil
	}
	if _, err := r.Run(context.Background(), model.Target{Host: "example.com", Port: 443}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStateDuringProbing(t *testing.T) {
	fs := sniSet()
	r := newRunner(model.VariantSNI, fs, nil)
	var observed atomic.Int32
	fs[0].during = func() { observed.Store(int32(r.State())) }
	if _, err := r.Run(context.Background(), model.Target{Host: "example.com", Port: 443}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if State(observed.Load()) != StateProbing {
		t.Fatalf("state during probe = %s", State(observed.Load()))
	}
	if _, err := r.Run(context.Background(), model.Target{Host: "example.com", Port: 443}); err == nil {
		t.Fatalf("second run should fail")
	}
}

func TestStatusEvents(t *testing.T) {
	events := make(chan model.Status, 64)
	fs := sniSet()
	if _, err := newRunner(model.VariantSNI, fs, events).Run(context.Background(), model.Target{Host: "example.com", Port: 443}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	close(events)
	phases := map[model.ProbeKind][]model.Phase{}
	for ev := range events {
		phases[ev.Kind] = append(phases[ev.Kind], ev.Phase)
		if ev.Phase == model.PhaseDone && (ev.Outcome == nil || ev.Outcome.Kind != ev.Kind) {
			t.Fatalf("done event without matching outcome: %+v", ev)
		}
	}
	want := []model.Phase{model.PhaseStarted, model.PhaseProgress, model.PhaseDone}
	for _, f := range fs {
		if diff := cmp.Diff(want, phases[f.kind]); diff != "" {
			t.Fatalf("%s phases (-want +got):\n%s", f.kind, diff)
		}
	}
}

func TestStatusNeverBlocks(t *testing.T) {
	events := make(chan model.Status) // nobody reads
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = newRunner(model.VariantSNI, sniSet(), events).Run(context.Background(), model.Target{Host: "example.com", Port: 443})
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("run blocked on an unread status channel")
	}
}
