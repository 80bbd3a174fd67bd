package verdict

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/selimozcann/RealityScout/internal/model"
)

func pos(kind model.ProbeKind, evidence string) model.Outcome {
	return model.Outcome{Kind: kind, Finding: model.FindingSupported, Signal: model.SignalPositive, Evidence: evidence}
}

func neg(kind model.ProbeKind, evidence string) model.Outcome {
	return model.Outcome{Kind: kind, Finding: model.FindingSupported, Signal: model.SignalNegative, Evidence: evidence}
}

func latency(rating int) model.Outcome {
	o := pos(model.KindLatency, "Average ping: 1.5 ms (Rating: "+strconv.Itoa(rating)+"/5)")
	if rating < MinRating {
		o.Signal = model.SignalNegative
	}
	o.Detail = map[string]string{"rating": strconv.Itoa(rating)}
	return o
}

func clean(v model.Variant) []model.Outcome {
	out := []model.Outcome{
		pos(model.KindTLS13, "TLS 1.3 supported"),
		pos(model.KindHTTP2, "HTTP/2 supported"),
		pos(model.KindRedirect, "No redirect"),
		pos(model.KindCDN, "No CDN used"),
	}
	if v == model.VariantDest {
		return append(out, latency(5))
	}
	return append(out, pos(model.KindHTTP3, "HTTP/3 supported"))
}

func replace(outcomes []model.Outcome, o model.Outcome) []model.Outcome {
	out := append([]model.Outcome(nil), outcomes...)
	for i := range out {
		if out[i].Kind == o.Kind {
			out[i] = o
		}
	}
	return out
}

func TestCleanSweep(t *testing.T) {
	for _, v := range []model.Variant{model.VariantDest, model.VariantSNI} {
		got := Evaluate(v, clean(v))
		if !got.Acceptable || len(got.Negatives) != 0 {
			t.Fatalf("%s: expected acceptable with no negatives, got %+v", v, got)
		}
	}
}

func TestCDNOnlyAsymmetry(t *testing.T) {
	cdn := neg(model.KindCDN, "CDN used: Cloudflare (via headers)")

	dest := Evaluate(model.VariantDest, replace(clean(model.VariantDest), cdn))
	if !dest.Acceptable {
		t.Fatalf("dest should accept a CDN-only negative: %+v", dest)
	}
	sni := Evaluate(model.VariantSNI, replace(clean(model.VariantSNI), cdn))
	if sni.Acceptable {
		t.Fatalf("sni should reject any negative: %+v", sni)
	}
	if diff := cmp.Diff([]string{"CDN used: Cloudflare (via headers)"}, sni.Negatives); diff != "" {
		t.Fatalf("negatives mismatch (-want +got):\n%s", diff)
	}
}

func TestDestPolicy(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []model.Outcome
		want     bool
	}{
		{name: "rating 4 accepted", outcomes: replace(clean(model.VariantDest), latency(4)), want: true},
		{name: "rating 3 rejected", outcomes: replace(clean(model.VariantDest), latency(3))},
		{name: "latency error rejected", outcomes: replace(clean(model.VariantDest), model.ErrorOutcome(model.KindLatency, "Could not determine average ping"))},
		{name: "redirect rejected", outcomes: replace(clean(model.VariantDest), neg(model.KindRedirect, "Redirect found: https://other.example/"))},
		{
			name: "cdn plus tls rejected",
			outcomes: replace(replace(clean(model.VariantDest),
				neg(model.KindCDN, "CDN used: Akamai (via ASN)")),
				neg(model.KindTLS13, "TLS 1.3 not supported (using TLS 1.2)")),
		},
		{name: "missing probe rejected", outcomes: clean(model.VariantDest)[:4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(model.VariantDest, tt.outcomes); got.Acceptable != tt.want {
				t.Fatalf("acceptable = %v, want %v (%+v)", got.Acceptable, tt.want, got)
			}
		})
	}
}

func TestSNICountsHTTP3(t *testing.T) {
	out := replace(clean(model.VariantSNI), neg(model.KindHTTP3, "HTTP/3 not supported or unable to determine"))
	if got := Evaluate(model.VariantSNI, out); got.Acceptable {
		t.Fatalf("missing HTTP/3 should reject sni: %+v", got)
	}
}

func TestEvidenceOrder(t *testing.T) {
	outcomes := []model.Outcome{
		latency(5),
		neg(model.KindRedirect, "Redirect found: https://other.example/"),
		pos(model.KindCDN, "CDN not used"),
		pos(model.KindHTTP2, "HTTP/2 supported"),
		pos(model.KindTLS13, "TLS 1.3 supported"),
		pos(model.KindHTTP3, "HTTP/3 supported"),
	}
	got := Evaluate(model.VariantDest, outcomes)
	want := model.Verdict{
		Acceptable: false,
		Positives:  []string{"TLS 1.3 supported", "HTTP/2 supported", "CDN not used", "Average ping: 1.5 ms (Rating: 5/5)"},
		Negatives:  []string{"Redirect found: https://other.example/"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("verdict mismatch (-want +got):\n%s", diff)
	}
}
