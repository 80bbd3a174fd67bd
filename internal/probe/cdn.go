package probe

import (
	"context"
	"fmt"

	"github.com/selimozcann/RealityScout/internal/cdn"
	"github.com/selimozcann/RealityScout/internal/model"
)

// CDN wraps the detection cascade. NoCDN is the evidence text used when
// nothing is found.
type CDN struct {
	Matcher *cdn.Matcher
	NoCDN   string
}

// Kind implements Prober.
func (p *CDN) Kind() model.ProbeKind { return model.KindCDN }

var stageLabel = map[model.CDNMethod]string{
	model.CDNMethodHeaders:     "Checking CDN via response headers...",
	model.CDNMethodASN:         "Checking CDN via ASN...",
	model.CDNMethodIPIntel:     "Checking CDN via IP information...",
	model.CDNMethodCertificate: "Checking CDN via SSL certificate...",
}

// Probe implements Prober.
func (p *CDN) Probe(ctx context.Context, target model.Target, progress Progress) model.Outcome {
	if progress == nil {
		progress = noProgress
	}
	m := *p.Matcher
	m.OnStage = func(method model.CDNMethod) { progress(stageLabel[method]) }

	finding, err := m.Detect(ctx, target)
	if err != nil {
		return model.ErrorOutcome(model.KindCDN, "Error during CDN check: "+err.Error())
	}
	if !finding.Detected {
		o := positive(model.KindCDN, model.FindingUnsupported, p.NoCDN)
		o.Detail = finding.Detail()
		return o
	}
	match := finding.Providers[0]
	o := negative(model.KindCDN, model.FindingSupported, fmt.Sprintf("CDN used: %s (via %s)", match.Name, match.Method))
	o.Detail = finding.Detail()
	return o
}
