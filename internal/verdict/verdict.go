// Package verdict turns probe outcomes into an accept or reject decision.
package verdict

import (
	"github.com/selimozcann/RealityScout/internal/model"
)

// MinRating is the lowest latency rating the dest variant accepts.
const MinRating = 4

// Evaluate applies the variant's policy to outcomes. Evidence lists keep
// the order of model.Kinds(v); outcomes for kinds outside the variant are
// ignored, and a missing expected kind rejects the target.
//
// dest accepts a CDN as the only negative as long as latency rates at least
// MinRating. sni accepts nothing but a clean sweep.
func Evaluate(v model.Variant, outcomes []model.Outcome) model.Verdict {
	byKind := make(map[model.ProbeKind]model.Outcome, len(outcomes))
	for _, o := range outcomes {
		byKind[o.Kind] = o
	}

	verdict := model.Verdict{Positives: []string{}, Negatives: []string{}}
	var negKinds []model.ProbeKind
	complete := true
	for _, k := range model.Kinds(v) {
		o, ok := byKind[k]
		if !ok {
			complete = false
			continue
		}
		if o.Negative() {
			verdict.Negatives = append(verdict.Negatives, o.Evidence)
			negKinds = append(negKinds, k)
		} else {
			verdict.Positives = append(verdict.Positives, o.Evidence)
		}
	}

	switch v {
	case model.VariantDest:
		rating, ok := byKind[model.KindLatency].Rating()
		cdnOnly := len(negKinds) == 1 && negKinds[0] == model.KindCDN
		verdict.Acceptable = ok && rating >= MinRating && (len(negKinds) == 0 || cdnOnly)
	case model.VariantSNI:
		verdict.Acceptable = len(negKinds) == 0
	}
	verdict.Acceptable = verdict.Acceptable && complete
	return verdict
}
