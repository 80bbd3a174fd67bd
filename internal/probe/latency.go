package probe

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/selimozcann/RealityScout/internal/model"
	"github.com/selimozcann/RealityScout/internal/ping"
)

// Latency rates the round-trip time to the bare host.
type Latency struct {
	Pinger  ping.Pinger
	Count   int
	Timeout time.Duration
}

// Kind implements Prober.
func (p *Latency) Kind() model.ProbeKind { return model.KindLatency }

// Probe implements Prober.
func (p *Latency) Probe(ctx context.Context, target model.Target, progress Progress) model.Outcome {
	if progress == nil {
		progress = noProgress
	}
	progress(fmt.Sprintf("Checking ping (%d requests)...", p.Count))

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	res, err := p.Pinger.Ping(ctx, target.Host, p.Count)
	if err != nil || res.Received == 0 {
		o := model.ErrorOutcome(model.KindLatency, "Could not determine average ping")
		if err != nil {
			o.Detail = map[string]string{"error": err.Error()}
		}
		return o
	}

	rating := ping.Rating(res.AvgMs)
	avg := strconv.FormatFloat(res.AvgMs, 'f', -1, 64)
	detail := map[string]string{
		"avg_ms":   avg,
		"rating":   strconv.Itoa(rating),
		"sent":     strconv.Itoa(res.Sent),
		"received": strconv.Itoa(res.Received),
	}
	if rating >= ping.GoodRating {
		o := positive(model.KindLatency, model.FindingSupported, fmt.Sprintf("Average ping: %s ms (Rating: %d/5)", avg, rating))
		o.Detail = detail
		return o
	}
	o := negative(model.KindLatency, model.FindingSupported, fmt.Sprintf("High ping: %s ms (Rating: %d/5)", avg, rating))
	o.Detail = detail
	return o
}
