// Package runner drives one probing run: port selection, concurrent probes,
// the join barrier and the verdict.
package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/selimozcann/RealityScout/internal/model"
	"github.com/selimozcann/RealityScout/internal/portselect"
	"github.com/selimozcann/RealityScout/internal/probe"
	"github.com/selimozcann/RealityScout/internal/verdict"
)

// State is the orchestrator's lifecycle position.
type State int32

const (
	StateIdle State = iota
	StatePortSelecting
	StateProbing
	StateAggregating
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePortSelecting:
		return "port-selecting"
	case StateProbing:
		return "probing"
	case StateAggregating:
		return "aggregating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Config holds settings for the runner.
type Config struct {
	Variant model.Variant
	// Ports are the candidates tried when the target carries no port.
	Ports       []uint16
	PortTimeout time.Duration
	// Stagger delays each probe launch after the first.
	Stagger time.Duration
	// OnPortAttempt sees every port selection attempt.
	OnPortAttempt func(portselect.Attempt)
	Log           *logrus.Entry
}

// Runner executes a single run. It is not reusable.
type Runner struct {
	cfg     Config
	probers []probe.Prober
	events  chan<- model.Status
	state   atomic.Int32
	used    atomic.Bool

	selectPort func(ctx context.Context, host string, ports []uint16, timeout time.Duration, onAttempt func(portselect.Attempt)) (uint16, error)
}

// New creates a Runner. events may be nil; sends on it never block.
func New(cfg Config, probers []probe.Prober, events chan<- model.Status) *Runner {
	if cfg.Log == nil {
		cfg.Log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Runner{cfg: cfg, probers: probers, events: events, selectPort: portselect.Select}
}

// State returns the current lifecycle state.
func (r *Runner) State() State { return State(r.state.Load()) }

func (r *Runner) setState(s State) {
	r.state.Store(int32(s))
	r.cfg.Log.WithField("state", s).Debug("runner state")
}

func (r *Runner) emit(s model.Status) {
	if r.events == nil {
		return
	}
	select {
	case r.events <- s:
	default:
	}
}

// Run probes target and returns the report. An error is returned only when
// the run fails before probing starts.
func (r *Runner) Run(ctx context.Context, target model.Target) (*model.Report, error) {
	if !r.used.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("runner already used (state %s)", r.State())
	}
	started := time.Now()
	log := r.cfg.Log.WithFields(logrus.Fields{"host": target.Host, "variant": r.cfg.Variant})

	if r.cfg.Variant == model.VariantDest {
		r.setState(StatePortSelecting)
		ports := r.cfg.Ports
		if target.PortSet {
			ports = []uint16{target.Port}
		}
		port, err := r.selectPort(ctx, target.Host, ports, r.cfg.PortTimeout, r.cfg.OnPortAttempt)
		if err != nil {
			r.setState(StateFailed)
			return nil, err
		}
		target = target.WithPort(port)
	}

	r.setState(StateProbing)
	record := r.probe(ctx, target, log)

	r.setState(StateAggregating)
	outcomes := record.Outcomes()
	report := &model.Report{
		Variant:    r.cfg.Variant,
		Target:     target,
		Outcomes:   outcomes,
		Verdict:    verdict.Evaluate(r.cfg.Variant, outcomes),
		StartedAt:  started,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if o, ok := record.Get(model.KindCDN); ok {
		report.CDN = model.CDNFindingFromDetail(o.Detail)
	}
	r.setState(StateDone)
	return report, nil
}

// probe launches one goroutine per prober and blocks until all of them have
// reported. Outcomes come back over a channel; only this goroutine writes
// the record.
func (r *Runner) probe(ctx context.Context, target model.Target, log *logrus.Entry) *model.ResultRecord {
	record := model.NewResultRecord(model.Kinds(r.cfg.Variant))
	results := make(chan model.Outcome, len(r.probers))
	wg := sync.WaitGroup{}

	for i, p := range r.probers {
		if i > 0 && r.cfg.Stagger > 0 {
			time.Sleep(r.cfg.Stagger)
		}
		wg.Add(1)
		go func(p probe.Prober) {
			defer wg.Done()
			results <- r.runOne(ctx, p, target, log)
		}(p)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for o := range results {
		if err := record.Put(o); err != nil {
			log.WithError(err).Debug("discarding outcome")
		}
	}

	for _, k := range record.Missing() {
		log.WithField("probe", k).Debug("no prober registered")
		_ = record.Put(model.ErrorOutcome(k, fmt.Sprintf("Error during %s check: no prober registered", k)))
	}
	return record
}

func (r *Runner) runOne(ctx context.Context, p probe.Prober, target model.Target, log *logrus.Entry) (o model.Outcome) {
	kind := p.Kind()
	plog := log.WithField("probe", kind)
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			plog.WithField("panic", rec).Debug("probe panicked")
			o = model.ErrorOutcome(kind, fmt.Sprintf("Error during %s check: panic: %v", kind, rec))
		}
		o.Kind = kind
		o.Duration = time.Since(start)
		done := o
		r.emit(model.Status{Kind: kind, Phase: model.PhaseDone, Message: o.Evidence, Outcome: &done})
		plog.WithFields(logrus.Fields{"finding": o.Finding, "signal": o.Signal, "took": o.Duration}).Debug("probe finished")
	}()

	r.emit(model.Status{Kind: kind, Phase: model.PhaseStarted})
	return p.Probe(ctx, target, func(msg string) {
		r.emit(model.Status{Kind: kind, Phase: model.PhaseProgress, Message: msg})
	})
}
