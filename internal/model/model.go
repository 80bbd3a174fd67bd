package model

import (
	"net"
	"strconv"
	"time"
)

// Variant selects which probe set and verdict policy a run uses.
type Variant string

const (
	// VariantDest checks a host:port as the dest of a Reality proxy.
	VariantDest Variant = "dest"
	// VariantSNI checks a host as the SNI of a Reality proxy.
	VariantSNI Variant = "sni"
)

// Target is the host being probed. It is not modified once probing starts.
type Target struct {
	Host    string `json:"host"`
	Port    uint16 `json:"port"`
	PortSet bool   `json:"port_set"`
}

// Addr returns host:port.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port)))
}

// WithPort returns a copy of t bound to port.
func (t Target) WithPort(port uint16) Target {
	t.Port = port
	t.PortSet = true
	return t
}

// ProbeKind names one property of the target.
type ProbeKind string

const (
	KindTLS13    ProbeKind = "tls13"
	KindHTTP2    ProbeKind = "http2"
	KindHTTP3    ProbeKind = "http3"
	KindCDN      ProbeKind = "cdn"
	KindRedirect ProbeKind = "redirect"
	KindLatency  ProbeKind = "latency"
)

// Kinds returns the probe kinds run for a variant, in report order.
func Kinds(v Variant) []ProbeKind {
	switch v {
	case VariantDest:
		return []ProbeKind{KindTLS13, KindHTTP2, KindCDN, KindRedirect, KindLatency}
	case VariantSNI:
		return []ProbeKind{KindTLS13, KindHTTP2, KindHTTP3, KindRedirect, KindCDN}
	}
	return nil
}

// Finding is what a probe observed.
type Finding string

const (
	FindingSupported     Finding = "supported"
	FindingUnsupported   Finding = "unsupported"
	FindingIndeterminate Finding = "indeterminate"
	FindingError         Finding = "error"
)

// Signal classifies an outcome for the verdict.
type Signal string

const (
	SignalPositive Signal = "positive"
	SignalNegative Signal = "negative"
)

// Outcome is the result of one probe.
type Outcome struct {
	Kind     ProbeKind         `json:"kind"`
	Finding  Finding           `json:"finding"`
	Evidence string            `json:"evidence"`
	Signal   Signal            `json:"signal"`
	Detail   map[string]string `json:"detail,omitempty"`
	Duration time.Duration     `json:"duration_ns"`
}

// Negative reports whether the outcome counts against the target.
func (o Outcome) Negative() bool { return o.Signal == SignalNegative }

// Rating returns the latency rating recorded in the outcome detail.
func (o Outcome) Rating() (int, bool) {
	r, err := strconv.Atoi(o.Detail["rating"])
	return r, err == nil
}

// ErrorOutcome builds the outcome for a probe that failed to run.
func ErrorOutcome(kind ProbeKind, evidence string) Outcome {
	return Outcome{Kind: kind, Finding: FindingError, Evidence: evidence, Signal: SignalNegative}
}

// CDNMethod records which stage of the cascade found a CDN.
type CDNMethod string

const (
	CDNMethodHeaders     CDNMethod = "headers"
	CDNMethodASN         CDNMethod = "ASN"
	CDNMethodIPIntel     CDNMethod = "ipinfo.io"
	CDNMethodCertificate CDNMethod = "SSL certificate"
)

// CDNMatch is one detected provider.
type CDNMatch struct {
	Name   string    `json:"name"`
	Method CDNMethod `json:"method"`
}

// CDNFinding is the result of the CDN cascade. Providers holds at most one
// entry since the cascade stops at the first match.
type CDNFinding struct {
	Detected  bool       `json:"detected"`
	Providers []CDNMatch `json:"providers,omitempty"`
}

// Verdict is the final accept/reject determination for a run.
type Verdict struct {
	Acceptable bool     `json:"acceptable"`
	Positives  []string `json:"positives"`
	Negatives  []string `json:"negatives"`
}

// Phase of a status event.
type Phase string

const (
	PhaseStarted  Phase = "started"
	PhaseProgress Phase = "progress"
	PhaseDone     Phase = "done"
)

// Status is a live progress event emitted while probes run.
type Status struct {
	Kind    ProbeKind
	Phase   Phase
	Message string
	Outcome *Outcome
}

// Report is everything a run produced.
type Report struct {
	Variant    Variant     `json:"variant"`
	Target     Target      `json:"target"`
	Outcomes   []Outcome   `json:"outcomes"`
	Verdict    Verdict     `json:"verdict"`
	StartedAt  time.Time   `json:"started_at"`
	DurationMs int64       `json:"duration_ms"`
	CDN        *CDNFinding `json:"cdn,omitempty"`
}

// Detail returns the CDN finding as outcome detail fields.
func (f CDNFinding) Detail() map[string]string {
	d := map[string]string{"detected": strconv.FormatBool(f.Detected)}
	if len(f.Providers) > 0 {
		d["provider"] = f.Providers[0].Name
		d["method"] = string(f.Providers[0].Method)
	}
	return d
}

// CDNFindingFromDetail reverses CDNFinding.Detail. It returns nil when the
// detail carries no CDN information.
func CDNFindingFromDetail(d map[string]string) *CDNFinding {
	raw, ok := d["detected"]
	if !ok {
		return nil
	}
	detected, _ := strconv.ParseBool(raw)
	f := &CDNFinding{Detected: detected}
	if name := d["provider"]; name != "" {
		f.Providers = []CDNMatch{{Name: name, Method: CDNMethod(d["method"])}}
	}
	return f
}
