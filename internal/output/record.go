package output

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	"github.com/selimozcann/RealityScout/internal/model"
)

// ProbeRecord is one probe outcome in the JSON report.
type ProbeRecord struct {
	Kind       model.ProbeKind   `json:"kind"`
	Finding    model.Finding     `json:"finding"`
	Signal     model.Signal      `json:"signal"`
	Evidence   string            `json:"evidence"`
	Detail     map[string]string `json:"detail,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

// Record represents one run in the JSON report.
type Record struct {
	Timestamp  string            `json:"timestamp"`
	Variant    model.Variant     `json:"variant"`
	Host       string            `json:"host"`
	Port       uint16            `json:"port"`
	Acceptable bool              `json:"acceptable"`
	Positives  []string          `json:"positives"`
	Negatives  []string          `json:"negatives"`
	Probes     []ProbeRecord     `json:"probes"`
	CDN        *model.CDNFinding `json:"cdn,omitempty"`
	DurationMs int64             `json:"duration_ms"`
}

// BuildRecord converts a report into a Record.
func BuildRecord(rep *model.Report) Record {
	probes := make([]ProbeRecord, 0, len(rep.Outcomes))
	for _, o := range rep.Outcomes {
		probes = append(probes, ProbeRecord{
			Kind:       o.Kind,
			Finding:    o.Finding,
			Signal:     o.Signal,
			Evidence:   o.Evidence,
			Detail:     o.Detail,
			DurationMs: o.Duration.Milliseconds(),
		})
	}
	return Record{
		Timestamp:  rep.StartedAt.UTC().Format(time.RFC3339),
		Variant:    rep.Variant,
		Host:       rep.Target.Host,
		Port:       rep.Target.Port,
		Acceptable: rep.Verdict.Acceptable,
		Positives:  append([]string{}, rep.Verdict.Positives...),
		Negatives:  append([]string{}, rep.Verdict.Negatives...),
		Probes:     probes,
		CDN:        rep.CDN,
		DurationMs: rep.DurationMs,
	}
}

// WriteJSONL writes each record as a JSON line to w.
func WriteJSONL(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return bw.Flush()
}
