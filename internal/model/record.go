package model

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotTaken is returned when a probe kind is written twice.
	ErrSlotTaken = errors.New("result slot already written")
	// ErrUnexpectedKind is returned for a kind the record was not built for.
	ErrUnexpectedKind = errors.New("unexpected probe kind")
)

// ResultRecord holds one write-once slot per expected probe kind. It is
// owned by a single goroutine; probes hand their outcomes to the owner
// instead of writing here directly.
type ResultRecord struct {
	order []ProbeKind
	slots map[ProbeKind]*Outcome
}

// NewResultRecord creates an empty record for the given kinds.
func NewResultRecord(kinds []ProbeKind) *ResultRecord {
	r := &ResultRecord{
		order: append([]ProbeKind(nil), kinds...),
		slots: make(map[ProbeKind]*Outcome, len(kinds)),
	}
	for _, k := range kinds {
		r.slots[k] = nil
	}
	return r
}

// Put stores the outcome in its slot.
func (r *ResultRecord) Put(o Outcome) error {
	slot, ok := r.slots[o.Kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnexpectedKind, o.Kind)
	}
	if slot != nil {
		return fmt.Errorf("%w: %s", ErrSlotTaken, o.Kind)
	}
	stored := o
	r.slots[o.Kind] = &stored
	return nil
}

// Get returns the outcome for kind, if written.
func (r *ResultRecord) Get(kind ProbeKind) (Outcome, bool) {
	slot := r.slots[kind]
	if slot == nil {
		return Outcome{}, false
	}
	return *slot, true
}

// Missing lists kinds that have not been written yet.
func (r *ResultRecord) Missing() []ProbeKind {
	var out []ProbeKind
	for _, k := range r.order {
		if r.slots[k] == nil {
			out = append(out, k)
		}
	}
	return out
}

// Complete reports whether every expected slot is written.
func (r *ResultRecord) Complete() bool { return len(r.Missing()) == 0 }

// Kinds returns the expected kinds in order.
func (r *ResultRecord) Kinds() []ProbeKind { return append([]ProbeKind(nil), r.order...) }

// Outcomes returns the written outcomes in kind order.
func (r *ResultRecord) Outcomes() []Outcome {
	out := make([]Outcome, 0, len(r.order))
	for _, k := range r.order {
		if s := r.slots[k]; s != nil {
			out = append(out, *s)
		}
	}
	return out
}
