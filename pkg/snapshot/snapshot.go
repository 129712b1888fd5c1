// Package snapshot holds the library-agnostic representation of one
// collection cycle: a fixed set of metric definitions and the readings that
// were gathered for each of them.
//
package snapshot

import (
	"fmt"
	"sort"
)

// Kind is the type of a metric.
//
type Kind int

const (
	Gauge Kind = iota
	Counter
)

func (k Kind) String() string {
	switch k {
	case Gauge:
		return "gauge"
	case Counter:
		return "counter"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Definition describes a metric. Definitions are declared once and never
// mutated.
//
type Definition struct {
	Name   string
	Help   string
	Labels []string
	Kind   Kind
}

// Reading is a single value gathered for a metric during a cycle.
// LabelValues follow the order of the definition's Labels.
//
type Reading struct {
	LabelValues []string
	Value       float64
}

// Snapshot is the set of readings produced by one cycle, keyed by metric
// name. Every declared metric is present as a key, even when no reading was
// gathered for it.
//
// A Snapshot is not safe for concurrent mutation; once handed over to a
// transport it must be treated as read-only.
//
type Snapshot struct {
	defs     map[string]Definition
	readings map[string][]Reading
}

// New creates an empty snapshot with a key for each of `defs`.
//
func New(defs ...Definition) *Snapshot {
	s := &Snapshot{
		defs:     make(map[string]Definition, len(defs)),
		readings: make(map[string][]Reading, len(defs)),
	}

	for _, def := range defs {
		s.defs[def.Name] = def
		s.readings[def.Name] = []Reading{}
	}

	return s
}

// Add appends a reading for the metric `name`.
//
func (s *Snapshot) Add(name string, value float64, labelValues ...string) error {
	def, found := s.defs[name]
	if !found {
		return fmt.Errorf("unknown metric '%s'", name)
	}

	if len(labelValues) != len(def.Labels) {
		return fmt.Errorf("metric '%s' expects %d label values, got %d",
			name, len(def.Labels), len(labelValues))
	}

	s.readings[name] = append(s.readings[name], Reading{
		LabelValues: append([]string(nil), labelValues...),
		Value:       value,
	})

	return nil
}

// Has tells whether `name` is a key of the snapshot.
//
func (s *Snapshot) Has(name string) bool {
	_, found := s.defs[name]
	return found
}

// Readings returns the readings gathered for `name`, and whether the metric
// is part of the snapshot at all.
//
func (s *Snapshot) Readings(name string) ([]Reading, bool) {
	readings, found := s.readings[name]
	return readings, found
}

// Definition returns the definition of `name`.
//
func (s *Snapshot) Definition(name string) (Definition, bool) {
	def, found := s.defs[name]
	return def, found
}

// Names lists every metric of the snapshot in lexical order.
//
func (s *Snapshot) Names() []string {
	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
