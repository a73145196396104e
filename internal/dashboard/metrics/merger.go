// Package metrics merges independently arriving metric category documents
// into one composite snapshot.
package metrics

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"golang-news-dashboard/internal/entity"
	"golang-news-dashboard/pkg/common"
)

var (
	ErrUnknownCategory = errors.New("unknown metric category")
	ErrEmptyDocument   = errors.New("empty metric document")
)

// Outcome describes what ApplyCategory did.
type Outcome struct {
	Changed bool
	// Stale is set when the document was older than the one already held.
	Stale bool
	Err   error
}

// Merger holds the set of accepted categories and the current snapshot.
// It is not safe for concurrent use; the owner serialises calls.
type Merger struct {
	known    map[string]struct{}
	snapshot entity.MetricsSnapshot
}

// NewMerger creates a Merger accepting the given categories, or the default
// dashboard categories when none are given.
func NewMerger(categories ...string) *Merger {
	if len(categories) == 0 {
		categories = common.MetricCategories
	}
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c] = struct{}{}
	}
	return &Merger{
		known:    known,
		snapshot: entity.MetricsSnapshot{Categories: map[string]entity.CategoryDocument{}},
	}
}

// Known reports whether name is an accepted category.
func (m *Merger) Known(name string) bool {
	_, ok := m.known[name]
	return ok
}

// Snapshot returns a copy of the composite snapshot.
func (m *Merger) Snapshot() entity.MetricsSnapshot {
	return m.snapshot.Clone()
}

// ApplyCategory stores document under name.
func (m *Merger) ApplyCategory(name string, document json.RawMessage, observedAt, now time.Time) Outcome {
	var o Outcome
	m.snapshot, o = ApplyCategory(m.snapshot, m.known, name, document, observedAt, now)
	return o
}

// ApplyComposite stores every category of a composite document and returns
// the categories that were rejected, keyed by name.
func (m *Merger) ApplyComposite(docs map[string]json.RawMessage, observedAt, now time.Time) (changed bool, rejected map[string]error) {
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		o := m.ApplyCategory(name, docs[name], observedAt, now)
		if o.Err != nil {
			if rejected == nil {
				rejected = map[string]error{}
			}
			rejected[name] = o.Err
		}
		changed = changed || o.Changed
	}
	return changed, rejected
}

// ApplyCategory sets snapshot[name] to document without touching any other
// category. Documents observed before the one already held are ignored so
// that a late poll never rolls a category back.
func ApplyCategory(s entity.MetricsSnapshot, known map[string]struct{}, name string, document json.RawMessage, observedAt, now time.Time) (entity.MetricsSnapshot, Outcome) {
	if _, ok := known[name]; !ok {
		return s, Outcome{Err: ErrUnknownCategory}
	}
	if len(document) == 0 || string(document) == "null" {
		return s, Outcome{Err: ErrEmptyDocument}
	}
	if observedAt.IsZero() {
		observedAt = now
	}
	if cur, ok := s.Categories[name]; ok && observedAt.Before(cur.ObservedAt) {
		return s, Outcome{Stale: true}
	}

	next := s.Clone()
	doc := make(json.RawMessage, len(document))
	copy(doc, document)
	next.Categories[name] = entity.CategoryDocument{Data: doc, ObservedAt: observedAt}
	next.LastUpdatedAt = now
	return next, Outcome{Changed: true}
}
