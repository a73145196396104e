// Package reconciler folds article stream events into a de-duplicated,
// bounded, most-recent-first article list.
//
// The Apply* functions are pure: they never mutate the State they are given
// and always return a usable State, even for malformed input.
package reconciler

import (
	"sort"
	"time"

	"golang-news-dashboard/internal/entity"
)

const (
	DefaultBound     = 50
	DefaultMarkerTTL = 3 * time.Second
)

// Policy bounds the reconciled list and the recently-added markers.
type Policy struct {
	Bound     int
	MarkerTTL time.Duration
}

// DefaultPolicy returns the dashboard defaults.
func DefaultPolicy() Policy {
	return Policy{Bound: DefaultBound, MarkerTTL: DefaultMarkerTTL}
}

func (p Policy) normalised() Policy {
	if p.Bound <= 0 {
		p.Bound = DefaultBound
	}
	if p.MarkerTTL <= 0 {
		p.MarkerTTL = DefaultMarkerTTL
	}
	return p
}

// State is the reconciled article list plus the recently-added markers
// (article id -> expiry).
type State struct {
	Articles []entity.Article
	Recent   map[string]time.Time
}

// Outcome describes what a reducer did with its input.
type Outcome struct {
	Changed bool
	Added   []entity.Article
	Evicted []string
	Dropped []string
}

func (s State) index(id string) int {
	for i, a := range s.Articles {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (s State) cloneRecent() map[string]time.Time {
	out := make(map[string]time.Time, len(s.Recent))
	for k, v := range s.Recent {
		out[k] = v
	}
	return out
}

// ApplySnapshot replaces the list wholesale with list, truncated to the bound
// and in the order given. Markers are reset.
func ApplySnapshot(s State, list []entity.Article, p Policy) (State, Outcome) {
	p = p.normalised()
	articles, dropped := dedupe(list, p.Bound)
	next := State{Articles: articles, Recent: map[string]time.Time{}}
	return next, Outcome{Changed: true, Dropped: dropped, Evicted: missing(s.Articles, articles)}
}

// ApplyFullSync is ApplySnapshot for a mid-session resync. Markers that have
// not expired are kept for ids still present, and an entry whose UpdatedAt is
// strictly newer than the incoming copy keeps its fields.
func ApplyFullSync(s State, list []entity.Article, p Policy, now time.Time) (State, Outcome) {
	p = p.normalised()
	articles, dropped := dedupe(list, p.Bound)

	for i, incoming := range articles {
		if j := s.index(incoming.ID); j >= 0 && s.Articles[j].NewerThan(incoming) {
			articles[i] = s.Articles[j]
		}
	}

	recent := make(map[string]time.Time)
	for _, a := range articles {
		if exp, ok := s.Recent[a.ID]; ok && now.Before(exp) {
			recent[a.ID] = exp
		}
	}

	next := State{Articles: articles, Recent: recent}
	return next, Outcome{Changed: true, Dropped: dropped, Evicted: missing(s.Articles, articles)}
}

// ApplyAdded inserts article at the head of the list. A duplicate id leaves
// both the list and the markers untouched.
func ApplyAdded(s State, article entity.Article, p Policy, now time.Time) (State, Outcome) {
	p = p.normalised()
	if article.ID == "" {
		return s, Outcome{Dropped: []string{"item-added without id"}}
	}
	if s.index(article.ID) >= 0 {
		return s, Outcome{}
	}

	articles := make([]entity.Article, 0, min(len(s.Articles)+1, p.Bound))
	articles = append(articles, article)
	var evicted []string
	for _, a := range s.Articles {
		if len(articles) < p.Bound {
			articles = append(articles, a)
		} else {
			evicted = append(evicted, a.ID)
		}
	}

	recent := s.cloneRecent()
	for _, id := range evicted {
		delete(recent, id)
	}
	recent[article.ID] = now.Add(p.MarkerTTL)

	next := State{Articles: articles, Recent: recent}
	return next, Outcome{Changed: true, Added: []entity.Article{article}, Evicted: evicted}
}

// ApplyUpdated replaces the stored fields of an existing article in place.
// Updates for ids not in the list are ignored.
func ApplyUpdated(s State, article entity.Article) (State, Outcome) {
	if article.ID == "" {
		return s, Outcome{Dropped: []string{"item-updated without id"}}
	}
	i := s.index(article.ID)
	if i < 0 {
		return s, Outcome{}
	}

	articles := make([]entity.Article, len(s.Articles))
	copy(articles, s.Articles)
	articles[i] = article

	return State{Articles: articles, Recent: s.Recent}, Outcome{Changed: true}
}

// IsRecent reports whether id is within its recently-added window at now.
func IsRecent(s State, id string, now time.Time) bool {
	exp, ok := s.Recent[id]
	return ok && now.Before(exp)
}

// RecentIDs returns the ids whose markers have not expired at now, sorted.
func RecentIDs(s State, now time.Time) []string {
	ids := make([]string, 0, len(s.Recent))
	for id, exp := range s.Recent {
		if now.Before(exp) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Sweep removes expired markers.
func Sweep(s State, now time.Time) (State, Outcome) {
	expired := 0
	for _, exp := range s.Recent {
		if !now.Before(exp) {
			expired++
		}
	}
	if expired == 0 {
		return s, Outcome{}
	}
	recent := make(map[string]time.Time, len(s.Recent)-expired)
	for id, exp := range s.Recent {
		if now.Before(exp) {
			recent[id] = exp
		}
	}
	return State{Articles: s.Articles, Recent: recent}, Outcome{Changed: true}
}

// dedupe keeps the first occurrence of each id, drops entries without id and
// truncates to bound.
func dedupe(list []entity.Article, bound int) ([]entity.Article, []string) {
	seen := make(map[string]struct{}, len(list))
	out := make([]entity.Article, 0, min(len(list), bound))
	var dropped []string
	for _, a := range list {
		if a.ID == "" {
			dropped = append(dropped, "snapshot entry without id")
			continue
		}
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		if len(out) < bound {
			out = append(out, a)
		}
	}
	return out, dropped
}

func missing(before, after []entity.Article) []string {
	keep := make(map[string]struct{}, len(after))
	for _, a := range after {
		keep[a.ID] = struct{}{}
	}
	var gone []string
	for _, a := range before {
		if _, ok := keep[a.ID]; !ok {
			gone = append(gone, a.ID)
		}
	}
	return gone
}

// Reconciler owns one State. It is not safe for concurrent use; the owner
// serialises calls.
type Reconciler struct {
	policy Policy
	state  State
}

// New creates an empty Reconciler.
func New(p Policy) *Reconciler {
	return &Reconciler{policy: p.normalised(), state: State{Recent: map[string]time.Time{}}}
}

func (r *Reconciler) Policy() Policy { return r.policy }

func (r *Reconciler) State() State { return r.state }

func (r *Reconciler) ApplySnapshot(list []entity.Article) Outcome {
	var o Outcome
	r.state, o = ApplySnapshot(r.state, list, r.policy)
	return o
}

func (r *Reconciler) ApplyFullSync(list []entity.Article, now time.Time) Outcome {
	var o Outcome
	r.state, o = ApplyFullSync(r.state, list, r.policy, now)
	return o
}

func (r *Reconciler) ApplyAdded(a entity.Article, now time.Time) Outcome {
	var o Outcome
	r.state, o = ApplyAdded(r.state, a, r.policy, now)
	return o
}

func (r *Reconciler) ApplyUpdated(a entity.Article) Outcome {
	var o Outcome
	r.state, o = ApplyUpdated(r.state, a)
	return o
}

func (r *Reconciler) Sweep(now time.Time) Outcome {
	var o Outcome
	r.state, o = Sweep(r.state, now)
	return o
}

// Articles returns a copy of the reconciled list.
func (r *Reconciler) Articles() []entity.Article {
	out := make([]entity.Article, len(r.state.Articles))
	copy(out, r.state.Articles)
	return out
}

func (r *Reconciler) RecentIDs(now time.Time) []string {
	return RecentIDs(r.state, now)
}
