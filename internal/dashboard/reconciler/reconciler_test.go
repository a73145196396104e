package reconciler

import (
	"fmt"
	"testing"
	"time"

	"golang-news-dashboard/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func article(id string) entity.Article {
	return entity.Article{
		ID:              id,
		Title:           "title " + id,
		Recommendation:  entity.RecommendationHold,
		ConfidenceScore: 50,
		CreatedAt:       t0,
	}
}

func ids(articles []entity.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.ID
	}
	return out
}

func TestApplyAdded_Dedup(t *testing.T) {
	r := New(DefaultPolicy())
	for _, id := range []string{"a", "b", "a", "c", "b", "a"} {
		r.ApplyAdded(article(id), t0)
	}
	assert.Equal(t, []string{"c", "b", "a"}, ids(r.Articles()))
}

func TestApplyAdded_DuplicateDoesNotMoveOrRefreshMarker(t *testing.T) {
	s := State{}
	s, _ = ApplyAdded(s, article("a"), DefaultPolicy(), t0)
	s, _ = ApplyAdded(s, article("b"), DefaultPolicy(), t0)

	later := t0.Add(2 * time.Second)
	next, out := ApplyAdded(s, article("a"), DefaultPolicy(), later)

	assert.False(t, out.Changed)
	assert.Equal(t, []string{"b", "a"}, ids(next.Articles))
	assert.Equal(t, t0.Add(DefaultMarkerTTL), next.Recent["a"])
}

func TestApplyAdded_BoundEvictsOldestInserted(t *testing.T) {
	p := Policy{Bound: 3}
	s := State{}
	// published timestamps run backwards so that eviction by publish time
	// would pick a different victim.
	for i, id := range []string{"a", "b", "c", "d"} {
		a := article(id)
		pub := t0.Add(-time.Duration(i) * time.Hour)
		a.PublishedAt = &pub
		var out Outcome
		s, out = ApplyAdded(s, a, p, t0)
		if id == "d" {
			assert.Equal(t, []string{"a"}, out.Evicted)
		}
	}
	assert.Equal(t, []string{"d", "c", "b"}, ids(s.Articles))
	assert.NotContains(t, s.Recent, "a")
}

func TestApplyAdded_BoundDefault(t *testing.T) {
	r := New(Policy{})
	for i := 0; i < 120; i++ {
		r.ApplyAdded(article(fmt.Sprintf("id-%d", i)), t0)
		require.LessOrEqual(t, len(r.Articles()), DefaultBound)
	}
	got := r.Articles()
	assert.Equal(t, "id-119", got[0].ID)
	assert.Equal(t, "id-70", got[len(got)-1].ID)
}

func TestApplyAdded_MissingIDDropped(t *testing.T) {
	s := State{Articles: []entity.Article{article("a")}}
	next, out := ApplyAdded(s, entity.Article{Title: "no id"}, DefaultPolicy(), t0)
	assert.False(t, out.Changed)
	assert.Len(t, out.Dropped, 1)
	assert.Equal(t, []string{"a"}, ids(next.Articles))
}

func TestApplyAdded_DoesNotMutateInput(t *testing.T) {
	s, _ := ApplyAdded(State{}, article("a"), DefaultPolicy(), t0)
	before := ids(s.Articles)
	_, _ = ApplyAdded(s, article("b"), DefaultPolicy(), t0)
	assert.Equal(t, before, ids(s.Articles))
	assert.NotContains(t, s.Recent, "b")
}

func TestApplyUpdated_InPlace(t *testing.T) {
	r := New(DefaultPolicy())
	for _, id := range []string{"a", "b", "c"} {
		r.ApplyAdded(article(id), t0)
	}

	updated := article("b")
	updated.Title = "revised"
	updated.Recommendation = entity.RecommendationSell
	out := r.ApplyUpdated(updated)

	require.True(t, out.Changed)
	got := r.Articles()
	assert.Equal(t, []string{"c", "b", "a"}, ids(got))
	assert.Equal(t, "revised", got[1].Title)
	assert.Equal(t, entity.RecommendationSell, got[1].Recommendation)
	assert.Equal(t, "title c", got[0].Title)
	assert.Equal(t, "title a", got[2].Title)
}

func TestApplyUpdated_UnknownIDIgnored(t *testing.T) {
	r := New(DefaultPolicy())
	r.ApplyAdded(article("a"), t0)
	out := r.ApplyUpdated(article("zzz"))
	assert.False(t, out.Changed)
	assert.Equal(t, []string{"a"}, ids(r.Articles()))
}

func TestRecentMarkers_TTL(t *testing.T) {
	r := New(DefaultPolicy())
	r.ApplyAdded(article("a"), t0)

	for i := 0; i < 3; i++ {
		assert.Equal(t, []string{"a"}, r.RecentIDs(t0.Add(500*time.Millisecond)))
		assert.True(t, IsRecent(r.State(), "a", t0.Add(500*time.Millisecond)))
	}
	for i := 0; i < 3; i++ {
		assert.Empty(t, r.RecentIDs(t0.Add(3100*time.Millisecond)))
		assert.False(t, IsRecent(r.State(), "a", t0.Add(3100*time.Millisecond)))
	}
}

func TestSweep_RemovesExpiredOnly(t *testing.T) {
	r := New(DefaultPolicy())
	r.ApplyAdded(article("a"), t0)
	r.ApplyAdded(article("b"), t0.Add(2*time.Second))

	out := r.Sweep(t0.Add(3100 * time.Millisecond))
	assert.True(t, out.Changed)
	assert.NotContains(t, r.State().Recent, "a")
	assert.Contains(t, r.State().Recent, "b")

	out = r.Sweep(t0.Add(3100 * time.Millisecond))
	assert.False(t, out.Changed)
}

func TestApplySnapshot_ReplacesAndTruncates(t *testing.T) {
	r := New(Policy{Bound: 2})
	r.ApplyAdded(article("old"), t0)

	out := r.ApplySnapshot([]entity.Article{article("x"), article("y"), article("x"), article("z")})
	assert.Equal(t, []string{"x", "y"}, ids(r.Articles()))
	assert.Equal(t, []string{"old"}, out.Evicted)
	assert.Empty(t, r.State().Recent)
}

func TestApplySnapshot_DropsEntriesWithoutID(t *testing.T) {
	r := New(DefaultPolicy())
	out := r.ApplySnapshot([]entity.Article{article("x"), {Title: "broken"}})
	assert.Equal(t, []string{"x"}, ids(r.Articles()))
	assert.Len(t, out.Dropped, 1)
}

func TestApplyFullSync_KeepsLiveMarkers(t *testing.T) {
	r := New(DefaultPolicy())
	r.ApplyAdded(article("a"), t0)
	r.ApplyAdded(article("b"), t0.Add(-5*time.Second))
	r.ApplyAdded(article("c"), t0)

	now := t0.Add(time.Second)
	r.ApplyFullSync([]entity.Article{article("a"), article("b"), article("d")}, now)

	assert.Equal(t, []string{"a", "b", "d"}, ids(r.Articles()))
	assert.Equal(t, []string{"a"}, r.RecentIDs(now))
}

func TestApplyFullSync_MergesForward(t *testing.T) {
	r := New(DefaultPolicy())
	newer := article("a")
	newer.Title = "pushed"
	newerAt := t0.Add(time.Minute)
	newer.UpdatedAt = &newerAt
	r.ApplyAdded(newer, t0)

	stale := article("a")
	stale.Title = "polled"
	staleAt := t0
	stale.UpdatedAt = &staleAt

	r.ApplyFullSync([]entity.Article{stale}, t0)
	assert.Equal(t, "pushed", r.Articles()[0].Title)

	fresher := article("a")
	fresher.Title = "polled later"
	fresherAt := t0.Add(2 * time.Minute)
	fresher.UpdatedAt = &fresherAt
	r.ApplyFullSync([]entity.Article{fresher}, t0)
	assert.Equal(t, "polled later", r.Articles()[0].Title)
}

func TestPollPushConvergence(t *testing.T) {
	poll := []entity.Article{article("c"), article("b"), article("a")}
	pushes := []entity.Article{article("a"), article("b"), article("c")}

	type step struct {
		poll bool
		push int
	}
	orders := [][]step{
		{{push: 0}, {push: 1}, {push: 2}, {poll: true}},
		{{poll: true}, {push: 0}, {push: 1}, {push: 2}},
		{{push: 0}, {poll: true}, {push: 1}, {push: 2}},
		{{push: 2}, {push: 0}, {poll: true}, {push: 1}},
	}

	for i, order := range orders {
		t.Run(fmt.Sprintf("order-%d", i), func(t *testing.T) {
			r := New(DefaultPolicy())
			for _, st := range order {
				if st.poll {
					r.ApplyFullSync(poll, t0)
				} else {
					r.ApplyAdded(pushes[st.push], t0)
				}
			}
			got := ids(r.Articles())
			assert.Len(t, got, 3)
			assert.ElementsMatch(t, []string{"a", "b", "c"}, got)
		})
	}
}
