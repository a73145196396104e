package dto

import (
	"encoding/json"
	"testing"
	"time"

	"golang-news-dashboard/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticlePayload_ID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantID  string
		wantErr error
	}{
		{name: "string id", raw: `{"id":"a1"}`, wantID: "a1"},
		{name: "string id trimmed", raw: `{"id":"  a1 "}`, wantID: "a1"},
		{name: "integer id", raw: `{"id":42}`, wantID: "42"},
		{name: "large integer id keeps digits", raw: `{"id":9007199254740993}`, wantID: "9007199254740993"},
		{name: "null id", raw: `{"id":null}`, wantErr: ErrMissingID},
		{name: "missing id", raw: `{"title":"x"}`, wantErr: ErrMissingID},
		{name: "empty string id", raw: `{"id":"   "}`, wantErr: ErrMissingID},
		{name: "object id", raw: `{"id":{"v":1}}`, wantErr: ErrMissingID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ArticlePayload
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &p))

			a, err := p.ToEntity()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, a.ID)
		})
	}
}

func TestArticlePayload_ConfidenceScore(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{name: "in range", raw: `87`, want: 87},
		{name: "rounds half up", raw: `86.5`, want: 87},
		{name: "rounds down", raw: `86.4`, want: 86},
		{name: "huge value saturates", raw: `1e20`, want: 100},
		{name: "above range", raw: `150`, want: 100},
		{name: "negative", raw: `-5`, want: 0},
		{name: "huge negative", raw: `-1e20`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p ArticlePayload
			require.NoError(t, json.Unmarshal([]byte(`{"id":"a","confidence_score":`+tt.raw+`}`), &p))

			a, err := p.ToEntity()
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.ConfidenceScore)
		})
	}
}

func TestArticlePayload_Recommendation(t *testing.T) {
	tests := []struct {
		raw  string
		want entity.Recommendation
	}{
		{raw: "BUY", want: entity.RecommendationBuy},
		{raw: "buy", want: entity.RecommendationBuy},
		{raw: " Sell ", want: entity.RecommendationSell},
		{raw: "HOLD", want: entity.RecommendationHold},
		{raw: "", want: entity.RecommendationHold},
		{raw: "STRONG_BUY", want: entity.RecommendationHold},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			a, err := ArticlePayload{ID: json.RawMessage(`"a"`), Recommendation: tt.raw}.ToEntity()
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.Recommendation)
		})
	}
}

func TestArticlePayload_Timestamps(t *testing.T) {
	var p ArticlePayload
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a","created_at":"2026-10-17T09:00:00Z","published_at":"2026-10-17T08:30:00Z"}`), &p))

	a, err := p.ToEntity()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC), a.CreatedAt.UTC())
	assert.Equal(t, time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC), a.DisplayTime().UTC())
	assert.Nil(t, a.UpdatedAt)
}

func TestSnapshotPayload_Forms(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantIDs []string
		wantErr bool
	}{
		{name: "bare array", raw: `[{"id":"a1"},{"id":2}]`, wantIDs: []string{"a1", "2"}},
		{name: "object form", raw: `{"articles":[{"id":"a1"},{"id":"a2"}]}`, wantIDs: []string{"a1", "a2"}},
		{name: "object form with leading whitespace", raw: "  \n{\"articles\":[{\"id\":\"a1\"}]}", wantIDs: []string{"a1"}},
		{name: "array with leading whitespace", raw: "\n [{\"id\":\"a1\"}]", wantIDs: []string{"a1"}},
		{name: "empty object", raw: `{}`, wantIDs: []string{}},
		{name: "not a list", raw: `"nope"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p SnapshotPayload
			err := json.Unmarshal([]byte(tt.raw), &p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			articles, dropped := ArticleList(p.Articles)
			assert.Zero(t, dropped)
			ids := make([]string, 0, len(articles))
			for _, a := range articles {
				ids = append(ids, a.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestArticleList_DropsInvalidEntries(t *testing.T) {
	articles, dropped := ArticleList([]ArticlePayload{
		{ID: json.RawMessage(`"a1"`)},
		{},
		{ID: json.RawMessage(`null`)},
		{ID: json.RawMessage(`7`)},
	})
	assert.Equal(t, 2, dropped)
	require.Len(t, articles, 2)
	assert.Equal(t, "a1", articles[0].ID)
	assert.Equal(t, "7", articles[1].ID)
}

func TestChatPayloads_Validate(t *testing.T) {
	assert.ErrorIs(t, ChunkPayload{Chunk: "x"}.Validate(), ErrMissingSessionID)
	assert.NoError(t, ChunkPayload{SessionID: "s", Chunk: ""}.Validate())
	assert.ErrorIs(t, CompletePayload{}.Validate(), ErrMissingSessionID)
	assert.NoError(t, CompletePayload{SessionID: "s"}.Validate())
}
