package dto

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"golang-news-dashboard/internal/entity"
	"golang-news-dashboard/pkg/utils"
)

var (
	// ErrMissingID is returned when an article payload has no id.
	ErrMissingID = errors.New("missing article id")
	// ErrMissingSessionID is returned when a chat payload has no session id.
	ErrMissingSessionID = errors.New("missing session id")
)

// Envelope is the frame published on the push channel.
type Envelope struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp *time.Time      `json:"ts,omitempty"`
}

// ArticlePayload is the wire form of an article. The id is accepted either
// as a string or as a number.
type ArticlePayload struct {
	ID              json.RawMessage `json:"id"`
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	InstrumentType  string          `json:"instrument_type"`
	InstrumentName  string          `json:"instrument_name"`
	SourceURL       string          `json:"source_url"`
	Recommendation  string          `json:"recommendation"`
	ConfidenceScore float64         `json:"confidence_score"`
	PublishedAt     *time.Time      `json:"published_at,omitempty"`
	CreatedAt       *time.Time      `json:"created_at,omitempty"`
	UpdatedAt       *time.Time      `json:"updated_at,omitempty"`
}

// ToEntity validates the payload and converts it into an entity.Article.
func (p ArticlePayload) ToEntity() (entity.Article, error) {
	id := normaliseID(p.ID)
	if id == "" {
		return entity.Article{}, ErrMissingID
	}

	a := entity.Article{
		ID:              id,
		Title:           p.Title,
		Summary:         p.Summary,
		InstrumentType:  p.InstrumentType,
		InstrumentName:  p.InstrumentName,
		SourceURL:       p.SourceURL,
		Recommendation:  entity.ParseRecommendation(p.Recommendation),
		ConfidenceScore: confidence(p.ConfidenceScore),
		PublishedAt:     p.PublishedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.CreatedAt != nil {
		a.CreatedAt = *p.CreatedAt
	}
	return a, nil
}

// confidence bounds a raw score to [0,100] before rounding so that
// out-of-range values never overflow the int conversion.
func confidence(score float64) int {
	if math.IsNaN(score) {
		return 0
	}
	return int(math.Round(utils.Clamp(score, 0, 100)))
}

func normaliseID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// ArticleList decodes a list payload. Entries that fail validation are
// returned separately so the caller can log them.
func ArticleList(payloads []ArticlePayload) (articles []entity.Article, dropped int) {
	articles = make([]entity.Article, 0, len(payloads))
	for _, p := range payloads {
		a, err := p.ToEntity()
		if err != nil {
			dropped++
			continue
		}
		articles = append(articles, a)
	}
	return articles, dropped
}

// SnapshotPayload is the data of an initial-snapshot event. The backend
// sends either a bare array or an object with an "articles" field.
type SnapshotPayload struct {
	Articles []ArticlePayload `json:"articles"`
}

// UnmarshalJSON accepts both the array and the object form.
func (s *SnapshotPayload) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(b, &s.Articles)
	}
	type alias SnapshotPayload
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*s = SnapshotPayload(a)
	return nil
}

// ChunkPayload carries one streamed fragment of an assistant reply.
type ChunkPayload struct {
	SessionID string `json:"session_id"`
	Chunk     string `json:"chunk"`
}

// Validate checks the required fields.
func (c ChunkPayload) Validate() error {
	if c.SessionID == "" {
		return ErrMissingSessionID
	}
	return nil
}

// CompletePayload closes a streamed reply.
type CompletePayload struct {
	SessionID        string `json:"session_id"`
	ProcessingTimeMs *int64 `json:"processing_time_ms,omitempty"`
	TokenCount       *int   `json:"token_count,omitempty"`
	Model            string `json:"model,omitempty"`
}

// Validate checks the required fields.
func (c CompletePayload) Validate() error {
	if c.SessionID == "" {
		return ErrMissingSessionID
	}
	return nil
}
