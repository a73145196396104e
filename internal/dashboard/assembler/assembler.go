// Package assembler reassembles streamed chat replies into chat messages.
//
// Each chat send opens a session keyed by a correlation id. A session is
// Awaiting until its first chunk, Streaming until its completion event, and
// is then removed. Events for ids that are not active are ignored, which is
// how late chunks from superseded or finished sessions are discarded.
package assembler

import (
	"errors"
	"sort"
	"time"

	"golang-news-dashboard/internal/entity"
)

const DefaultMaxMessages = 200

var ErrUnknownSession = errors.New("unknown chat session")

// Phase is the lifecycle position of an active session.
type Phase int

const (
	PhaseAwaiting Phase = iota
	PhaseStreaming
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaiting:
		return "awaiting"
	case PhaseStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// Session is an in-flight chat exchange.
type Session struct {
	ID        string
	Slot      string
	Phase     Phase
	StartedAt time.Time
}

// Completion is the metadata attached when a reply finishes.
type Completion struct {
	ProcessingTimeMs *int64
	TokenCount       *int
	Model            string
}

// State holds the chat history and the active sessions.
type State struct {
	Messages []entity.ChatMessage
	Sessions map[string]Session
	// Slots maps a conversation slot to its active session id.
	Slots map[string]string
}

// Outcome describes what a reducer did with its input.
type Outcome struct {
	Changed    bool
	Ignored    bool
	Superseded string
	Failed     []string
	Dropped    string
}

func userMessageID(sessionID string) string      { return sessionID + ":user" }
func assistantMessageID(sessionID string) string { return sessionID + ":assistant" }

func (s State) clone() State {
	out := State{
		Messages: make([]entity.ChatMessage, len(s.Messages)),
		Sessions: make(map[string]Session, len(s.Sessions)),
		Slots:    make(map[string]string, len(s.Slots)),
	}
	copy(out.Messages, s.Messages)
	for k, v := range s.Sessions {
		out.Sessions[k] = v
	}
	for k, v := range s.Slots {
		out.Slots[k] = v
	}
	return out
}

func (s State) messageIndex(id string) int {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// remove drops the session and its slot entry. s must already be a clone.
func (s *State) remove(sess Session) {
	delete(s.Sessions, sess.ID)
	if s.Slots[sess.Slot] == sess.ID {
		delete(s.Slots, sess.Slot)
	}
}

// BeginSession records the user prompt and registers sessionID as the active
// session of slot. An unfinished session already holding the slot is
// discarded; if it was streaming its message is closed as-is.
func BeginSession(s State, slot, sessionID, prompt string, now time.Time, maxMessages int) (State, Outcome) {
	if sessionID == "" {
		return s, Outcome{Dropped: "begin without session id"}
	}
	if _, ok := s.Sessions[sessionID]; ok {
		return s, Outcome{Dropped: "session already active"}
	}

	next := s.clone()
	var out Outcome
	if prevID, ok := next.Slots[slot]; ok {
		if prev, ok := next.Sessions[prevID]; ok {
			if prev.Phase == PhaseStreaming {
				if i := next.messageIndex(assistantMessageID(prev.ID)); i >= 0 {
					next.Messages[i].Streaming = false
				}
			}
			next.remove(prev)
			out.Superseded = prev.ID
		}
	}

	next.Messages = append(next.Messages, entity.ChatMessage{
		ID:        userMessageID(sessionID),
		SessionID: sessionID,
		Role:      entity.ChatRoleUser,
		Content:   prompt,
		Timestamp: now,
	})
	next.Sessions[sessionID] = Session{ID: sessionID, Slot: slot, Phase: PhaseAwaiting, StartedAt: now}
	next.Slots[slot] = sessionID
	next.Messages = trim(next.Messages, maxMessages)

	out.Changed = true
	return next, out
}

// ApplyChunk appends text to the reply of sessionID. The first chunk creates
// the assistant message.
func ApplyChunk(s State, sessionID, text string, now time.Time) (State, Outcome) {
	sess, ok := s.Sessions[sessionID]
	if !ok {
		return s, Outcome{Ignored: true}
	}

	next := s.clone()
	switch sess.Phase {
	case PhaseAwaiting:
		next.Messages = append(next.Messages, entity.ChatMessage{
			ID:        assistantMessageID(sessionID),
			SessionID: sessionID,
			Role:      entity.ChatRoleAssistant,
			Content:   text,
			Streaming: true,
			Timestamp: now,
		})
		sess.Phase = PhaseStreaming
		next.Sessions[sessionID] = sess
	case PhaseStreaming:
		i := next.messageIndex(assistantMessageID(sessionID))
		if i < 0 {
			return s, Outcome{Ignored: true}
		}
		next.Messages[i].Content += text
	}
	return next, Outcome{Changed: true}
}

// ApplyCompletion finalises the reply of sessionID and removes the session.
// ProcessingTimeMs falls back to the time measured since the session began.
func ApplyCompletion(s State, sessionID string, meta Completion, now time.Time) (State, Outcome) {
	sess, ok := s.Sessions[sessionID]
	if !ok {
		return s, Outcome{Ignored: true}
	}

	next := s.clone()
	i := next.messageIndex(assistantMessageID(sessionID))
	if i < 0 {
		// completed without any chunk
		next.Messages = append(next.Messages, entity.ChatMessage{
			ID:        assistantMessageID(sessionID),
			SessionID: sessionID,
			Role:      entity.ChatRoleAssistant,
			Timestamp: now,
		})
		i = len(next.Messages) - 1
	}

	msg := &next.Messages[i]
	msg.Streaming = false
	if meta.ProcessingTimeMs != nil {
		v := *meta.ProcessingTimeMs
		msg.ProcessingTimeMs = &v
	} else {
		v := now.Sub(sess.StartedAt).Milliseconds()
		msg.ProcessingTimeMs = &v
	}
	if meta.TokenCount != nil {
		v := *meta.TokenCount
		msg.TokenCount = &v
	}
	msg.Model = meta.Model

	next.remove(sess)
	return next, Outcome{Changed: true}
}

// Fail moves sessionID to the error state. An awaiting session produces a
// synthetic assistant message carrying reason; a streaming one has its
// partial message closed and flagged.
func Fail(s State, sessionID, reason string, now time.Time) (State, Outcome) {
	sess, ok := s.Sessions[sessionID]
	if !ok {
		return s, Outcome{Ignored: true}
	}

	next := s.clone()
	if i := next.messageIndex(assistantMessageID(sessionID)); i >= 0 {
		next.Messages[i].Streaming = false
		next.Messages[i].IsError = true
	} else {
		next.Messages = append(next.Messages, entity.ChatMessage{
			ID:        assistantMessageID(sessionID),
			SessionID: sessionID,
			Role:      entity.ChatRoleAssistant,
			Content:   reason,
			Timestamp: now,
			IsError:   true,
		})
	}
	next.remove(sess)
	return next, Outcome{Changed: true, Failed: []string{sessionID}}
}

// ExpireAwaiting fails every session that has waited at least timeout for
// its first chunk.
func ExpireAwaiting(s State, now time.Time, timeout time.Duration, reason string) (State, Outcome) {
	if timeout <= 0 {
		return s, Outcome{}
	}
	var expired []Session
	for _, sess := range s.Sessions {
		if sess.Phase == PhaseAwaiting && now.Sub(sess.StartedAt) >= timeout {
			expired = append(expired, sess)
		}
	}
	if len(expired) == 0 {
		return s, Outcome{}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].StartedAt.Before(expired[j].StartedAt) })

	out := Outcome{Changed: true}
	for _, sess := range expired {
		s, _ = Fail(s, sess.ID, reason, now)
		out.Failed = append(out.Failed, sess.ID)
	}
	return s, out
}

// trim drops the oldest messages beyond max, never dropping a streaming one.
func trim(messages []entity.ChatMessage, max int) []entity.ChatMessage {
	if max <= 0 || len(messages) <= max {
		return messages
	}
	excess := len(messages) - max
	out := make([]entity.ChatMessage, 0, max)
	for _, m := range messages {
		if excess > 0 && !m.Streaming {
			excess--
			continue
		}
		out = append(out, m)
	}
	return out
}
