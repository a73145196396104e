package assembler

import (
	"time"

	"golang-news-dashboard/internal/entity"
)

// Assembler owns one State. It is not safe for concurrent use; the owner
// serialises calls.
type Assembler struct {
	state       State
	maxMessages int
}

// New creates an empty Assembler keeping at most maxMessages messages.
func New(maxMessages int) *Assembler {
	if maxMessages <= 0 {
		maxMessages = DefaultMaxMessages
	}
	return &Assembler{
		state: State{
			Sessions: map[string]Session{},
			Slots:    map[string]string{},
		},
		maxMessages: maxMessages,
	}
}

func (a *Assembler) State() State { return a.state }

func (a *Assembler) BeginSession(slot, sessionID, prompt string, now time.Time) Outcome {
	var o Outcome
	a.state, o = BeginSession(a.state, slot, sessionID, prompt, now, a.maxMessages)
	return o
}

func (a *Assembler) ApplyChunk(sessionID, text string, now time.Time) Outcome {
	var o Outcome
	a.state, o = ApplyChunk(a.state, sessionID, text, now)
	return o
}

func (a *Assembler) ApplyCompletion(sessionID string, meta Completion, now time.Time) Outcome {
	var o Outcome
	a.state, o = ApplyCompletion(a.state, sessionID, meta, now)
	return o
}

func (a *Assembler) Fail(sessionID, reason string, now time.Time) Outcome {
	var o Outcome
	a.state, o = Fail(a.state, sessionID, reason, now)
	return o
}

func (a *Assembler) ExpireAwaiting(now time.Time, timeout time.Duration, reason string) Outcome {
	var o Outcome
	a.state, o = ExpireAwaiting(a.state, now, timeout, reason)
	return o
}

// Session returns the active session with the given id.
func (a *Assembler) Session(id string) (Session, error) {
	s, ok := a.state.Sessions[id]
	if !ok {
		return Session{}, ErrUnknownSession
	}
	return s, nil
}

func (a *Assembler) ActiveSessions() int { return len(a.state.Sessions) }

// Messages returns a copy of the chat history.
func (a *Assembler) Messages() []entity.ChatMessage {
	out := make([]entity.ChatMessage, len(a.state.Messages))
	copy(out, a.state.Messages)
	return out
}
