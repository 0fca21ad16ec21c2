package domain

import (
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPhase  EventType = "phase"
	EventTyping EventType = "typing"
	EventGlitch EventType = "glitch"
	EventStep   EventType = "step"
	EventResult EventType = "result"
	EventReject EventType = "reject"
)

// Event is the wire representation of a session change, used by streaming adapters.
type Event struct {
	Timestamp time.Time    `json:"timestamp"`
	Type      EventType    `json:"type"`
	SessionID string       `json:"session_id"`
	Phase     Phase        `json:"phase,omitempty"`
	Text      string       `json:"text,omitempty"`
	Step      *StepOutcome `json:"step,omitempty"`
	Result    *Result      `json:"result,omitempty"`
}

// Hooks defines callbacks for session observability.
// Any field may be nil.
type Hooks struct {
	OnPhase  func(sessionID string, phase Phase)
	OnTyping func(sessionID string, buffer string)
	OnGlitch func(sessionID string, corrupted string)
	OnStep   func(sessionID string, step StepOutcome)
	OnResult func(sessionID string, result Result)
	OnReject func(sessionID string, message string)
}

// ChainHooks fans every callback out to each of the given hook sets, in order.
func ChainHooks(hooks ...Hooks) Hooks {
	return Hooks{
		OnPhase: func(id string, p Phase) {
			for _, h := range hooks {
				if h.OnPhase != nil {
					h.OnPhase(id, p)
				}
			}
		},
		OnTyping: func(id string, s string) {
			for _, h := range hooks {
				if h.OnTyping != nil {
					h.OnTyping(id, s)
				}
			}
		},
		OnGlitch: func(id string, s string) {
			for _, h := range hooks {
				if h.OnGlitch != nil {
					h.OnGlitch(id, s)
				}
			}
		},
		OnStep: func(id string, st StepOutcome) {
			for _, h := range hooks {
				if h.OnStep != nil {
					h.OnStep(id, st)
				}
			}
		},
		OnResult: func(id string, r Result) {
			for _, h := range hooks {
				if h.OnResult != nil {
					h.OnResult(id, r)
				}
			}
		},
		OnReject: func(id string, msg string) {
			for _, h := range hooks {
				if h.OnReject != nil {
					h.OnReject(id, msg)
				}
			}
		},
	}
}
