package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/qx32/pkg/domain"
)

// message is one server-sent event.
type message struct {
	Event string
	Data  string
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan message]struct{} // SessionID -> Set of Channels
	buffer      int
}

// NewStreamManager creates a StreamManager. Each subscriber buffers up to 64 events.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan message]struct{}),
		buffer:      64,
	}
}

// Subscribe registers a listener for a session. Call the returned func to unsubscribe.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan message, sm.buffer)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan message]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			subs := sm.subscribers[sessionID]
			if _, ok := subs[ch]; !ok {
				// Already closed by Close.
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		})
	}
}

// Close ends every stream of a session. Pending events are still delivered.
func (sm *StreamManager) Close(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for ch := range sm.subscribers[sessionID] {
		close(ch)
	}
	delete(sm.subscribers, sessionID)
}

// Subscribers returns the number of listeners of a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends an event to every listener of the session.
// Slow clients miss events instead of blocking the session.
func (sm *StreamManager) Broadcast(sessionID string, ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("StreamManager: Failed to encode event", "session_id", sessionID, "err", err)
		return
	}
	msg := message{Event: string(ev.Type), Data: string(data)}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			slog.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID, "event", ev.Type)
		}
	}
}

// Hooks returns session callbacks that broadcast every event.
func (sm *StreamManager) Hooks() domain.Hooks {
	send := func(id string, ev domain.Event) {
		ev.Timestamp = time.Now()
		ev.SessionID = id
		sm.Broadcast(id, ev)
	}
	return domain.Hooks{
		OnPhase: func(id string, phase domain.Phase) {
			send(id, domain.Event{Type: domain.EventPhase, Phase: phase})
		},
		OnTyping: func(id string, text string) {
			send(id, domain.Event{Type: domain.EventTyping, Text: text})
		},
		OnGlitch: func(id string, text string) {
			send(id, domain.Event{Type: domain.EventGlitch, Text: text})
		},
		OnStep: func(id string, step domain.StepOutcome) {
			send(id, domain.Event{Type: domain.EventStep, Step: &step})
		},
		OnResult: func(id string, r domain.Result) {
			send(id, domain.Event{Type: domain.EventResult, Result: &r})
		},
		OnReject: func(id string, msg string) {
			send(id, domain.Event{Type: domain.EventReject, Text: msg})
		},
	}
}
