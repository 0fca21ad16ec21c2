// Package audio plays the cluster's sound effects.
//
// Audio is strictly fire-and-forget: callers open a Handle when a session starts
// processing and close it on every exit. Playback errors are reported to the caller,
// who is expected to log and ignore them.
package audio

import (
	"errors"
	"io"
	"sync"
)

// Tone identifies a sound effect.
type Tone string

const (
	ToneStartup      Tone = "startup"       // Processing begins
	ToneBlip         Tone = "blip"          // A character was typed
	ToneLineComplete Tone = "line_complete" // A status line finished
	ToneLineFail     Tone = "line_fail"     // A status line reported FAIL
)

// ErrHandleClosed is returned when playing on a closed handle.
var ErrHandleClosed = errors.New("audio handle closed")

// Player opens audio handles. One handle is owned by one processing run.
type Player interface {
	Open() (Handle, error)
}

// Handle plays tones until it is closed.
type Handle interface {
	Play(t Tone) error
	Close() error
}

// Nop is a Player that never makes a sound.
type Nop struct{}

// Open returns a silent handle.
func (Nop) Open() (Handle, error) { return nopHandle{}, nil }

type nopHandle struct{}

func (nopHandle) Play(Tone) error { return nil }
func (nopHandle) Close() error    { return nil }

// Bell plays tones as terminal bells on w.
// Blips are skipped: a bell per keystroke is unbearable.
type Bell struct {
	W io.Writer
}

// NewBell creates a Bell writing to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{W: w}
}

// Open returns a handle bound to the bell's writer.
func (b *Bell) Open() (Handle, error) {
	if b.W == nil {
		return nil, errors.New("bell has no output")
	}
	return &bellHandle{w: b.W}, nil
}

type bellHandle struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

func (h *bellHandle) Play(t Tone) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandleClosed
	}
	switch t {
	case ToneStartup, ToneLineFail:
		_, err := io.WriteString(h.w, "\a")
		return err
	default:
		return nil
	}
}

func (h *bellHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}
