package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/qx32/pkg/audio"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/oracle"
	"github.com/aretw0/qx32/pkg/sequencer"
	"github.com/aretw0/qx32/pkg/validator"
)

// ErrAborted is returned by Await when the awaited run was reset or closed.
var ErrAborted = errors.New("run aborted")

// run tracks one PROCESSING pass so Await can block on it.
type run struct {
	done   chan struct{}
	once   sync.Once
	result domain.Result
	err    error
}

func newRun() *run {
	return &run{done: make(chan struct{})}
}

func (r *run) finish(result domain.Result, err error) {
	r.once.Do(func() {
		r.result = result
		r.err = err
		close(r.done)
	})
}

// Machine is the state machine of a single session.
// All methods are safe for concurrent use.
//
// Hooks are invoked outside the state lock but serialized with each other, in the order
// the events happened. A hook may call Snapshot but must not call Submit, Rerun or Reset
// synchronously.
type Machine struct {
	id string
	settings

	mu       sync.Mutex
	phase    domain.Phase
	question *domain.Question
	script   []string
	log      []domain.StepOutcome
	typing   string
	result   *domain.Result
	errMsg   string
	gen      uint64
	errGen   uint64
	errTimer *time.Timer
	cancel   context.CancelFunc
	current  *run
	closed   bool
	touched  time.Time

	emitMu sync.Mutex
}

// NewMachine creates an IDLE session.
func NewMachine(id string, opts ...Option) *Machine {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Machine{
		id:       id,
		settings: s,
		phase:    domain.PhaseIdle,
		touched:  time.Now(),
	}
}

// ID returns the session identifier.
func (m *Machine) ID() string {
	return m.id
}

// Phase returns the current phase.
func (m *Machine) Phase() domain.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Snapshot returns a copy of everything a presentation layer may render.
func (m *Machine) Snapshot() domain.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := domain.Snapshot{
		ID:     m.id,
		Phase:  m.phase,
		Script: slices.Clone(m.script),
		Log:    slices.Clone(m.log),
		Typing: m.typing,
		Error:  m.errMsg,
	}
	if snap.Log == nil {
		snap.Log = []domain.StepOutcome{}
	}
	if m.question != nil {
		q := *m.question
		snap.Question = &q
	}
	if m.result != nil {
		r := *m.result
		snap.Result = &r
	}
	return snap
}

// Submit validates text and, when it is a yes/no question, starts processing it.
// An invalid question leaves the session IDLE with a transient error message.
func (m *Machine) Submit(text string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if m.phase != domain.PhaseIdle {
		phase := m.phase
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot submit while %s", domain.ErrInvalidTransition, phase)
	}
	m.touched = time.Now()

	if !validator.IsValidYesNoQuestion(text) {
		m.showErrorLocked(RejectMessage)
		m.mu.Unlock()
		m.emit(func(h domain.Hooks) {
			if h.OnReject != nil {
				h.OnReject(m.id, RejectMessage)
			}
		})
		return domain.ErrInvalidQuestion
	}

	q := domain.NewQuestion(text)
	m.clearErrorLocked()
	m.gen++
	gen := m.gen

	fail := oracle.DecideFailure(m.rng, m.failureRate)
	lines := m.scripts.Select(q.Normalized)
	seq := sequencer.New(append(slices.Clone(m.seqOpts),
		sequencer.WithRand(rand.New(rand.NewPCG(m.rng.Uint64(), m.rng.Uint64()))))...)
	plan := seq.Plan(lines, fail)

	ctx, cancel := context.WithCancel(context.Background())
	r := newRun()

	m.question = &q
	m.script = lines
	m.log = nil
	m.result = nil
	m.typing = ""
	m.phase = domain.PhaseProcessing
	m.cancel = cancel
	m.current = r
	m.mu.Unlock()

	m.logger.Debug("Session processing",
		"session_id", m.id,
		"steps", len(lines),
		"failing", plan.Failing(),
	)
	m.emitPhase(gen, domain.PhaseProcessing)

	go m.process(ctx, gen, seq, plan, q, fail, r)
	return nil
}

// process runs the sequencer for one generation and reveals its result.
func (m *Machine) process(ctx context.Context, gen uint64, seq *sequencer.Sequencer, plan sequencer.Plan, q domain.Question, fail bool, r *run) {
	handle := m.openAudio()
	m.play(handle, audio.ToneStartup)

	err := seq.RunPlan(ctx, plan, sequencer.Hooks{
		OnTyping: func(text string) {
			if !m.apply(gen, func() { m.typing = text }) {
				return
			}
			m.emitIf(gen, func(h domain.Hooks) {
				if h.OnTyping != nil {
					h.OnTyping(m.id, text)
				}
			})
		},
		OnGlitch: func(text string) {
			m.emitIf(gen, func(h domain.Hooks) {
				if h.OnGlitch != nil {
					h.OnGlitch(m.id, text)
				}
			})
		},
		OnStep: func(step domain.StepOutcome) {
			if !m.apply(gen, func() {
				m.log = append(m.log, step)
				m.typing = ""
			}) {
				return
			}
			m.emitIf(gen, func(h domain.Hooks) {
				if h.OnStep != nil {
					h.OnStep(m.id, step)
				}
			})
		},
		OnTone: func(t audio.Tone) {
			m.play(handle, t)
		},
	})
	m.closeAudio(handle)
	if err != nil {
		// Reset or Close already moved the session on.
		return
	}

	if m.revealDelay > 0 {
		timer := time.NewTimer(m.revealDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return
	}
	var result domain.Result
	if fail {
		result = m.scripts.Faults.Pick(m.rng)
	} else {
		result = oracle.Resolve(q)
	}
	m.gen++
	next := m.gen
	m.result = &result
	m.typing = ""
	m.phase = domain.PhaseRevealed
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.mu.Unlock()

	m.logger.Debug("Session revealed",
		"session_id", m.id,
		"kind", result.Kind,
		"answer", result.Answer,
		"probability", result.Probability,
		"code", result.Code,
	)

	// Hooks run before Await is released so callers that Close right after never drop the result.
	m.emitIf(next, func(h domain.Hooks) {
		if h.OnPhase != nil {
			h.OnPhase(m.id, domain.PhaseRevealed)
		}
		if h.OnResult != nil {
			h.OnResult(m.id, result)
		}
	})
	r.finish(result, nil)
}

// Keystroke records operator activity. It clears a pending rejection message at once.
func (m *Machine) Keystroke() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched = time.Now()
	m.clearErrorLocked()
}

// Rerun discards the revealed session and returns to IDLE.
func (m *Machine) Rerun() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return domain.ErrSessionClosed
	}
	if m.phase != domain.PhaseRevealed {
		phase := m.phase
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot rerun while %s", domain.ErrInvalidTransition, phase)
	}
	gen := m.toIdleLocked()
	m.mu.Unlock()

	m.emitPhase(gen, domain.PhaseIdle)
	return nil
}

// Reset aborts whatever the session is doing and returns to IDLE.
// A run in progress is cancelled and its Await callers receive ErrAborted.
func (m *Machine) Reset() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return domain.ErrSessionClosed
	}
	r := m.current
	gen := m.toIdleLocked()
	m.mu.Unlock()

	if r != nil {
		r.finish(domain.Result{}, ErrAborted)
	}
	m.emitPhase(gen, domain.PhaseIdle)
	return nil
}

// Await blocks until the current run is REVEALED and returns its result.
func (m *Machine) Await(ctx context.Context) (domain.Result, error) {
	m.mu.Lock()
	switch {
	case m.closed:
		m.mu.Unlock()
		return domain.Result{}, domain.ErrSessionClosed
	case m.phase == domain.PhaseRevealed && m.result != nil:
		result := *m.result
		m.mu.Unlock()
		return result, nil
	case m.phase == domain.PhaseIdle || m.current == nil:
		m.mu.Unlock()
		return domain.Result{}, fmt.Errorf("%w: no question is being processed", domain.ErrInvalidTransition)
	}
	r := m.current
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return domain.Result{}, ctx.Err()
	case <-r.done:
		return r.result, r.err
	}
}

// Close cancels any run and timer. The session rejects every later call.
func (m *Machine) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	r := m.current
	m.toIdleLocked()
	m.closed = true
	m.mu.Unlock()

	if r != nil {
		r.finish(domain.Result{}, domain.ErrSessionClosed)
	}
	return nil
}

// IdleSince reports when the session was last touched by an operator.
func (m *Machine) IdleSince() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touched
}

// Busy reports whether a run is in progress.
func (m *Machine) Busy() bool {
	return m.Phase() == domain.PhaseProcessing
}

// toIdleLocked clears every per-question field and invalidates outstanding callbacks.
func (m *Machine) toIdleLocked() uint64 {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.clearErrorLocked()
	m.gen++
	m.phase = domain.PhaseIdle
	m.question = nil
	m.script = nil
	m.log = nil
	m.typing = ""
	m.result = nil
	m.current = nil
	m.touched = time.Now()
	return m.gen
}

func (m *Machine) showErrorLocked(msg string) {
	if m.errTimer != nil {
		m.errTimer.Stop()
	}
	m.errGen++
	g := m.errGen
	m.errMsg = msg
	m.errTimer = time.AfterFunc(m.errorTTL, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.errGen == g {
			m.errMsg = ""
			m.errTimer = nil
		}
	})
}

func (m *Machine) clearErrorLocked() {
	if m.errTimer != nil {
		m.errTimer.Stop()
		m.errTimer = nil
	}
	m.errGen++
	m.errMsg = ""
}

// apply mutates state only if gen is still current.
func (m *Machine) apply(gen uint64, fn func()) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false
	}
	fn()
	return true
}

func (m *Machine) emit(fn func(domain.Hooks)) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()
	fn(m.hooks)
}

// emitIf invokes hooks only while gen is current. The check and the call happen under
// emitMu, so an event from a stale generation can never follow the event that replaced it.
func (m *Machine) emitIf(gen uint64, fn func(domain.Hooks)) {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	current := m.gen == gen
	m.mu.Unlock()
	if current {
		fn(m.hooks)
	}
}

func (m *Machine) emitPhase(gen uint64, phase domain.Phase) {
	m.emitIf(gen, func(h domain.Hooks) {
		if h.OnPhase != nil {
			h.OnPhase(m.id, phase)
		}
	})
}

func (m *Machine) openAudio() audio.Handle {
	h, err := m.player.Open()
	if err != nil {
		m.logger.Debug("Audio unavailable", "session_id", m.id, "err", err)
		return nil
	}
	return h
}

func (m *Machine) play(h audio.Handle, t audio.Tone) {
	if h == nil {
		return
	}
	if err := h.Play(t); err != nil {
		m.logger.Debug("Audio playback failed", "session_id", m.id, "tone", t, "err", err)
	}
}

func (m *Machine) closeAudio(h audio.Handle) {
	if h == nil {
		return
	}
	if err := h.Close(); err != nil {
		m.logger.Debug("Audio close failed", "session_id", m.id, "err", err)
	}
}
