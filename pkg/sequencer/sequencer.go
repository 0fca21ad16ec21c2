package sequencer

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aretw0/qx32/pkg/audio"
	"github.com/aretw0/qx32/pkg/domain"
)

const (
	// DefaultDuration is the total wall-clock time of a run, whatever the number of lines.
	DefaultDuration = 7 * time.Second
	// DefaultTypingShare is the part of each step spent typing; the rest is the pause.
	DefaultTypingShare = 0.7
	// blipChance is the probability that a typed character makes a sound.
	blipChance = 0.3
)

// Hooks receives the observable effects of a run. Any field may be nil.
//
// OnTyping, OnStep, OnTone and OnComplete are called from the goroutine executing Run,
// in timeline order. OnGlitch is called from the glitch goroutine and may interleave
// with OnTyping.
type Hooks struct {
	OnTyping   func(buffer string)
	OnGlitch   func(corrupted string)
	OnStep     func(step domain.StepOutcome)
	OnTone     func(tone audio.Tone)
	OnComplete func()
}

// Sequencer animates a list of status lines over a fixed time budget.
// A Sequencer owns a random source and is not safe for concurrent runs.
type Sequencer struct {
	duration    time.Duration
	typingShare float64
	glitch      GlitchConfig
	rng         *rand.Rand
}

// Option configures the Sequencer.
type Option func(*Sequencer)

// WithDuration sets the total time budget. Zero runs the script instantly.
func WithDuration(d time.Duration) Option {
	return func(s *Sequencer) {
		if d >= 0 {
			s.duration = d
		}
	}
}

// WithTypingShare sets the fraction of each step spent typing, in (0,1].
func WithTypingShare(share float64) Option {
	return func(s *Sequencer) {
		if share > 0 && share <= 1 {
			s.typingShare = share
		}
	}
}

// WithRand injects the random source used for failure selection, blips and glitch seeding.
func WithRand(rng *rand.Rand) Option {
	return func(s *Sequencer) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithGlitch configures the cosmetic corruption loop.
func WithGlitch(cfg GlitchConfig) Option {
	return func(s *Sequencer) {
		s.glitch = cfg
	}
}

// New creates a Sequencer with the default budget and glitches enabled.
func New(opts ...Option) *Sequencer {
	s := &Sequencer{
		duration:    DefaultDuration,
		typingShare: DefaultTypingShare,
		glitch:      DefaultGlitch(),
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Duration returns the configured time budget.
func (s *Sequencer) Duration() time.Duration {
	return s.duration
}

// Plan fixes the lines of a run and, when fail is set, which of them will report FAIL.
func (s *Sequencer) Plan(lines []string, fail bool) Plan {
	p := Plan{Lines: append([]string(nil), lines...)}
	if fail {
		p.failing = PickFailures(s.rng, len(lines))
	}
	return p
}

// Run plans and executes a run. See RunPlan.
func (s *Sequencer) Run(ctx context.Context, lines []string, fail bool, hooks Hooks) error {
	return s.RunPlan(ctx, s.Plan(lines, fail), hooks)
}

// RunPlan types every line of the plan and commits them in order, then signals completion once.
// Step i owns the window [D*i/N, D*(i+1)/N) measured from the start of the run, so the
// total elapsed time is D regardless of N or line lengths.
// Cancelling ctx stops the run; RunPlan then returns ctx.Err() and OnComplete is never called.
func (s *Sequencer) RunPlan(ctx context.Context, plan Plan, hooks Hooks) error {
	start := time.Now()
	n := len(plan.Lines)

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	screen := &buffer{}
	if s.glitch.Enabled && hooks.OnGlitch != nil {
		grng := rand.New(rand.NewPCG(s.rng.Uint64(), s.rng.Uint64()))
		wg.Add(1)
		go func() {
			defer wg.Done()
			glitchLoop(runCtx, s.glitch, grng, screen, hooks.OnGlitch)
		}()
	}

	for i, line := range plan.Lines {
		stepStart := start.Add(s.offset(i, n))
		stepEnd := start.Add(s.offset(i+1, n))
		typing := time.Duration(float64(stepEnd.Sub(stepStart)) * s.typingShare)

		runes := []rune(line)
		for j := range runes {
			at := stepStart.Add(typing * time.Duration(j+1) / time.Duration(len(runes)))
			if err := sleepUntil(ctx, at); err != nil {
				return err
			}
			text := string(runes[:j+1])
			screen.set(text)
			if hooks.OnTyping != nil {
				hooks.OnTyping(text)
			}
			if hooks.OnTone != nil && s.rng.Float64() < blipChance {
				hooks.OnTone(audio.ToneBlip)
			}
		}
		if len(runes) == 0 {
			if err := sleepUntil(ctx, stepStart.Add(typing)); err != nil {
				return err
			}
		}

		status := plan.Status(i)
		if hooks.OnTone != nil {
			if status == domain.StepFail {
				hooks.OnTone(audio.ToneLineFail)
			} else {
				hooks.OnTone(audio.ToneLineComplete)
			}
		}

		if err := sleepUntil(ctx, stepEnd); err != nil {
			return err
		}

		screen.set("")
		if hooks.OnStep != nil {
			hooks.OnStep(domain.StepOutcome{
				Index:  i,
				Line:   line,
				Status: status,
				At:     time.Now(),
			})
		}
	}

	if n == 0 {
		if err := sleepUntil(ctx, start.Add(s.duration)); err != nil {
			return err
		}
	}

	if hooks.OnComplete != nil {
		hooks.OnComplete()
	}
	return nil
}

// offset returns the start of step i out of n, relative to the start of the run.
func (s *Sequencer) offset(i, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return time.Duration(int64(s.duration) * int64(i) / int64(n))
}

// sleepUntil blocks until the deadline passes or ctx is done.
func sleepUntil(ctx context.Context, deadline time.Time) error {
	d := time.Until(deadline)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// buffer is the text currently on screen, shared with the glitch loop.
type buffer struct {
	mu   sync.RWMutex
	text string
}

func (b *buffer) set(s string) {
	b.mu.Lock()
	b.text = s
	b.mu.Unlock()
}

func (b *buffer) get() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}
