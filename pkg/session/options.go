package session

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/aretw0/qx32/internal/logging"
	"github.com/aretw0/qx32/pkg/audio"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/oracle"
	"github.com/aretw0/qx32/pkg/script"
	"github.com/aretw0/qx32/pkg/sequencer"
)

const (
	// DefaultRevealDelay is the pause between the last status line and the verdict.
	DefaultRevealDelay = 900 * time.Millisecond
	// DefaultErrorTTL is how long a rejection message stays visible.
	DefaultErrorTTL = 5 * time.Second
	// DefaultIdleTTL is how long the Manager keeps an untouched session.
	DefaultIdleTTL = 30 * time.Minute
)

// RejectMessage is shown when the submitted text is not a yes/no question.
const RejectMessage = "QUERY REJECTED: the cluster only answers yes/no questions"

// settings is shared by Machine and Manager. Options a component does not use are ignored.
type settings struct {
	logger      *slog.Logger
	player      audio.Player
	scripts     script.Set
	seqOpts     []sequencer.Option
	failureRate float64
	revealDelay time.Duration
	errorTTL    time.Duration
	idleTTL     time.Duration
	hooks       domain.Hooks
	rng         *rand.Rand
	onRemove    func(sessionID string)
}

func defaultSettings() settings {
	return settings{
		logger:      logging.NewNop(),
		player:      audio.Nop{},
		scripts:     script.DefaultSet(),
		failureRate: oracle.DefaultFailureRate,
		revealDelay: DefaultRevealDelay,
		errorTTL:    DefaultErrorTTL,
		idleTTL:     DefaultIdleTTL,
	}
}

// Option configures a Machine or a Manager.
type Option func(*settings)

// WithLogger configures a logger for internal events (audio errors, evictions).
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPlayer sets the audio backend.
func WithPlayer(p audio.Player) Option {
	return func(s *settings) {
		if p != nil {
			s.player = p
		}
	}
}

// WithScripts replaces the built-in scripts and fault catalog.
func WithScripts(set script.Set) Option {
	return func(s *settings) {
		s.scripts = set
	}
}

// WithSequencer passes options to the sequencer built for every run.
func WithSequencer(opts ...sequencer.Option) Option {
	return func(s *settings) {
		s.seqOpts = append(s.seqOpts, opts...)
	}
}

// WithFailureRate sets the chance of a simulated fault, in [0,1].
func WithFailureRate(rate float64) Option {
	return func(s *settings) {
		if rate >= 0 && rate <= 1 {
			s.failureRate = rate
		}
	}
}

// WithRevealDelay sets the pause before the verdict is published.
func WithRevealDelay(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.revealDelay = d
		}
	}
}

// WithErrorTTL sets how long a rejection message stays visible.
func WithErrorTTL(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.errorTTL = d
		}
	}
}

// WithIdleTTL sets how long the Manager keeps a session nobody touches.
// Zero disables eviction.
func WithIdleTTL(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.idleTTL = d
		}
	}
}

// WithHooks registers observability callbacks.
func WithHooks(h domain.Hooks) Option {
	return func(s *settings) {
		s.hooks = h
	}
}

// WithOnRemove registers a callback the Manager runs after a session is deleted,
// evicted or closed with the Manager.
func WithOnRemove(fn func(sessionID string)) Option {
	return func(s *settings) {
		s.onRemove = fn
	}
}

// WithRand injects the random source used for failure decisions and fault selection.
func WithRand(rng *rand.Rand) Option {
	return func(s *settings) {
		s.rng = rng
	}
}
