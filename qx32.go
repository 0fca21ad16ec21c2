package qx32

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/qx32/internal/logging"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/script"
	"github.com/aretw0/qx32/pkg/session"
	"github.com/aretw0/qx32/pkg/validator"
	"github.com/google/uuid"
)

// Version is the release of the cluster.
const Version = "0.1.0"

// Cluster is the high-level entry point of the library.
// It owns a session Manager and the options every session is built with.
type Cluster struct {
	logger      *slog.Logger
	scripts     script.Set
	hooks       []domain.Hooks
	sessionOpts []session.Option
	manager     *session.Manager
}

// Option configures the Cluster.
type Option func(*Cluster)

// WithLogger sets the structured logger shared by every session.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cluster) {
		c.logger = logger
	}
}

// WithHooks registers observability hooks. Repeated calls chain the hooks in order.
func WithHooks(hooks domain.Hooks) Option {
	return func(c *Cluster) {
		c.hooks = append(c.hooks, hooks)
	}
}

// WithScripts replaces the built-in scripts and fault catalog.
func WithScripts(set script.Set) Option {
	return func(c *Cluster) {
		c.scripts = set
	}
}

// WithSessionOptions passes options (timings, audio, failure rate) to every session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(c *Cluster) {
		c.sessionOpts = append(c.sessionOpts, opts...)
	}
}

// New creates a Cluster.
func New(opts ...Option) *Cluster {
	c := &Cluster{
		logger:  logging.NewNop(),
		scripts: script.DefaultSet(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.manager = session.NewManager(c.options()...)
	return c
}

func (c *Cluster) options() []session.Option {
	opts := []session.Option{
		session.WithLogger(c.logger),
		session.WithScripts(c.scripts),
	}
	opts = append(opts, c.sessionOpts...)
	if len(c.hooks) > 0 {
		opts = append(opts, session.WithHooks(domain.ChainHooks(c.hooks...)))
	}
	return opts
}

// NewSession creates a standalone session that is not tracked by the Manager.
func (c *Cluster) NewSession(extra ...session.Option) *session.Machine {
	opts := append(c.options(), extra...)
	return session.NewMachine(uuid.NewString(), opts...)
}

// Manager returns the session registry used by the adapters.
func (c *Cluster) Manager() *session.Manager {
	return c.manager
}

// Scripts returns the scripts and fault catalog sessions draw from.
func (c *Cluster) Scripts() script.Set {
	return c.scripts
}

// Validate reports whether text would be accepted as a yes/no question.
func (c *Cluster) Validate(text string) bool {
	return validator.IsValidYesNoQuestion(text)
}

// Ask runs a complete session for question and returns its final snapshot.
// Cancelling ctx aborts the run.
func (c *Cluster) Ask(ctx context.Context, question string, extra ...session.Option) (domain.Snapshot, error) {
	m := c.NewSession(extra...)
	defer m.Close()

	if err := m.Submit(question); err != nil {
		return m.Snapshot(), err
	}
	if _, err := m.Await(ctx); err != nil {
		return m.Snapshot(), fmt.Errorf("ask aborted: %w", err)
	}
	return m.Snapshot(), nil
}

// Close shuts the Manager down and closes every tracked session.
func (c *Cluster) Close() error {
	return c.manager.Close()
}
