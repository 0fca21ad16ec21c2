package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/qx32"
	"github.com/aretw0/qx32/internal/config"
	"github.com/aretw0/qx32/internal/logging"
	"github.com/aretw0/qx32/internal/presentation/tui"
	"github.com/aretw0/qx32/internal/testutils"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for the session goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func fastConfig() config.Config {
	cfg := config.Default()
	cfg.Duration = 30 * time.Millisecond
	cfg.RevealDelay = 0
	cfg.FailureRate = 0
	cfg.Glitch = false
	cfg.Mute = true
	return cfg
}

func newInteractive(t *testing.T, duration time.Duration) (*session.Machine, *tui.Console, *syncBuffer) {
	t.Helper()
	out := &syncBuffer{}
	console := tui.NewConsole(out, tui.WithPlain(true))
	cluster := qx32.New(
		qx32.WithHooks(console.Hooks()),
		qx32.WithSessionOptions(testutils.FastSessionOptions(duration)...),
	)
	t.Cleanup(func() { cluster.Close() })
	m := cluster.NewSession()
	t.Cleanup(func() { m.Close() })
	return m, console, out
}

func TestRunInteractive_PipedQuestionFinishesBeforeExit(t *testing.T) {
	m, console, out := newInteractive(t, 30*time.Millisecond)

	err := runInteractive(context.Background(), m, console,
		strings.NewReader("Is the sky blue?\n"), nil, logging.NewNop())
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseRevealed, m.Phase())
	text := out.String()
	assert.Contains(t, text, "AWAITING INPUT QUERY...")
	assert.Contains(t, text, "Initializing qx32 orbit cluster [OK]")
	assert.Contains(t, text, "Probability")
}

func TestRunInteractive_RejectsStatements(t *testing.T) {
	m, console, out := newInteractive(t, 30*time.Millisecond)

	err := runInteractive(context.Background(), m, console,
		strings.NewReader("the sky is blue\n"), nil, logging.NewNop())
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseIdle, m.Phase())
	assert.Contains(t, out.String(), session.RejectMessage)
}

func TestRunInteractive_ExitCommand(t *testing.T) {
	m, console, out := newInteractive(t, 30*time.Millisecond)

	err := runInteractive(context.Background(), m, console,
		strings.NewReader("exit\nIs the sky blue?\n"), nil, logging.NewNop())
	require.NoError(t, err)

	assert.Equal(t, domain.PhaseIdle, m.Phase())
	assert.Contains(t, out.String(), "Connection closed.")
}

func TestRunInteractive_InterruptAbortsRun(t *testing.T) {
	m, console, out := newInteractive(t, 5*time.Second)
	in, w := io.Pipe()
	interrupts := make(chan os.Signal, 1)

	done := make(chan error, 1)
	go func() {
		done <- runInteractive(context.Background(), m, console, in, interrupts, logging.NewNop())
	}()

	_, err := io.WriteString(w, "Will it rain?\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return m.Phase() == domain.PhaseProcessing },
		time.Second, 5*time.Millisecond)

	interrupts <- os.Interrupt
	require.Eventually(t, func() bool { return m.Phase() == domain.PhaseIdle },
		time.Second, 5*time.Millisecond)
	assert.Nil(t, m.Snapshot().Result)

	// A second interrupt with nothing running ends the loop.
	interrupts <- os.Interrupt
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not exit")
	}
	w.Close()

	assert.Contains(t, out.String(), "Run aborted.")
}

func TestRunInteractive_RerunFromRevealed(t *testing.T) {
	m, console, _ := newInteractive(t, 20*time.Millisecond)
	in, w := io.Pipe()

	done := make(chan error, 1)
	go func() {
		done <- runInteractive(context.Background(), m, console, in, nil, logging.NewNop())
	}()

	io.WriteString(w, "Is it sunny?\n")
	require.Eventually(t, func() bool { return m.Phase() == domain.PhaseRevealed },
		2*time.Second, 5*time.Millisecond)

	io.WriteString(w, "\n")
	require.Eventually(t, func() bool { return m.Phase() == domain.PhaseIdle },
		time.Second, 5*time.Millisecond)
	assert.Empty(t, m.Snapshot().Log)

	w.Close()
	require.NoError(t, <-done)
}

func TestRunAsk_OneShot(t *testing.T) {
	out := &syncBuffer{}
	err := RunAsk(context.Background(), AskOptions{
		Config:   fastConfig(),
		Question: "Is the sky blue?",
		Plain:    true,
		Out:      out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Finalizing decision protocol [OK]")
}

func TestRunAsk_BellRingsThroughConsole(t *testing.T) {
	cfg := fastConfig()
	cfg.Mute = false
	out := &syncBuffer{}
	err := RunAsk(context.Background(), AskOptions{
		Config:   cfg,
		Question: "Is the sky blue?",
		Plain:    true,
		Out:      out,
		Bell:     true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "\a")
}

func TestRunAsk_OneShotRejected(t *testing.T) {
	out := &syncBuffer{}
	err := RunAsk(context.Background(), AskOptions{
		Config:   fastConfig(),
		Question: "sky",
		Plain:    true,
		Out:      out,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuestion)
	assert.Contains(t, out.String(), session.RejectMessage)
}

func TestRunAsk_BadScriptsFile(t *testing.T) {
	cfg := fastConfig()
	cfg.ScriptsFile = "does-not-exist.yaml"
	err := RunAsk(context.Background(), AskOptions{Config: cfg, Question: "Is it?", Out: io.Discard})
	assert.ErrorContains(t, err, "load scripts")
}
