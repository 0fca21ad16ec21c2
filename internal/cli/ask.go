package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/qx32/internal/config"
	"github.com/aretw0/qx32/internal/presentation/tui"
	"github.com/aretw0/qx32/pkg/audio"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/observability"
	"github.com/aretw0/qx32/pkg/session"
)

// AskOptions contains the configuration of the ask command.
type AskOptions struct {
	Config   config.Config
	Question string // one-shot mode when set
	Plain    bool
	Debug    bool
	In       io.Reader
	Out      io.Writer
	Player   audio.Player
	Bell     bool // ring the terminal bell through the console when Player is unset
}

// RunAsk asks a single question, or starts the interactive terminal when no question is given.
func RunAsk(ctx context.Context, opts AskOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	// The console owns the terminal: below warn, logs would interleave with telemetry.
	logger := CreateLogger(max(opts.Config.Level(), slog.LevelWarn), opts.Debug)
	console := tui.NewConsole(opts.Out, tui.WithPlain(opts.Plain))

	if opts.Player == nil && opts.Bell {
		opts.Player = audio.NewBell(console)
	}
	if opts.Player == nil || opts.Config.Mute {
		opts.Player = audio.Nop{}
	}

	hooks := []domain.Hooks{console.Hooks(), observability.LogHooks(logger)}
	if opts.Question == "" {
		hooks = append(hooks, domain.Hooks{
			OnResult: func(string, domain.Result) {
				console.Println("Press ENTER to rerun protocol, or ask again.")
			},
		})
	}
	cluster, err := newCluster(opts.Config, logger, hooks)
	if err != nil {
		return err
	}
	defer cluster.Close()

	if opts.Question != "" {
		sc := NewSignalContext(ctx)
		defer sc.Cancel()

		_, err := cluster.Ask(sc, opts.Question, session.WithPlayer(opts.Player))
		if errors.Is(err, domain.ErrInvalidQuestion) {
			return err
		}
		if isInterrupted(err) {
			fmt.Fprintln(opts.Out)
			printSystemMessage(opts.Out, "Run aborted.")
		}
		return handleExecutionError(err)
	}

	// SIGINT is handled by the loop: it aborts a run instead of killing the process.
	sc := NewSignalContext(ctx, syscall.SIGTERM)
	defer sc.Cancel()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	m := cluster.NewSession(session.WithPlayer(opts.Player))
	defer m.Close()

	if !opts.Plain {
		tui.PrintBanner(opts.Out)
		tui.PrintWarning(opts.Out)
	}
	return runInteractive(sc, m, console, opts.In, interrupts, logger)
}

// runInteractive drives one session from lines read on in.
//
// In IDLE a line is submitted as a question. In REVEALED any line reruns the protocol,
// and a non-empty line is submitted right away. Lines typed during PROCESSING are ignored.
// An interrupt aborts a run in progress, or ends the loop when nothing is running.
func runInteractive(ctx context.Context, m *session.Machine, console *tui.Console, in io.Reader, interrupts <-chan os.Signal, logger *slog.Logger) error {
	lines := readLines(ctx, in)
	console.Phase(domain.PhaseIdle)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-interrupts:
			if m.Phase() == domain.PhaseProcessing {
				if err := m.Reset(); err != nil {
					return err
				}
				console.Println("[CTRL+C] Run aborted.")
				continue
			}
			console.Println("[CTRL+C] Connection closed.")
			return nil

		case line, ok := <-lines:
			if !ok {
				// Piped input: let the last run finish before leaving.
				if m.Phase() == domain.PhaseProcessing {
					if _, err := m.Await(ctx); err != nil && !errors.Is(err, session.ErrAborted) {
						return handleExecutionError(err)
					}
				}
				return nil
			}
			done, err := handleLine(m, console, strings.TrimSpace(line), logger)
			if err != nil || done {
				return err
			}
		}
	}
}

func handleLine(m *session.Machine, console *tui.Console, text string, logger *slog.Logger) (bool, error) {
	switch strings.ToLower(text) {
	case "exit", "quit":
		console.Println("Connection closed.")
		return true, nil
	}

	switch m.Phase() {
	case domain.PhaseProcessing:
		logger.Debug("Input ignored while processing", "session_id", m.ID())
		return false, nil
	case domain.PhaseRevealed:
		if err := m.Rerun(); err != nil {
			return false, err
		}
	}

	m.Keystroke()
	if text == "" {
		return false, nil
	}

	err := m.Submit(text)
	if errors.Is(err, domain.ErrInvalidQuestion) {
		return false, nil
	}
	return false, err
}

// readLines feeds the lines of in to the returned channel, which is closed at EOF.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(NewInterruptibleReader(in, ctx.Done()))
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
