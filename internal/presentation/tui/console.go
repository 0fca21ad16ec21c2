package tui

import (
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aretw0/qx32/pkg/domain"
	"github.com/muesli/termenv"
)

// Console renders session events as a scrolling telemetry log.
//
// In rich mode the line being typed is redrawn in place; plain mode only prints
// committed lines, so the output is safe to pipe.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	out    *termenv.Output
	plain  bool
	now    func() time.Time
	rng    *rand.Rand
	render func(string) (string, error)
	live   bool
}

// ConsoleOption configures the Console.
type ConsoleOption func(*Console)

// WithPlain disables colours and in-place redraws.
func WithPlain(plain bool) ConsoleOption {
	return func(c *Console) {
		c.plain = plain
	}
}

// WithClock sets the time source of log stamps.
func WithClock(now func() time.Time) ConsoleOption {
	return func(c *Console) {
		c.now = now
	}
}

// WithConsoleRand sets the source of the stamp milliseconds.
func WithConsoleRand(rng *rand.Rand) ConsoleOption {
	return func(c *Console) {
		c.rng = rng
	}
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer, opts ...ConsoleOption) *Console {
	c := &Console{
		w:   w,
		now: time.Now,
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.plain {
		c.out = termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
	} else {
		c.out = termenv.NewOutput(w)
	}
	c.render = NewRenderer(c.plain)
	return c
}

// Stamp formats t as HH:MM:SS followed by a random millisecond suffix.
// The suffix is decorative and unrelated to t.
func (c *Console) Stamp(t time.Time) string {
	return fmt.Sprintf("%s.%03d", t.Format("15:04:05"), c.rng.IntN(999))
}

// Hooks returns callbacks that draw a session on the console.
func (c *Console) Hooks() domain.Hooks {
	return domain.Hooks{
		OnPhase: func(_ string, phase domain.Phase) {
			c.Phase(phase)
		},
		OnTyping: func(_ string, text string) {
			c.typing(text, false)
		},
		OnGlitch: func(_ string, text string) {
			c.typing(text, true)
		},
		OnStep: func(_ string, step domain.StepOutcome) {
			c.Step(step)
		},
		OnResult: func(_ string, r domain.Result) {
			c.Result(r)
		},
		OnReject: func(_ string, msg string) {
			c.Reject(msg)
		},
	}
}

// Phase announces a phase change.
func (c *Console) Phase(phase domain.Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLive()

	switch phase {
	case domain.PhaseIdle:
		fmt.Fprintln(c.w, c.out.String("AWAITING INPUT QUERY...").Faint())
	case domain.PhaseProcessing:
		fmt.Fprintln(c.w, c.out.String("SYSTEM TELEMETRY").Bold().Foreground(c.out.Color(neonDim)))
	}
}

func (c *Console) typing(text string, glitch bool) {
	if c.plain {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	style := c.out.String("> " + text + "█").Foreground(c.out.Color(neon))
	if glitch {
		style = c.out.String("> " + text + "█").Foreground(c.out.Color(alert)).Faint()
	}
	c.out.ClearLine()
	fmt.Fprint(c.w, "\r", style)
	c.live = true
}

// Step prints a committed status line.
func (c *Console) Step(step domain.StepOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLive()

	status := c.out.String("[" + string(step.Status) + "]").Foreground(c.out.Color(neon))
	if step.Status == domain.StepFail {
		status = c.out.String("[" + string(step.Status) + "]").Bold().Foreground(c.out.Color(alert))
	}
	fmt.Fprintf(c.w, "%s %s %s\n",
		c.out.String(c.Stamp(c.now())).Faint(),
		c.out.String(step.Line).Foreground(c.out.Color(neonDim)),
		status,
	)
}

// Result prints the revealed result card.
func (c *Console) Result(r domain.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLive()

	card, err := c.render(ResultMarkdown(r))
	if err != nil {
		card = ResultMarkdown(r)
	}
	fmt.Fprint(c.w, card)
}

// Reject prints a rejection message.
func (c *Console) Reject(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLive()
	fmt.Fprintln(c.w, c.out.String(msg).Foreground(c.out.Color(alert)))
}

// Println prints a system message on its own line.
func (c *Console) Println(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLive()
	fmt.Fprintf(c.w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// clearLive erases the in-place typing line. Callers hold c.mu.
// Write sends raw bytes to the terminal under the console lock, so control
// sequences such as the bell never land inside a line being drawn.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

func (c *Console) clearLive() {
	if !c.live {
		return
	}
	c.out.ClearLine()
	fmt.Fprint(c.w, "\r")
	c.live = false
}
