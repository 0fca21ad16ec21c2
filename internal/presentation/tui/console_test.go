package tui

import (
	"bytes"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/qx32/pkg/audio"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainConsole(buf *bytes.Buffer) *Console {
	clock := func() time.Time { return time.Date(2024, 5, 1, 13, 4, 5, 0, time.UTC) }
	return NewConsole(buf, WithPlain(true), WithClock(clock), WithConsoleRand(rand.New(rand.NewPCG(1, 2))))
}

func TestConsole_StepLines(t *testing.T) {
	var buf bytes.Buffer
	c := plainConsole(&buf)
	h := c.Hooks()

	h.OnTyping("s", "Routing")
	h.OnStep("s", domain.StepOutcome{Index: 4, Line: "Routing proton stream", Status: domain.StepOK})
	h.OnStep("s", domain.StepOutcome{Index: 5, Line: "Synchronizing anomaly buffer", Status: domain.StepFail})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, "plain mode never prints the typing buffer")
	assert.Regexp(t, regexp.MustCompile(`^13:04:05\.\d{3} Routing proton stream \[OK\]$`), lines[0])
	assert.Regexp(t, regexp.MustCompile(`^13:04:05\.\d{3} Synchronizing anomaly buffer \[FAIL\]$`), lines[1])
}

func TestConsole_Stamp(t *testing.T) {
	c := plainConsole(&bytes.Buffer{})
	stamp := c.Stamp(time.Date(2024, 1, 1, 9, 8, 7, 0, time.UTC))
	assert.Regexp(t, `^09:08:07\.\d{3}$`, stamp)
}

func TestConsole_PhasesAndReject(t *testing.T) {
	var buf bytes.Buffer
	c := plainConsole(&buf)
	h := c.Hooks()

	h.OnPhase("s", domain.PhaseIdle)
	h.OnReject("s", "QUERY REJECTED")
	c.Println("Session %s ready", "abc")

	out := buf.String()
	assert.Contains(t, out, "AWAITING INPUT QUERY...")
	assert.Contains(t, out, "QUERY REJECTED")
	assert.Contains(t, out, ">>> Session abc ready")
}

func TestConsole_RichTypingRedrawsInPlace(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	h := c.Hooks()

	h.OnTyping("s", "Ali")
	h.OnGlitch("s", "A#i")
	h.OnStep("s", domain.StepOutcome{Line: "Aligning", Status: domain.StepOK})

	out := buf.String()
	assert.Contains(t, out, "\r")
	assert.Contains(t, out, "Ali")
	assert.Contains(t, out, "Aligning")
}

func TestResultMarkdown(t *testing.T) {
	yes := ResultMarkdown(domain.Result{Kind: domain.ResultSuccess, Answer: domain.AnswerYes, Probability: 73})
	assert.Contains(t, yes, "# YES")
	assert.Contains(t, yes, "73%")

	fault := ResultMarkdown(domain.Result{Kind: domain.ResultError, Code: "QX-0404", Message: "Answer collapsed before observation"})
	assert.Contains(t, fault, "# ERROR QX-0404")
	assert.Contains(t, fault, "Answer collapsed before observation")
}

func TestConsole_ResultCard(t *testing.T) {
	var buf bytes.Buffer
	c := plainConsole(&buf)
	c.Result(domain.Result{Kind: domain.ResultSuccess, Answer: domain.AnswerNo, Probability: 12})

	out := buf.String()
	assert.Contains(t, out, "NO")
	assert.Contains(t, out, "12%")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	PrintWarning(&buf)

	out := buf.String()
	assert.Contains(t, out, "QX32 ORBIT CLUSTER")
	assert.Contains(t, out, "SYS.VER.9.2.1 // ONLINE")
	assert.Contains(t, out, "Each query consumes more energy than a small city.")
}

// overlapWriter fails the test when two writes run at the same time.
type overlapWriter struct {
	t      *testing.T
	inside atomic.Bool
	buf    bytes.Buffer
}

func (w *overlapWriter) Write(p []byte) (int, error) {
	if !w.inside.CompareAndSwap(false, true) {
		w.t.Error("concurrent write to the terminal")
		return len(p), nil
	}
	defer w.inside.Store(false)
	time.Sleep(10 * time.Microsecond)
	return w.buf.Write(p)
}

func TestConsole_BellSharesTheConsoleLock(t *testing.T) {
	w := &overlapWriter{t: t}
	c := NewConsole(w)
	h, err := audio.NewBell(c).Open()
	require.NoError(t, err)
	defer h.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, h.Play(audio.ToneLineFail))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			c.typing("Aligning", false)
			c.Step(domain.StepOutcome{Line: "Aligning", Status: domain.StepOK})
		}
	}()
	wg.Wait()

	assert.Equal(t, 50, strings.Count(w.buf.String(), "\a"))
}
