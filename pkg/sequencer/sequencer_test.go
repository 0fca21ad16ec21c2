package sequencer

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/qx32/pkg/audio"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lines = []string{
	"Initializing qx32 orbit cluster",
	"Calibrating qubit lattice",
	"Aligning orbital compute channels",
	"Spinning up thermal core",
	"Routing proton stream",
	"Synchronizing anomaly buffer",
	"Contacting deep space relay",
	"Parsing classified data archive",
	"Borrowing power from nearby star",
	"Negotiating with alien neural mesh",
	"Checking NASA firewall integrity",
	"Expanding quantum probability field",
	"Compressing uncertainty states",
	"Finalizing decision protocol",
}

// recorder collects hook invocations.
type recorder struct {
	mu        sync.Mutex
	steps     []domain.StepOutcome
	typing    []string
	glitches  []string
	tones     []audio.Tone
	completed int
	doneAt    time.Time
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnTyping: func(s string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.typing = append(r.typing, s)
		},
		OnGlitch: func(s string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.glitches = append(r.glitches, s)
		},
		OnStep: func(st domain.StepOutcome) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.steps = append(r.steps, st)
		},
		OnTone: func(t audio.Tone) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.tones = append(r.tones, t)
		},
		OnComplete: func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.completed++
			r.doneAt = time.Now()
		},
	}
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func TestRun_EmitsStepsInOrderThenCompletesOnce(t *testing.T) {
	seq := New(WithDuration(150*time.Millisecond), WithRand(seeded(1)), WithGlitch(GlitchConfig{}))
	rec := &recorder{}

	err := seq.Run(context.Background(), lines, false, rec.hooks())
	require.NoError(t, err)

	require.Len(t, rec.steps, len(lines))
	for i, st := range rec.steps {
		assert.Equal(t, i, st.Index)
		assert.Equal(t, lines[i], st.Line)
		assert.Equal(t, domain.StepOK, st.Status)
		if i > 0 {
			assert.False(t, st.At.Before(rec.steps[i-1].At))
		}
	}
	assert.Equal(t, 1, rec.completed)
	assert.False(t, rec.doneAt.Before(rec.steps[len(rec.steps)-1].At))
}

func TestRun_TypesEveryRune(t *testing.T) {
	seq := New(WithDuration(60*time.Millisecond), WithGlitch(GlitchConfig{}))
	rec := &recorder{}

	require.NoError(t, seq.Run(context.Background(), []string{"abc", "¿ñ?"}, false, rec.hooks()))

	assert.Equal(t, []string{"a", "ab", "abc", "¿", "¿ñ", "¿ñ?"}, rec.typing)
}

func TestRun_DurationIndependentOfStepCount(t *testing.T) {
	const budget = 300 * time.Millisecond
	const tolerance = 150 * time.Millisecond

	scripts := map[string][]string{
		"single short": {"ok"},
		"three":        lines[:3],
		"fourteen":     lines,
		"long lines": {
			strings.Repeat("x", 400),
			strings.Repeat("y", 5),
			strings.Repeat("z", 250),
		},
		"empty line": {"", "b", ""},
	}

	for name, script := range scripts {
		t.Run(name, func(t *testing.T) {
			seq := New(WithDuration(budget), WithGlitch(GlitchConfig{}))
			rec := &recorder{}

			start := time.Now()
			require.NoError(t, seq.Run(context.Background(), script, false, rec.hooks()))
			elapsed := time.Since(start)

			assert.Len(t, rec.steps, len(script))
			assert.Equal(t, 1, rec.completed)
			assert.GreaterOrEqual(t, elapsed, budget)
			assert.Less(t, elapsed, budget+tolerance)
		})
	}
}

func TestRun_EmptyScriptStillTakesBudget(t *testing.T) {
	seq := New(WithDuration(50 * time.Millisecond))
	rec := &recorder{}

	start := time.Now()
	require.NoError(t, seq.Run(context.Background(), nil, false, rec.hooks()))

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Empty(t, rec.steps)
	assert.Equal(t, 1, rec.completed)
}

func TestRun_ZeroDurationIsInstant(t *testing.T) {
	seq := New(WithDuration(0))
	rec := &recorder{}

	start := time.Now()
	require.NoError(t, seq.Run(context.Background(), lines, true, rec.hooks()))

	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Len(t, rec.steps, len(lines))
	assert.Equal(t, 1, rec.completed)
}

func TestRun_FailingStepsMatchPlan(t *testing.T) {
	seq := New(WithDuration(0), WithRand(seeded(42)))
	plan := seq.Plan(lines, true)

	failing := plan.Failing()
	require.NotEmpty(t, failing)
	// Re-querying the plan never changes the answer.
	for i := range lines {
		first := plan.Status(i)
		for k := 0; k < 3; k++ {
			assert.Equal(t, first, plan.Status(i))
		}
	}

	rec := &recorder{}
	require.NoError(t, seq.RunPlan(context.Background(), plan, rec.hooks()))

	var reported []int
	for _, st := range rec.steps {
		assert.Equal(t, plan.Status(st.Index), st.Status)
		if st.Status == domain.StepFail {
			reported = append(reported, st.Index)
		}
	}
	assert.Equal(t, failing, reported)
	assert.Contains(t, rec.tones, audio.ToneLineFail)
}

func TestRun_NotFailingReportsAllOK(t *testing.T) {
	seq := New(WithDuration(0))
	plan := seq.Plan(lines, false)
	assert.Empty(t, plan.Failing())
}

func TestPickFailures_Bounds(t *testing.T) {
	rng := seeded(7)
	for n := 6; n <= 40; n++ {
		for trial := 0; trial < 50; trial++ {
			failing := PickFailures(rng, n)

			assert.GreaterOrEqual(t, len(failing), 2, "n=%d", n)
			assert.LessOrEqual(t, len(failing), n/3, "n=%d", n)
			assert.False(t, failing[0], "first step must never fail")
			assert.False(t, failing[n-1], "last step must never fail")
			for idx := range failing {
				assert.True(t, idx > 0 && idx < n-1, "n=%d idx=%d", n, idx)
			}
		}
	}
}

func TestPickFailures_SmallScripts(t *testing.T) {
	rng := seeded(3)
	assert.Empty(t, PickFailures(rng, 0))
	assert.Empty(t, PickFailures(rng, 1))
	assert.Empty(t, PickFailures(rng, 2))
	assert.Equal(t, map[int]bool{1: true}, PickFailures(rng, 3))
	assert.Equal(t, map[int]bool{1: true, 2: true}, PickFailures(rng, 4))
}

func TestPickFailures_ReachesUpperBound(t *testing.T) {
	rng := seeded(11)
	sizes := map[int]bool{}
	for i := 0; i < 500; i++ {
		sizes[len(PickFailures(rng, 14))] = true
	}
	assert.Equal(t, map[int]bool{2: true, 3: true, 4: true}, sizes)
}

func TestRun_CancelStopsScheduling(t *testing.T) {
	seq := New(WithDuration(500 * time.Millisecond))
	rec := &recorder{}

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	err := seq.Run(ctx, lines, false, rec.hooks())
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	rec.mu.Lock()
	stepsAtReturn := len(rec.steps)
	typingAtReturn := len(rec.typing)
	rec.mu.Unlock()

	time.Sleep(100 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Less(t, stepsAtReturn, len(lines))
	assert.Equal(t, stepsAtReturn, len(rec.steps), "no step may be committed after cancellation")
	assert.Equal(t, typingAtReturn, len(rec.typing))
	assert.Equal(t, 0, rec.completed)
}

func TestRun_GlitchesDoNotAffectOutcome(t *testing.T) {
	glitchy := GlitchConfig{
		Enabled:     true,
		MinInterval: time.Millisecond,
		MaxInterval: 3 * time.Millisecond,
		Chance:      1,
		Ratio:       1,
		Flicker:     time.Millisecond,
	}

	run := func(cfg GlitchConfig) *recorder {
		seq := New(WithDuration(200*time.Millisecond), WithRand(seeded(5)), WithGlitch(cfg))
		rec := &recorder{}
		require.NoError(t, seq.Run(context.Background(), lines[:4], true, rec.hooks()))
		return rec
	}

	calm := run(GlitchConfig{})
	noisy := run(glitchy)

	assert.Empty(t, calm.glitches)
	assert.NotEmpty(t, noisy.glitches)
	require.Len(t, noisy.steps, len(calm.steps))
	for i := range calm.steps {
		assert.Equal(t, calm.steps[i].Line, noisy.steps[i].Line)
		assert.Equal(t, calm.steps[i].Status, noisy.steps[i].Status)
	}
	assert.Equal(t, calm.typing, noisy.typing)
	assert.Equal(t, 1, noisy.completed)
}

func TestCorrupt(t *testing.T) {
	rng := seeded(9)

	assert.Equal(t, "abc def", Corrupt(rng, "abc def", 0))

	full := Corrupt(rng, "abc def", 1)
	runes := []rune(full)
	require.Len(t, runes, 7)
	assert.Equal(t, ' ', runes[3], "spaces are preserved")
	for i, r := range runes {
		if i == 3 {
			continue
		}
		assert.Contains(t, string(glyphs), string(r))
	}
}
