package observability_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	h := m.Hooks()

	h.OnPhase("s1", domain.PhaseProcessing)
	h.OnPhase("s1", domain.PhaseRevealed)
	h.OnReject("s1", "nope")
	h.OnStep("s1", domain.StepOutcome{Status: domain.StepOK})
	h.OnStep("s1", domain.StepOutcome{Status: domain.StepOK})
	h.OnStep("s1", domain.StepOutcome{Status: domain.StepFail})
	h.OnResult("s1", domain.Result{Kind: domain.ResultSuccess, Answer: domain.AnswerYes, Probability: 73})
	h.OnResult("s1", domain.Result{Kind: domain.ResultError, Code: "QX-0042"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Steps.WithLabelValues("OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("FAIL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Results.WithLabelValues("SUCCESS", "YES")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Results.WithLabelValues("ERROR", "")))

	series, err := testutil.GatherAndCount(reg, "qx32_steps_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := observability.LogHooks(logger)

	h.OnPhase("s1", domain.PhaseProcessing)
	h.OnStep("s1", domain.StepOutcome{Index: 3, Line: "Routing proton stream", Status: domain.StepFail})
	h.OnResult("s1", domain.Result{Kind: domain.ResultError, Code: "QX-0404", Message: "gone"})

	out := buf.String()
	assert.Contains(t, out, "phase=PROCESSING")
	assert.Contains(t, out, `line="Routing proton stream"`)
	assert.Contains(t, out, "code=QX-0404")
	assert.Contains(t, out, "level=WARN")
}
