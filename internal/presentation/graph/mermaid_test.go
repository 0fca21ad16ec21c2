package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/qx32/internal/presentation/graph"
	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/script"
	"github.com/stretchr/testify/assert"
)

func smallSet() script.Set {
	return script.Set{
		Trigger:   "wormhole",
		Default:   []string{"Warming up", "Thinking \"hard\"", "Done"},
		EasterEgg: []string{"Warming up", "Folding space", "Done"},
	}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		set      script.Set
		contains []string
		excludes []string
	}{
		{
			name: "Chains And Outcomes",
			set:  smallSet(),
			contains: []string{
				"graph TD\n",
				"submit((\"submit\"))",
				"d0[\"Warming up\"]",
				"submit --> d0",
				"d1 --> d2",
				"d2 --> verdict",
				"submit -- \"contains 'wormhole'\" --> e0",
				"e2 --> verdict",
				"verdict -- \"p > 50\" --> yes([\"YES\"])",
				"verdict -. \"fault\" .-> fault([\"ERROR\"])",
			},
		},
		{
			name:     "Quotes Are Escaped",
			set:      smallSet(),
			contains: []string{"d1[\"Thinking 'hard'\"]"},
		},
		{
			name:     "No Easter Egg Without Trigger",
			set:      script.Set{Default: []string{"Only"}},
			contains: []string{"submit --> d0", "d0 --> verdict"},
			excludes: []string{"e0"},
		},
		{
			name:     "Empty Script Goes Straight To Verdict",
			set:      script.Set{},
			contains: []string{"submit --> verdict"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(tt.set, nil)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
			assert.NotContains(t, got, "classDef")
		})
	}
}

func TestGenerateMermaid_OverlayProcessing(t *testing.T) {
	set := smallSet()
	snap := domain.Snapshot{
		Phase:    domain.PhaseProcessing,
		Question: &domain.Question{Normalized: "is a wormhole near?"},
		Script:   set.EasterEgg,
		Log: []domain.StepOutcome{
			{Index: 0, Line: "Warming up", Status: domain.StepOK},
			{Index: 1, Line: "Folding space", Status: domain.StepFail},
		},
	}

	got := graph.GenerateMermaid(set, &graph.Overlay{Snapshot: snap})

	assert.Contains(t, got, "class e0 visited;")
	assert.Contains(t, got, "class e1 failed;")
	assert.Contains(t, got, "class e2 current;")
	assert.NotContains(t, got, "class d0")
}

func TestGenerateMermaid_OverlayRevealed(t *testing.T) {
	set := smallSet()
	cases := map[string]domain.Result{
		"class yes current;":   {Kind: domain.ResultSuccess, Answer: domain.AnswerYes, Probability: 80},
		"class no current;":    {Kind: domain.ResultSuccess, Answer: domain.AnswerNo, Probability: 20},
		"class fault current;": {Kind: domain.ResultError, Code: "QX-1", Message: "boom"},
	}

	for want, result := range cases {
		r := result
		snap := domain.Snapshot{
			Phase:    domain.PhaseRevealed,
			Question: &domain.Question{Normalized: "is it?"},
			Script:   set.Default,
			Result:   &r,
		}
		got := graph.GenerateMermaid(set, &graph.Overlay{Snapshot: snap})
		assert.Contains(t, got, want)
		assert.Contains(t, got, "class verdict visited;")
		assert.Equal(t, 1, strings.Count(got, "current;"))
	}
}

func TestGenerateMermaid_OverlayIdleIsIgnored(t *testing.T) {
	got := graph.GenerateMermaid(smallSet(), &graph.Overlay{Snapshot: domain.Snapshot{Phase: domain.PhaseIdle}})
	assert.NotContains(t, got, "classDef")
}
