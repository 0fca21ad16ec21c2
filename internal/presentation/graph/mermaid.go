// Package graph renders status scripts as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/qx32/pkg/domain"
	"github.com/aretw0/qx32/pkg/script"
)

// Overlay marks the path a session took through the chart.
type Overlay struct {
	Snapshot domain.Snapshot
}

// GenerateMermaid produces a Mermaid flowchart of the scripts in set.
// Node shapes:
// - Submit: ((Circle))
// - Status line: [Rectangle]
// - Verdict: {Rhombus}
// - Outcome: ([Stadium])
// With an overlay, committed lines are styled visited (or failed), the line being
// processed or the revealed outcome is styled current.
func GenerateMermaid(set script.Set, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    submit((\"submit\"))\n")
	sb.WriteString("    verdict{\"verdict\"}\n")

	writeChain(&sb, "d", set.Default, "-->")
	if set.Trigger != "" && len(set.EasterEgg) > 0 {
		writeChain(&sb, "e", set.EasterEgg, fmt.Sprintf("-- \"contains '%s'\" -->", escape(set.Trigger)))
	}

	sb.WriteString("    verdict -- \"p > 50\" --> yes([\"YES\"])\n")
	sb.WriteString("    verdict -- \"p <= 50\" --> no([\"NO\"])\n")
	sb.WriteString("    verdict -. \"fault\" .-> fault([\"ERROR\"])\n")

	if overlay != nil {
		writeOverlay(&sb, set, overlay.Snapshot)
	}
	return sb.String()
}

// writeChain links submit to the lines of a script, then to the verdict.
func writeChain(sb *strings.Builder, prefix string, lines []string, entry string) {
	prev, arrow := "submit", entry
	for i, line := range lines {
		id := fmt.Sprintf("%s%d", prefix, i)
		fmt.Fprintf(sb, "    %s[\"%s\"]\n", id, escape(line))
		fmt.Fprintf(sb, "    %s %s %s\n", prev, arrow, id)
		prev, arrow = id, "-->"
	}
	fmt.Fprintf(sb, "    %s %s verdict\n", prev, arrow)
}

func writeOverlay(sb *strings.Builder, set script.Set, snap domain.Snapshot) {
	if snap.Question == nil {
		return
	}
	sb.WriteString("\n    %% Overlay Styles\n")
	// Black text keeps the labels readable on light and dark themes.
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	prefix := "d"
	if set.Trigger != "" && strings.Contains(snap.Question.Normalized, set.Trigger) {
		prefix = "e"
	}

	sb.WriteString("    class submit visited;\n")
	for _, step := range snap.Log {
		class := "visited"
		if step.Status == domain.StepFail {
			class = "failed"
		}
		fmt.Fprintf(sb, "    class %s%d %s;\n", prefix, step.Index, class)
	}

	switch {
	case snap.Phase == domain.PhaseProcessing && len(snap.Log) < len(snap.Script):
		fmt.Fprintf(sb, "    class %s%d current;\n", prefix, len(snap.Log))
	case snap.Phase == domain.PhaseProcessing:
		sb.WriteString("    class verdict current;\n")
	case snap.Result != nil:
		sb.WriteString("    class verdict visited;\n")
		fmt.Fprintf(sb, "    class %s current;\n", outcomeNode(*snap.Result))
	}
}

func outcomeNode(r domain.Result) string {
	switch {
	case r.IsError():
		return "fault"
	case r.Answer == domain.AnswerYes:
		return "yes"
	default:
		return "no"
	}
}

func escape(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
