package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/qx32/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Plain renderers use the notty style so the output carries no escape codes.
func NewRenderer(plain bool) func(string) (string, error) {
	style := glamour.WithAutoStyle()
	if plain {
		style = glamour.WithStandardStyle("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(72))
	if err != nil {
		return func(markdown string) (string, error) {
			return markdown, nil
		}
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ResultMarkdown describes a revealed result as a markdown card.
func ResultMarkdown(r domain.Result) string {
	var b strings.Builder
	if r.IsError() {
		fmt.Fprintf(&b, "# ERROR %s\n\n", r.Code)
		fmt.Fprintf(&b, "> %s\n\n", r.Message)
		b.WriteString("The cluster could not reach a verdict.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "# %s\n\n", r.Answer)
	fmt.Fprintf(&b, "**Probability:** %d%%\n", r.Probability)
	return b.String()
}
