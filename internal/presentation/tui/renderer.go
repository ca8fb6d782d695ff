package tui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/lockstep/pkg/report"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// The style follows the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Markdown formats a report as a markdown document.
func Markdown(rep *report.Report) string {
	var sb strings.Builder
	sb.WriteString("# lockstep report\n\n")
	fmt.Fprintf(&sb, "%d nodes, %d instructions", rep.Nodes, rep.Instructions)
	if rep.Cached {
		sb.WriteString(" _(cached)_")
	}
	sb.WriteString("\n\n")

	if s := rep.Single; s != nil {
		sb.WriteString("## Single goal\n\n")
		fmt.Fprintf(&sb, "`%s` reaches `%s` after **%d** steps.\n\n", s.Start, s.Goal, s.Steps)
	}

	if m := rep.Multi; m != nil {
		sb.WriteString("## Synchronized tokens\n\n")
		fmt.Fprintf(&sb, "Every `*%s` token stands on a `*%s` node after **%d** steps (%s).\n\n",
			m.StartSuffix, m.GoalSuffix, m.Steps, m.Method)
		sb.WriteString("| Token | Phase | Period | Residue | Cycle start | Cycle length |\n")
		sb.WriteString("|-------|------:|-------:|--------:|------------:|-------------:|\n")
		for _, tok := range m.Tokens {
			fmt.Fprintf(&sb, "| %s | %d | %d | %d | %d | %d |\n",
				tok.Start, tok.Phase, tok.Period, tok.Residue, tok.CycleStart, tok.CycleLength)
		}
		sb.WriteString("\n")
	}

	if len(rep.Failures) > 0 {
		sb.WriteString("## Failures\n\n")
		for _, f := range rep.Failures {
			fmt.Fprintf(&sb, "- **%s**: %s\n", f.Mode, f.Error)
		}
	}
	return sb.String()
}

// Summary writes a compact, colored report. Colors are dropped when w is not a terminal.
func Summary(w io.Writer, rep *report.Report) {
	out := termenv.NewOutput(w)
	label := func(s string) termenv.Style { return out.String(s).Bold() }

	if s := rep.Single; s != nil {
		fmt.Fprintf(w, "%s %s -> %s: %d\n", label("single"), s.Start, s.Goal, s.Steps)
	}
	if m := rep.Multi; m != nil {
		fmt.Fprintf(w, "%s *%s -> *%s: %d (%s, %d tokens)\n",
			label("multi"), m.StartSuffix, m.GoalSuffix, m.Steps, m.Method, len(m.Tokens))
	}
	for _, f := range rep.Failures {
		fmt.Fprintf(w, "%s %s: %s\n", out.String("failed").Foreground(out.Color("#f87171")), f.Mode, f.Error)
	}
	if rep.Cached {
		fmt.Fprintln(w, out.String("(cached)").Faint())
	}
}
