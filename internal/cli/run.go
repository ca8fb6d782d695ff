package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/lockstep"
	"github.com/aretw0/lockstep/internal/presentation/tui"
	"github.com/aretw0/lockstep/pkg/report"
)

// Output selects how a report is printed.
type Output string

const (
	OutputAuto   Output = "auto"
	OutputPlain  Output = "plain"
	OutputJSON   Output = "json"
	OutputPretty Output = "pretty"
)

// ParseOutput validates an output flag.
func ParseOutput(s string) (Output, error) {
	switch o := Output(s); o {
	case "", OutputAuto:
		return OutputAuto, nil
	case OutputPlain, OutputJSON, OutputPretty:
		return o, nil
	default:
		return "", fmt.Errorf("unknown output %q (want auto, plain, json or pretty)", s)
	}
}

// RunSolve answers input and prints the report to w.
// The returned error is non-nil only when no requested mode could be answered.
func RunSolve(ctx context.Context, w io.Writer, svc *lockstep.Service, input []byte, mode report.Mode, out Output, opts ...lockstep.Option) error {
	rep, err := svc.Solve(ctx, input, mode, opts...)
	if rep != nil {
		if perr := PrintReport(w, rep, out); perr != nil {
			return perr
		}
	}
	return err
}

// PrintReport writes rep in the requested format.
// Auto renders markdown on a terminal and plain text otherwise.
func PrintReport(w io.Writer, rep *report.Report, out Output) error {
	if out == OutputAuto {
		out = OutputPlain
		if tui.IsTerminal(w) {
			out = OutputPretty
		}
	}

	switch out {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case OutputPretty:
		rendered, err := tui.NewRenderer()(tui.Markdown(rep))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, rendered)
		return err
	default:
		tui.Summary(w, rep)
		return nil
	}
}
