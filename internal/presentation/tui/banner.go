package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the lockstep banner followed by version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{" _            _        _             ", "#818cf8"},
		{"| | ___   ___| | _____| |_ ___ _ __  ", "#a78bfa"},
		{"| |/ _ \\ / __| |/ / __| __/ _ \\ '_ \\ ", "#c084fc"},
		{"| | (_) | (__|   <\\__ \\ ||  __/ |_) |", "#e879f9"},
		{"|_|\\___/ \\___|_|\\_\\___/\\__\\___| .__/ ", "#f472b6"},
		{"                              |_|    ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
