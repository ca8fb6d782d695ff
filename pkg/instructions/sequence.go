// Package instructions implements the cyclic Left/Right instruction cursor.
//
// A Sequence carries no position of its own: callers thread an absolute step
// counter through Next, so the same Sequence can be shared by any number of
// concurrent walks.
package instructions

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/lockstep/pkg/domain"
)

// Sequence is an immutable, non-empty list of directions consumed cyclically.
type Sequence struct {
	dirs []domain.Direction
}

// New creates a Sequence from dirs.
func New(dirs []domain.Direction) (Sequence, error) {
	if len(dirs) == 0 {
		return Sequence{}, domain.ErrEmptyInstructionSequence
	}
	return Sequence{dirs: slices.Clone(dirs)}, nil
}

// Parse reads a line of L/R characters. Surrounding whitespace is ignored.
func Parse(line string) (Sequence, error) {
	line = strings.TrimSpace(line)
	dirs := make([]domain.Direction, 0, len(line))
	for i, c := range line {
		d, err := domain.ParseDirection(c)
		if err != nil {
			return Sequence{}, fmt.Errorf("instruction %d: %w", i, err)
		}
		dirs = append(dirs, d)
	}
	return New(dirs)
}

// Len returns the logical length L of the sequence.
func (s Sequence) Len() int {
	return len(s.dirs)
}

// Next returns the direction for absolute step position and the following position.
func (s Sequence) Next(position int) (domain.Direction, int) {
	return s.dirs[position%len(s.dirs)], position + 1
}

// Cursor reduces an absolute step to its cursor position.
func (s Sequence) Cursor(position int) int {
	return position % len(s.dirs)
}

func (s Sequence) String() string {
	var sb strings.Builder
	for _, d := range s.dirs {
		sb.WriteString(d.String())
	}
	return sb.String()
}
