// Package testutils holds puzzle fixtures shared by tests across packages.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CamelInput reaches ZZZ from AAA in 2 steps.
const CamelInput = `RL

AAA = (BBB, CCC)
BBB = (DDD, EEE)
CCC = (ZZZ, GGG)
DDD = (DDD, DDD)
EEE = (EEE, EEE)
GGG = (GGG, GGG)
ZZZ = (ZZZ, ZZZ)
`

// RepeatInput needs the instructions to wrap: AAA reaches ZZZ in 6 steps.
// Its only A-suffixed start is AAA, so the multi-goal answer is 6 as well.
const RepeatInput = `LLR

AAA = (BBB, BBB)
BBB = (AAA, ZZZ)
ZZZ = (ZZZ, ZZZ)
`

// GhostInput has two tokens, 11A with period 2 and 22A with period 3,
// that first stand on Z-suffixed nodes together at step 6. It has no AAA.
const GhostInput = `LR

11A = (11B, XXX)
11B = (XXX, 11Z)
11Z = (11B, XXX)
22A = (22B, XXX)
22B = (22C, 22C)
22C = (22Z, 22Z)
22Z = (22B, 22B)
XXX = (XXX, XXX)
`

// WriteInput writes content to a file in a fresh temp dir and returns its path.
func WriteInput(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write input fixture")
	return path
}
